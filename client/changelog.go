package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ChangeLogService handles change log operations.
type ChangeLogService struct {
	c *Client
}

// Record writes one change record and returns the stored entry.
func (s *ChangeLogService) Record(ctx context.Context, req *RecordChangeRequest) (*ChangeRecord, error) {
	var rec ChangeRecord
	if err := s.c.post(ctx, "/api/v1/changelog", req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Query returns one page of change records matching the given options.
func (s *ChangeLogService) Query(ctx context.Context, opts *ChangeLogQueryOptions) (*ChangeLogPage, error) {
	params := url.Values{}
	if opts != nil {
		if opts.EntityType != "" {
			params.Set("entity_type", opts.EntityType)
		}
		if opts.EntityID > 0 {
			params.Set("entity_id", strconv.FormatInt(opts.EntityID, 10))
		}
		if opts.DepartmentID > 0 {
			params.Set("department_id", strconv.FormatInt(opts.DepartmentID, 10))
		}
		if opts.Actor != "" {
			params.Set("actor", opts.Actor)
		}
		if opts.Target != "" {
			params.Set("target", opts.Target)
		}
		if len(opts.Actions) > 0 {
			params.Set("actions", strings.Join(opts.Actions, ","))
		}
		if opts.From != nil {
			params.Set("from", opts.From.Format(time.RFC3339))
		}
		if opts.To != nil {
			params.Set("to", opts.To.Format(time.RFC3339))
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var page ChangeLogPage
	if err := s.c.get(ctx, "/api/v1/changelog", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Purge deletes records older than retentionDays. Returns count deleted.
func (s *ChangeLogService) Purge(ctx context.Context, retentionDays int) (int, error) {
	params := url.Values{}
	if retentionDays > 0 {
		params.Set("retention_days", strconv.Itoa(retentionDays))
	}
	var resp struct {
		Deleted       int `json:"deleted"`
		RetentionDays int `json:"retention_days"`
	}
	if err := s.c.del(ctx, "/api/v1/changelog", params, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}
