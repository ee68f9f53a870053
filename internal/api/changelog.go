package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/orderdesk/backoffice/internal/domain"
	"github.com/orderdesk/backoffice/internal/models"
)

// ChangeLogHandler serves the change log endpoints.
type ChangeLogHandler struct {
	recorder  domain.Recorder
	query     domain.ChangeLogQuery
	admin     domain.ChangeLogAdmin
	retention int
	log       *logrus.Logger
}

// NewChangeLogHandler creates a ChangeLogHandler. retention is the default
// purge window in days when the request does not specify one.
func NewChangeLogHandler(recorder domain.Recorder, query domain.ChangeLogQuery, admin domain.ChangeLogAdmin, retention int, log *logrus.Logger) *ChangeLogHandler {
	return &ChangeLogHandler{recorder: recorder, query: query, admin: admin, retention: retention, log: log}
}

// Record handles POST /api/v1/changelog.
func (h *ChangeLogHandler) Record(c *gin.Context) {
	var req models.RecordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := h.recorder.Record(c.Request.Context(), req)
	if err != nil {
		h.recordError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// recordError maps recorder failures onto API error responses.
func (h *ChangeLogHandler) recordError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrActorNotFound):
		respondError(c, http.StatusUnprocessableEntity, ErrCodeValidationError, "actor not found")
	case errors.Is(err, models.ErrInvalidEntityType),
		errors.Is(err, models.ErrMissingActor),
		errors.Is(err, models.ErrMissingSnapshots):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	default:
		h.log.WithError(err).Error("failed to record change")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to record change")
	}
}

// List handles GET /api/v1/changelog.
func (h *ChangeLogHandler) List(c *gin.Context) {
	f := models.ChangeLogFilter{
		EntityType:  models.EntityType(c.Query("entity_type")),
		ActorQuery:  c.Query("actor"),
		TargetQuery: c.Query("target"),
		Limit:       parseInt(c.Query("limit"), 50),
		Offset:      parseOffset(c.Query("offset")),
	}

	if f.EntityType != "" && !f.EntityType.Valid() {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown entity_type")
		return
	}

	if raw := c.Query("entity_id"); raw != "" {
		id := parseID(raw)
		if id == 0 {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "entity_id must be a positive integer")
			return
		}
		f.EntityID = &id
	}

	if raw := c.Query("department_id"); raw != "" {
		id := parseID(raw)
		if id == 0 {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "department_id must be a positive integer")
			return
		}
		f.ScopeDepartmentID = &id
	}

	if raw := c.Query("actions"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				f.Actions = append(f.Actions, models.ActionTag(a))
			}
		}
	}

	var ok bool
	if f.From, ok = parseTimeParam(c, "from"); !ok {
		return
	}
	if f.To, ok = parseTimeParam(c, "to"); !ok {
		return
	}

	page, err := h.query.List(c.Request.Context(), f)
	if err != nil {
		h.log.WithError(err).Error("failed to query change log")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to query change log")
		return
	}

	c.JSON(http.StatusOK, page)
}

// parseTimeParam parses an RFC3339 query parameter, responding with a 400
// on malformed input.
func parseTimeParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid "+name+" format, use RFC3339")
		return nil, false
	}

	return &t, true
}

// Purge handles DELETE /api/v1/changelog.
func (h *ChangeLogHandler) Purge(c *gin.Context) {
	retentionDays := h.retention
	if rd := c.Query("retention_days"); rd != "" {
		v, err := strconv.Atoi(rd)
		if err != nil || v < 1 {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "retention_days must be a positive integer")
			return
		}
		retentionDays = v
	}

	deleted, err := h.admin.PurgeOldEntries(c.Request.Context(), retentionDays)
	if err != nil {
		h.log.WithError(err).Error("failed to purge change log entries")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to purge change log entries")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted":        deleted,
		"retention_days": retentionDays,
	})
}
