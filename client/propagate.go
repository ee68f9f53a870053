package client

import "context"

// PropagateService handles post-commit propagation operations.
type PropagateService struct {
	c *Client
}

// propagateResponse wraps a propagation result.
type propagateResponse struct {
	RecordsWritten int `json:"records_written"`
}

// ServiceKitChanged propagates a committed service kit field change onto
// referencing bookings and their linked orders. Returns records written.
func (s *PropagateService) ServiceKitChanged(ctx context.Context, req *ServiceKitChangeRequest) (int, error) {
	var resp propagateResponse
	if err := s.c.post(ctx, "/api/v1/changelog/propagate/service-kit", req, &resp); err != nil {
		return 0, err
	}
	return resp.RecordsWritten, nil
}

// BookingChanged propagates a committed booking change onto its linked
// order. Returns records written.
func (s *PropagateService) BookingChanged(ctx context.Context, req *BookingChangeRequest) (int, error) {
	var resp propagateResponse
	if err := s.c.post(ctx, "/api/v1/changelog/propagate/booking", req, &resp); err != nil {
		return 0, err
	}
	return resp.RecordsWritten, nil
}

// BookingDeleted writes a terminal record on the deleted booking's linked
// order. Returns records written.
func (s *PropagateService) BookingDeleted(ctx context.Context, req *BookingDeleteRequest) (int, error) {
	var resp propagateResponse
	if err := s.c.post(ctx, "/api/v1/changelog/propagate/booking-deleted", req, &resp); err != nil {
		return 0, err
	}
	return resp.RecordsWritten, nil
}
