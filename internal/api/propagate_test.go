package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/orderdesk/backoffice/internal/api"
	"github.com/orderdesk/backoffice/internal/models"
)

func TestPropagateServiceKit_Valid(t *testing.T) {
	t.Parallel()

	var got models.ServiceKitChangeRequest
	p := &mockPropagator{
		serviceKitFn: func(_ context.Context, req models.ServiceKitChangeRequest) (int, error) {
			got = req
			return 3, nil
		},
	}

	r := newTestRouter()
	h := api.NewPropagateHandler(p, testLogger())
	r.POST("/propagate/service-kit", h.ServiceKit)

	body := `{"actor_id":1,"kit_id":50,"field":"address","old_value":"12 Main St","new_value":"9 Side St"}`
	w := doRequest(r, http.MethodPost, "/propagate/service-kit", body)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["records_written"] != 3 {
		t.Errorf("records_written = %d, want 3", resp["records_written"])
	}
	if got.KitID != 50 || got.Field != "address" {
		t.Errorf("request = %+v", got)
	}
}

func TestPropagateServiceKit_MissingFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "no actor", body: `{"kit_id":50,"field":"name"}`},
		{name: "no kit", body: `{"actor_id":1,"field":"name"}`},
		{name: "no field", body: `{"actor_id":1,"kit_id":50}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter()
			h := api.NewPropagateHandler(&mockPropagator{}, testLogger())
			r.POST("/propagate/service-kit", h.ServiceKit)

			w := doRequest(r, http.MethodPost, "/propagate/service-kit", tc.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestPropagateBooking_Valid(t *testing.T) {
	t.Parallel()

	p := &mockPropagator{
		bookingFn: func(_ context.Context, req models.BookingChangeRequest) (int, error) {
			if req.Before == nil || req.After == nil {
				t.Error("snapshots not bound from the body")
			}
			return 1, nil
		},
	}

	r := newTestRouter()
	h := api.NewPropagateHandler(p, testLogger())
	r.POST("/propagate/booking", h.Booking)

	body := `{
		"actor_id": 1,
		"before": {"id":100,"status":"scheduled","date":"2026-03-14T10:00:00Z","order_id":300},
		"after":  {"id":100,"status":"confirmed","date":"2026-03-14T10:00:00Z","order_id":300}
	}`
	w := doRequest(r, http.MethodPost, "/propagate/booking", body)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPropagateBooking_MissingSnapshots(t *testing.T) {
	t.Parallel()

	p := &mockPropagator{
		bookingFn: func(_ context.Context, _ models.BookingChangeRequest) (int, error) {
			return 0, models.ErrMissingSnapshots
		},
	}

	r := newTestRouter()
	h := api.NewPropagateHandler(p, testLogger())
	r.POST("/propagate/booking", h.Booking)

	w := doRequest(r, http.MethodPost, "/propagate/booking", `{"actor_id":1}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPropagateBookingDeleted_Valid(t *testing.T) {
	t.Parallel()

	p := &mockPropagator{
		bookingDeleteFn: func(_ context.Context, req models.BookingDeleteRequest) (int, error) {
			if req.Final == nil {
				t.Error("final snapshot not bound from the body")
			}
			return 1, nil
		},
	}

	r := newTestRouter()
	h := api.NewPropagateHandler(p, testLogger())
	r.POST("/propagate/booking-deleted", h.BookingDeleted)

	body := `{"actor_id":1,"final":{"id":100,"status":"scheduled","date":"2026-03-14T10:00:00Z","order_id":300}}`
	w := doRequest(r, http.MethodPost, "/propagate/booking-deleted", body)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["records_written"] != 1 {
		t.Errorf("records_written = %d, want 1", resp["records_written"])
	}
}

func TestPropagateBookingDeleted_MissingActor(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewPropagateHandler(&mockPropagator{}, testLogger())
	r.POST("/propagate/booking-deleted", h.BookingDeleted)

	w := doRequest(r, http.MethodPost, "/propagate/booking-deleted", `{"final":{"id":100}}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
