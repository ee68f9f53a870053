package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/orderdesk/backoffice/internal/domain"
	"github.com/orderdesk/backoffice/internal/models"
)

// PropagateHandler serves the post-commit propagation endpoints. Callers
// invoke these after a business mutation commits; the response reports how
// many secondary records were written.
type PropagateHandler struct {
	propagator domain.Propagator
	log        *logrus.Logger
}

// NewPropagateHandler creates a PropagateHandler.
func NewPropagateHandler(propagator domain.Propagator, log *logrus.Logger) *PropagateHandler {
	return &PropagateHandler{propagator: propagator, log: log}
}

// ServiceKit handles POST /api/v1/changelog/propagate/service-kit.
func (h *PropagateHandler) ServiceKit(c *gin.Context) {
	var req models.ServiceKitChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body: "+err.Error())
		return
	}

	if req.ActorID <= 0 || req.KitID <= 0 || req.Field == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "actor_id, kit_id, and field are required")
		return
	}

	written, err := h.propagator.ServiceKitChanged(c.Request.Context(), req)
	if err != nil {
		h.log.WithError(err).Error("service kit propagation failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "propagation failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"records_written": written})
}

// Booking handles POST /api/v1/changelog/propagate/booking.
func (h *PropagateHandler) Booking(c *gin.Context) {
	var req models.BookingChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body: "+err.Error())
		return
	}

	if req.ActorID <= 0 {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "actor_id is required")
		return
	}

	written, err := h.propagator.BookingChanged(c.Request.Context(), req)
	if err != nil {
		h.propagationError(c, err, "booking propagation failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"records_written": written})
}

// BookingDeleted handles POST /api/v1/changelog/propagate/booking-deleted.
func (h *PropagateHandler) BookingDeleted(c *gin.Context) {
	var req models.BookingDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body: "+err.Error())
		return
	}

	if req.ActorID <= 0 {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "actor_id is required")
		return
	}

	written, err := h.propagator.BookingDeleted(c.Request.Context(), req)
	if err != nil {
		h.propagationError(c, err, "booking deletion propagation failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"records_written": written})
}

func (h *PropagateHandler) propagationError(c *gin.Context, err error, msg string) {
	if errors.Is(err, models.ErrMissingSnapshots) {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "booking snapshots are required")
		return
	}

	h.log.WithError(err).Error(msg)
	respondError(c, http.StatusInternalServerError, ErrCodeInternalError, msg)
}
