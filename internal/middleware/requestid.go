package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the gin context key holding the canonical request id.
	RequestIDKey = "request_id"

	// RequestIDHeader carries the request id back to the caller.
	RequestIDHeader = "X-Request-ID"
)

// RequestID mints a fresh server-side UUID per request. The id ties handler
// logs to the change records a request wrote, so it must be trustworthy:
// a client-sent X-Request-ID is logged as client_request_id for correlation
// but never adopted as the canonical id.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" {
			log.WithFields(logrus.Fields{
				"request_id":        id,
				"client_request_id": clientID,
			}).Debug("client request id recorded alongside server id")
			c.Set("client_request_id", clientID)
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
