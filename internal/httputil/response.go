// Package httputil holds the error envelope shared by every HTTP handler.
package httputil

import "github.com/gin-gonic/gin"

// RespondError aborts the request with a {code, message, request_id} JSON
// body. code is a stable machine-readable string (see api.ErrCode*); the
// request id, when present, lets callers quote the exact request in bug
// reports against the audit trail.
func RespondError(c *gin.Context, status int, code, message string) {
	var requestID string
	if rid, exists := c.Get("request_id"); exists {
		if s, ok := rid.(string); ok {
			requestID = s
		}
	}

	resp := map[string]string{
		"code":    code,
		"message": message,
	}

	if requestID != "" {
		resp["request_id"] = requestID
	}

	c.AbortWithStatusJSON(status, resp)
}
