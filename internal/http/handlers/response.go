// Package handlers holds the gin handlers of the panel API.
//
// Two error shapes are in use. Dashboard endpoints answer with ErrorResponse
// (a stable code plus a message). The workflow-engine endpoints keep the
// {success, error} body the automation flows already parse.
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wa-handoff-panel/internal/http/middleware"
)

// ErrorResponse is the failure body of the dashboard endpoints.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"0b6f5c1e-6a1d-4a53-9d1a-6f0f2a9e4b11"`
	Code      string `json:"code" example:"chat_not_found"`
	Message   string `json:"message" example:"chat not found"`
}

// EngineError is the failure body of the workflow-engine endpoints.
type EngineError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// fail aborts with an ErrorResponse. Server-side failures are logged with
// the request logger so the request ID ties the log line to the reply.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("dashboard request failed")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail lets the router answer fallbacks in the dashboard error shape.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// engineFail aborts with an EngineError.
func engineFail(c *gin.Context, status int, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("message", msg).
			Msg("workflow request failed")
	}
	c.AbortWithStatusJSON(status, EngineError{Success: false, Error: msg})
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// weakETag renders a list fingerprint. A nil newest time counts as zero so
// an empty list still gets a stable tag.
func weakETag(kind string, newest *time.Time, parts ...any) string {
	var ts int64
	if newest != nil {
		ts = newest.UnixNano()
	}
	fields := make([]string, 0, len(parts)+2)
	fields = append(fields, kind)
	for _, p := range parts {
		fields = append(fields, fmt.Sprint(p))
	}
	fields = append(fields, fmt.Sprint(ts))
	return `W/"` + strings.Join(fields, ":") + `"`
}

// notModified sets the ETag header and answers 304 when the client already
// holds that version. It reports whether the response was written.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
