// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the two authentication schemes of the panel:
//
//   - SessionAuth verifies dashboard operator tokens (x-auth-token header or
//     a Bearer Authorization header, plus ?token= for EventSource clients
//     that cannot set headers) and stores the operator in the Gin context.
//   - SharedSecret guards the workflow-engine endpoints with a static token
//     (x-n8n-token header or Bearer Authorization).
//
// Both respond with a JSON body and abort the chain on failure.
package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wa-handoff-panel/internal/auth"
)

const (
	// HeaderAuthToken carries the dashboard session token.
	HeaderAuthToken = "X-Auth-Token"
	// HeaderN8NToken carries the workflow-engine shared secret.
	HeaderN8NToken = "X-N8N-Token"

	ctxKeyUser     = "auth.user"
	ctxKeyUserID   = "userID"
	ctxKeyClientID = "clientId"
)

// TokenVerifier turns a session token into an operator identity.
type TokenVerifier interface {
	Verify(token string) (auth.User, error)
}

// SessionOptions tunes SessionAuth.
type SessionOptions struct {
	// AllowQueryToken accepts ?token= in addition to headers.
	AllowQueryToken bool
}

// SessionAuth rejects requests without a valid session token.
func SessionAuth(v TokenVerifier, opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := c.GetHeader(HeaderAuthToken)
		if tok == "" {
			tok = bearer(c.GetHeader("Authorization"))
		}
		if tok == "" && opts.AllowQueryToken {
			tok = c.Query("token")
		}

		u, err := v.Verify(tok)
		if err != nil {
			msg := "invalid token"
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				msg = "no token, authorization denied"
			case errors.Is(err, auth.ErrExpiredToken):
				msg = "token expired"
			}
			LoggerFrom(c).Debug().Err(err).Msg("session auth rejected")
			abort(c, http.StatusUnauthorized, "unauthorized", msg)
			return
		}

		c.Set(ctxKeyUser, u)
		c.Set(ctxKeyUserID, u.ID)
		if u.ClientID != "" {
			c.Set(ctxKeyClientID, u.ClientID)
		}
		c.Next()
	}
}

// UserFrom returns the operator stored by SessionAuth.
func UserFrom(c *gin.Context) (auth.User, bool) {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return auth.User{}, false
	}
	u, ok := v.(auth.User)
	return u, ok
}

// SetClientID records the tenant a request resolved to, for access logs.
func SetClientID(c *gin.Context, clientID string) {
	if clientID != "" {
		c.Set(ctxKeyClientID, clientID)
	}
}

// SharedSecret compares the workflow-engine token in constant time. An empty
// expected token answers 500: the server is misconfigured, not the caller.
func SharedSecret(expected string) gin.HandlerFunc {
	want := []byte(expected)
	return func(c *gin.Context) {
		got := c.GetHeader(HeaderN8NToken)
		if got == "" {
			got = bearer(c.GetHeader("Authorization"))
		}
		switch {
		case got == "":
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "workflow token required"})
		case len(want) == 0:
			LoggerFrom(c).Error().Msg("N8N_API_TOKEN is not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "server token not configured"})
		case subtle.ConstantTimeCompare([]byte(got), want) != 1:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid workflow token"})
		default:
			c.Next()
		}
	}
}

// bearer strips a case-insensitive "Bearer " prefix. Anything else is returned
// as is, trimmed.
func bearer(h string) string {
	h = strings.TrimSpace(h)
	if len(h) >= 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}

func requestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		return asString(v)
	}
	return c.Writer.Header().Get(requestIDHeader)
}
