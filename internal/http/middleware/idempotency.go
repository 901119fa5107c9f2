// Manual replies accept an Idempotency-Key so an operator's retry (double
// click, flaky network) does not deliver the same WhatsApp message twice.
// Mount the validator after SessionAuth: keys are scoped per operator.

package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the operator's idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key IdempotencyValidator accepted.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// IsReplay reports whether the key already produced a stored message.
func IsReplay(c *gin.Context) bool { return c.GetBool(ctxKeyIdemReplay) }

// IdempotencyOptions configures IdempotencyValidator. Zero values mean a
// 200 byte limit, the URL-safe character set and the "chatId" parameter.
type IdempotencyOptions struct {
	MaxLen    int
	Pattern   *regexp.Regexp
	ChatParam string
}

func (o IdempotencyOptions) withDefaults() IdempotencyOptions {
	if o.MaxLen <= 0 {
		o.MaxLen = 200
	}
	if o.Pattern == nil {
		o.Pattern = defaultKeyPattern
	}
	if o.ChatParam == "" {
		o.ChatParam = "chatId"
	}
	return o
}

// IdempotencyLookup reports whether an unexpired record exists for the
// operator, chat and key. A lookup error counts as a miss.
type IdempotencyLookup func(ctx context.Context, userID, chatID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator checks an Idempotency-Key when one is sent. A bad
// key is a 400. A key that already produced a message marks the request as
// a replay, which the rate limiter lets through.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	opts = opts.withDefaults()

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > opts.MaxLen || !opts.Pattern.MatchString(key) {
			abort(c, http.StatusBadRequest, "bad_idempotency_key", "invalid Idempotency-Key")
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			exists, err := lookup(c.Request.Context(), userIDFromCtx(c), c.Param(opts.ChatParam), key, time.Now().UTC())
			if err == nil && exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

// userIDFromCtx returns the operator id set by SessionAuth, or "anonymous".
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "anonymous"
}
