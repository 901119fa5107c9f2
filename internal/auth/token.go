// Package auth verifies dashboard session tokens. Tokens are HS256 JWTs
// issued by the panel's login service and carry the operator identity under
// a "user" claim: {"user": {"id", "role", "clientId"}}.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tbourn/wa-handoff-panel/internal/sse"
)

var (
	// ErrMissingToken is returned for an empty token string.
	ErrMissingToken = errors.New("auth: no token")
	// ErrExpiredToken is returned when the token's exp is in the past.
	ErrExpiredToken = errors.New("auth: token expired")
	// ErrInvalidToken covers bad signatures, malformed tokens and tokens
	// without a user payload.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// User is the operator identity carried by a session token.
type User struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	ClientID string `json:"clientId"`
}

// IsAdmin reports whether u may act on any tenant.
func (u User) IsAdmin() bool { return u.Role == sse.RoleAdmin }

// Identity converts u into the identity used to scope SSE sessions.
func (u User) Identity() sse.Identity {
	return sse.Identity{UserID: u.ID, Role: u.Role, ClientID: u.ClientID}
}

// Claims is the JWT claim set of a session token.
type Claims struct {
	User *User `json:"user"`
	jwt.RegisteredClaims
}

// Verifier checks HMAC-signed session tokens.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

// NewVerifier returns a Verifier for secret. An empty secret yields a
// verifier that rejects every token.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), leeway: 5 * time.Second}
}

// Verify parses token and returns the user it carries.
func (v *Verifier) Verify(token string) (User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return User{}, ErrMissingToken
	}
	if len(v.secret) == 0 {
		return User{}, fmt.Errorf("%w: verifier has no secret", ErrInvalidToken)
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return User{}, ErrExpiredToken
	case err != nil:
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.User == nil || claims.User.ID == "" {
		return User{}, fmt.Errorf("%w: no user payload", ErrInvalidToken)
	}
	return *claims.User, nil
}
