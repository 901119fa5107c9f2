package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestVerify(t *testing.T) {
	v := NewVerifier("s3cret")
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))
	alice := &User{ID: "u1", Role: "client", ClientID: "T1"}

	tests := []struct {
		name    string
		token   string
		want    User
		wantErr error
	}{
		{
			name:  "valid",
			token: sign(t, "s3cret", jwt.SigningMethodHS256, Claims{User: alice, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}),
			want:  *alice,
		},
		{
			name:    "expired",
			token:   sign(t, "s3cret", jwt.SigningMethodHS256, Claims{User: alice, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: past}}),
			wantErr: ErrExpiredToken,
		},
		{
			name:    "wrong secret",
			token:   sign(t, "other", jwt.SigningMethodHS256, Claims{User: alice}),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong algorithm",
			token:   sign(t, "s3cret", jwt.SigningMethodHS512, Claims{User: alice}),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "no user payload",
			token:   sign(t, "s3cret", jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}),
			wantErr: ErrInvalidToken,
		},
		{name: "garbage", token: "not.a.jwt", wantErr: ErrInvalidToken},
		{name: "empty", token: "  ", wantErr: ErrMissingToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := v.Verify(tc.token)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("user = %+v", got)
			}
		})
	}
}

func TestVerify_NoSecretRejects(t *testing.T) {
	tok := sign(t, "x", jwt.SigningMethodHS256, Claims{User: &User{ID: "u1"}})
	if _, err := NewVerifier("").Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v", err)
	}
}

func TestUser_Identity(t *testing.T) {
	u := User{ID: "u1", Role: "admin", ClientID: ""}
	if !u.IsAdmin() {
		t.Fatal("admin not recognised")
	}
	id := u.Identity()
	if id.UserID != "u1" || id.Role != "admin" {
		t.Fatalf("identity = %+v", id)
	}
}
