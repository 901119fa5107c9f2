// Package whatsapp relays text messages to end users through the WhatsApp
// Business Cloud (Graph) API. Each tenant sends with its own access token;
// the tenant's client id doubles as the phone-number id in request URLs.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"

	"github.com/tbourn/wa-handoff-panel/internal/repo"
)

// DefaultBaseURL is the Graph API root used when none is configured.
const DefaultBaseURL = "https://graph.facebook.com/v22.0"

var (
	// ErrMissingParams is returned when client id, phone or body is empty.
	ErrMissingParams = errors.New("whatsapp: clientId, phone and message are required")
	// ErrNoToken is returned when the tenant is unknown or has no token.
	ErrNoToken = errors.New("whatsapp: tenant has no access token")
)

// TokenStore resolves a tenant's Graph API access token.
type TokenStore interface {
	Token(ctx context.Context, clientID string) (string, error)
}

// DBTokens reads tokens from the tenants table.
type DBTokens struct{ DB *gorm.DB }

// Token implements TokenStore.
func (t DBTokens) Token(ctx context.Context, clientID string) (string, error) {
	tn, err := repo.GetTenant(ctx, t.DB, clientID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNoToken, clientID)
		}
		return "", err
	}
	if tn.WhatsAppToken == "" {
		return "", fmt.Errorf("%w: %s", ErrNoToken, clientID)
	}
	return tn.WhatsAppToken, nil
}

// Client sends messages to the Graph API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenStore
}

// New returns a Client whose transport is traced with otelhttp.
func New(baseURL string, timeout time.Duration, tokens TokenStore) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Tokens: tokens,
	}
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

// APIError is a non-2xx answer from the Graph API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("whatsapp: graph api status %d", e.StatusCode)
	}
	return fmt.Sprintf("whatsapp: graph api status %d: %s", e.StatusCode, e.Message)
}

// Digits keeps only the decimal digits of phone.
func Digits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Send posts a text message for clientID to phone.
func (c *Client) Send(ctx context.Context, clientID, phone, body string) error {
	to := Digits(phone)
	if clientID == "" || to == "" || body == "" {
		return ErrMissingParams
	}
	token, err := c.Tokens.Token(ctx, clientID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(textMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", c.BaseURL, clientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
}

// errorMessage extracts error.message from a Graph API error body.
func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
