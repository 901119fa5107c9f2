package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/wa-handoff-panel/internal/auth"
	"github.com/tbourn/wa-handoff-panel/internal/domain"
	"github.com/tbourn/wa-handoff-panel/internal/http/middleware"
	"github.com/tbourn/wa-handoff-panel/internal/repo"
	"github.com/tbourn/wa-handoff-panel/internal/services"
	"github.com/tbourn/wa-handoff-panel/internal/sse"
)

const testWorkflowToken = "wf-secret"

// tokenTable is a TokenVerifier keyed by literal token strings.
type tokenTable map[string]auth.User

func (tt tokenTable) Verify(tok string) (auth.User, error) {
	if tok == "" {
		return auth.User{}, auth.ErrMissingToken
	}
	u, found := tt[tok]
	if !found {
		return auth.User{}, auth.ErrInvalidToken
	}
	return u, nil
}

var testTokens = tokenTable{
	"admin": {ID: "a1", Role: sse.RoleAdmin},
	"t1":    {ID: "u1", Role: sse.RoleClient, ClientID: "T1"},
	"t2":    {ID: "u2", Role: sse.RoleClient, ClientID: "T2"},
}

// fakeSender records relays and fails them when err is set.
type fakeSender struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSender) Send(_ context.Context, clientID, phone, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, clientID+"|"+phone+"|"+body)
	return f.err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// kindRecorder counts broadcasts by kind.
type kindRecorder struct {
	mu    sync.Mutex
	kinds map[string]int
}

func (k *kindRecorder) Broadcast(kind string, _ any, _ string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.kinds == nil {
		k.kinds = make(map[string]int)
	}
	k.kinds[kind]++
	return 0
}

func (k *kindRecorder) n(kind string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.kinds[kind]
}

// tee forwards broadcasts to the real hub and the recorder.
type tee struct {
	hub *sse.Hub
	rec *kindRecorder
}

func (t tee) Broadcast(kind string, payload any, tenantID string) int {
	t.rec.Broadcast(kind, payload, tenantID)
	return t.hub.Broadcast(kind, payload, tenantID)
}

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	hub    *sse.Hub
	status *services.StatusService
	sender *fakeSender
	rec    *kindRecorder
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newTestEnv wires real services over an in-memory database, mounted the
// same way the production router mounts them.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	hub := sse.NewHub()
	t.Cleanup(hub.Close)
	rec := &kindRecorder{}
	n := tee{hub: hub, rec: rec}

	status := services.NewStatusService(db, services.RepoStore{}, n)
	chats := services.NewChatService(db, services.RepoStore{}, status)
	sender := &fakeSender{}
	msgs := services.NewMessageService(db, status, n, sender)

	h := New(chats, msgs, status, hub, db)

	r := gin.New()
	api := r.Group("/api")

	session := api.Group("", middleware.SessionAuth(testTokens, middleware.SessionOptions{}))
	session.GET("/chats", h.ListChats)
	session.GET("/chats/search/phone", h.SearchByPhone)
	session.GET("/chats/:chatId", h.GetChat)
	session.GET("/chats/:chatId/status", h.GetStatus)
	session.POST("/chats/:chatId/status", h.SetStatus)
	session.GET("/chats/:chatId/messages", h.ListMessages)
	session.POST("/chats/:chatId/message",
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil), h.SendMessage)
	session.GET("/sse/stats", h.Stats)

	stream := api.Group("/sse", middleware.SessionAuth(testTokens, middleware.SessionOptions{AllowQueryToken: true}))
	stream.GET("/events", h.Events)

	api.GET("/n8n/check-chat-state", middleware.SharedSecret(testWorkflowToken), h.CheckChatState)
	api.POST("/n8n/change-chat-state/:chatId", h.ChangeChatState)
	api.POST("/message-notification", middleware.SharedSecret(testWorkflowToken), h.MessageNotification)

	return &testEnv{db: db, router: r, hub: hub, status: status, sender: sender, rec: rec}
}

// do performs a request. token goes to X-Auth-Token; pass hdr for anything else.
func (e *testEnv) do(t *testing.T, method, path, token string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			rd = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.HeaderAuthToken, token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// notify posts an inbound message through the ingress endpoint.
func (e *testEnv) notify(t *testing.T, clientID, chatID, content, phone string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/message-notification", "", map[string]any{
		"clientId":    clientID,
		"chatId":      chatID,
		"sender":      "user",
		"content":     content,
		"phoneNumber": phone,
	}, middleware.HeaderN8NToken, testWorkflowToken)
	if w.Code != http.StatusOK {
		t.Fatalf("notify: %d %s", w.Code, w.Body.String())
	}
}

// seedHuman puts both records in human mode with a change time of ago.
func (e *testEnv) seedHuman(t *testing.T, clientID, chatID string, ago time.Duration) {
	t.Helper()
	ctx := context.Background()
	at := time.Now().UTC().Add(-ago)
	if err := repo.UpsertChatStatus(ctx, e.db, clientID, chatID, domain.ModeHuman, &at); err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	if err := repo.UpsertChatStateStatus(ctx, e.db, clientID, chatID, domain.ModeHuman, &at); err != nil {
		t.Fatalf("seed state: %v", err)
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}
