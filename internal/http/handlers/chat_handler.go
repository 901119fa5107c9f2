// Chat HTTP handlers.
//
// This file exposes the dashboard endpoints for chat resources:
//   - GET    /chats                      (list, paginated, ETag support)
//   - GET    /chats/search/phone         (lookup by phone number)
//   - GET    /chats/{chatId}             (detail with messages)
//   - GET    /chats/{chatId}/status      (reconciled handoff state)
//   - POST   /chats/{chatId}/status      (manual bot/human toggle)
//
// Handlers are transport-thin: they resolve the tenant, validate input, call
// application services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
	"github.com/tbourn/wa-handoff-panel/internal/http/middleware"
	"github.com/tbourn/wa-handoff-panel/internal/repo"
	"github.com/tbourn/wa-handoff-panel/internal/services"
	"github.com/tbourn/wa-handoff-panel/internal/sse"
	"github.com/tbourn/wa-handoff-panel/internal/utils"
)

//
// Service contracts (context-aware)
//

// ChatService defines the dashboard read operations consumed by handlers.
type ChatService interface {
	// ListPage returns a page of the tenant's chats and the total count.
	ListPage(ctx context.Context, tenantID string, page, pageSize int) ([]domain.Chat, int64, error)
	// Get returns a chat with its messages and marks inbound ones read.
	Get(ctx context.Context, tenantID, chatID string) (*services.ChatDetail, error)
	// FindByPhone returns the first chat matching a normalized phone number.
	FindByPhone(ctx context.Context, tenantID, phone string) (*domain.Chat, error)
}

// MessageService defines message relay, ingress and listing operations.
type MessageService interface {
	// SendManual stores and relays an operator reply.
	SendManual(ctx context.Context, tenantID, chatID, content string) (*domain.Message, error)
	// Ingest records and broadcasts a message reported by the workflow engine.
	Ingest(ctx context.Context, in services.IngestRequest) (services.NewMessagePayload, error)
	// ListPage returns a page of a chat's messages and the total count.
	ListPage(ctx context.Context, tenantID, chatID string, page, pageSize int) ([]domain.Message, int64, error)
}

// StatusService defines the handoff state operations.
type StatusService interface {
	GetStatus(ctx context.Context, tenantID, chatID string) (domain.Handoff, error)
	SetStatus(ctx context.Context, tenantID, chatID string, mode domain.Mode) (domain.Handoff, error)
}

// EventHub is the SSE registry as seen by the stream endpoints.
type EventHub interface {
	Serve(ctx context.Context, id sse.Identity, w sse.Stream) error
	Stats() sse.Stats
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the panel. It depends on abstract
// service interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	chatSvc   ChatService
	msgSvc    MessageService
	statusSvc StatusService
	hub       EventHub

	// db backs ETags and idempotent replays; both are skipped when nil.
	db *gorm.DB
	// IdempotencyTTL is how long a manual send can be replayed by key.
	IdempotencyTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(chatSvc ChatService, msgSvc MessageService, statusSvc StatusService, hub EventHub, db *gorm.DB) *Handlers {
	return &Handlers{
		chatSvc:        chatSvc,
		msgSvc:         msgSvc,
		statusSvc:      statusSvc,
		hub:            hub,
		db:             db,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// tenant resolves the tenant a dashboard request acts on. Client operators
// are pinned to their token's clientId; admins name the tenant with
// ?clientId= or, failing that, fallback (usually the body's clientId). On
// failure the response has been written and ok is false.
func tenant(c *gin.Context, fallback string) (string, bool) {
	u, found := middleware.UserFrom(c)
	if !found {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no token, authorization denied")
		return "", false
	}
	id := u.ClientID
	if u.IsAdmin() {
		id = strings.TrimSpace(c.Query("clientId"))
		if id == "" {
			id = strings.TrimSpace(fallback)
		}
	}
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "clientId is required")
		return "", false
	}
	middleware.SetClientID(c, id)
	return id, true
}

// serviceError maps service sentinels to HTTP results; anything else is a 500
// carrying code.
func serviceError(c *gin.Context, err error, code string) {
	switch {
	case errors.Is(err, services.ErrMissingTenant),
		errors.Is(err, services.ErrMissingChat),
		errors.Is(err, services.ErrMissingPhone),
		errors.Is(err, services.ErrInvalidMode),
		errors.Is(err, services.ErrEmptyContent):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrChatNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
	case errors.Is(err, services.ErrNotHumanMode):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "manual messages require the chat to be in human mode")
	default:
		fail(c, http.StatusInternalServerError, code, err.Error())
	}
}

//
// DTOs
//

// SetStatusRequest is the JSON payload for a manual toggle.
type SetStatusRequest struct {
	// Status is the target mode.
	Status domain.Mode `json:"status" example:"human" enums:"bot,human"`
	// ClientID selects the tenant for admin operators.
	ClientID string `json:"clientId,omitempty" example:"T1"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// ListChatsResponse wraps a page of chats and pagination information.
type ListChatsResponse struct {
	Chats      []domain.Chat `json:"chats"`
	Pagination Pagination    `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context, defaultPageSize int) (page, pageSize int) {
	const (
		defaultPage = 1
		maxPageSize = 100
	)
	return utils.ClampPage(
		utils.AtoiDefault(c.Query("page"), defaultPage),
		utils.AtoiDefault(c.Query("page_size"), defaultPageSize),
		defaultPageSize, maxPageSize,
	)
}

//
// Handlers
//

// ListChats godoc
// @ID          listChats
// @Summary     List chats (paginated)
// @Description Returns a page of the tenant's chats, newest message first, each with its reconciled handoff state.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chats
// @Produce     json
// @Security    SessionToken
//
// @Param       clientId       query   string  false "Tenant (admin operators only)"  example(T1)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"     example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                    minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"                 minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListChatsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats [get]
func (h *Handlers) ListChats(c *gin.Context) {
	tid, found := tenant(c, "")
	if !found {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c, 20)

	// Listing reverts expired sessions, so the ETag is computed afterwards.
	items, total, err := h.chatSvc.ListPage(ctx, tid, page, pageSize)
	if err != nil {
		serviceError(c, err, ErrCodeListFailed)
		return
	}

	if h.db != nil {
		count, maxTS, err := repo.ChatsStats(ctx, h.db, tid)
		if err == nil && notModified(c, weakETag("chats", maxTS, tid, count, page, pageSize)) {
			return
		}
	}

	ok(c, http.StatusOK, ListChatsResponse{
		Chats:      items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetChat godoc
// @ID          getChat
// @Summary     Get a chat with its messages
// @Description Returns the chat summary and its messages (oldest first) and marks inbound messages read.
// @Tags        Chats
// @Produce     json
// @Security    SessionToken
//
// @Param       chatId    path   string  true  "Chat ID (WhatsApp conversation id)"  example(5551234)
// @Param       clientId  query  string  false "Tenant (admin operators only)"       example(T1)
//
// @Success     200  {object} services.ChatDetail
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats/{chatId} [get]
func (h *Handlers) GetChat(c *gin.Context) {
	tid, found := tenant(c, "")
	if !found {
		return
	}
	d, err := h.chatSvc.Get(c.Request.Context(), tid, c.Param("chatId"))
	if err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, d)
}

// SearchByPhone godoc
// @ID          searchChatByPhone
// @Summary     Find a chat by phone number
// @Description Matches after stripping spaces, dashes, parentheses and plus signs; partial numbers match either way.
// @Tags        Chats
// @Produce     json
// @Security    SessionToken
//
// @Param       phoneNumber  query  string  true  "Phone number"                   example(+52 (55) 1234-5678)
// @Param       clientId     query  string  false "Tenant (admin operators only)"  example(T1)
//
// @Success     200  {object} domain.Chat
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats/search/phone [get]
func (h *Handlers) SearchByPhone(c *gin.Context) {
	tid, found := tenant(c, "")
	if !found {
		return
	}
	ch, err := h.chatSvc.FindByPhone(c.Request.Context(), tid, c.Query("phoneNumber"))
	if err != nil {
		serviceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, ch)
}

// GetStatus godoc
// @ID          getChatStatus
// @Summary     Get the handoff state of a chat
// @Description Returns the reconciled mode. An expired human session is reverted to bot before answering.
// @Tags        Status
// @Produce     json
// @Security    SessionToken
//
// @Param       chatId    path   string  true  "Chat ID"                        example(5551234)
// @Param       clientId  query  string  false "Tenant (admin operators only)"  example(T1)
//
// @Success     200  {object} domain.Handoff
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats/{chatId}/status [get]
func (h *Handlers) GetStatus(c *gin.Context) {
	tid, found := tenant(c, "")
	if !found {
		return
	}
	st, err := h.statusSvc.GetStatus(c.Request.Context(), tid, c.Param("chatId"))
	if err != nil {
		serviceError(c, err, ErrCodeStatusFailed)
		return
	}
	ok(c, http.StatusOK, st)
}

// SetStatus godoc
// @ID          setChatStatus
// @Summary     Toggle a chat between bot and human
// @Description Writes the mode to both handoff records and broadcasts chat_status_changed.
// @Tags        Status
// @Accept      json
// @Produce     json
// @Security    SessionToken
//
// @Param       chatId  path  string                     true  "Chat ID"  example(5551234)
// @Param       body    body  handlers.SetStatusRequest  true  "Target mode"
//
// @Success     200  {object} domain.Handoff
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats/{chatId}/status [post]
func (h *Handlers) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	tid, found := tenant(c, req.ClientID)
	if !found {
		return
	}
	st, err := h.statusSvc.SetStatus(c.Request.Context(), tid, c.Param("chatId"), req.Status)
	if err != nil {
		serviceError(c, err, ErrCodeStatusFailed)
		return
	}
	ok(c, http.StatusOK, st)
}
