// Message HTTP handlers.
//
// This file exposes the dashboard endpoints for messages:
//   - POST   /chats/{chatId}/message    (manual operator reply, idempotent by key)
//   - GET    /chats/{chatId}/messages   (list, paginated, ETag support)
//
// A manual reply is only accepted while the chat is in human mode. A failed
// WhatsApp relay is not an HTTP error: the stored message comes back with
// status "failed".
package handlers

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
	"github.com/tbourn/wa-handoff-panel/internal/http/middleware"
	"github.com/tbourn/wa-handoff-panel/internal/repo"
)

//
// DTOs
//

// SendMessageRequest is the JSON payload for a manual reply.
type SendMessageRequest struct {
	// Content is the text relayed to the WhatsApp user.
	Content string `json:"content" example:"Hola, soy Ana. ¿En qué te ayudo?"`
	// ClientID selects the tenant for admin operators.
	ClientID string `json:"clientId,omitempty" example:"T1"`
}

// SentMessage is the operator-facing view of a stored manual reply.
type SentMessage struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status" example:"sent" enums:"sent,failed"`
	Sender       string    `json:"sender" example:"bot"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// SendMessageResponse wraps the stored reply.
type SendMessageResponse struct {
	Success bool        `json:"success"`
	Message SentMessage `json:"message"`
}

func newSendMessageResponse(m *domain.Message) SendMessageResponse {
	return SendMessageResponse{
		Success: true,
		Message: SentMessage{
			ID:           m.ID,
			Content:      m.Content,
			Timestamp:    m.Timestamp,
			Status:       m.Status,
			Sender:       m.Sender,
			ErrorMessage: m.ErrorMessage,
		},
	}
}

// ListMessagesResponse wraps a page of messages and pagination information.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes operator text before it is relayed:
//   - converts CRLF/CR to LF,
//   - collapses runs of 3+ LFs to exactly two,
//   - trims surrounding whitespace.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

//
// Handlers
//

// SendMessage godoc
// @ID          sendManualMessage
// @Summary     Send a manual reply
// @Description Stores an operator reply, broadcasts it, relays it to WhatsApp and renews the human session.
// @Description Supports idempotency via the Idempotency-Key header (same key → same message, no second relay).
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Security    SessionToken
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       chatId           path    string  true  "Chat ID"                           example(5551234)
// @Param       body             body    handlers.SendMessageRequest  true  "Reply payload"
//
// @Success     200  {object}  handlers.SendMessageResponse  "Stored reply (status failed when the relay failed)"
// @Header      200  {string}  Idempotency-Replayed          "true when served from a previous request"
// @Failure     400  {object}  handlers.ErrorResponse        "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse        "Chat is in bot mode"
// @Failure     500  {object}  handlers.ErrorResponse        "Internal error"
// @Router      /chats/{chatId}/message [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content is required")
		return
	}
	tid, found := tenant(c, req.ClientID)
	if !found {
		return
	}
	content := sanitizeContent(req.Content)
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content is required")
		return
	}

	ctx := c.Request.Context()
	chatID := c.Param("chatId")
	uid := "anonymous"
	if u, found := middleware.UserFrom(c); found && u.ID != "" {
		uid = u.ID
	}

	// Idempotency (replay path).
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.db != nil {
		if rec, err := repo.GetIdempotency(ctx, h.db, uid, chatID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err := repo.GetMessage(ctx, h.db, rec.MessageID); err == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, newSendMessageResponse(prev))
				return
			}
		}
	}

	m, err := h.msgSvc.SendManual(ctx, tid, chatID, content)
	if err != nil {
		serviceError(c, err, ErrCodeSendFailed)
		return
	}

	// Idempotency (store path), best effort.
	if idemKey != "" && h.db != nil {
		if _, err := repo.CreateIdempotency(ctx, h.db, uid, chatID, idemKey, m.ID, http.StatusOK, h.IdempotencyTTL); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("chat_id", chatID).Msg("store idempotency key failed")
		}
	}

	ok(c, http.StatusOK, newSendMessageResponse(m))
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages in a chat
// @Description Returns a paginated list of the chat's messages, oldest first.
// @Tags        Messages
// @Produce     json
// @Security    SessionToken
//
// @Param       chatId     path   string  true  "Chat ID"                        example(5551234)
// @Param       clientId   query  string  false "Tenant (admin operators only)"  example(T1)
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(50)
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats/{chatId}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	tid, found := tenant(c, "")
	if !found {
		return
	}
	ctx := c.Request.Context()
	chatID := c.Param("chatId")
	page, pageSize := clampPagination(c, 50)

	// ETag pre-check (best effort).
	if h.db != nil {
		count, maxTS, err := repo.MessagesStats(ctx, h.db, tid, chatID)
		if err == nil && notModified(c, weakETag("messages", maxTS, tid, chatID, count, page, pageSize)) {
			return
		}
	}

	items, total, err := h.msgSvc.ListPage(ctx, tid, chatID, page, pageSize)
	if err != nil {
		serviceError(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.Message{}
	}
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}
