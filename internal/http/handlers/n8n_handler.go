// Workflow-engine HTTP handlers.
//
// These endpoints are called by the n8n workflows rather than by the
// dashboard, and keep the `{success, error}` body shape those workflows
// branch on:
//   - GET    /n8n/check-chat-state            (bot-vs-human routing poll)
//   - POST   /n8n/change-chat-state/{chatId}  (engine-initiated toggle)
//   - POST   /message-notification            (ingress for new messages)
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
	"github.com/tbourn/wa-handoff-panel/internal/http/middleware"
	"github.com/tbourn/wa-handoff-panel/internal/services"
)

// CheckStateResponse answers the engine's routing poll. Failures still carry
// chatStatus "bot" so a workflow that ignores success keeps answering.
type CheckStateResponse struct {
	Success          bool        `json:"success"`
	ChatStatus       domain.Mode `json:"chatStatus" example:"human"`
	StatusChangeTime *time.Time  `json:"statusChangeTime"`
	StatusChanged    bool        `json:"statusChanged,omitempty"`
	Reason           string      `json:"reason,omitempty" example:"timeout"`
	Error            string      `json:"error,omitempty"`
}

// ChangeStateRequest is the body of an engine-initiated toggle.
type ChangeStateRequest struct {
	Status   domain.Mode `json:"status" example:"bot"`
	ClientID string      `json:"clientId" example:"T1"`
}

// ChangeStateResponse reports the state written by a toggle.
type ChangeStateResponse struct {
	Success          bool        `json:"success"`
	ChatID           string      `json:"chatId"`
	ClientID         string      `json:"clientId"`
	ChatStatus       domain.Mode `json:"chatStatus"`
	StatusChangeTime *time.Time  `json:"statusChangeTime"`
}

// NotificationRequest is a message reported by the workflow engine.
type NotificationRequest struct {
	ClientID    string     `json:"clientId" example:"T1"`
	ChatID      string     `json:"chatId" example:"5215512345678"`
	MessageID   string     `json:"messageId,omitempty" example:"wamid.HBgM"`
	Sender      string     `json:"sender,omitempty" example:"user" enums:"user,bot"`
	Content     string     `json:"content" example:"hola"`
	Timestamp   EngineTime `json:"timestamp,omitempty" swaggertype:"string" example:"2024-05-01T10:00:00Z"`
	PhoneNumber string     `json:"phoneNumber,omitempty" example:"5215512345678"`
	ContactName string     `json:"contactName,omitempty" example:"Ana"`
}

// EngineTime is the notification timestamp as the workflows send it: an
// RFC 3339 string, a "2006-01-02 15:04:05" UTC string, or unix seconds or
// milliseconds as a number or a digit string. Anything else decodes to the
// zero time, which ingest replaces with the receive time.
type EngineTime time.Time

// engineMillisFloor separates unix milliseconds from unix seconds.
const engineMillisFloor = 1e12

var engineLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// UnmarshalJSON never fails on the value itself.
func (t *EngineTime) UnmarshalJSON(b []byte) error {
	*t = EngineTime{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	*t = EngineTime(parseEngineTime(raw))
	return nil
}

// Time returns the decoded instant, zero when none was sent or parsed.
func (t EngineTime) Time() time.Time { return time.Time(t) }

func parseEngineTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		if n <= 0 {
			return time.Time{}
		}
		if n >= engineMillisFloor {
			return time.UnixMilli(int64(n)).UTC()
		}
		return time.Unix(int64(n), 0).UTC()
	}
	for _, layout := range engineLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

// NotificationResponse acknowledges an ingested notification.
type NotificationResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckChatState godoc
// @ID          checkChatState
// @Summary     Poll the handoff state of a chat
// @Description Used by the workflow engine to decide whether the bot should answer.
// @Description An expired human session is reverted and reported with statusChanged=true, reason=timeout.
// @Tags        Workflow
// @Produce     json
// @Security    WorkflowToken
//
// @Param       chatId    query  string  true  "Chat ID"    example(5551234)
// @Param       clientId  query  string  true  "Tenant ID"  example(T1)
//
// @Success     200  {object} handlers.CheckStateResponse
// @Failure     400  {object} handlers.CheckStateResponse "Missing parameters (chatStatus is bot)"
// @Failure     401  {object} handlers.EngineError        "Bad workflow token"
// @Failure     500  {object} handlers.CheckStateResponse "Internal error (chatStatus is bot)"
// @Router      /n8n/check-chat-state [get]
func (h *Handlers) CheckChatState(c *gin.Context) {
	chatID := strings.TrimSpace(c.Query("chatId"))
	tid := strings.TrimSpace(c.Query("clientId"))
	if chatID == "" || tid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, CheckStateResponse{
			ChatStatus: domain.ModeBot,
			Error:      "chatId and clientId are required",
		})
		return
	}
	middleware.SetClientID(c, tid)

	st, err := h.statusSvc.GetStatus(c.Request.Context(), tid, chatID)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Str("chat_id", chatID).Msg("check chat state failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, CheckStateResponse{
			ChatStatus: domain.ModeBot,
			Error:      "internal server error",
		})
		return
	}

	resp := CheckStateResponse{
		Success:          true,
		ChatStatus:       st.Mode,
		StatusChangeTime: st.ChangedAt,
	}
	if st.Reverted {
		resp.StatusChanged = true
		resp.Reason = "timeout"
	}
	ok(c, http.StatusOK, resp)
}

// ChangeChatState godoc
// @ID          changeChatState
// @Summary     Toggle a chat from the workflow engine
// @Description Writes the mode to both handoff records and broadcasts chat_status_changed.
// @Tags        Workflow
// @Accept      json
// @Produce     json
//
// @Param       chatId  path  string                       true  "Chat ID"  example(5551234)
// @Param       body    body  handlers.ChangeStateRequest  true  "Target mode and tenant"
//
// @Success     200  {object} handlers.ChangeStateResponse
// @Failure     400  {object} handlers.EngineError "Bad request"
// @Failure     500  {object} handlers.EngineError "Internal error"
// @Router      /n8n/change-chat-state/{chatId} [post]
func (h *Handlers) ChangeChatState(c *gin.Context) {
	chatID := strings.TrimSpace(c.Param("chatId"))
	var req ChangeStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		engineFail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tid := strings.TrimSpace(req.ClientID)
	if chatID == "" || req.Status == "" || tid == "" {
		engineFail(c, http.StatusBadRequest, "chatId, status and clientId are required")
		return
	}
	if !req.Status.Valid() {
		engineFail(c, http.StatusBadRequest, `status must be "bot" or "human"`)
		return
	}
	middleware.SetClientID(c, tid)

	st, err := h.statusSvc.SetStatus(c.Request.Context(), tid, chatID, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrInvalidMode) {
			engineFail(c, http.StatusBadRequest, err.Error())
			return
		}
		engineFail(c, http.StatusInternalServerError, "internal server error")
		return
	}
	ok(c, http.StatusOK, ChangeStateResponse{
		Success:          true,
		ChatID:           st.ChatID,
		ClientID:         st.ClientID,
		ChatStatus:       st.Mode,
		StatusChangeTime: st.ChangedAt,
	})
}

// MessageNotification godoc
// @ID          messageNotification
// @Summary     Report a new message
// @Description Records the message, updates the chat summary and broadcasts new_message to the tenant's dashboards.
// @Description Never changes the handoff mode. Duplicate calls produce duplicate broadcasts.
// @Tags        Workflow
// @Accept      json
// @Produce     json
// @Security    WorkflowToken
//
// @Param       body  body  handlers.NotificationRequest  true  "Message"
//
// @Success     200  {object} handlers.NotificationResponse
// @Failure     400  {object} handlers.EngineError "clientId missing"
// @Failure     401  {object} handlers.EngineError "Bad workflow token"
// @Failure     500  {object} handlers.EngineError "Internal error"
// @Router      /message-notification [post]
func (h *Handlers) MessageNotification(c *gin.Context) {
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		engineFail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ClientID) == "" {
		engineFail(c, http.StatusBadRequest, "clientId required")
		return
	}
	middleware.SetClientID(c, req.ClientID)

	_, err := h.msgSvc.Ingest(c.Request.Context(), services.IngestRequest{
		ClientID:    req.ClientID,
		ChatID:      req.ChatID,
		MessageID:   req.MessageID,
		Sender:      req.Sender,
		Content:     req.Content,
		PhoneNumber: req.PhoneNumber,
		ContactName: req.ContactName,
		Timestamp:   req.Timestamp.Time(),
	})
	if err != nil {
		if errors.Is(err, services.ErrMissingTenant) {
			engineFail(c, http.StatusBadRequest, "clientId required")
			return
		}
		engineFail(c, http.StatusInternalServerError, "internal server error")
		return
	}
	ok(c, http.StatusOK, NotificationResponse{
		Success:   true,
		Message:   "notification processed and broadcast",
		Timestamp: time.Now().UTC(),
	})
}
