// Package services – MessageService
//
// This file implements MessageService, which owns the two message flows of
// the panel: manual operator replies relayed to WhatsApp, and inbound
// notifications pushed by the workflow engine. Both persist the message,
// refresh the chat summary and fan the change out to dashboard sessions.
// Neither flow changes the handoff mode; a manual reply only renews the human
// session's inactivity window.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include tenant/chat identifiers and pagination parameters where applicable.

package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
	"github.com/tbourn/wa-handoff-panel/internal/events"
	"github.com/tbourn/wa-handoff-panel/internal/repo"
	"github.com/tbourn/wa-handoff-panel/internal/utils"
	"github.com/tbourn/wa-handoff-panel/internal/sse"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Sender relays a text message to a WhatsApp user on behalf of a tenant.
type Sender interface {
	Send(ctx context.Context, clientID, phone, body string) error
}

// MessageService coordinates message persistence, relay and notification.
type MessageService struct {
	DB       *gorm.DB
	Status   *StatusService
	Notifier Notifier
	Sender   Sender
	// Events is optional.
	Events Publisher

	// MaxContentRunes rejects manual replies longer than this; <= 0 disables.
	MaxContentRunes int
	// Now is the clock; tests pin it.
	Now func() time.Time
}

// NewMessageService wires a MessageService around the shared StatusService.
func NewMessageService(db *gorm.DB, status *StatusService, n Notifier, sender Sender) *MessageService {
	return &MessageService{
		DB:              db,
		Status:          status,
		Notifier:        n,
		Sender:          sender,
		MaxContentRunes: 4096,
		Now:             time.Now,
	}
}

func (s *MessageService) tracer() trace.Tracer { return otel.Tracer("services/MessageService") }

func (s *MessageService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// NewMessagePayload is the body of new_message events.
type NewMessagePayload struct {
	ID          string    `json:"id,omitempty"`
	ChatID      string    `json:"chatId"`
	ClientID    string    `json:"clientId"`
	Sender      string    `json:"sender"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Type        string    `json:"type"`
}

// ChatUpdatedPayload is the body of chat_updated events.
type ChatUpdatedPayload struct {
	ChatID               string      `json:"chatId"`
	ClientID             string      `json:"clientId"`
	LastMessage          string      `json:"lastMessage"`
	LastMessageTimestamp *time.Time  `json:"lastMessageTimestamp"`
	PhoneNumber          string      `json:"phoneNumber"`
	ContactName          string      `json:"contactName"`
	UnreadCount          int         `json:"unreadCount"`
	ChatStatus           domain.Mode `json:"chatStatus"`
	StatusChangeTime     *time.Time  `json:"statusChangeTime"`
	Type                 string      `json:"type"`
}

func newMessagePayload(m *domain.Message) NewMessagePayload {
	return NewMessagePayload{
		ID:          m.ID,
		ChatID:      m.ChatID,
		ClientID:    m.ClientID,
		Sender:      m.Sender,
		Content:     m.Content,
		Timestamp:   m.Timestamp,
		PhoneNumber: m.PhoneNumber,
		Type:        "message",
	}
}

func chatUpdatedPayload(c *domain.Chat) ChatUpdatedPayload {
	return ChatUpdatedPayload{
		ChatID:               c.ChatID,
		ClientID:             c.ClientID,
		LastMessage:          c.LastMessage,
		LastMessageTimestamp: c.LastMessageAt,
		PhoneNumber:          c.PhoneNumber,
		ContactName:          c.ContactName,
		UnreadCount:          c.UnreadCount,
		ChatStatus:           c.Status,
		StatusChangeTime:     c.StatusChangedAt,
		Type:                 "update",
	}
}

// SendManual stores an operator reply, broadcasts it, relays it to WhatsApp
// and renews the human session. The chat must be in human mode after
// reconciliation, otherwise ErrNotHumanMode is returned and nothing is
// written. A relay failure does not fail the call: the stored message is
// marked failed and returned with that status.
func (s *MessageService) SendManual(ctx context.Context, tenantID, chatID, content string) (*domain.Message, error) {
	ctx, span := s.tracer().Start(ctx, "SendManual", trace.WithAttributes(
		attribute.String("tenant.id", tenantID),
		attribute.String("chat.id", chatID),
		attribute.Int("content.len", len(content)),
	))
	defer span.End()

	if err := validKey(tenantID, chatID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return nil, fmt.Errorf("%w: exceeds %d characters", ErrEmptyContent, s.MaxContentRunes)
	}

	h, err := s.Status.GetStatus(ctx, tenantID, chatID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if h.Mode != domain.ModeHuman {
		return nil, ErrNotHumanMode
	}

	phone := chatID
	if c, err := repo.GetChat(ctx, s.DB, tenantID, chatID); err == nil && c.PhoneNumber != "" {
		phone = c.PhoneNumber
	}

	msg := &domain.Message{
		ClientID:    tenantID,
		ChatID:      chatID,
		Sender:      domain.SenderBot,
		Content:     content,
		PhoneNumber: phone,
		Status:      domain.MessageSent,
		Timestamp:   s.now(),
	}
	if err := repo.CreateMessage(ctx, s.DB, msg); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("save message: %w", err)
	}
	s.broadcast(sse.KindNewMessage, newMessagePayload(msg), tenantID)

	if s.Sender != nil {
		if err := s.Sender.Send(ctx, tenantID, phone, content); err != nil {
			span.RecordError(err)
			log.Error().Err(err).
				Str("tenant_id", tenantID).
				Str("chat_id", chatID).
				Str("message_id", msg.ID).
				Msg("whatsapp relay failed")
			if uerr := repo.MarkMessageFailed(ctx, s.DB, msg.ID, err.Error()); uerr != nil {
				log.Warn().Err(uerr).Str("message_id", msg.ID).Msg("mark message failed")
			}
			msg.Status = domain.MessageFailed
			msg.ErrorMessage = err.Error()
		}
	}

	chat, err := repo.UpdateChatSummary(ctx, s.DB, tenantID, chatID, repo.SummaryUpdate{
		LastMessage:   content,
		LastMessageAt: msg.Timestamp,
	})
	if err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID).Str("chat_id", chatID).Msg("update chat summary failed")
	} else {
		s.broadcast(sse.KindChatUpdated, chatUpdatedPayload(chat), tenantID)
	}

	s.Status.RenewIfHuman(ctx, tenantID, chatID)
	return msg, nil
}

// IngestRequest is an inbound notification pushed by the workflow engine.
type IngestRequest struct {
	ClientID    string
	ChatID      string
	MessageID   string
	Sender      string
	Content     string
	PhoneNumber string
	ContactName string
	Timestamp   time.Time
}

// Ingest records an inbound message and notifies the tenant's sessions.
// Sender defaults to "user" and Timestamp to now. Persistence is best-effort:
// failures are logged and the new_message broadcast still fires, but only a
// stored message bumps the unread counter. Ingest never changes the handoff
// mode.
func (s *MessageService) Ingest(ctx context.Context, in IngestRequest) (NewMessagePayload, error) {
	ctx, span := s.tracer().Start(ctx, "Ingest", trace.WithAttributes(
		attribute.String("tenant.id", in.ClientID),
		attribute.String("chat.id", in.ChatID),
	))
	defer span.End()

	if strings.TrimSpace(in.ClientID) == "" {
		return NewMessagePayload{}, ErrMissingTenant
	}
	if in.Sender == "" {
		in.Sender = domain.SenderUser
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = s.now()
	}

	msg := &domain.Message{
		ID:          in.MessageID,
		ClientID:    in.ClientID,
		ChatID:      in.ChatID,
		Sender:      in.Sender,
		Content:     in.Content,
		PhoneNumber: in.PhoneNumber,
		Timestamp:   in.Timestamp.UTC(),
	}
	if in.Sender == domain.SenderUser {
		msg.Status = domain.MessageReceived
	}

	var chat *domain.Chat
	if strings.TrimSpace(in.ChatID) != "" {
		stored := true
		if err := repo.CreateMessage(ctx, s.DB, msg); err != nil {
			// A redelivered messageId lands here too; it must not count as unread twice.
			stored = false
			log.Warn().Err(err).Str("tenant_id", in.ClientID).Str("chat_id", in.ChatID).Msg("persist inbound message failed")
		}
		c, err := repo.UpdateChatSummary(ctx, s.DB, in.ClientID, in.ChatID, repo.SummaryUpdate{
			LastMessage:     in.Content,
			LastMessageAt:   msg.Timestamp,
			PhoneNumber:     in.PhoneNumber,
			ContactName:     in.ContactName,
			IncrementUnread: stored && in.Sender == domain.SenderUser,
		})
		if err != nil {
			log.Warn().Err(err).Str("tenant_id", in.ClientID).Str("chat_id", in.ChatID).Msg("update chat summary failed")
		} else {
			chat = c
		}
	}

	p := newMessagePayload(msg)
	s.broadcast(sse.KindNewMessage, p, in.ClientID)
	if chat != nil {
		s.broadcast(sse.KindChatUpdated, chatUpdatedPayload(chat), in.ClientID)
	}
	if s.Events != nil {
		if err := s.Events.Publish(ctx, events.TypeMessageReceived, p); err != nil {
			log.Warn().Err(err).Str("chat_id", in.ChatID).Msg("message event publish failed")
		}
	}
	return p, nil
}

// ListPage returns a paginated slice of a chat's messages and the total count.
func (s *MessageService) ListPage(ctx context.Context, tenantID, chatID string, page, pageSize int) ([]domain.Message, int64, error) {
	ctx, span := s.tracer().Start(ctx, "ListPage", trace.WithAttributes(
		attribute.String("chat.id", chatID),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	))
	defer span.End()

	if err := validKey(tenantID, chatID); err != nil {
		return nil, 0, err
	}
	page, pageSize = utils.ClampPage(page, pageSize, 50, 0)
	total, err := repo.CountMessages(ctx, s.DB, tenantID, chatID)
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}
	msgs, err := repo.ListMessagesPage(ctx, s.DB, tenantID, chatID, utils.Offset(page, pageSize), pageSize)
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}
	return msgs, total, nil
}

func (s *MessageService) broadcast(kind string, payload any, tenantID string) {
	if s.Notifier == nil {
		return
	}
	n := s.Notifier.Broadcast(kind, payload, tenantID)
	log.Debug().Str("kind", kind).Str("tenant_id", tenantID).Int("sessions", n).Msg("broadcast")
}
