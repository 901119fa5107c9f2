// Package services – StatusService
//
// StatusService owns the bot/human handoff state of a conversation. Every
// state is stored twice (chats and chat_states); the chats row is
// authoritative and its write errors propagate, while chat_states failures
// are logged and the next read repairs them.
//
// Human sessions expire lazily: any read that finds a session older than the
// timeout writes the bot state back to both records before answering.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
	"github.com/tbourn/wa-handoff-panel/internal/events"
	"github.com/tbourn/wa-handoff-panel/internal/sse"
)

// StatusService implements getStatus, setStatus, renewIfHuman and the
// expiry sweep.
type StatusService struct {
	DB       *gorm.DB
	Store    StateStore
	Notifier Notifier
	// Events is optional.
	Events Publisher

	// Timeout is the human-mode inactivity window.
	Timeout time.Duration
	// Now is the clock; tests pin it.
	Now func() time.Time
}

// NewStatusService returns a StatusService with the default 30 minute window.
func NewStatusService(db *gorm.DB, store StateStore, n Notifier) *StatusService {
	return &StatusService{
		DB:       db,
		Store:    store,
		Notifier: n,
		Timeout:  domain.DefaultHumanTimeout,
		Now:      time.Now,
	}
}

func (s *StatusService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *StatusService) window() time.Duration {
	if s.Timeout <= 0 {
		return domain.DefaultHumanTimeout
	}
	return s.Timeout
}

func (s *StatusService) tracer() trace.Tracer { return otel.Tracer("services/StatusService") }

func validKey(tenantID, chatID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return ErrMissingTenant
	}
	if strings.TrimSpace(chatID) == "" {
		return ErrMissingChat
	}
	return nil
}

// GetStatus returns the reconciled handoff state, creating missing records in
// bot mode. An expired human session is reverted in both records and
// announced first, and the result carries Reverted=true.
func (s *StatusService) GetStatus(ctx context.Context, tenantID, chatID string) (domain.Handoff, error) {
	ctx, span := s.tracer().Start(ctx, "GetStatus", trace.WithAttributes(
		attribute.String("tenant.id", tenantID),
		attribute.String("chat.id", chatID),
	))
	defer span.End()

	if err := validKey(tenantID, chatID); err != nil {
		return domain.Handoff{}, err
	}

	chat, err := s.Store.EnsureChat(ctx, s.DB, tenantID, chatID)
	if err != nil {
		span.RecordError(err)
		return domain.Handoff{}, fmt.Errorf("load chat: %w", err)
	}
	state, err := s.Store.EnsureChatState(ctx, s.DB, tenantID, chatID)
	if err != nil {
		s.logSecondary(err, tenantID, chatID, "load")
		state = nil
	}
	return s.reconcile(ctx, chat, state)
}

// reconcile applies the timeout policy to the merged state of both records
// and writes back whatever is needed to make them agree.
func (s *StatusService) reconcile(ctx context.Context, chat *domain.Chat, state *domain.ChatState) (domain.Handoff, error) {
	mode, changedAt := domain.Merge(chat, state)
	h := domain.Handoff{ClientID: chat.ClientID, ChatID: chat.ChatID, Mode: mode, ChangedAt: changedAt}

	if domain.IsExpired(mode, changedAt, s.now(), s.window()) {
		if err := s.write(ctx, chat.ClientID, chat.ChatID, domain.ModeBot, nil); err != nil {
			return domain.Handoff{}, err
		}
		statusTransitions.WithLabelValues(string(domain.ModeBot), reasonTimeout).Inc()
		log.Info().
			Str("tenant_id", chat.ClientID).
			Str("chat_id", chat.ChatID).
			Msg("human session expired, reverted to bot")
		reverted := domain.Handoff{ClientID: chat.ClientID, ChatID: chat.ChatID, Mode: domain.ModeBot, Reverted: true}
		s.announce(ctx, reverted)
		return reverted, nil
	}

	if !agrees(chat.Status, chat.StatusChangedAt, mode, changedAt) {
		if err := s.Store.UpsertChatStatus(ctx, s.DB, chat.ClientID, chat.ChatID, mode, changedAt); err != nil {
			return domain.Handoff{}, fmt.Errorf("repair chat status: %w", err)
		}
		statusTransitions.WithLabelValues(string(mode), reasonRepair).Inc()
	}
	if state == nil || !agrees(state.Status, state.StatusChangedAt, mode, changedAt) {
		if err := s.Store.UpsertChatStateStatus(ctx, s.DB, chat.ClientID, chat.ChatID, mode, changedAt); err != nil {
			s.logSecondary(err, chat.ClientID, chat.ChatID, "repair")
		}
	}
	return h, nil
}

func agrees(m domain.Mode, at *time.Time, mode domain.Mode, changedAt *time.Time) bool {
	if m != mode {
		return false
	}
	if at == nil || changedAt == nil {
		return at == nil && changedAt == nil
	}
	return at.Equal(*changedAt)
}

// SetStatus moves the chat to mode. Entering human stamps the change time;
// bot clears it. Both records are written before the change is broadcast.
func (s *StatusService) SetStatus(ctx context.Context, tenantID, chatID string, mode domain.Mode) (domain.Handoff, error) {
	ctx, span := s.tracer().Start(ctx, "SetStatus", trace.WithAttributes(
		attribute.String("tenant.id", tenantID),
		attribute.String("chat.id", chatID),
		attribute.String("mode", string(mode)),
	))
	defer span.End()

	if err := validKey(tenantID, chatID); err != nil {
		return domain.Handoff{}, err
	}
	if !mode.Valid() {
		return domain.Handoff{}, ErrInvalidMode
	}

	var changedAt *time.Time
	if mode == domain.ModeHuman {
		now := s.now()
		changedAt = &now
	}
	if err := s.write(ctx, tenantID, chatID, mode, changedAt); err != nil {
		span.RecordError(err)
		return domain.Handoff{}, err
	}
	statusTransitions.WithLabelValues(string(mode), reasonManual).Inc()

	h := domain.Handoff{ClientID: tenantID, ChatID: chatID, Mode: mode, ChangedAt: changedAt}
	s.announce(ctx, h)
	return h, nil
}

// RenewIfHuman restarts the inactivity window of a human session. It is
// best-effort; failures are logged.
func (s *StatusService) RenewIfHuman(ctx context.Context, tenantID, chatID string) {
	ctx, span := s.tracer().Start(ctx, "RenewIfHuman")
	defer span.End()

	if validKey(tenantID, chatID) != nil {
		return
	}
	now := s.now()
	n, err := s.Store.RenewChatStatus(ctx, s.DB, tenantID, chatID, now)
	if err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID).Str("chat_id", chatID).Msg("renew human session failed")
		return
	}
	if n == 0 {
		return
	}
	if _, err := s.Store.RenewChatStateStatus(ctx, s.DB, tenantID, chatID, now); err != nil {
		s.logSecondary(err, tenantID, chatID, "renew")
	}
}

// SweepExpired reverts every expired human session across tenants and
// announces each revert. It returns how many chats were reverted.
func (s *StatusService) SweepExpired(ctx context.Context) (int, error) {
	ctx, span := s.tracer().Start(ctx, "SweepExpired")
	defer span.End()

	chats, err := s.Store.ListHumanChats(ctx, s.DB)
	if err != nil {
		return 0, fmt.Errorf("list human chats: %w", err)
	}
	now, window := s.now(), s.window()

	reverted := 0
	for _, c := range chats {
		if !domain.IsExpired(c.Status, c.StatusChangedAt, now, window) {
			continue
		}
		if err := s.write(ctx, c.ClientID, c.ChatID, domain.ModeBot, nil); err != nil {
			log.Error().Err(err).Str("tenant_id", c.ClientID).Str("chat_id", c.ChatID).Msg("sweep revert failed")
			continue
		}
		statusTransitions.WithLabelValues(string(domain.ModeBot), reasonSweep).Inc()
		s.announce(ctx, domain.Handoff{ClientID: c.ClientID, ChatID: c.ChatID, Mode: domain.ModeBot, Reverted: true})
		reverted++
	}
	span.SetAttributes(attribute.Int("reverted", reverted))
	return reverted, nil
}

// write stores the state in the primary record, then the mirror.
func (s *StatusService) write(ctx context.Context, tenantID, chatID string, mode domain.Mode, changedAt *time.Time) error {
	if err := s.Store.UpsertChatStatus(ctx, s.DB, tenantID, chatID, mode, changedAt); err != nil {
		return fmt.Errorf("write chat status: %w", err)
	}
	if err := s.Store.UpsertChatStateStatus(ctx, s.DB, tenantID, chatID, mode, changedAt); err != nil {
		s.logSecondary(err, tenantID, chatID, "write")
	}
	return nil
}

// StatusChangedPayload is the body of chat_status_changed events.
type StatusChangedPayload struct {
	ChatID           string      `json:"chatId"`
	ClientID         string      `json:"clientId"`
	ChatStatus       domain.Mode `json:"chatStatus"`
	StatusChangeTime *time.Time  `json:"statusChangeTime"`
	Type             string      `json:"type"`
}

func (s *StatusService) announce(ctx context.Context, h domain.Handoff) {
	p := StatusChangedPayload{
		ChatID:           h.ChatID,
		ClientID:         h.ClientID,
		ChatStatus:       h.Mode,
		StatusChangeTime: h.ChangedAt,
		Type:             "status_change",
	}
	if s.Notifier != nil {
		s.Notifier.Broadcast(sse.KindChatStatusChanged, p, h.ClientID)
	}
	if s.Events != nil {
		if err := s.Events.Publish(ctx, events.TypeChatStatusChanged, p); err != nil {
			log.Warn().Err(err).Str("chat_id", h.ChatID).Msg("status event publish failed")
		}
	}
}

func (s *StatusService) logSecondary(err error, tenantID, chatID, op string) {
	log.Warn().Err(err).
		Str("tenant_id", tenantID).
		Str("chat_id", chatID).
		Str("op", op).
		Msg("chat_states write failed; chats row is authoritative")
}
