// Package services – ChatService
//
// This file implements the ChatService, which serves the dashboard's chat
// list, chat detail and phone lookup. Every chat it returns carries the
// reconciled handoff state from StatusService, so an expired human session is
// reverted (in both records) before it is shown.
//
// Service-level errors (e.g., ErrChatNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/width"
	"gorm.io/gorm"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
	"github.com/tbourn/wa-handoff-panel/internal/repo"
	"github.com/tbourn/wa-handoff-panel/internal/utils"
)

// ChatRepo defines the repository contract required by ChatService.
type ChatRepo interface {
	// GetChat fetches a chat by its natural key.
	GetChat(ctx context.Context, db *gorm.DB, clientID, chatID string) (*domain.Chat, error)

	// CountChats returns the total number of chats for pagination.
	CountChats(ctx context.Context, db *gorm.DB, clientID string) (int64, error)

	// ListChatsPage returns a page of the tenant's chats, newest message first.
	ListChatsPage(ctx context.Context, db *gorm.DB, clientID string, offset, limit int) ([]domain.Chat, error)

	// ListChats returns all of the tenant's chats (non-paginated).
	ListChats(ctx context.Context, db *gorm.DB, clientID string) ([]domain.Chat, error)

	// ListMessages returns a chat's messages oldest first.
	ListMessages(ctx context.Context, db *gorm.DB, clientID, chatID string, limit int) ([]domain.Message, error)

	// MarkInboundRead flips received user messages to read.
	MarkInboundRead(ctx context.Context, db *gorm.DB, clientID, chatID string) (int64, error)

	// ResetUnread zeroes the chat's unread counter.
	ResetUnread(ctx context.Context, db *gorm.DB, clientID, chatID string) error
}

func (RepoStore) GetChat(ctx context.Context, db *gorm.DB, clientID, chatID string) (*domain.Chat, error) {
	return repo.GetChat(ctx, db, clientID, chatID)
}

func (RepoStore) CountChats(ctx context.Context, db *gorm.DB, clientID string) (int64, error) {
	return repo.CountChats(ctx, db, clientID)
}

func (RepoStore) ListChatsPage(ctx context.Context, db *gorm.DB, clientID string, offset, limit int) ([]domain.Chat, error) {
	return repo.ListChatsPage(ctx, db, clientID, offset, limit)
}

func (RepoStore) ListChats(ctx context.Context, db *gorm.DB, clientID string) ([]domain.Chat, error) {
	return repo.ListChats(ctx, db, clientID)
}

func (RepoStore) ListMessages(ctx context.Context, db *gorm.DB, clientID, chatID string, limit int) ([]domain.Message, error) {
	return repo.ListMessages(ctx, db, clientID, chatID, limit)
}

func (RepoStore) MarkInboundRead(ctx context.Context, db *gorm.DB, clientID, chatID string) (int64, error) {
	return repo.MarkInboundRead(ctx, db, clientID, chatID)
}

func (RepoStore) ResetUnread(ctx context.Context, db *gorm.DB, clientID, chatID string) error {
	return repo.ResetUnread(ctx, db, clientID, chatID)
}

// ChatService provides the read side of the dashboard.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the chat repository used by this service.
	Repo ChatRepo
	// Status reconciles each returned chat's handoff state.
	Status *StatusService

	// MessageLimit caps the messages returned by Get; <= 0 returns all.
	MessageLimit int
}

// NewChatService constructs a ChatService.
func NewChatService(db *gorm.DB, r ChatRepo, status *StatusService) *ChatService {
	return &ChatService{DB: db, Repo: r, Status: status}
}

// ChatDetail is a chat summary together with its messages, oldest first.
type ChatDetail struct {
	Chat     domain.Chat      `json:"chat"`
	Messages []domain.Message `json:"messages"`
}

// ListPage returns a paginated slice of the tenant's chats and the total
// count. Each chat carries its reconciled status.
func (s *ChatService) ListPage(ctx context.Context, tenantID string, page, pageSize int) ([]domain.Chat, int64, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, 0, ErrMissingTenant
	}
	page, pageSize = utils.ClampPage(page, pageSize, 20, 0)

	total, err := s.Repo.CountChats(ctx, s.DB, tenantID)
	if err != nil {
		return nil, 0, err
	}
	chats, err := s.Repo.ListChatsPage(ctx, s.DB, tenantID, utils.Offset(page, pageSize), pageSize)
	if err != nil {
		return nil, 0, err
	}
	for i := range chats {
		if err := s.applyStatus(ctx, &chats[i]); err != nil {
			return nil, 0, err
		}
	}
	return chats, total, nil
}

// Get returns a chat and its messages, marking inbound messages read and
// resetting the unread counter. It returns ErrChatNotFound when the chat has
// neither a record nor messages.
func (s *ChatService) Get(ctx context.Context, tenantID, chatID string) (*ChatDetail, error) {
	if err := validKey(tenantID, chatID); err != nil {
		return nil, err
	}

	msgs, err := s.Repo.ListMessages(ctx, s.DB, tenantID, chatID, s.MessageLimit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if _, err := s.Repo.GetChat(ctx, s.DB, tenantID, chatID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		if len(msgs) == 0 {
			return nil, ErrChatNotFound
		}
	}

	// GetStatus creates the record when only messages exist.
	if _, err := s.Status.GetStatus(ctx, tenantID, chatID); err != nil {
		return nil, err
	}
	if _, err := s.Repo.MarkInboundRead(ctx, s.DB, tenantID, chatID); err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID).Str("chat_id", chatID).Msg("mark messages read failed")
	}
	for i := range msgs {
		if msgs[i].Sender == domain.SenderUser && msgs[i].Status == domain.MessageReceived {
			msgs[i].Status = domain.MessageRead
		}
	}
	if err := s.Repo.ResetUnread(ctx, s.DB, tenantID, chatID); err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID).Str("chat_id", chatID).Msg("reset unread failed")
	}

	chat, err := s.Repo.GetChat(ctx, s.DB, tenantID, chatID)
	if err != nil {
		return nil, err
	}
	chat.UnreadCount = 0
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return &ChatDetail{Chat: *chat, Messages: msgs}, nil
}

var phoneNoise = regexp.MustCompile(`[\s\-()+]`)

// NormalizePhone strips spaces, dashes, parentheses and plus signs. Contact
// cards pasted from some phones use full-width digits, so those are folded
// to ASCII first.
func NormalizePhone(p string) string {
	return phoneNoise.ReplaceAllString(width.Fold.String(p), "")
}

// FindByPhone returns the first of the tenant's chats whose normalized phone
// number equals phone or contains it (or is contained by it).
func (s *ChatService) FindByPhone(ctx context.Context, tenantID, phone string) (*domain.Chat, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrMissingTenant
	}
	needle := NormalizePhone(phone)
	if needle == "" {
		return nil, ErrMissingPhone
	}

	chats, err := s.Repo.ListChats(ctx, s.DB, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range chats {
		c := &chats[i]
		hay := NormalizePhone(c.PhoneNumber)
		if hay == "" {
			continue
		}
		if hay == needle || strings.Contains(hay, needle) || strings.Contains(needle, hay) {
			if err := s.applyStatus(ctx, c); err != nil {
				return nil, err
			}
			c.UnreadCount = 0
			return c, nil
		}
	}
	return nil, ErrChatNotFound
}

func (s *ChatService) applyStatus(ctx context.Context, c *domain.Chat) error {
	h, err := s.Status.GetStatus(ctx, c.ClientID, c.ChatID)
	if err != nil {
		return err
	}
	c.Status = h.Mode
	c.StatusChangedAt = h.ChangedAt
	return nil
}
