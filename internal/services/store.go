package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
	"github.com/tbourn/wa-handoff-panel/internal/repo"
)

// StateStore is the persistence contract of the handoff state machine. The
// Chat record is primary; the ChatState record is its mirror.
type StateStore interface {
	EnsureChat(ctx context.Context, db *gorm.DB, clientID, chatID string) (*domain.Chat, error)
	EnsureChatState(ctx context.Context, db *gorm.DB, clientID, chatID string) (*domain.ChatState, error)

	UpsertChatStatus(ctx context.Context, db *gorm.DB, clientID, chatID string, mode domain.Mode, changedAt *time.Time) error
	UpsertChatStateStatus(ctx context.Context, db *gorm.DB, clientID, chatID string, mode domain.Mode, changedAt *time.Time) error

	RenewChatStatus(ctx context.Context, db *gorm.DB, clientID, chatID string, at time.Time) (int64, error)
	RenewChatStateStatus(ctx context.Context, db *gorm.DB, clientID, chatID string, at time.Time) (int64, error)

	ListHumanChats(ctx context.Context, db *gorm.DB) ([]domain.Chat, error)
}

// RepoStore adapts the repo free functions to StateStore.
type RepoStore struct{}

func (RepoStore) EnsureChat(ctx context.Context, db *gorm.DB, clientID, chatID string) (*domain.Chat, error) {
	return repo.EnsureChat(ctx, db, clientID, chatID)
}

func (RepoStore) EnsureChatState(ctx context.Context, db *gorm.DB, clientID, chatID string) (*domain.ChatState, error) {
	return repo.EnsureChatState(ctx, db, clientID, chatID)
}

func (RepoStore) UpsertChatStatus(ctx context.Context, db *gorm.DB, clientID, chatID string, mode domain.Mode, changedAt *time.Time) error {
	return repo.UpsertChatStatus(ctx, db, clientID, chatID, mode, changedAt)
}

func (RepoStore) UpsertChatStateStatus(ctx context.Context, db *gorm.DB, clientID, chatID string, mode domain.Mode, changedAt *time.Time) error {
	return repo.UpsertChatStateStatus(ctx, db, clientID, chatID, mode, changedAt)
}

func (RepoStore) RenewChatStatus(ctx context.Context, db *gorm.DB, clientID, chatID string, at time.Time) (int64, error) {
	return repo.RenewChatStatus(ctx, db, clientID, chatID, at)
}

func (RepoStore) RenewChatStateStatus(ctx context.Context, db *gorm.DB, clientID, chatID string, at time.Time) (int64, error) {
	return repo.RenewChatStateStatus(ctx, db, clientID, chatID, at)
}

func (RepoStore) ListHumanChats(ctx context.Context, db *gorm.DB) ([]domain.Chat, error) {
	return repo.ListHumanChats(ctx, db)
}

// Notifier fans an event out to the dashboard sessions allowed to see
// tenantID. It returns the number of sessions reached.
type Notifier interface {
	Broadcast(kind string, payload any, tenantID string) int
}

// Publisher mirrors domain events to an external bus.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}
