// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Chat model,
// the primary record of a conversation and its handoff state.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Chats are addressed by their natural
// key (clientID, chatID).
//
// Error semantics:
//   - When a chat is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Usage:
//
//	chat, err := repo.EnsureChat(ctx, db, "T1", "5551234")
//	if err != nil {
//	    // handle DB failure
//	}
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// naturalKey is the ON CONFLICT target shared by chats and chat_states.
var naturalKey = []clause.Column{{Name: "client_id"}, {Name: "chat_id"}}

// statusColumns are overwritten on a status upsert.
var statusColumns = []string{"chat_status", "status_change_time", "updated_at"}

// newChat builds a bot-mode chat row with identity defaults derived from chatID.
func newChat(clientID, chatID string) *domain.Chat {
	now := time.Now().UTC()
	return &domain.Chat{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		ChatID:      chatID,
		ContactName: chatID,
		PhoneNumber: chatID,
		Status:      domain.ModeBot,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// GetChat fetches a single chat by its natural key. If the record does not
// exist, it returns ErrNotFound.
func GetChat(ctx context.Context, db *gorm.DB, clientID, chatID string) (*domain.Chat, error) {
	var c domain.Chat
	err := db.WithContext(ctx).
		Where("client_id = ? AND chat_id = ?", clientID, chatID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// EnsureChat returns the chat for (clientID, chatID), creating it in bot mode
// when missing. Concurrent creators converge on the same row.
func EnsureChat(ctx context.Context, db *gorm.DB, clientID, chatID string) (*domain.Chat, error) {
	c, err := GetChat(ctx, db, clientID, chatID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(newChat(clientID, chatID)).Error; err != nil {
		return nil, err
	}
	return GetChat(ctx, db, clientID, chatID)
}

// UpsertChatStatus writes mode and changedAt for (clientID, chatID), creating
// the chat when missing. A nil changedAt stores NULL.
func UpsertChatStatus(ctx context.Context, db *gorm.DB, clientID, chatID string, mode domain.Mode, changedAt *time.Time) error {
	c := newChat(clientID, chatID)
	c.Status = mode
	c.StatusChangedAt = changedAt
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   naturalKey,
			DoUpdates: clause.AssignmentColumns(statusColumns),
		}).
		Create(c).Error
}

// RenewChatStatus moves status_change_time to at, but only while the chat is
// in human mode. It reports the number of rows touched.
func RenewChatStatus(ctx context.Context, db *gorm.DB, clientID, chatID string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("client_id = ? AND chat_id = ? AND chat_status = ?", clientID, chatID, domain.ModeHuman).
		Updates(map[string]any{"status_change_time": at, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// SummaryUpdate carries the chat-list preview fields touched by a new message.
// Empty PhoneNumber and ContactName leave the stored values unchanged.
type SummaryUpdate struct {
	LastMessage     string
	LastMessageAt   time.Time
	PhoneNumber     string
	ContactName     string
	IncrementUnread bool
}

// UpdateChatSummary applies u to the chat, creating it in bot mode when
// missing, and returns the updated row. The handoff fields are never touched.
func UpdateChatSummary(ctx context.Context, db *gorm.DB, clientID, chatID string, u SummaryUpdate) (*domain.Chat, error) {
	if _, err := EnsureChat(ctx, db, clientID, chatID); err != nil {
		return nil, err
	}
	set := map[string]any{
		"last_message":    u.LastMessage,
		"last_message_at": u.LastMessageAt.UTC(),
		"updated_at":      time.Now().UTC(),
	}
	if u.PhoneNumber != "" {
		set["phone_number"] = u.PhoneNumber
	}
	if u.ContactName != "" {
		set["contact_name"] = u.ContactName
	}
	if u.IncrementUnread {
		set["unread_count"] = gorm.Expr("unread_count + 1")
	}
	if err := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("client_id = ? AND chat_id = ?", clientID, chatID).
		Updates(set).Error; err != nil {
		return nil, err
	}
	return GetChat(ctx, db, clientID, chatID)
}

// ResetUnread zeroes the unread counter of a chat.
func ResetUnread(ctx context.Context, db *gorm.DB, clientID, chatID string) error {
	return db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("client_id = ? AND chat_id = ?", clientID, chatID).
		Update("unread_count", 0).Error
}

// CountChats returns the total number of chats owned by clientID.
func CountChats(ctx context.Context, db *gorm.DB, clientID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("client_id = ?", clientID).
		Count(&total).Error
	return total, err
}

// ListChatsPage returns a paginated slice of chats for clientID, most recent
// message first; chats without messages sort last.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListChatsPage(ctx context.Context, db *gorm.DB, clientID string, offset, limit int) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("last_message_at DESC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListChats returns every chat of clientID (unpaginated).
func ListChats(ctx context.Context, db *gorm.DB, clientID string) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("last_message_at DESC, created_at DESC").
		Find(&out).Error
	return out, err
}

// ListHumanChats returns chats currently stored in human mode across all
// tenants, oldest switch first.
func ListHumanChats(ctx context.Context, db *gorm.DB) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Where("chat_status = ?", domain.ModeHuman).
		Order("status_change_time ASC").
		Find(&out).Error
	return out, err
}
