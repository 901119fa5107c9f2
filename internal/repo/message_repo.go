// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
)

// CreateMessage inserts m, filling ID, Timestamp and Status when empty.
func CreateMessage(ctx context.Context, db *gorm.DB, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	if m.Status == "" {
		m.Status = domain.MessageSent
	}
	return db.WithContext(ctx).Create(m).Error
}

// GetMessage fetches a message by ID.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkMessageFailed flags a message whose relay to WhatsApp failed.
func MarkMessageFailed(ctx context.Context, db *gorm.DB, id, reason string) error {
	return db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": domain.MessageFailed, "error_message": reason}).Error
}

// ListMessages returns a chat's messages ordered deterministically
// (Timestamp ASC, ID ASC). A limit <= 0 returns all.
func ListMessages(ctx context.Context, db *gorm.DB, clientID, chatID string, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.WithContext(ctx).
		Where("client_id = ? AND chat_id = ?", clientID, chatID).
		Order("timestamp ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountMessages returns the number of messages stored for a chat.
func CountMessages(ctx context.Context, db *gorm.DB, clientID, chatID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("client_id = ? AND chat_id = ?", clientID, chatID).
		Count(&total).Error
	return total, err
}

// ListMessagesPage returns a paginated slice ordered (Timestamp ASC, ID ASC).
func ListMessagesPage(ctx context.Context, db *gorm.DB, clientID, chatID string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("client_id = ? AND chat_id = ?", clientID, chatID).
		Order("timestamp ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkInboundRead flips the chat's received user messages to read and
// returns how many were updated.
func MarkInboundRead(ctx context.Context, db *gorm.DB, clientID, chatID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("client_id = ? AND chat_id = ? AND sender = ? AND status = ?",
			clientID, chatID, domain.SenderUser, domain.MessageReceived).
		Update("status", domain.MessageRead)
	return res.RowsAffected, res.Error
}
