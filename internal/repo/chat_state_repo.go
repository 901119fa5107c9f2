// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ChatState
// model, the secondary handoff record mirrored from chats.
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

func newChatState(clientID, chatID string) *domain.ChatState {
	now := time.Now().UTC()
	return &domain.ChatState{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		ChatID:    chatID,
		Status:    domain.ModeBot,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetChatState fetches the state record for (clientID, chatID) or ErrNotFound.
func GetChatState(ctx context.Context, db *gorm.DB, clientID, chatID string) (*domain.ChatState, error) {
	var s domain.ChatState
	err := db.WithContext(ctx).
		Where("client_id = ? AND chat_id = ?", clientID, chatID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// EnsureChatState returns the state record, creating it in bot mode when missing.
func EnsureChatState(ctx context.Context, db *gorm.DB, clientID, chatID string) (*domain.ChatState, error) {
	s, err := GetChatState(ctx, db, clientID, chatID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(newChatState(clientID, chatID)).Error; err != nil {
		return nil, err
	}
	return GetChatState(ctx, db, clientID, chatID)
}

// UpsertChatStateStatus writes mode and changedAt, creating the record when missing.
func UpsertChatStateStatus(ctx context.Context, db *gorm.DB, clientID, chatID string, mode domain.Mode, changedAt *time.Time) error {
	s := newChatState(clientID, chatID)
	s.Status = mode
	s.StatusChangedAt = changedAt
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   naturalKey,
			DoUpdates: clause.AssignmentColumns(statusColumns),
		}).
		Create(s).Error
}

// RenewChatStateStatus moves status_change_time to at while the record is in
// human mode.
func RenewChatStateStatus(ctx context.Context, db *gorm.DB, clientID, chatID string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.ChatState{}).
		Where("client_id = ? AND chat_id = ? AND chat_status = ?", clientID, chatID, domain.ModeHuman).
		Updates(map[string]any{"status_change_time": at, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}
