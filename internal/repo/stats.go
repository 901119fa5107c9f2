// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
)

// ChatsStats returns aggregate metadata for a tenant's chats: the total number
// of rows and the maximum UpdatedAt timestamp among those rows.
//
// When the tenant has no chats, the returned count is 0 and maxUpdatedAt is nil.
//
// Return values:
//   - count:        total chats for clientID
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func ChatsStats(ctx context.Context, db *gorm.DB, clientID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return latestUpdate(db.WithContext(ctx).Model(&domain.Chat{}).Where("client_id = ?", clientID))
}

// MessagesStats returns the number of messages within a tenant's chat and the
// maximum UpdatedAt timestamp among them.
func MessagesStats(ctx context.Context, db *gorm.DB, clientID, chatID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return latestUpdate(db.WithContext(ctx).Model(&domain.Message{}).
		Where("client_id = ? AND chat_id = ?", clientID, chatID))
}

func latestUpdate(q *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
