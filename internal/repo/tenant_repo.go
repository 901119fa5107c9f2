// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Tenant model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
)

// GetTenant fetches a tenant by client id or returns ErrNotFound.
func GetTenant(ctx context.Context, db *gorm.DB, clientID string) (*domain.Tenant, error) {
	var t domain.Tenant
	if err := db.WithContext(ctx).Where("client_id = ?", clientID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertTenantToken stores the WhatsApp access token (and optional name) for clientID.
func UpsertTenantToken(ctx context.Context, db *gorm.DB, clientID, name, token string) error {
	now := time.Now().UTC()
	t := &domain.Tenant{
		ClientID:      clientID,
		Name:          name,
		WhatsAppToken: token,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	cols := []string{"whatsapp_token", "updated_at"}
	if name != "" {
		cols = append(cols, "name")
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}},
			DoUpdates: clause.AssignmentColumns(cols),
		}).
		Create(t).Error
}
