package domain

import "time"

// Idempotency is a manual reply as recorded under an operator's
// Idempotency-Key. A retry with the same operator, chat and key gets the
// stored message back instead of a second WhatsApp send.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_operator_chat_key,priority:1"`
	ChatID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_operator_chat_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_operator_chat_key,priority:3"`
	MessageID string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"` // HTTP status of the first reply
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

func (Idempotency) TableName() string { return "idempotency" }

// NewIdempotency records messageID under key until now+ttl.
func NewIdempotency(id, userID, chatID, key, messageID string, status int, now time.Time, ttl time.Duration) Idempotency {
	now = now.UTC()
	return Idempotency{
		ID:        id,
		UserID:    userID,
		ChatID:    chatID,
		Key:       key,
		MessageID: messageID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Live reports whether the record can still be replayed at now.
func (i Idempotency) Live(now time.Time) bool { return now.Before(i.ExpiresAt) }
