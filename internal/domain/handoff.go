package domain

import "time"

// DefaultHumanTimeout is the inactivity window after which a human session
// reverts to the bot.
const DefaultHumanTimeout = 30 * time.Minute

// IsExpired reports whether a conversation in mode, last switched at
// changedAt, should revert to the bot at now.
//
// Only human sessions expire. A human session older than window expires, and
// so does one without a timestamp.
func IsExpired(mode Mode, changedAt *time.Time, now time.Time, window time.Duration) bool {
	if mode != ModeHuman {
		return false
	}
	if changedAt == nil {
		return true
	}
	return now.Sub(*changedAt) > window
}

// Handoff is the reconciled view of a conversation's handoff state.
type Handoff struct {
	ClientID  string     `json:"clientId"`
	ChatID    string     `json:"chatId"`
	Mode      Mode       `json:"chatStatus"`
	ChangedAt *time.Time `json:"statusChangeTime"`
	// Reverted is true when the read detected an expired human session and
	// wrote the bot state back.
	Reverted bool `json:"-"`
}

// Merge combines the primary and secondary records into a single state.
// Either record voting human wins; the most recent timestamp is kept. Nil
// records count as bot.
func Merge(chat *Chat, state *ChatState) (Mode, *time.Time) {
	var (
		human bool
		ts    *time.Time
	)
	pick := func(m Mode, t *time.Time) {
		if m != ModeHuman {
			return
		}
		human = true
		if t != nil && (ts == nil || t.After(*ts)) {
			ts = t
		}
	}
	if chat != nil {
		pick(chat.Status, chat.StatusChangedAt)
	}
	if state != nil {
		pick(state.Status, state.StatusChangedAt)
	}
	if !human {
		return ModeBot, nil
	}
	return ModeHuman, ts
}
