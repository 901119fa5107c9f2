package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
)

func TestEnsureChatState_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := GetChatState(ctx, db, "T1", "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	s1, err := EnsureChatState(ctx, db, "T1", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if s1.Status != domain.ModeBot || s1.StatusChangedAt != nil {
		t.Fatalf("new state = %+v", s1)
	}
	s2, _ := EnsureChatState(ctx, db, "T1", "c1")
	if s2.ID != s1.ID {
		t.Fatal("EnsureChatState created a duplicate")
	}
}

func TestUpsertAndRenewChatState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	at := time.Now().UTC().Add(-10 * time.Minute)
	later := time.Now().UTC().Truncate(time.Millisecond)

	if err := UpsertChatStateStatus(ctx, db, "T1", "c1", domain.ModeHuman, &at); err != nil {
		t.Fatal(err)
	}
	if n, err := RenewChatStateStatus(ctx, db, "T1", "c1", later); err != nil || n != 1 {
		t.Fatalf("renew: n=%d err=%v", n, err)
	}
	s, _ := GetChatState(ctx, db, "T1", "c1")
	if s.Status != domain.ModeHuman || !s.StatusChangedAt.Equal(later) {
		t.Fatalf("state = %+v", s)
	}

	if err := UpsertChatStateStatus(ctx, db, "T1", "c1", domain.ModeBot, nil); err != nil {
		t.Fatal(err)
	}
	if n, _ := RenewChatStateStatus(ctx, db, "T1", "c1", later); n != 0 {
		t.Fatalf("renewed a bot state: %d", n)
	}
	s, _ = GetChatState(ctx, db, "T1", "c1")
	if s.Status != domain.ModeBot || s.StatusChangedAt != nil {
		t.Fatalf("state = %+v", s)
	}
}
