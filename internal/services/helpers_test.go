package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
	"github.com/tbourn/wa-handoff-panel/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type broadcast struct {
	Kind     string
	Payload  any
	TenantID string
}

// recNotifier records broadcasts.
type recNotifier struct {
	mu  sync.Mutex
	got []broadcast
}

func (n *recNotifier) Broadcast(kind string, payload any, tenantID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, broadcast{kind, payload, tenantID})
	return 1
}

func (n *recNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.got))
	for i, b := range n.got {
		out[i] = b.Kind
	}
	return out
}

// recPublisher records published event types.
type recPublisher struct {
	mu    sync.Mutex
	types []string
	err   error
}

func (p *recPublisher) Publish(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
	return p.err
}

var errStore = errors.New("store unavailable")

// flakyStore wraps RepoStore and can fail either record's writes.
type flakyStore struct {
	RepoStore
	failPrimary   bool
	failSecondary bool
}

func (f flakyStore) EnsureChatState(ctx context.Context, db *gorm.DB, c, id string) (*domain.ChatState, error) {
	if f.failSecondary {
		return nil, errStore
	}
	return f.RepoStore.EnsureChatState(ctx, db, c, id)
}

func (f flakyStore) UpsertChatStatus(ctx context.Context, db *gorm.DB, c, id string, m domain.Mode, at *time.Time) error {
	if f.failPrimary {
		return errStore
	}
	return f.RepoStore.UpsertChatStatus(ctx, db, c, id, m, at)
}

func (f flakyStore) UpsertChatStateStatus(ctx context.Context, db *gorm.DB, c, id string, m domain.Mode, at *time.Time) error {
	if f.failSecondary {
		return errStore
	}
	return f.RepoStore.UpsertChatStateStatus(ctx, db, c, id, m, at)
}

func (f flakyStore) RenewChatStateStatus(ctx context.Context, db *gorm.DB, c, id string, at time.Time) (int64, error) {
	if f.failSecondary {
		return 0, errStore
	}
	return f.RepoStore.RenewChatStateStatus(ctx, db, c, id, at)
}

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newStatusService(t *testing.T, db *gorm.DB, store StateStore) (*StatusService, *recNotifier, *clock) {
	t.Helper()
	n := &recNotifier{}
	clk := newClock()
	s := NewStatusService(db, store, n)
	s.Now = clk.Now
	return s, n, clk
}

// records loads both rows for (tenant, chat).
func records(t *testing.T, db *gorm.DB, tenant, chat string) (*domain.Chat, *domain.ChatState) {
	t.Helper()
	c, err := repo.GetChat(context.Background(), db, tenant, chat)
	if err != nil {
		t.Fatalf("load chat: %v", err)
	}
	s, err := repo.GetChatState(context.Background(), db, tenant, chat)
	if err != nil {
		t.Fatalf("load chat state: %v", err)
	}
	return c, s
}
