package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
	"github.com/tbourn/wa-handoff-panel/internal/events"
	"github.com/tbourn/wa-handoff-panel/internal/repo"
	"github.com/tbourn/wa-handoff-panel/internal/sse"
)

func TestGetStatus_Validation(t *testing.T) {
	s, _, _ := newStatusService(t, newServiceDB(t), RepoStore{})
	ctx := context.Background()
	if _, err := s.GetStatus(ctx, "", "c1"); !errors.Is(err, ErrMissingTenant) {
		t.Fatalf("missing tenant: %v", err)
	}
	if _, err := s.GetStatus(ctx, "T1", " "); !errors.Is(err, ErrMissingChat) {
		t.Fatalf("missing chat: %v", err)
	}
}

func TestGetStatus_LazyCreatesBothRecordsInBotMode(t *testing.T) {
	db := newServiceDB(t)
	s, n, _ := newStatusService(t, db, RepoStore{})

	h, err := s.GetStatus(context.Background(), "T1", "5551234")
	if err != nil {
		t.Fatal(err)
	}
	if h.Mode != domain.ModeBot || h.ChangedAt != nil || h.Reverted {
		t.Fatalf("handoff = %+v", h)
	}
	c, st := records(t, db, "T1", "5551234")
	if c.Status != domain.ModeBot || st.Status != domain.ModeBot {
		t.Fatalf("records = %q / %q", c.Status, st.Status)
	}
	if len(n.kinds()) != 0 {
		t.Fatalf("read broadcast %v", n.kinds())
	}
}

func TestManualHandoffRoundTrip(t *testing.T) {
	db := newServiceDB(t)
	s, n, clk := newStatusService(t, db, RepoStore{})
	ctx := context.Background()

	h, err := s.SetStatus(ctx, "T1", "5551234", domain.ModeHuman)
	if err != nil {
		t.Fatal(err)
	}
	if h.Mode != domain.ModeHuman || h.ChangedAt == nil || !h.ChangedAt.Equal(clk.Now()) {
		t.Fatalf("to human = %+v", h)
	}

	h, err = s.SetStatus(ctx, "T1", "5551234", domain.ModeBot)
	if err != nil {
		t.Fatal(err)
	}
	if h.Mode != domain.ModeBot || h.ChangedAt != nil {
		t.Fatalf("to bot = %+v", h)
	}

	kinds := n.kinds()
	if len(kinds) != 2 || kinds[0] != sse.KindChatStatusChanged || kinds[1] != sse.KindChatStatusChanged {
		t.Fatalf("broadcasts = %v", kinds)
	}
	p := n.got[0].Payload.(StatusChangedPayload)
	if p.ChatStatus != domain.ModeHuman || p.ClientID != "T1" || p.ChatID != "5551234" || n.got[0].TenantID != "T1" {
		t.Fatalf("payload = %+v tenant=%s", p, n.got[0].TenantID)
	}
}

func TestSetStatus_RejectsInvalidModeWithoutWriting(t *testing.T) {
	db := newServiceDB(t)
	s, n, _ := newStatusService(t, db, RepoStore{})

	if _, err := s.SetStatus(context.Background(), "T1", "c1", "agent"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("err = %v", err)
	}
	if _, err := repo.GetChat(context.Background(), db, "T1", "c1"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatal("invalid mode created a record")
	}
	if len(n.kinds()) != 0 {
		t.Fatal("invalid mode broadcast")
	}
}

func TestSetStatus_DualWriteConvergence(t *testing.T) {
	db := newServiceDB(t)
	s, _, _ := newStatusService(t, db, RepoStore{})

	if _, err := s.SetStatus(context.Background(), "T1", "c1", domain.ModeHuman); err != nil {
		t.Fatal(err)
	}
	c, st := records(t, db, "T1", "c1")
	if c.Status != domain.ModeHuman || st.Status != domain.ModeHuman {
		t.Fatalf("modes = %q / %q", c.Status, st.Status)
	}
	if c.StatusChangedAt == nil || st.StatusChangedAt == nil || !c.StatusChangedAt.Equal(*st.StatusChangedAt) {
		t.Fatalf("timestamps = %v / %v", c.StatusChangedAt, st.StatusChangedAt)
	}
}

func TestGetStatus_IdempotentWhileHuman(t *testing.T) {
	db := newServiceDB(t)
	s, _, clk := newStatusService(t, db, RepoStore{})
	ctx := context.Background()

	if _, err := s.SetStatus(ctx, "T1", "c1", domain.ModeHuman); err != nil {
		t.Fatal(err)
	}
	clk.Advance(5 * time.Minute)

	a, err := s.GetStatus(ctx, "T1", "c1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.GetStatus(ctx, "T1", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if a.Mode != domain.ModeHuman || b.Mode != a.Mode || !a.ChangedAt.Equal(*b.ChangedAt) {
		t.Fatalf("reads differ: %+v vs %+v", a, b)
	}
}

func TestGetStatus_TimeoutBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    domain.Mode
	}{
		{"29m stays human", 29 * time.Minute, domain.ModeHuman},
		{"31m reverts", 31 * time.Minute, domain.ModeBot},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := newServiceDB(t)
			s, _, clk := newStatusService(t, db, RepoStore{})
			ctx := context.Background()

			if _, err := s.SetStatus(ctx, "T1", "c1", domain.ModeHuman); err != nil {
				t.Fatal(err)
			}
			clk.Advance(tc.elapsed)

			h, err := s.GetStatus(ctx, "T1", "c1")
			if err != nil {
				t.Fatal(err)
			}
			if h.Mode != tc.want {
				t.Fatalf("mode = %q, want %q", h.Mode, tc.want)
			}
			c, st := records(t, db, "T1", "c1")
			if c.Status != tc.want || st.Status != tc.want {
				t.Fatalf("records = %q / %q", c.Status, st.Status)
			}
		})
	}
}

func TestGetStatus_TimeoutAutoRevertIsSticky(t *testing.T) {
	db := newServiceDB(t)
	s, n, clk := newStatusService(t, db, RepoStore{})
	ctx := context.Background()

	forced := clk.Now().Add(-35 * time.Minute)
	if err := repo.UpsertChatStatus(ctx, db, "T1", "5551234", domain.ModeHuman, &forced); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertChatStateStatus(ctx, db, "T1", "5551234", domain.ModeHuman, &forced); err != nil {
		t.Fatal(err)
	}

	h, err := s.GetStatus(ctx, "T1", "5551234")
	if err != nil {
		t.Fatal(err)
	}
	if h.Mode != domain.ModeBot || h.ChangedAt != nil || !h.Reverted {
		t.Fatalf("first read = %+v", h)
	}
	if len(n.got) != 1 || n.got[0].Kind != sse.KindChatStatusChanged || n.got[0].TenantID != "T1" {
		t.Fatalf("revert broadcasts = %v", n.kinds())
	}
	if p, _ := n.got[0].Payload.(StatusChangedPayload); p.ChatStatus != domain.ModeBot || p.ChatID != "5551234" || p.StatusChangeTime != nil {
		t.Fatalf("revert payload = %+v", n.got[0].Payload)
	}
	h, err = s.GetStatus(ctx, "T1", "5551234")
	if err != nil {
		t.Fatal(err)
	}
	if h.Mode != domain.ModeBot || h.ChangedAt != nil || h.Reverted {
		t.Fatalf("second read = %+v", h)
	}
	if len(n.got) != 1 {
		t.Fatalf("second read re-announced: %v", n.kinds())
	}
	c, st := records(t, db, "T1", "5551234")
	if c.StatusChangedAt != nil || st.StatusChangedAt != nil || c.Status != domain.ModeBot || st.Status != domain.ModeBot {
		t.Fatalf("records not reverted: %+v / %+v", c, st)
	}
}

func TestGetStatus_HumanWithoutTimestampExpires(t *testing.T) {
	db := newServiceDB(t)
	s, _, _ := newStatusService(t, db, RepoStore{})
	ctx := context.Background()
	if err := repo.UpsertChatStatus(ctx, db, "T1", "c1", domain.ModeHuman, nil); err != nil {
		t.Fatal(err)
	}
	h, err := s.GetStatus(ctx, "T1", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if h.Mode != domain.ModeBot || !h.Reverted {
		t.Fatalf("handoff = %+v", h)
	}
}

func TestGetStatus_ReconcilesDisagreement(t *testing.T) {
	db := newServiceDB(t)
	s, _, clk := newStatusService(t, db, RepoStore{})
	ctx := context.Background()

	at := clk.Now().Add(-10 * time.Minute)
	if err := repo.UpsertChatStatus(ctx, db, "T1", "c1", domain.ModeBot, nil); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertChatStateStatus(ctx, db, "T1", "c1", domain.ModeHuman, &at); err != nil {
		t.Fatal(err)
	}

	h, err := s.GetStatus(ctx, "T1", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if h.Mode != domain.ModeHuman || !h.ChangedAt.Equal(at) {
		t.Fatalf("handoff = %+v", h)
	}
	c, st := records(t, db, "T1", "c1")
	if c.Status != domain.ModeHuman || !c.StatusChangedAt.Equal(*st.StatusChangedAt) {
		t.Fatalf("primary not repaired: %+v", c)
	}
}

func TestSetStatus_SecondaryFailureIsSwallowed(t *testing.T) {
	db := newServiceDB(t)
	s, n, _ := newStatusService(t, db, flakyStore{failSecondary: true})

	h, err := s.SetStatus(context.Background(), "T1", "c1", domain.ModeHuman)
	if err != nil {
		t.Fatalf("secondary failure propagated: %v", err)
	}
	if h.Mode != domain.ModeHuman {
		t.Fatalf("mode = %q", h.Mode)
	}
	c, err := repo.GetChat(context.Background(), db, "T1", "c1")
	if err != nil || c.Status != domain.ModeHuman {
		t.Fatalf("primary = %+v err=%v", c, err)
	}
	if len(n.kinds()) != 1 {
		t.Fatalf("broadcasts = %v", n.kinds())
	}

	// Reads keep working while the mirror is down.
	if h, err := s.GetStatus(context.Background(), "T1", "c1"); err != nil || h.Mode != domain.ModeHuman {
		t.Fatalf("GetStatus = %+v err=%v", h, err)
	}
}

func TestSecondaryHealsOnNextRead(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()
	broken, _, clk := newStatusService(t, db, flakyStore{failSecondary: true})
	if _, err := broken.SetStatus(ctx, "T1", "c1", domain.ModeHuman); err != nil {
		t.Fatal(err)
	}

	healthy := NewStatusService(db, RepoStore{}, &recNotifier{})
	healthy.Now = clk.Now
	if _, err := healthy.GetStatus(ctx, "T1", "c1"); err != nil {
		t.Fatal(err)
	}
	c, st := records(t, db, "T1", "c1")
	if st.Status != domain.ModeHuman || !st.StatusChangedAt.Equal(*c.StatusChangedAt) {
		t.Fatalf("mirror not healed: %+v", st)
	}
}

func TestSetStatus_PrimaryFailurePropagatesAndDoesNotBroadcast(t *testing.T) {
	db := newServiceDB(t)
	s, n, _ := newStatusService(t, db, flakyStore{failPrimary: true})

	if _, err := s.SetStatus(context.Background(), "T1", "c1", domain.ModeHuman); !errors.Is(err, errStore) {
		t.Fatalf("err = %v", err)
	}
	if len(n.kinds()) != 0 {
		t.Fatal("broadcast after failed primary write")
	}
}

func TestSetStatus_PublishesMirrorEvent(t *testing.T) {
	db := newServiceDB(t)
	s, _, _ := newStatusService(t, db, RepoStore{})
	pub := &recPublisher{err: errors.New("broker down")}
	s.Events = pub

	if _, err := s.SetStatus(context.Background(), "T1", "c1", domain.ModeHuman); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
	if len(pub.types) != 1 || pub.types[0] != events.TypeChatStatusChanged {
		t.Fatalf("published = %v", pub.types)
	}
}

func TestRenewIfHuman(t *testing.T) {
	db := newServiceDB(t)
	s, _, clk := newStatusService(t, db, RepoStore{})
	ctx := context.Background()

	s.RenewIfHuman(ctx, "T1", "bot-chat")
	if _, err := repo.GetChat(ctx, db, "T1", "bot-chat"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatal("renew created a record")
	}

	if _, err := s.SetStatus(ctx, "T1", "c1", domain.ModeHuman); err != nil {
		t.Fatal(err)
	}
	clk.Advance(25 * time.Minute)
	s.RenewIfHuman(ctx, "T1", "c1")

	c, st := records(t, db, "T1", "c1")
	if !c.StatusChangedAt.Equal(clk.Now()) || !st.StatusChangedAt.Equal(clk.Now()) {
		t.Fatalf("not renewed: %v / %v", c.StatusChangedAt, st.StatusChangedAt)
	}

	// 25 + 25 minutes after the original switch, but only 25 after renewal.
	clk.Advance(25 * time.Minute)
	if h, _ := s.GetStatus(ctx, "T1", "c1"); h.Mode != domain.ModeHuman {
		t.Fatalf("renewed session expired early: %+v", h)
	}
}

func TestSweepExpired(t *testing.T) {
	db := newServiceDB(t)
	s, n, clk := newStatusService(t, db, RepoStore{})
	ctx := context.Background()

	stale := clk.Now().Add(-45 * time.Minute)
	fresh := clk.Now().Add(-5 * time.Minute)
	_ = repo.UpsertChatStatus(ctx, db, "T1", "stale", domain.ModeHuman, &stale)
	_ = repo.UpsertChatStatus(ctx, db, "T2", "fresh", domain.ModeHuman, &fresh)
	_ = repo.UpsertChatStatus(ctx, db, "T2", "bot", domain.ModeBot, nil)

	reverted, err := s.SweepExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if reverted != 1 {
		t.Fatalf("reverted = %d", reverted)
	}
	c, st := records(t, db, "T1", "stale")
	if c.Status != domain.ModeBot || st.Status != domain.ModeBot {
		t.Fatalf("stale not reverted: %q / %q", c.Status, st.Status)
	}
	if f, _ := repo.GetChat(ctx, db, "T2", "fresh"); f.Status != domain.ModeHuman {
		t.Fatal("fresh session swept")
	}
	if len(n.got) != 1 || n.got[0].TenantID != "T1" {
		t.Fatalf("broadcasts = %+v", n.got)
	}
}
