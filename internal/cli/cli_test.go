package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/wa-handoff-panel/internal/domain"
	"github.com/tbourn/wa-handoff-panel/internal/repo"
)

// run executes one command line against a fresh tree and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "panel.db")
	t.Setenv("DB_PATH", path)
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func TestMigrate_CreatesSchema(t *testing.T) {
	path := tempDB(t)

	out, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestTenantSetToken(t *testing.T) {
	path := tempDB(t)

	if _, err := run(t, "tenant", "set-token", "1234567890", "EAAG-one", "--name", "Acme"); err != nil {
		t.Fatalf("set-token: %v", err)
	}
	if _, err := run(t, "tenant", "set-token", "1234567890", "EAAG-two"); err != nil {
		t.Fatalf("rotate token: %v", err)
	}
	if _, err := run(t, "tenant", "set-token", "1234567890"); err == nil {
		t.Fatalf("expected an argument error")
	}

	db, err := repo.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	tn, err := repo.GetTenant(context.Background(), db, "1234567890")
	if err != nil {
		t.Fatalf("get tenant: %v", err)
	}
	if tn.WhatsAppToken != "EAAG-two" || tn.Name != "Acme" {
		t.Fatalf("unexpected tenant: %+v", tn)
	}
}

func TestSweep_RevertsExpiredSessions(t *testing.T) {
	path := tempDB(t)
	if _, err := run(t, "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	db, err := repo.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	stale := time.Now().UTC().Add(-45 * time.Minute)
	fresh := time.Now().UTC().Add(-5 * time.Minute)
	for chatID, at := range map[string]time.Time{"stale": stale, "fresh": fresh} {
		at := at
		if err := repo.UpsertChatStatus(ctx, db, "T1", chatID, domain.ModeHuman, &at); err != nil {
			t.Fatalf("seed chat: %v", err)
		}
		if err := repo.UpsertChatStateStatus(ctx, db, "T1", chatID, domain.ModeHuman, &at); err != nil {
			t.Fatalf("seed state: %v", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	out, err := run(t, "sweep")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "reverted 1 ") {
		t.Fatalf("unexpected output %q", out)
	}

	db, err = repo.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	for chatID, want := range map[string]domain.Mode{"stale": domain.ModeBot, "fresh": domain.ModeHuman} {
		c, err := repo.GetChat(ctx, db, "T1", chatID)
		if err != nil || c.Status != want {
			t.Fatalf("chat %s: %+v %v", chatID, c, err)
		}
		st, err := repo.GetChatState(ctx, db, "T1", chatID)
		if err != nil || st.Status != want {
			t.Fatalf("state %s: %+v %v", chatID, st, err)
		}
	}
}

func TestServe_RequiresJWTSecret(t *testing.T) {
	tempDB(t)
	t.Setenv("JWT_SECRET", "")

	_, err := run(t, "serve")
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestEnvFile_Missing(t *testing.T) {
	tempDB(t)
	if _, err := run(t, "--env-file", filepath.Join(t.TempDir(), "nope.env"), "migrate"); err == nil {
		t.Fatalf("expected an error for a missing --env-file")
	}
}
