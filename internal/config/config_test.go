package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Clear all env that might affect defaults. t.Setenv isolates per test.
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "panel/api/") // no leading slash + trailing slash -> "/panel/api"

	// App
	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("N8N_API_TOKEN", "wf")
	t.Setenv("HUMAN_MODE_TIMEOUT", "45m")
	t.Setenv("SWEEP_INTERVAL", "1m")
	t.Setenv("SSE_HEARTBEAT_INTERVAL", "15s")
	t.Setenv("SSE_SESSION_BUFFER", "32")
	t.Setenv("WHATSAPP_API_BASE_URL", "http://graph.local/v22.0/")
	t.Setenv("WHATSAPP_TIMEOUT", "5s")
	t.Setenv("AMQP_URL", "amqp://guest:guest@mq:5672/")
	t.Setenv("AMQP_EXCHANGE", "panel")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// Idempotency
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "HTTP")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/panel/api" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// App
	if cfg.DBPath != "db.sqlite" || cfg.Auth.JWTSecret != "s3cret" || cfg.Auth.N8NToken != "wf" {
		t.Fatalf("app fields unexpected: %+v", cfg)
	}
	if cfg.Handoff.HumanTimeout != 45*time.Minute || cfg.Handoff.SweepInterval != time.Minute {
		t.Fatalf("handoff unexpected: %+v", cfg.Handoff)
	}
	if cfg.SSE.HeartbeatInterval != 15*time.Second || cfg.SSE.SessionBuffer != 32 {
		t.Fatalf("sse unexpected: %+v", cfg.SSE)
	}
	if cfg.WhatsApp.BaseURL != "http://graph.local/v22.0" || cfg.WhatsApp.Timeout != 5*time.Second {
		t.Fatalf("whatsapp unexpected: %+v", cfg.WhatsApp)
	}
	if cfg.AMQP.URL != "amqp://guest:guest@mq:5672/" || cfg.AMQP.Exchange != "panel" {
		t.Fatalf("amqp unexpected: %+v", cfg.AMQP)
	}
	if err := cfg.ValidateServe(); err != nil {
		t.Fatalf("ValidateServe: %v", err)
	}

	// Rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// Idempotency
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Protocol != "http" || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// Each row breaks exactly one setting.
func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		env, value, wantErr string
	}{
		{"LOG_LEVEL", "verbose", ""},
		{"PORT", "   ", "PORT must not be empty"},
		{"READ_TIMEOUT", "0s", "timeouts must be positive"},
		{"MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES"},
		{"DB_PATH", "   ", "DB_PATH must not be empty"},
		{"HUMAN_MODE_TIMEOUT", "0s", "HUMAN_MODE_TIMEOUT"},
		{"SWEEP_INTERVAL", "-1m", "SWEEP_INTERVAL"},
		{"SSE_HEARTBEAT_INTERVAL", "0s", "SSE_HEARTBEAT_INTERVAL"},
		{"SSE_SESSION_BUFFER", "0", "SSE_SESSION_BUFFER"},
		{"WHATSAPP_TIMEOUT", "0s", "WHATSAPP_TIMEOUT"},
		{"RATE_RPS", "-1", "RATE_RPS"},
		{"RATE_BURST", "0", "RATE_BURST"},
		{"HSTS_MAX_AGE", "-1s", "HSTS_MAX_AGE"},
		{"IDEMPOTENCY_TTL", "0s", "IDEMPOTENCY_TTL"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
		{"OTEL_EXPORTER_OTLP_PROTOCOL", "zipkin", "OTEL_EXPORTER_OTLP_PROTOCOL"},
	}
	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("want error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateServe_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("maintenance commands must load without credentials: %v", err)
	}
	if err := cfg.ValidateServe(); err == nil || !containsErr(err, "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got: %v", err)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	t.Setenv("X_FLOAT", "0.75")
	t.Setenv("X_INT", "42")
	t.Setenv("X_DUR", "150ms")
	t.Setenv("X_BAD", "nope")

	if getenv("X_EMPTY", "d") != "d" || getenv("X_INT", "d") != "42" {
		t.Fatal("getenv")
	}
	if getfloat("X_FLOAT", 0) != 0.75 || getfloat("X_BAD", 1.5) != 1.5 {
		t.Fatal("getfloat")
	}
	if getint("X_INT", 0) != 42 || getint("X_BAD", 7) != 7 {
		t.Fatal("getint")
	}
	if getdur("X_DUR", 0) != 150*time.Millisecond || getdur("X_BAD", time.Second) != time.Second {
		t.Fatal("getdur")
	}
}

func TestGetbool(t *testing.T) {
	for v, want := range map[string]bool{
		"1": true, "TRUE": true, " yes ": true, "Y": true, "On": true,
		"0": false, "false": false, " no ": false, "N": false, "off": false,
	} {
		t.Setenv("SWAGGER_ENABLED", v)
		if got := getbool("SWAGGER_ENABLED", !want); got != want {
			t.Fatalf("getbool(%q) = %v", v, got)
		}
	}
	t.Setenv("SWAGGER_ENABLED", "")
	if !getbool("SWAGGER_ENABLED", true) || getbool("SWAGGER_ENABLED", false) {
		t.Fatal("empty value must fall back to the default")
	}
}

func TestSplitCSV(t *testing.T) {
	if splitCSV("") != nil {
		t.Fatal("empty input should yield nil")
	}
	got := splitCSV(" https://panel.example.com, ,http://localhost:5173 ,")
	want := []string{"https://panel.example.com", "http://localhost:5173"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v", got)
	}
}

func TestNormalizeBasePath(t *testing.T) {
	for in, want := range map[string]string{
		"":          "/",
		" / ":       "/",
		"api":       "/api",
		"/api/":     "/api",
		"panel/api": "/panel/api",
	} {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

// Ensure tests don't leak env to others.
func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Exit(m.Run())
}

// containsErr reports whether err's message contains the given substring.
func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_PATH", "db.sqlite")
	// Intentionally leave API_BASE_PATH and the handoff settings unset

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBasePath != "/api" {
		t.Fatalf("API_BASE_PATH default expected '/api', got %q", cfg.APIBasePath)
	}
	if cfg.Handoff.HumanTimeout != 30*time.Minute || cfg.Handoff.SweepInterval != 0 {
		t.Fatalf("handoff defaults unexpected: %+v", cfg.Handoff)
	}
	if cfg.SSE.HeartbeatInterval != 30*time.Second || cfg.SSE.SessionBuffer != 16 {
		t.Fatalf("sse defaults unexpected: %+v", cfg.SSE)
	}
	if cfg.WhatsApp.BaseURL != "https://graph.facebook.com/v22.0" || cfg.OTEL.Protocol != "grpc" {
		t.Fatalf("defaults unexpected: %+v %+v", cfg.WhatsApp, cfg.OTEL)
	}
	if cfg.AMQP.URL != "" {
		t.Fatalf("event mirror must be off by default")
	}
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	// No special env needed; defaults are valid.
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath == "" {
		t.Fatalf("unexpected empty config from MustLoad")
	}
}
