// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency, and rate
// limiting.
//
// Three audiences share the router:
//   - dashboard operators, authenticated by session token
//   - the dashboard's EventSource, which may carry the token as ?token=
//   - the n8n workflow engine, authenticated by a shared secret
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/wa-handoff-panel/internal/config"
	"github.com/tbourn/wa-handoff-panel/internal/http/handlers"
	"github.com/tbourn/wa-handoff-panel/internal/http/middleware"
	"github.com/tbourn/wa-handoff-panel/internal/repo"
	"github.com/tbourn/wa-handoff-panel/internal/services"
	"github.com/tbourn/wa-handoff-panel/internal/sse"
)

// Deps are the collaborators RegisterRoutes mounts. Status must already be
// wired to Hub; Publisher may be nil.
type Deps struct {
	DB        *gorm.DB
	Cfg       config.Config
	Hub       *sse.Hub
	Status    *services.StatusService
	Sender    services.Sender
	Publisher services.Publisher
	Verifier  middleware.TokenVerifier
}

var corsAllowHeaders = []string{
	"Origin", "Content-Type", "Accept", "Authorization",
	middleware.HeaderAuthToken, middleware.HeaderN8NToken, middleware.HeaderIdempotencyKey,
	"If-None-Match",
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII and token scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip (never on the event stream)
//  8. CORS and Security headers
//
// Per group, after authentication:
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Rate limiter (per operator, or per IP for the workflow engine)
func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Cfg
	apiBase := cfg.APIBasePath
	if apiBase == "" {
		apiBase = "/"
	}
	streamPath := joinPath(apiBase, "/sse/events")

	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compression; a gzip writer buffers, which would stall the stream
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{"^" + streamPath})))

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS).
	// Workflow answers carry live handoff state and must never be cached.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		NoStorePrefixes: []string{joinPath(apiBase, "/n8n"), joinPath(apiBase, "/message-notification")},
		EnablePolicy:    true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"sseConnections": d.Hub.Stats().TotalConnections,
			"timestamp":      time.Now().UTC(),
		})
	})

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/hub
	if d.Publisher != nil {
		d.Status.Events = d.Publisher
	}
	chatSvc := services.NewChatService(d.DB, services.RepoStore{}, d.Status)
	msgSvc := services.NewMessageService(d.DB, d.Status, d.Hub, d.Sender)
	if d.Publisher != nil {
		msgSvc.Events = d.Publisher
	}
	h := handlers.New(chatSvc, msgSvc, d.Status, d.Hub, d.DB)
	if cfg.IdempotencyTTL > 0 {
		h.IdempotencyTTL = cfg.IdempotencyTTL
	}

	operatorLimit := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Named("operator")
	workflowLimit := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP()).Named("workflow")

	idem := middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200, ChatParam: "chatId"},
		func(ctx context.Context, userID, chatID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, d.DB, userID, chatID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return rec.Live(now), nil
		},
	)

	api := groupWithPrefix(r, cfg.APIBasePath)

	// Dashboard
	session := api.Group("", middleware.SessionAuth(d.Verifier, middleware.SessionOptions{}))
	{
		session.GET("/chats", operatorLimit.Handler(), h.ListChats)
		session.GET("/chats/search/phone", operatorLimit.Handler(), h.SearchByPhone)
		session.GET("/chats/:chatId", operatorLimit.Handler(), h.GetChat)
		session.GET("/chats/:chatId/status", operatorLimit.Handler(), h.GetStatus)
		session.POST("/chats/:chatId/status", operatorLimit.Handler(), h.SetStatus)
		session.GET("/chats/:chatId/messages", operatorLimit.Handler(), h.ListMessages)
		session.POST("/chats/:chatId/message", idem, operatorLimit.Handler(), h.SendMessage)
		session.GET("/sse/stats", h.Stats)
	}

	// Event stream; EventSource cannot set headers.
	stream := api.Group("/sse", middleware.SessionAuth(d.Verifier, middleware.SessionOptions{AllowQueryToken: true}))
	stream.GET("/events", h.Events)

	// Workflow engine
	secret := middleware.SharedSecret(cfg.Auth.N8NToken)
	{
		api.GET("/n8n/check-chat-state", workflowLimit.Handler(), secret, h.CheckChatState)
		api.POST("/n8n/change-chat-state/:chatId", workflowLimit.Handler(), h.ChangeChatState)
		api.POST("/message-notification", workflowLimit.Handler(), secret, h.MessageNotification)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath appends p to base without doubling the slash at root.
func joinPath(base, p string) string {
	if base == "/" {
		return p
	}
	return base + p
}
