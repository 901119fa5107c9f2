package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/wa-handoff-panel/internal/auth"
	"github.com/tbourn/wa-handoff-panel/internal/config"
	"github.com/tbourn/wa-handoff-panel/internal/events"
	httpapi "github.com/tbourn/wa-handoff-panel/internal/http"
	"github.com/tbourn/wa-handoff-panel/internal/observability"
	"github.com/tbourn/wa-handoff-panel/internal/services"
	"github.com/tbourn/wa-handoff-panel/internal/sse"
	"github.com/tbourn/wa-handoff-panel/internal/whatsapp"
)

const shutdownGrace = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and notification stream",
		Long: `Run the HTTP API and notification stream.

Requires JWT_SECRET. N8N_API_TOKEN guards the workflow endpoints; without it
they answer 500. SWEEP_INTERVAL > 0 reverts expired human sessions in the
background in addition to the lazy revert on read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

// newPublisher returns the AMQP mirror when configured, else a no-op.
func newPublisher(cfg config.AMQPConfig, producer string) (events.Publisher, error) {
	if cfg.URL == "" {
		return events.Noop{}, nil
	}
	p, err := events.Dial(cfg.URL, cfg.Exchange, producer)
	if err != nil {
		return nil, err
	}
	log.Info().Str("exchange", cfg.Exchange).Msg("event mirror connected")
	return p, nil
}

// newStatusService applies the configured window to a StatusService.
func newStatusService(cfg config.Config, db *gorm.DB, n services.Notifier, pub services.Publisher) *services.StatusService {
	s := services.NewStatusService(db, services.RepoStore{}, n)
	s.Timeout = cfg.Handoff.HumanTimeout
	s.Events = pub
	return s
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, Version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, closeDB, err := a.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	pub, err := newPublisher(cfg.AMQP, cfg.OTEL.ServiceName)
	if err != nil {
		return err
	}
	defer pub.Close()

	hub := sse.NewHub(sse.WithBuffer(cfg.SSE.SessionBuffer))
	go hub.Run(ctx, cfg.SSE.HeartbeatInterval)

	status := newStatusService(cfg, db, hub, pub)
	if cfg.Handoff.SweepInterval > 0 {
		go sweepLoop(ctx, status, cfg.Handoff.SweepInterval)
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:        db,
		Cfg:       cfg,
		Hub:       hub,
		Status:    status,
		Sender:    whatsapp.New(cfg.WhatsApp.BaseURL, cfg.WhatsApp.Timeout, whatsapp.DBTokens{DB: db}),
		Publisher: pub,
		Verifier:  auth.NewVerifier(cfg.Auth.JWTSecret),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("api_base", cfg.APIBasePath).
			Dur("human_timeout", status.Timeout).
			Msg("panel listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	// Streams never finish on their own; end them so Shutdown can drain.
	hub.Close()
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// sweepLoop runs the expiry sweep every interval until ctx is done.
func sweepLoop(ctx context.Context, s *services.StatusService, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				log.Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int("reverted", n).Msg("expiry sweep")
			}
		}
	}
}
