package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/manachat72/line-ai-chatbot/internal/config"
	"github.com/manachat72/line-ai-chatbot/internal/events"
	"github.com/manachat72/line-ai-chatbot/internal/gemini"
	httpapi "github.com/manachat72/line-ai-chatbot/internal/http"
	"github.com/manachat72/line-ai-chatbot/internal/line"
	"github.com/manachat72/line-ai-chatbot/internal/observability"
	"github.com/manachat72/line-ai-chatbot/internal/repo"
	"github.com/manachat72/line-ai-chatbot/internal/services"
	"github.com/manachat72/line-ai-chatbot/internal/sysutil"
)

const shutdownGrace = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	ver := sysutil.Version(version)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db := openStore(cfg)
	if db != nil {
		defer func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()
	}

	publisher, err := events.New(ctx, cfg.Events, cfg.OTEL.ServiceName)
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.Events.Backend).Msg("exchange events disabled")
		publisher = events.Noop{}
	}
	defer func() { _ = publisher.Close() }()

	relay, err := buildRelay(ctx, cfg, db, publisher)
	if err != nil {
		return err
	}
	deps := httpapi.Deps{
		Relay:    relay,
		Verifier: line.NewVerifier(cfg.Line.ChannelSecret),
	}
	if db != nil {
		deps.Records = &services.RecordService{DB: db}
		deps.Ping = func(ctx context.Context) error { return repo.Ping(ctx, db) }
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, cfg, deps)

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
			Str("version", ver).
			Str("webhook_path", cfg.WebhookPath).
			Bool("persistence", db != nil).
			Str("events_backend", cfg.Events.Backend).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(sctx)
}

// openStore connects and migrates the record store. Persistence is
// best-effort: any failure is logged and the relay runs without it.
func openStore(cfg config.Config) *gorm.DB {
	if !cfg.PersistenceEnabled() {
		log.Info().Msg("DATABASE_URL not set; persistence disabled")
		return nil
	}
	db, err := repo.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("database unavailable; persistence disabled")
		return nil
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Error().Err(err).Msg("migration failed; persistence disabled")
		if sqlDB, derr := db.DB(); derr == nil {
			_ = sqlDB.Close()
		}
		return nil
	}
	return db
}

// buildRelay assembles the per-event pipeline. db may be nil.
func buildRelay(ctx context.Context, cfg config.Config, db *gorm.DB, notifier services.Notifier) (*services.RelayService, error) {
	completer, err := gemini.NewClient(ctx,
		cfg.Gemini.APIKey,
		cfg.Gemini.Model,
		cfg.Gemini.BaseURL,
		gemini.SafetySettings(cfg.Gemini.Safety),
		cfg.Gemini.Timeout,
	)
	if err != nil {
		return nil, err
	}
	dispatcher, err := line.NewClient(cfg.Line.AccessToken, cfg.Line.APIBaseURL, cfg.Line.Timeout)
	if err != nil {
		return nil, err
	}
	return &services.RelayService{
		Journal:    services.NewJournal(db, cfg.DBTimeout),
		Completer:  completer,
		Dispatcher: dispatcher,
		Notifier:   notifier,
		Prompt: services.PromptBuilder{
			Persona:        cfg.Prompt.Persona,
			QuestionPrefix: cfg.Prompt.QuestionPrefix,
		},
		FallbackText:      cfg.Prompt.FallbackReply,
		CompletionTimeout: cfg.Gemini.Timeout,
	}, nil
}
