package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/zenpod/internal/ai"
	"github.com/iliyamo/zenpod/internal/config"
	"github.com/iliyamo/zenpod/internal/database"
	"github.com/iliyamo/zenpod/internal/handler"
	"github.com/iliyamo/zenpod/internal/logger"
	"github.com/iliyamo/zenpod/internal/middleware"
	"github.com/iliyamo/zenpod/internal/payment"
	"github.com/iliyamo/zenpod/internal/queue"
	"github.com/iliyamo/zenpod/internal/repository"
	"github.com/iliyamo/zenpod/internal/router"
	"github.com/iliyamo/zenpod/internal/seed"
	"github.com/iliyamo/zenpod/internal/service"
	"github.com/iliyamo/zenpod/internal/tts"
	"github.com/iliyamo/zenpod/internal/utils"
)

func main() {
	cfg, err := config.Load()
	log := logger.NewStructured(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.WithError(err).Error("invalid configuration", nil)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("server stopped", nil)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logger.Logger) error {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	scriptures := repository.NewScriptureRepo(db)
	if _, err := seed.Seed(ctx, scriptures, log); err != nil {
		log.WithError(err).Warn("catalog seeding failed", nil)
	}
	users := repository.NewUserRepo(db)

	var events service.EventPublisher
	if cfg.Events.Enabled {
		events = queue.NewPublisher(cfg.Events.URL, log)
		go func() {
			if err := queue.StartSessionConsumer(ctx, cfg.Events.URL, cfg.Events.LogDir, log); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("session consumer stopped", nil)
			}
		}()
	}

	sessions := service.NewSessionService(sessionStore(cfg, db, log), gateway(cfg, log), users, events, service.SessionConfig{
		RatePerHourMinor: cfg.Payment.RatePerHourMinor,
		MaxDurationHours: cfg.Payment.MaxDurationHours,
		GatewayTimeout:   cfg.Payment.Timeout,
		PollInterval:     cfg.Payment.PollInterval,
	}, log.With(map[string]interface{}{"component": "sessions"}))

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; cache and rate limiting disabled", nil)
	} else {
		defer rdb.Close()
	}

	e := newServer(cfg, log, db, rdb, sessions, scriptures, users)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", map[string]interface{}{"addr": ":" + cfg.Port, "env": cfg.Env})
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newServer(cfg config.Config, log logger.Logger, db *sql.DB, rdb *redis.Client, sessions *service.SessionService,
	scriptures *repository.ScriptureRepo, users *repository.UserRepo) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log)
	guard := middleware.ActivationGuard(cfg.DemoActivationAllowed(), cfg.JWTSecret, utils.RoleAdmin)
	if cfg.DemoActivationAllowed() {
		log.Warn("forced session activation is open without authentication", map[string]interface{}{"env": cfg.Env})
	}

	router.RegisterRoutes(e, db)
	router.RegisterSessions(e, handler.NewSessionHandler(sessions, log), limit, guard)
	router.RegisterScriptures(e, &handler.ScriptureHandler{Scriptures: scriptures}, cache)
	router.RegisterUsers(e, &handler.UserHandler{
		Cfg:        cfg,
		Users:      users,
		Progress:   repository.NewProgressRepo(db),
		Scriptures: scriptures,
		Log:        log,
	})
	router.RegisterProviders(e,
		&handler.AIHandler{AI: ai.NewClient(cfg.AI), Log: log},
		&handler.TTSHandler{TTS: tts.NewSynthesizer(cfg.TTS), Log: log},
		limit,
	)
	router.RegisterAdmin(e, &handler.AdminHandler{Cfg: cfg, Log: log}, limit)
	return e
}

func sessionStore(cfg config.Config, db *sql.DB, log logger.Logger) repository.SessionStore {
	if cfg.SessionStore == "memory" {
		log.Warn("sessions are kept in memory and lost on restart", nil)
		return repository.NewMemorySessionStore()
	}
	return repository.NewSessionRepo(db)
}

func gateway(cfg config.Config, log logger.Logger) payment.Gateway {
	if cfg.Payment.Mode == "http" {
		return payment.NewHTTPGateway(payment.HTTPConfig{
			BaseURL:      cfg.Payment.BaseURL,
			MerchantID:   cfg.Payment.MerchantID,
			APIKey:       cfg.Payment.APIKey,
			Timeout:      cfg.Payment.Timeout,
			QueryRetries: cfg.Payment.QueryRetries,
			RetryBackoff: cfg.Payment.RetryBackoff,
		})
	}
	log.Info("using simulated payment gateway", nil)
	return payment.NewSimulatedGateway()
}
