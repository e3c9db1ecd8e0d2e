package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/config"
	rediscache "github.com/baechuer/real-time-ressys/services/discovery-service/internal/infrastructure/caching/redis"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/scheduler"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/handlers"
	authmw "github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/router"
	zlog "github.com/rs/zerolog/log"
)

// sysClock implements event.Clock interface using system time
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

// App holds all dependencies for the service
type App struct {
	Config *config.Config
	Server *http.Server
	DB     *sql.DB

	Repo      *postgres.Repo
	Service   *event.Service
	Publisher *rabbitmq.Publisher
	Consumer  *rabbitmq.Consumer
	Redis     *rediscache.Client
	Timer     *scheduler.AfterFuncTimer

	dailies []*scheduler.Daily
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("config load failed")
	}

	if u, err := url.Parse(cfg.DatabaseURL); err == nil {
		zlog.Info().
			Str("db_user", u.User.Username()).
			Str("db_host", u.Host).
			Str("db_db", u.Path).
			Msg("db config loaded")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("db open failed")
	}
	defer db.Close()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			zlog.Fatal().Err(err).Msg("db ping failed")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := NewApp(cfg, db)
	defer app.Close()
	app.Start(ctx)

	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("server crashed")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("http shutdown failed")
	}
}

func NewApp(cfg *config.Config, db *sql.DB) *App {
	app := &App{Config: cfg, DB: db}

	// 1) Infrastructure
	app.Repo = postgres.New(db)

	var cache event.Cache
	if cfg.RedisURL != "" {
		rc, err := rediscache.New(cfg.RedisURL)
		if err != nil {
			zlog.Warn().Err(err).Msg("redis unavailable: caching, alarms and token revocation disabled")
		} else {
			app.Redis = rc
			cache = rc
		}
	}

	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			zlog.Fatal().Err(err).Msg("rabbit publisher init failed")
		}
		app.Publisher = p
		zlog.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbit publisher ready")
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: domain events and pushes will not be published")
	}

	// 2) Application
	app.Service = event.New(app.Repo, sysClock{}, cache, cfg.CacheTTLDetails, cfg.CacheTTLList)

	// 3) Transport
	var versions authmw.TokenVersionChecker
	if app.Redis != nil {
		versions = app.Redis
	}
	h := handlers.NewEventsHandler(app.Service)
	auth := authmw.NewAuth(cfg.JWTSecret, cfg.JWTIssuer, versions)
	z := handlers.NewHealthHandler(db)

	// 4) Router
	httpHandler := router.New(h, auth, z, cfg)

	// 5) Server
	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpHandler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// 6) Schedulers
	app.Timer = scheduler.NewAfterFuncTimer(scheduler.SystemClock{})
	if cfg.SchedulerEnabled {
		app.dailies = app.buildSchedulers()
	}

	return app
}

func (a *App) buildSchedulers() []*scheduler.Daily {
	cfg := a.Config
	lg := zlog.Logger

	transitions := scheduler.NewTransitionScheduler(a.Repo, a.Service, a.Timer, scheduler.TransitionConfig{
		Lookback:    cfg.RecoveryLookback,
		CallTimeout: cfg.DBQueryTimeout,
	}, lg)
	out := []*scheduler.Daily{
		scheduler.NewDaily("transition_scheduler", cfg.Location, scheduler.SystemClock{},
			func(ctx context.Context, dayStart time.Time, recovery bool) {
				transitions.RunBatch(ctx, dayStart, recovery)
			}, lg),
	}

	if a.Redis == nil || a.Publisher == nil {
		zlog.Warn().Msg("alarm scheduler disabled: needs redis for de-dup and rabbit for pushes")
		return out
	}
	push := rabbitmq.NewPushDispatcher(a.Publisher, cfg.RabbitPushRoutingKey, cfg.PushRatePerSec, lg)
	alarms := scheduler.NewAlarmScheduler(a.Repo, a.Redis, push, a.Timer, cfg.Location, scheduler.AlarmConfig{
		ReminderHour: cfg.AlarmReminderHour,
		DedupTTL:     cfg.AlarmDedupTTL,
		CallTimeout:  cfg.DBQueryTimeout,
	}, lg)
	return append(out, scheduler.NewDaily("alarm_scheduler", cfg.Location, scheduler.SystemClock{},
		func(ctx context.Context, dayStart time.Time, recovery bool) {
			alarms.RunBatch(ctx, dayStart, recovery)
		}, lg))
}

// Start launches the background workers; they stop when ctx is done.
func (a *App) Start(ctx context.Context) {
	if a.Publisher != nil {
		a.Repo.NewOutboxRelay(a.Publisher, postgres.OutboxRelayConfig{
			WriteTimeout: a.Config.DBQueryTimeout,
		}, zlog.Logger).Start(ctx)

		c, err := rabbitmq.NewConsumer(a.Config.RabbitURL, a.Config.RabbitExchange, a.Service, zlog.Logger)
		if err != nil {
			zlog.Error().Err(err).Msg("view consumer init failed")
		} else {
			a.Consumer = c
			c.Start(ctx)
		}
	}
	for _, d := range a.dailies {
		d.Start(ctx)
	}
}

func (a *App) Close() {
	if a.Timer != nil {
		a.Timer.Stop()
	}
	if a.Consumer != nil {
		_ = a.Consumer.Close()
	}
	if a.Publisher != nil {
		_ = a.Publisher.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
