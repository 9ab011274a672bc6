package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"kitchenhub/internal/api"
	"kitchenhub/internal/cache"
	"kitchenhub/internal/config"
	"kitchenhub/internal/db"
	"kitchenhub/internal/events"
	"kitchenhub/internal/metrics"
	"kitchenhub/internal/notify"
	"kitchenhub/internal/reminders"
	"kitchenhub/internal/report"
	"kitchenhub/internal/service"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("KITCHEN_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = newLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}

	database, err := db.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}
	kitchenCache := cache.NewKitchenCache(database, rdb, cfg.KitchenCacheTTL(), logger)
	catalog := service.NewCatalogSync(database, kitchenCache, logger)

	err = config.WatchKitchens(ctx, cfg.KitchensConfigPath, 30*time.Second,
		func(kc *config.KitchensConfig) {
			syncCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			res, err := catalog.Apply(syncCtx, kc)
			if err != nil {
				logger.Error().Err(err).Msg("sync kitchens")
				return
			}
			logger.Info().
				Int("applied", len(res.Applied)).
				Int("deactivated", len(res.Deactivated)).
				Msg("kitchen catalog synced")
		},
		func(err error) { logger.Error().Err(err).Msg("reload kitchens config") },
	)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.KitchensConfigPath).Msg("kitchen catalog not loaded")
	}

	retry := service.RetryPolicy{Timeout: cfg.StoreTimeout(), Attempts: cfg.ReadRetries()}
	bus := events.NewEventBus(logger)

	bookings := service.NewBookingService(database, kitchenCache, bus, service.BookingOptions{
		Rules: service.BookingRules{
			MinAdvance:         cfg.BookingMinAdvance(),
			MaxAdvance:         cfg.BookingMaxAdvance(),
			MaxActivePerRenter: cfg.Booking.MaxActivePerRenter,
		},
		Retry:    retry,
		Location: loc,
	}, logger)
	kitchens := service.NewKitchenService(database, kitchenCache, retry, logger)
	messages := service.NewMessageService(database, retry, logger)

	notify.NewMailbox(messages, loc, logger).Register(bus)
	if cfg.Telegram.BotToken != "" {
		bot, err := notify.NewBot(cfg.Telegram.BotToken, cfg.Telegram.Debug)
		if err != nil {
			logger.Error().Err(err).Msg("telegram notifications disabled")
		} else {
			notify.NewTelegram(bot, cfg.Telegram.OwnerChatIDs, loc, logger).Register(bus)
		}
	}

	completer := service.NewCompleter(bookings, cfg.CompletionInterval(), logger)
	completer.Start()
	defer completer.Stop()

	if cfg.Reminders.Enabled {
		rem := reminders.NewService(reminders.Config{
			Lead:          cfg.ReminderLead(),
			CheckInterval: cfg.ReminderInterval(),
			Rate:          cfg.Reminders.SendRatePerSecond,
			Location:      loc,
		}, database, messages, logger)
		rem.Start()
		defer rem.Stop()
	}

	backup := db.NewBackupService(database, db.BackupConfig{
		Enabled:       cfg.Backup.Enabled,
		Interval:      time.Duration(cfg.Backup.IntervalHours) * time.Hour,
		StoragePath:   cfg.Backup.Path,
		RetentionDays: cfg.Backup.RetentionDays,
	}, logger)
	go backup.Start(ctx)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, database, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewHTTPServer(api.Deps{
		Bookings: bookings,
		Kitchens: kitchens,
		Messages: messages,
		Profiles: service.NewProfileService(database, retry, logger),
		Reports:  report.NewGenerator(database, logger),
	}, api.Options{
		Port:                cfg.HTTP.Port,
		APIKeys:             cfg.HTTP.APIKeys,
		ReadTimeout:         time.Duration(cfg.HTTP.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:        time.Duration(cfg.HTTP.WriteTimeoutSeconds) * time.Second,
		CreateRatePerMinute: cfg.HTTP.CreateRatePerMinute,
	}, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("http shutdown")
		}
	}()

	logger.Info().Str("timezone", loc.String()).Msg("kitchenhub started")
	if err := server.Start(); err != nil {
		logger.Error().Err(err).Msg("http server error")
		stop()
	}
	logger.Info().Msg("kitchenhub stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || cfg.Logging.Level == "" {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Logging.Format == "json" {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func startHealthServer(ctx context.Context, port int, database *db.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := database.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
