package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/alerting"
	"github.com/terrizoaguimor/kore-shield/pkg/blocklist"
	"github.com/terrizoaguimor/kore-shield/pkg/bruteforce"
	"github.com/terrizoaguimor/kore-shield/pkg/config"
	"github.com/terrizoaguimor/kore-shield/pkg/detection"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/ratelimit"
	handlers "github.com/terrizoaguimor/kore-shield/pkg/handlers/http"
	"github.com/terrizoaguimor/kore-shield/pkg/infra/cache"
	"github.com/terrizoaguimor/kore-shield/pkg/infra/database"
	"github.com/terrizoaguimor/kore-shield/pkg/infra/geo"
	infraLogger "github.com/terrizoaguimor/kore-shield/pkg/infra/logger"
	"github.com/terrizoaguimor/kore-shield/pkg/infra/repository"
	"github.com/terrizoaguimor/kore-shield/pkg/middleware"
	"github.com/terrizoaguimor/kore-shield/pkg/ratelimiter"
	"github.com/terrizoaguimor/kore-shield/pkg/server"
	"github.com/terrizoaguimor/kore-shield/pkg/shield"
	"github.com/terrizoaguimor/kore-shield/pkg/stats"
	"github.com/terrizoaguimor/kore-shield/pkg/visitlog"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewLogger("admin")

	if err := config.Load("./config"); err != nil {
		logger.WithError(err).Warn("config file not loaded, relying on defaults and environment")
	}
	cfg := config.GetConfig()

	db, err := database.NewDB(logger, &database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close()

	// Counters live in Redis when it is configured, otherwise in the
	// database via the conditional upsert.
	var counterStore ratelimit.CounterStore
	if cfg.Redis.Host != "" {
		cacheClient, err := cache.NewClient(cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS:      cfg.Redis.TLS,
		}, logger)
		if err != nil {
			logger.Fatalf("failed to initialize redis: %v", err)
		}
		counterStore = cache.NewCounterStore(cacheClient.RedisClient())
	} else {
		logger.Info("redis not configured, using database-backed rate limit counters")
		counterStore = repository.NewRateLimitRepository(db.DB)
	}

	resolver := geo.NewNoopResolver()
	if cfg.Geo.DatabasePath != "" {
		resolver, err = geo.NewMaxMindResolver(cfg.Geo.DatabasePath, logger)
		if err != nil {
			logger.WithError(err).Warn("geo database unavailable, visits will carry no location")
			resolver = geo.NewNoopResolver()
		}
	}
	defer resolver.Close()

	// repositories
	visitRepo := repository.NewVisitRepository(db.DB)
	blockedIPRepo := repository.NewBlockedIPRepository(db.DB)
	alertRepo := repository.NewAlertRepository(db.DB)

	// services
	rules := detection.DefaultRuleSet()
	emitter := alerting.NewEmitter(alertRepo, logger)
	registry := blocklist.NewRegistry(blockedIPRepo, emitter, logger, nil)
	limiter := ratelimiter.NewLimiter(counterStore, rateLimitConfig(cfg, logger), logger, nil)
	detector := bruteforce.NewDetector(visitRepo, registry, emitter, bruteforce.Config{
		Window:    time.Duration(cfg.Security.BruteForce.WindowMinutes) * time.Minute,
		Threshold: cfg.Security.BruteForce.Threshold,
		BlockTTL:  time.Duration(cfg.Security.BlockTTLHours) * time.Hour,
	}, logger, nil)
	recorder := visitlog.NewRecorder(visitRepo, logger, cfg.Security.VisitBuffer)
	botClassifier := detection.NewBotClassifier(rules)
	aggregator := stats.NewAggregator(visitRepo, blockedIPRepo, alertRepo, botClassifier, &stats.Opts{
		TopN:       cfg.Security.TopN,
		AlertLimit: cfg.Security.RecentAlerts,
	})

	engine := shield.NewEngine(
		detection.NewThreatClassifier(rules, logger),
		botClassifier,
		registry,
		limiter,
		detector,
		recorder,
		resolver,
		emitter,
		logger,
		&shield.Opts{FailClosed: cfg.Security.FailClosed},
	)

	handlerTransport := handlers.HandlerTransport{
		BlockIPHandler:     handlers.NewBlockIPHandler(logger, registry),
		UnblockIPHandler:   handlers.NewUnblockIPHandler(logger, registry),
		ListBlockedHandler: handlers.NewListBlockedHandler(logger, registry),
		StatsHandler:       handlers.NewStatsHandler(logger, aggregator),
		ListAlertsHandler:  handlers.NewListAlertsHandler(logger, alertRepo),
	}

	srv := server.NewAdminServer(server.AdminServerDI{
		SecurityMiddleware: middleware.NewSecurityMiddleware(engine, logger, cfg.Security.TrustProxyHeaders),
		HandlerTransport:   handlerTransport,
		Config:             cfg,
		Logger:             logger,
	})

	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	if err := srv.Shutdown(); err != nil {
		logger.WithError(err).Error("error shutting down server")
	}
	engine.Close()
	recorder.Close()
	logger.Info("server gracefully stopped")
}

func rateLimitConfig(cfg *config.Config, logger *logrus.Logger) ratelimiter.Config {
	// Raw settings maps override the structured section when present, so
	// quota changes pushed through generic settings storage win.
	if raw, ok := cfg.Security.CustomSettings["rate_limit"]; ok {
		decoded, err := ratelimiter.ConfigFromSettings(raw)
		if err != nil {
			logger.WithError(err).Fatal("invalid rate_limit custom settings")
		}
		return decoded
	}

	out := ratelimiter.Config{
		Default: ratelimiter.Quota{
			Limit:         cfg.Security.RateLimit.Default.Limit,
			WindowSeconds: cfg.Security.RateLimit.Default.WindowSeconds,
		},
		Endpoints: make(map[string]ratelimiter.Quota, len(cfg.Security.RateLimit.Endpoints)),
	}
	for endpoint, quota := range cfg.Security.RateLimit.Endpoints {
		out.Endpoints[endpoint] = ratelimiter.Quota{
			Limit:         quota.Limit,
			WindowSeconds: quota.WindowSeconds,
		}
	}
	return out
}
