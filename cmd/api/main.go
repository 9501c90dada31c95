// Package main - точка входа HTTP API Khadeira Backend.
//
// Сервис принимает оценённые результаты тестов, ведёт лидерборды по
// тройке (тест, предмет, урок) и отдаёт их по REST API. Каждый сабмит
// идемпотентен: балл пользователя только растёт, ранги пересчитываются
// детерминированно, конкурентные записи разрешаются оптимистичной
// блокировкой с повторами.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: PostgreSQL и Redis реализации репозиториев
// - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	// Application layer
	"github.com/shoiab2025/Khadeira-Backend/internal/application/command"
	"github.com/shoiab2025/Khadeira-Backend/internal/application/query"

	// Domain layer
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/leaderboard"

	// Infrastructure layer
	"github.com/shoiab2025/Khadeira-Backend/internal/infrastructure/persistence/postgres"
	"github.com/shoiab2025/Khadeira-Backend/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/shoiab2025/Khadeira-Backend/internal/interface/http"
	"github.com/shoiab2025/Khadeira-Backend/internal/interface/http/handlers"

	// Packages
	"github.com/shoiab2025/Khadeira-Backend/config"
	"github.com/shoiab2025/Khadeira-Backend/pkg/circuitbreaker"
	"github.com/shoiab2025/Khadeira-Backend/pkg/logger"
	"github.com/shoiab2025/Khadeira-Backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Khadeira Backend",
		logger.String("env", string(cfg.App.Environment)),
		logger.Bool("debug", cfg.App.Debug),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", logger.Err(err))
	} else {
		appliedCount := 0
		for _, m := range status {
			if m.IsApplied {
				appliedCount++
			}
		}
		log.Info("migrations completed",
			logger.Int("applied", appliedCount),
			logger.Int("total", len(status)),
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	// Без Redis сервис работает, но каждый read идёт в PostgreSQL.
	var redisCache *redis.Cache
	var boardCache leaderboard.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		if cfg.Redis.PoolSize > 0 {
			redisCfg.PoolSize = cfg.Redis.PoolSize
		}
		if cfg.Redis.MinIdleConns > 0 {
			redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		}

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		} else {
			defer redisCache.Close()
			boardCache = redis.NewLeaderboardCache(redisCache, cfg.Leaderboard.CacheTTL)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	boardRepo := postgres.NewLeaderboardRepository(dbConn)
	userRepo := postgres.NewUserRepository(dbConn)
	courseRepo := postgres.NewCourseRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	// Бюджет повторов цикла read-modify-write при конфликтах версий.
	retrier := retry.New(
		retry.WithMaxAttempts(cfg.Leaderboard.MaxUpdateAttempts),
		retry.WithInitialDelay(cfg.Leaderboard.RetryBaseDelay),
		retry.WithMaxDelay(cfg.Leaderboard.RetryMaxDelay),
	)

	// Circuit breaker защищает read-path от деградировавшего Redis.
	cacheBreaker := circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})

	submitScoreCmd := command.NewSubmitScoreHandler(boardRepo, userRepo, courseRepo, boardCache, retrier)
	registerUserCmd := command.NewRegisterUserHandler(userRepo)
	createSubjectCmd := command.NewCreateSubjectHandler(courseRepo)

	leaderboardsQuery := query.NewGetLeaderboardsHandler(boardRepo, boardCache, cacheBreaker)
	leaderboardForTestQuery := query.NewGetLeaderboardForTestHandler(boardRepo, boardCache, cacheBreaker)
	subjectsQuery := query.NewGetSubjectsHandler(courseRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimit
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	if cfg.HTTP.ScoreAPIKey != "" {
		httpConfig.APIKeys = []string{cfg.HTTP.ScoreAPIKey}
	}

	httpDeps := httpserver.Dependencies{
		SubmitScoreHandler:           submitScoreCmd,
		RegisterUserHandler:          registerUserCmd,
		CreateSubjectHandler:         createSubjectCmd,
		GetLeaderboardsHandler:       leaderboardsQuery,
		GetLeaderboardForTestHandler: leaderboardForTestQuery,
		GetSubjectsHandler:           subjectsQuery,
		Logger:                       log,
		HealthChecker:                healthChecker,
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)

	go func() {
		log.Info("starting HTTP server", logger.String("address", httpServer.Address()))
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("Khadeira Backend is running",
		logger.String("http_address", httpServer.Address()),
		logger.Bool("cache_enabled", boardCache != nil),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	log.Info("starting graceful shutdown...",
		logger.String("timeout", cfg.App.ShutdownTimeout.String()),
	)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	// Redis и база данных закроются через defer

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()

	switch cfg.Observability.LogLevel {
	case "debug":
		opts.Level = logger.LevelDebug
	case "warn":
		opts.Level = logger.LevelWarn
	case "error":
		opts.Level = logger.LevelError
	default:
		opts.Level = logger.LevelInfo
	}
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}

	return logger.New(opts)
}
