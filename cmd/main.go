package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/meetbasket/cache"
	"github.com/Dosada05/meetbasket/config"
	"github.com/Dosada05/meetbasket/db"
	_ "github.com/Dosada05/meetbasket/docs"
	"github.com/Dosada05/meetbasket/handlers"
	"github.com/Dosada05/meetbasket/metrics"
	"github.com/Dosada05/meetbasket/realtime"
	"github.com/Dosada05/meetbasket/repositories"
	api "github.com/Dosada05/meetbasket/routes"
	"github.com/Dosada05/meetbasket/services"
	"github.com/Dosada05/meetbasket/storage"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
)

const (
	tournamentStatusInterval = 30 * time.Second
	cacheSweepInterval       = time.Minute
)

// @title MeetBasket API
// @version 1.0
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("cache_backend", cfg.CacheBackend))

	// контекст фоновых задач, отменяется при остановке
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(appCtx, dbConn); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	// Загрузчик файлов (Cloudflare R2); без настроек загрузки отключены
	var uploader storage.FileUploader
	if cfg.UploadsEnabled() {
		uploader, err = storage.NewR2Uploader(appCtx, storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, image uploads are disabled")
	}

	// Метрики и кэш
	metricsService := metrics.NewService()
	healthChecks := map[string]handlers.Pinger{"postgres": dbConn}

	clock := clockwork.NewRealClock()
	var store cache.Store
	var memoryStore *cache.MemoryStore
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		redisClient, err := cache.NewRedisClient(appCtx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		store = cache.NewRedisStore(redisClient, "meetbasket:")
		healthChecks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		logger.Info("redis cache connected", slog.String("addr", cfg.RedisAddr))
	default:
		memoryStore = cache.NewMemoryStore(clock)
		store = memoryStore
	}
	readCache := cache.New(store, metricsService, logger)
	invalidator := services.NewInvalidator(readCache, logger)

	// WebSocket Hub
	wsHub := realtime.NewHub(logger)
	go wsHub.Run(appCtx)
	logger.Info("WebSocket Hub started")

	var mailer services.Mailer
	if cfg.EmailEnabled() {
		mailer = services.NewEmailService(cfg)
	} else {
		logger.Warn("SMTP is not configured, emails are disabled")
	}

	// Инициализация репозиториев
	tx := repositories.NewTransactor(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	ratingRepo := repositories.NewPostgresRatingRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	friendRepo := repositories.NewPostgresFriendshipRepository(dbConn)
	messageRepo := repositories.NewPostgresMessageRepository(dbConn)
	settingsRepo := repositories.NewPostgresSettingsRepository(dbConn)
	checkoutRepo := repositories.NewPostgresCheckoutRepository(dbConn)
	contactRepo := repositories.NewPostgresContactRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, invalidator, mailer, logger)
	courtService := services.NewCourtService(courtRepo, tx, readCache, invalidator, uploader)
	ratingService := services.NewRatingService(ratingRepo, tx, invalidator, metricsService)
	gameService := services.NewGameService(gameRepo, tx, readCache, invalidator, clock)
	teamService := services.NewTeamService(teamRepo, tx, uploader)
	tournamentService := services.NewTournamentService(tournamentRepo, teamRepo, tx, clock, logger)
	userService := services.NewUserService(services.UserServiceDeps{
		UserRepo:       userRepo,
		GameRepo:       gameRepo,
		TournamentRepo: tournamentRepo,
		SettingsRepo:   settingsRepo,
		RatingRepo:     ratingRepo,
		FriendRepo:     friendRepo,
		Tx:             tx,
		Cache:          readCache,
		Invalidator:    invalidator,
		Uploader:       uploader,
		Clock:          clock,
	})
	settingsService := services.NewSettingsService(settingsRepo, readCache, invalidator)
	friendService := services.NewFriendService(friendRepo, wsHub, uploader)
	messageService := services.NewMessageService(messageRepo, userRepo, tx, wsHub, uploader, metricsService, logger)
	premiumService := services.NewPremiumService(userRepo, checkoutRepo, tx, invalidator, metricsService, clock, logger)
	contactService := services.NewContactService(contactRepo, mailer, logger)
	logger.Info("Services initialized")

	// Планировщики: первый запуск сразу, затем по тикеру
	go runPeriodically(appCtx, logger, "tournament statuses", tournamentStatusInterval, tournamentService.AutoUpdateTournamentStatusesByDates)
	go runPeriodically(appCtx, logger, "premium expiry", cfg.PremiumExpiryInterval, func(ctx context.Context) error {
		_, err := premiumService.ExpireMemberships(ctx)
		return err
	})
	if memoryStore != nil {
		go runPeriodically(appCtx, logger, "cache sweep", cacheSweepInterval, func(ctx context.Context) error {
			if n := memoryStore.Sweep(); n > 0 {
				logger.Debug("expired cache entries removed", slog.Int("count", n))
			}
			return nil
		})
	}

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:       handlers.NewAuthHandler(authService, cfg.JWTSecretKey, cfg.TokenTTL),
		Court:      handlers.NewCourtHandler(courtService),
		Rating:     handlers.NewRatingHandler(ratingService),
		Game:       handlers.NewGameHandler(gameService),
		Team:       handlers.NewTeamHandler(teamService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		User:       handlers.NewUserHandler(userService),
		Friend:     handlers.NewFriendHandler(friendService),
		Message:    handlers.NewMessageHandler(messageService),
		Settings:   handlers.NewSettingsHandler(settingsService),
		Premium:    handlers.NewPremiumHandler(premiumService),
		Contact:    handlers.NewContactHandler(contactService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
		Health:     handlers.NewHealthHandler(healthChecks),
	}, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		StaticDir:      cfg.StaticDir,
		Metrics:        metricsService,
		MetricsHandler: metrics.NewMetricsHandler(),
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stopApp()
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stopApp()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

// runPeriodically вызывает job сразу и затем каждые interval, пока ctx не отменен.
func runPeriodically(ctx context.Context, logger *slog.Logger, name string, interval time.Duration, job func(context.Context) error) {
	if interval <= 0 {
		logger.Warn("scheduler disabled", slog.String("job", name))
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("scheduler started", slog.String("job", name), slog.Duration("interval", interval))

	if err := job(ctx); err != nil {
		logger.Error("scheduler: initial run failed", slog.String("job", name), slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped", slog.String("job", name))
			return
		case <-ticker.C:
			if err := job(ctx); err != nil {
				logger.Error("scheduler: periodic run failed", slog.String("job", name), slog.Any("error", err))
			}
		}
	}
}
