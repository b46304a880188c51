package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/scoreboard/config"
	"github.com/Dosada05/scoreboard/db"
	"github.com/Dosada05/scoreboard/handlers"
	"github.com/Dosada05/scoreboard/realtime"
	"github.com/Dosada05/scoreboard/repositories"
	api "github.com/Dosada05/scoreboard/routes"
	"github.com/Dosada05/scoreboard/services"
	"github.com/Dosada05/scoreboard/storage"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.Bool("lambda", cfg.LambdaMode))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище: Postgres, SQLite или память
	matchRepo, dbConn, err := openMatchRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if dbConn != nil {
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		}()
	}

	// Архив итоговых табло (Cloudflare R2), необязателен
	var archiver *services.Archiver
	if cfg.R2.Enabled() {
		store, err := storage.NewCloudflareR2Store(ctx, cfg.R2)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 store: %w", err)
		}
		archiver = services.NewArchiver(store, matchRepo, logger)
		logger.Info("Cloudflare R2 archive enabled", slog.String("bucket", cfg.R2.BucketName))
	}

	// Инициализация WebSocket Hub
	wsHub := realtime.NewHub(logger)

	// Инициализация сервисов
	writerCfg := services.ScoreWriterConfig{
		MaxAttempts: cfg.WriteMaxAttempts,
		BaseDelay:   cfg.WriteBaseDelay,
		MinInterval: cfg.WriteMinInterval,
	}
	matchService := services.NewMatchService(matchRepo, wsHub, archiver, writerCfg, logger)
	scheduleService := services.NewScheduleService(matchRepo, logger)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	matchHandler := handlers.NewMatchHandler(matchService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, matchService, logger)

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{JWTSecret: []byte(cfg.JWTSecretKey), AllowedOrigins: cfg.AllowedOrigins},
		matchHandler,
		scheduleHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return wsHub.Run(gctx) })

	if cfg.DatabaseURL != "" {
		listener := repositories.NewChangeListener(cfg.DatabaseURL, logger)
		g.Go(func() error { return listener.Run(gctx, matchService.HandleExternalChange) })
	}

	if cfg.LambdaMode {
		// lambda.Start не возвращает управление
		logger.Info("starting in AWS Lambda mode")
		adapter := httpadapter.New(router)
		lambda.Start(adapter.ProxyWithContext)
		return nil
	}

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("graceful shutdown failed: %w", err))
			if closeErr := server.Close(); closeErr != nil {
				errs = append(errs, fmt.Errorf("failed to force close server: %w", closeErr))
			}
		}
		// дописываем очередь счета до закрытия БД
		if err := matchService.Close(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("score writer did not drain: %w", err))
		}
		if len(errs) == 0 {
			logger.Info("server shutdown complete")
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func openMatchRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.MatchRepository, *sql.DB, error) {
	switch {
	case cfg.DatabaseURL != "":
		conn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		applied, err := db.Migrate(ctx, conn, db.DialectPostgres)
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("postgres store ready", slog.Any("migrations_applied", applied))
		return repositories.NewPostgresMatchRepository(conn), conn, nil

	case cfg.SQLitePath != "":
		conn, err := db.ConnectSQLite(cfg.SQLitePath, 5*time.Second)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		applied, err := db.Migrate(ctx, conn, db.DialectSQLite)
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("sqlite store ready", slog.String("path", cfg.SQLitePath), slog.Any("migrations_applied", applied))
		return repositories.NewSQLiteMatchRepository(conn), conn, nil
	}

	logger.Warn("no database configured, matches are kept in memory only")
	return repositories.NewMemoryMatchRepository(), nil, nil
}
