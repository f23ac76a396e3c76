package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chatdb/chatdb/internal/api"
	"github.com/chatdb/chatdb/internal/chat"
	"github.com/chatdb/chatdb/internal/config"
	"github.com/chatdb/chatdb/internal/database"
	"github.com/chatdb/chatdb/internal/nl2sql"
	"github.com/chatdb/chatdb/internal/observability"
	"github.com/chatdb/chatdb/internal/query/sqldb"
	"github.com/chatdb/chatdb/internal/schema"
)

func main() {
	cfg, err := config.LoadFromEnv("chatdb-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	service := &chat.Service{
		Logger:            logger,
		GenerationTimeout: cfg.AI.Timeout,
		QueryTimeout:      cfg.Chat.QueryTimeout,
	}

	generator, err := nl2sql.NewGenerator(nl2sql.Config{
		Provider:        cfg.AI.Provider,
		BaseURL:         cfg.AI.BaseURL,
		APIKey:          cfg.AI.APIKey,
		Model:           cfg.AI.Model,
		Temperature:     cfg.AI.Temperature,
		MaxOutputTokens: cfg.AI.MaxOutputTokens,
		Timeout:         cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize language model client; chat is disabled", slog.String("provider", cfg.AI.Provider), slog.Any("error", err))
	} else {
		service.Generator = generator
		logger.Info("language model client initialized", slog.String("provider", cfg.AI.Provider), slog.String("model", cfg.AI.Model))
	}

	var db *sql.DB
	dbConfig, err := database.FromConfig(cfg.Database)
	if err == nil {
		db, err = database.Open(context.Background(), dbConfig)
	}
	if err != nil {
		logger.Error("failed to connect to database; chat is disabled", slog.String("dialect", cfg.Database.Dialect), slog.Any("error", err))
	} else {
		defer func() { _ = db.Close() }()
		catalog := dbConfig.Catalog(cfg.Database.Catalog)
		introspector, err := schema.NewIntrospector(db, dbConfig.Dialect, catalog)
		if err != nil {
			logger.Error("failed to initialize schema introspection; chat is disabled", slog.Any("error", err))
		} else {
			service.Introspector = introspector
			service.Engine = sqldb.NewEngine(db)
			logger.Info("database connected", slog.String("dialect", string(dbConfig.Dialect)), slog.String("catalog", catalog))
		}
	}

	deps := api.Dependencies{
		Logger:            logger,
		Chat:              service,
		Readiness:         api.CombineReadinessChecks(database.Ping(db)),
		DependencyTimeout: time.Second,
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
