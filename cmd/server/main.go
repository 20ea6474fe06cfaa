package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc-bridge/internal/api"
	"doc-bridge/internal/doc_translator"
	"doc-bridge/internal/segment"
	"doc-bridge/internal/services"
	"doc-bridge/internal/store"
	"doc-bridge/internal/translator_provider"
	"doc-bridge/pkg/database"
	"doc-bridge/pkg/types"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Load application configuration from environment variables
	globalConfig, err := types.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger, err := newLogger(globalConfig.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	defer logger.Sync()

	// Initialize database connection
	dbConfig := database.Config{
		Driver:   globalConfig.Database.Driver,
		Host:     globalConfig.Database.Host,
		Port:     globalConfig.Database.Port,
		User:     globalConfig.Database.User,
		Password: globalConfig.Database.Password,
		DBName:   globalConfig.Database.Name,
		SSLMode:  globalConfig.Database.SSLMode,
		Path:     globalConfig.Database.Path,
	}

	db, err := database.Open(dbConfig, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := store.CreateSchema(context.Background(), db); err != nil {
		logger.Fatal("failed to create schema", zap.Error(err))
	}

	// Initialize provider factory and create translator provider
	providerFactory := translator_provider.NewFactory(globalConfig, logger, store.NewCredentialStore(db))

	provider, tokens, err := providerFactory.CreateProvider(translator_provider.ProviderType(globalConfig.Translator.Provider))
	if err != nil {
		logger.Fatal("failed to create translator provider", zap.Error(err))
	}

	// Initialize services
	dispatcher := doc_translator.NewDispatcher(logger, provider, tokens)
	translatorService := doc_translator.NewDocTranslatorService(logger, dispatcher, segment.Options{
		CharLimit: globalConfig.Translator.CharLimit,
		Delimiter: globalConfig.Translator.Delimiter,
	})
	documentService := doc_translator.NewDocumentService(logger, translatorService, store.NewDocumentStore(db))

	svc := services.NewServices(translatorService, documentService)

	// Start the HTTP server
	runServer(logger, globalConfig, svc)
}

func newLogger(level string) (*zap.Logger, error) {
	// Initialize logger with human-readable timestamps
	logConfig := zap.NewProductionConfig()
	logConfig.EncoderConfig.TimeKey = "time"
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logLevel := zap.InfoLevel
	if level != "" {
		if err := logLevel.UnmarshalText([]byte(level)); err != nil {
			logLevel = zap.InfoLevel
		}
	}
	logConfig.Level = zap.NewAtomicLevelAt(logLevel)
	return logConfig.Build()
}

func runServer(logger *zap.Logger, cfg *types.Config, svc *services.Services) {
	apiServer := api.NewGinServer(logger, svc, api.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		JobTimeout:     cfg.Translator.JobTimeout,
	})
	defer apiServer.Close()

	// Create HTTP server
	addr := cfg.Server.GetServerAddress()
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer.GetRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", zap.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Notify on SIGINT (Ctrl+C) and SIGTERM (kill command)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal
	<-quit
	logger.Info("shutting down server...")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
