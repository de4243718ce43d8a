// Package main is the entry point for the quadrelay server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quadrelay/quadrelay/internal/auth"
	"github.com/quadrelay/quadrelay/internal/config"
	"github.com/quadrelay/quadrelay/internal/document"
	"github.com/quadrelay/quadrelay/internal/handler"
	"github.com/quadrelay/quadrelay/internal/manager"
	"github.com/quadrelay/quadrelay/internal/registry"
	"github.com/quadrelay/quadrelay/internal/security"
	"github.com/quadrelay/quadrelay/internal/storage"
	"github.com/quadrelay/quadrelay/internal/ui"
)

func main() {
	// =========================================================================
	// 1. Load configuration (Singleton)
	// =========================================================================
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// =========================================================================
	// 2. Setup structured logger with key redaction
	// =========================================================================
	logger, err := setupLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting quadrelay",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
	)

	// =========================================================================
	// 3. Open storage
	// =========================================================================
	store, err := storage.Open(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	docs, err := document.NewFileStore(cfg.Storage.DocumentsPath, document.WithStoreLogger(logger))
	if err != nil {
		logger.Error("failed to open document store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// =========================================================================
	// 4. Build the provider manager
	// =========================================================================
	reg := registry.Default()
	mgr := manager.New(reg, manager.WithLogger(logger))

	authSvc := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	// =========================================================================
	// 5. Create handlers
	// =========================================================================
	authHandler := handler.NewAuthHandler(store, authSvc, handler.WithAuthLogger(logger))
	convHandler := handler.NewConversationHandler(store, handler.WithConversationLogger(logger))
	msgHandler := handler.NewMessageHandler(store, mgr, reg, handler.WithMessageLogger(logger))
	provHandler := handler.NewProviderHandler(mgr)
	docHandler := handler.NewDocumentHandler(docs, handler.WithDocumentLogger(logger))

	// =========================================================================
	// 6. Setup Gin router with middleware
	// =========================================================================
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(handler.RecoveryMiddleware(logger))
	router.Use(handler.CORSMiddleware())
	router.Use(handler.LoggingMiddleware(logger))
	if cfg.Logging.Format == "text" {
		router.Use(handler.ConsoleLogMiddleware())
	}

	router.GET("/health", provHandler.HandleHealth)

	api := router.Group("/api")
	{
		api.POST("/auth/signup", authHandler.HandleSignup)
		api.POST("/auth/login", authHandler.HandleLogin)

		api.GET("/providers", provHandler.HandleList)

		api.POST("/documents", docHandler.HandleUpload)
		api.GET("/documents", docHandler.HandleList)
		api.GET("/documents/stats", docHandler.HandleStats)
		api.DELETE("/documents/:id", docHandler.HandleDelete)
		api.DELETE("/documents", docHandler.HandleClear)

		authed := api.Group("")
		authed.Use(handler.AuthMiddleware(authSvc, store))
		{
			authed.POST("/auth/logout", authHandler.HandleLogout)
			authed.GET("/auth/me", authHandler.HandleMe)
			authed.GET("/auth/keys", authHandler.HandleGetAPIKeys)
			authed.PUT("/auth/keys", authHandler.HandleUpdateAPIKeys)

			authed.GET("/conversations", convHandler.HandleList)
			authed.POST("/conversations", convHandler.HandleCreate)
			authed.GET("/conversations/:id", convHandler.HandleGet)
			authed.PATCH("/conversations/:id", convHandler.HandleUpdate)
			authed.DELETE("/conversations/:id", convHandler.HandleDelete)
			authed.POST("/conversations/:id/messages", msgHandler.HandleSend)

			authed.POST("/chat/batch", msgHandler.HandleBatch)
		}
	}

	// =========================================================================
	// 7. Start HTTP server with graceful shutdown
	// =========================================================================
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		ui.PrintBanner()

		statuses := mgr.ListProviders()
		available := 0
		for _, s := range statuses {
			if s.Available {
				available++
			}
			ui.PrintProviderStatus(s.ID, s.Name, s.Model, s.Available, s.Error)
		}
		ui.PrintStartupInfo(cfg.Server.Host, cfg.Server.Port, available, len(statuses))

		logger.Info("server starting", slog.String("address", addr))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	ui.PrintShutdown()

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
	ui.PrintGoodbye()
}

// setupLogger creates a structured logger per the logging config. All output
// passes through the redacting handler so vendor keys never reach the logs.
func setupLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	if cfg.OutputPath != "" {
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}

	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	if cfg.Format == "text" {
		inner = slog.NewTextHandler(out, opts)
	} else {
		inner = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(security.NewRedactedHandler(inner))
	slog.SetDefault(logger)

	return logger, nil
}
