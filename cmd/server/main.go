package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "dsr-ledger/internal/adapters/web"
	"dsr-ledger/internal/ai"
	"dsr-ledger/internal/app"
	"dsr-ledger/internal/config"
	"dsr-ledger/internal/core"
	"dsr-ledger/internal/store"
	"dsr-ledger/pkg/logging"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := store.Open(ctx, cfg.Data)
	if err != nil {
		fatal("failed to open store", err)
	}
	defer closeStore()

	users := core.NewUserService(st, core.AdminCredentials{Username: cfg.Admin.Username, Password: cfg.Admin.Password})
	if err := users.EnsureAdmin(ctx); err != nil {
		fatal("failed to ensure admin account", err)
	}
	ledger := core.NewLedger(st, core.ParseLookupScope(cfg.LookupScope))

	var agent ai.AgentService
	if cfg.AI.APIKey != "" {
		agent = ai.NewAgent(cfg.AI.APIKey, cfg.AI.Model)
	} else {
		slog.Warn("OPENAI_API_KEY is not set, /api/ai/draft will return 503")
	}
	if cfg.Server.JWTSecret == "change-this-secret-in-production" {
		slog.Warn("JWT_SECRET is the built-in default; set it before exposing the server")
	}

	svc := app.NewAppService(ledger, users, agent, cfg.Data.ReportDir)
	handler := webAdapter.NewHandler(svc, webAdapter.Options{
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		JWTSecret:          cfg.Server.JWTSecret,
		SecureCookies:      cfg.Server.SecureCookies,
		LoginRatePerMinute: cfg.Server.LoginRatePerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown", "error", err)
		}
	}()

	slog.Info("server starting", "port", cfg.Server.Port, "store", cfg.Data.Driver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("server", err)
	}
	slog.Info("server stopped")
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
