package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"dsr-ledger/internal/adapters/cli"
	"dsr-ledger/internal/adapters/repl"
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

	ctx := context.Background()
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
		slog.Debug("OPENAI_API_KEY is not set, AI drafting disabled")
	}

	svc := app.NewAppService(ledger, users, agent, cfg.Data.ReportDir)

	if len(os.Args) > 1 {
		if err := cli.Run(ctx, svc, os.Args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			closeStore()
			os.Exit(1)
		}
		return
	}
	repl.Run(ctx, svc, bufio.NewReader(os.Stdin), os.Stdout)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
