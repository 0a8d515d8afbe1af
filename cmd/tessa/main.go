package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/tessa/internal/core"
	_ "github.com/JonMunkholm/tessa/internal/core/tables" // Register all tables
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var ue *core.UserError
		if errors.As(err, &ue) {
			slog.Error("tessa failed", "code", ue.User.Code, "error", ue.Technical)
		} else {
			slog.Error("tessa failed", "error", err)
		}
		stop()
		os.Exit(1)
	}
}
