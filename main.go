package main

//go:generate swag init

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/satheeshds/repairbook/config"
)

// @title           Repairbook API
// @version         1.0.0
// @description     Invoicing for a car repair workshop: drafts, numbered invoices, daily ledger and statistics.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.basic  BasicAuth

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// Configure structured logging
	slog.SetDefault(newLogger(cfg.Logger))

	app := &cli.App{
		Name:  "repairbook",
		Usage: "workshop invoicing server and ledger tools",
		Commands: []*cli.Command{
			serveCommand(cfg),
			statsCommand(cfg),
			reportCommand(cfg),
			clearTodayCommand(cfg),
			nextNumberCommand(cfg),
		},
	}
	if err := app.Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LoggerConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
