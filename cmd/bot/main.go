package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/soundseek/soundseek/config"
	"github.com/soundseek/soundseek/internal/bot"
	"github.com/soundseek/soundseek/internal/download"
	"github.com/soundseek/soundseek/internal/eventstore"
	"github.com/soundseek/soundseek/internal/recorder"
	"github.com/soundseek/soundseek/internal/registry"
	"github.com/soundseek/soundseek/internal/search"
	"github.com/soundseek/soundseek/internal/server"
	"github.com/soundseek/soundseek/internal/stats"
	"github.com/soundseek/soundseek/internal/storage"
	"github.com/soundseek/soundseek/internal/youtube"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		slog.Error("No BOT_TOKEN found in environment variables")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Event log and derived statistics
	store, err := eventstore.New(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to open event store", "error", err)
		os.Exit(1)
	}

	aggregator, err := stats.New(filepath.Join(cfg.DataDir, "stats.json"), store)
	if err != nil {
		slog.Error("Failed to initialize stats", "error", err)
		os.Exit(1)
	}

	// Collaborators and orchestrators
	client := youtube.NewClient()
	searcher := search.NewOrchestrator(client, cfg.Search.MaxResults)
	fetcher := download.NewOrchestrator(client, cfg.DownloadsDir)
	tokens := registry.New(cfg.TokenTTL())

	archive, err := storage.NewArchive(ctx, cfg.Archive)
	if err != nil {
		slog.Error("Failed to initialize archive", "error", err)
		os.Exit(1)
	}
	if archive != nil {
		defer archive.Close()
	}

	service := bot.NewService(searcher, fetcher, tokens, recorder.New(store, aggregator), archive)

	// Optional read-only stats API
	if cfg.Server.Port != "" {
		srv := server.New(aggregator)
		go func() {
			slog.Info("Starting stats API server", "port", cfg.Server.Port)
			if err := srv.Start(cfg.Server.Port); err != nil {
				slog.Error("Stats API server failed", "error", err)
			}
		}()
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to connect to Telegram", "error", err)
		os.Exit(1)
	}

	slog.Info("Music Search Bot is running", "username", api.Self.UserName)
	bot.NewBot(api, service, aggregator).Run(ctx)
}
