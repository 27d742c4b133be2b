package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hermitdesu/anod-check-bot/internal/app"
	"github.com/hermitdesu/anod-check-bot/internal/config"
	"github.com/hermitdesu/anod-check-bot/internal/storage"
	"github.com/hermitdesu/anod-check-bot/internal/transport/telegram"
	logx "github.com/hermitdesu/anod-check-bot/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml/json")
	flag.Parse()

	// Best-effort: BOT_TOKEN may live in a local .env file.
	_ = godotenv.Load()

	// Bootstrap logger for failures before the config is loaded.
	boot := logx.NewConsole("info")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		boot.Error("config load failed", logx.String("path", cfgPath), logx.Err(err))
		os.Exit(1)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.ConsoleLogging(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	defer logSvc.Close()
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.StorageBusyTimeout(),
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		log.Error("storage open failed", logx.Err(err))
		os.Exit(1)
	}
	defer store.Close()

	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.BotToken(),
		PollTimeout: cfg.PollTimeout(),
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		log.Error("telegram init failed", logx.Err(err))
		os.Exit(1)
	}

	bot := app.New(cfg, mgr, logSvc, adapter, store, log)
	if err := bot.Start(ctx); err != nil {
		log.Error("start failed", logx.Err(err))
		os.Exit(1)
	}

	<-ctx.Done()
	_ = bot.Stop(context.Background())
}
