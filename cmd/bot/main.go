package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillm/coinbase-dca/internal/api"
	"github.com/kirillm/coinbase-dca/internal/config"
	"github.com/kirillm/coinbase-dca/internal/exchange"
	"github.com/kirillm/coinbase-dca/internal/storage"
	"github.com/kirillm/coinbase-dca/internal/strategy"
	"github.com/kirillm/coinbase-dca/internal/telegram"
	"github.com/kirillm/coinbase-dca/pkg/utils"
)

func main() {
	once := flag.Bool("once", false, "execute a single DCA order and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)

	creds, err := config.LoadCredentials(cfg.Coinbase)
	if err != nil {
		log.Fatalf("Failed to load credentials: %v", err)
	}

	client := exchange.NewClient(creds, cfg.Coinbase.BaseURL)

	var store strategy.TradeStore
	if cfg.Database.Enabled {
		pg, err := storage.NewPostgresStorage(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pg.Close()
		store = pg
	} else {
		logger.Warn("Trade ledger disabled (DB_ENABLED=false)")
	}

	var notifyFunc func(string)

	dca := strategy.NewDCAStrategy(
		client,
		store,
		logger,
		cfg.Strategy.Pair,
		cfg.Strategy.Side,
		cfg.Strategy.QuoteAmount,
		cfg.Strategy.Interval,
		func(message string) {
			if notifyFunc != nil {
				notifyFunc(message)
			}
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *once {
		// Single-shot mode for external schedulers (cron, cloud functions)
		if err := dca.RunOnce(ctx); err != nil {
			log.Fatalf("DCA execution failed: %v", err)
		}
		return
	}

	if cfg.Telegram.BotToken != "" {
		bot, err := telegram.NewBot(
			cfg.Telegram.BotToken,
			cfg.Telegram.ChatID,
			logger,
			dca,
			store,
			cfg.Strategy.Pair.String(),
		)
		if err != nil {
			log.Fatalf("Failed to start telegram bot: %v", err)
		}
		notifyFunc = bot.SendMessage
		go bot.Start(ctx)
	}

	server := api.NewServer(logger, dca, cfg.APIPort)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("HTTP server stopped: %v", err)
		}
	}()

	go dca.Start(ctx, cfg.Strategy.RunOnStart)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info("Received %s, shutting down", sig)
	dca.Stop()
	cancel()
}
