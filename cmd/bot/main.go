package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"referearn-bot/internal/bot"
	"referearn-bot/internal/config"
	"referearn-bot/internal/database"
	"referearn-bot/internal/ledger"
	"referearn-bot/internal/session"
	"referearn-bot/internal/worker"
)

func main() {
	cfg := config.LoadConfig()
	if cfg.BotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	// Session state lives in Redis when configured, in memory otherwise.
	var sessions session.Store
	if cfg.RedisAddr != "" {
		rdb, err := database.ConnectRedis(cfg)
		if err != nil {
			log.Fatalf("Could not connect to redis: %v", err)
		}
		sessions = session.NewRedisStore(rdb, cfg.ClickEvidenceTTL)
	} else {
		log.Println("REDIS_ADDR not set, keeping session state in memory")
		sessions = session.NewMemoryStore(cfg.ClickEvidenceTTL)
	}

	ldg := ledger.New(db, cfg.ReferBonus, cfg.MinWithdrawBalance)

	b, err := bot.NewBot(cfg.BotToken, ldg, sessions, cfg)
	if err != nil {
		log.Fatalf("Could not create bot: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	go worker.NewReminder(db, sessions, b.Instance).Start(ctx)

	log.Println("Service started successfully")
	b.Start()
}
