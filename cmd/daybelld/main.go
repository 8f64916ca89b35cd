package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daybell/internal/ai"
	"daybell/internal/bot"
	"daybell/internal/config"
	"daybell/internal/database"
	"daybell/internal/engine"
	"daybell/internal/notify"
	"daybell/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate required config
	if cfg.DatabaseURI == "" {
		log.Fatal("DATABASE_URI is required")
	}
	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN is required")
	}
	if cfg.TelegramChatID == 0 {
		log.Fatal("TELEGRAM_CHAT_ID is required")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	// Run migrations
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Initialize AI client (optional)
	var aiClient *ai.Client
	if cfg.AIAPIKey != "" {
		aiClient = ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		log.Printf("AI client initialized (model: %s)", cfg.AIModel)
	} else {
		log.Println("AI client not configured, natural language commands disabled")
	}

	// Create Telegram API client for the notification port
	tgAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("Failed to create Telegram API: %v", err)
	}

	port := notify.NewTelegramPort(tgAPI, cfg.TelegramChatID)
	defer port.Stop()

	if granted, err := port.RequestPermission(ctx); err != nil || !granted {
		log.Fatalf("Notification permission not granted: %v", err)
	}
	if _, err := port.CreateChannel(ctx, "reminders", "Reminders"); err != nil {
		log.Fatalf("Failed to create notification channel: %v", err)
	}

	// Create the engine and load the persisted snapshot. A failed load is
	// reported but the engine starts from an empty snapshot.
	eng := engine.New(store.NewPostgresStore(db), port, cfg.SnapshotKey)
	if err := eng.Load(ctx); err != nil {
		log.Printf("Snapshot load failed, starting empty: %v", err)
	}
	log.Printf("Loaded %d list(s)", len(eng.Lists()))

	// Create and start bot
	b, err := bot.New(cfg.TelegramToken, cfg.TelegramChatID, eng, aiClient)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	log.Println("Starting bot...")
	if err := b.Start(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Bot error: %v", err)
	}
}
