package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"telegram-assistant/internal/ai"
	"telegram-assistant/internal/bot"
	"telegram-assistant/internal/docs"
	"telegram-assistant/internal/search"
)

const pollBackoff = 5 * time.Second

func main() {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// --- DB ---
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("db ping error: %v", err)
	}
	if err := bot.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("db schema error: %v", err)
	}

	// --- Telegram ---
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Fatalf("telegram init error: %v", err)
	}
	log.Printf("[bot] authorized as @%s", api.Self.UserName)

	// --- Bot module wiring ---
	outbound := bot.NewTelegramOutbound(api)
	svc := bot.NewService(
		bot.NewProfileRepo(db),
		bot.NewSentimentRepo(db),
		ai.NewOpenAIClient(),
		search.NewSerpApiClient(),
		docs.NewPDFExtractor(),
		outbound,
		outbound,
	)

	// --- health ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	go func() {
		log.Printf("listening on :%s", port)
		if err := http.ListenAndServe(":"+port, r); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// --- Polling ---
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := api.GetUpdatesChan(u)

	log.Println("[bot] polling for updates")
	for {
		select {
		case <-svc.Done():
			api.StopReceivingUpdates()
			log.Println("[bot] shutdown complete")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			handleUpdate(svc, update)
		}
	}
}

// handleUpdate isolates one message: a panic here must not kill polling.
func handleUpdate(svc *bot.Service, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[bot] polling error: %v", r)
			time.Sleep(pollBackoff)
		}
	}()

	msg := bot.FromUpdate(update)
	if msg == nil {
		return
	}
	svc.Dispatch(context.Background(), msg)
}
