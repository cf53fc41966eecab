package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grocify/internal/clipper"
	"grocify/internal/config"
	"grocify/internal/database"
	"grocify/internal/docstore"
	"grocify/internal/list"
	"grocify/internal/recipes"
	"grocify/internal/stores"
	"grocify/internal/telegram"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// 2. Initialize the SQLite-backed document store
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	store := docstore.NewSQLiteStore(db.SQL)

	// 3. Initialize Services with live subscriptions
	storeSvc := stores.NewService(store)
	storeSvc.Start()
	defer storeSvc.Stop()
	if err := storeSvc.Refresh(context.Background()); err != nil {
		log.Fatalf("Failed to load stores: %v", err)
	}

	proj := list.NewProjector(store, list.WithSectionOrder(storeSvc.CurrentSectionOrder))
	proj.Start()
	defer proj.Stop()
	if err := proj.Refresh(context.Background()); err != nil {
		log.Fatalf("Failed to load shopping list: %v", err)
	}

	recipeSvc := recipes.NewService(store)
	recipeClipper := clipper.NewClipper()

	// 4. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, proj, recipeSvc, recipeClipper)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	// 5. Start Server with Graceful Shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
