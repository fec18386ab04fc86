package main

import (
	"log"
	"os"
	"time"

	"github.com/earnspherex/earnsphere-golang/internal/cache"
	"github.com/earnspherex/earnsphere-golang/internal/database"
	"github.com/earnspherex/earnsphere-golang/internal/handlers"
	"github.com/earnspherex/earnsphere-golang/internal/ledger"
	"github.com/earnspherex/earnsphere-golang/internal/routes"
	"github.com/joho/godotenv"
)

func main() {
	// --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// --- Validate Required Environment Variables ---
	for _, envVar := range []string{"DB_DSN", "JWT_SECRET"} {
		if os.Getenv(envVar) == "" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	// --- Database Connection ---
	db, err := database.OpenDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db, "mysql"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// --- Application Setup ---
	// REDIS_ADDR is optional; without it the stats cache is disabled and
	// every aggregate query hits the database.
	app := &handlers.Handlers{
		DB:     db,
		Ledger: ledger.NewService(db),
		Cache:  cache.New(os.Getenv("REDIS_ADDR")),
	}

	// --- Background Worker ---
	// Hourly housekeeping: drop read notifications older than 30 days.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		log.Println("Background worker started: purging stale notifications hourly")

		for range ticker.C {
			removed, err := app.Ledger.PurgeReadNotifications(30 * 24 * time.Hour)
			if err != nil {
				log.Printf("Notification purge failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("Purged %d stale notifications", removed)
			}
		}
	}()

	// --- Router Setup ---
	router := routes.SetupRouter(app)

	// --- Start Server ---
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting EarnSphere API server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
