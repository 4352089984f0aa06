// Command migrate applies the embedded database migrations.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/telepoint/emi-portal/internal/database"
	"github.com/telepoint/emi-portal/internal/logging"
)

func main() {
	status := flag.Bool("status", false, "print migration status instead of migrating")
	flag.Parse()

	_ = godotenv.Overload()
	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DB_URL")
	}
	if dbURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	if *status {
		if err := database.MigrationStatus(dbURL); err != nil {
			slog.Error("migration status failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := database.Migrate(dbURL); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied")
}
