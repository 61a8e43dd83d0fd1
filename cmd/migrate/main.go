package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/factura-eu/api/internal/database"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up, down or version")
	dbURL := flag.String("db", "", "Database URL")
	steps := flag.Int("steps", 1, "Number of steps (only for down)")
	flag.Parse()

	_ = godotenv.Load()

	if *dbURL == "" {
		*dbURL = os.Getenv("DATABASE_URL")
	}
	if *dbURL == "" {
		log.Fatal("database URL is required: use -db flag or DATABASE_URL env var")
	}

	switch *direction {
	case "up":
		if err := database.Migrate(*dbURL); err != nil {
			log.Fatalf("migration up failed: %v", err)
		}
		fmt.Println("invoicing schema is up to date")
	case "down":
		if err := database.MigrateDown(*dbURL, *steps); err != nil {
			log.Fatalf("migration down failed: %v", err)
		}
		fmt.Printf("rolled back %d migration(s)\n", *steps)
	case "version":
		v, dirty, err := database.Version(*dbURL)
		if err != nil {
			log.Fatalf("reading version failed: %v", err)
		}
		fmt.Printf("schema version %d (dirty=%v)\n", v, dirty)
	default:
		log.Fatalf("unknown direction: %s (use 'up', 'down' or 'version')", *direction)
	}
}
