// Command cleanup runs the offline maintenance passes over stored events
// and snapshots, plus the dated article collection retention sweep.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"prison-pulse/internal/database"
	"prison-pulse/internal/facilities"
	"prison-pulse/internal/narrative"
	"prison-pulse/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report changes without writing them")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := database.Connect(database.LoadConfig()); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	normalizer, err := loadNormalizer()
	if err != nil {
		log.Fatal("Failed to load facilities table:", err)
	}

	cleanup := services.NewCleanupService(database.DB, normalizer, *dryRun)
	if _, err := cleanup.Run(); err != nil {
		log.Fatal("Cleanup run failed:", err)
	}

	if *dryRun {
		return
	}

	storage, err := narrative.NewStorage(getEnv("DATA_DIR", "data"))
	if err != nil {
		log.Fatal("Failed to initialize narrative storage:", err)
	}
	removed, err := storage.CleanupOldCollections(time.Now().UTC())
	if err != nil {
		log.Fatal("Collection retention sweep failed:", err)
	}
	log.Printf("Removed %d old article collections", removed)
}

func loadNormalizer() (*facilities.Normalizer, error) {
	if path := os.Getenv("FACILITIES_CONFIG"); path != "" {
		table, err := facilities.LoadTable(path)
		if err != nil {
			return nil, err
		}
		return facilities.NewNormalizer(table), nil
	}
	return facilities.NewNormalizer(facilities.DefaultTable()), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
