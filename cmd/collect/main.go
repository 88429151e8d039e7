// Command collect runs one collection pass and exits. Meant for cron-less
// deployments and manual reruns.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"prison-pulse/internal/collector"
	"prison-pulse/internal/database"
	"prison-pulse/internal/extraction"
	"prison-pulse/internal/facilities"
	"prison-pulse/internal/feeds"
	"prison-pulse/internal/metadata"
	"prison-pulse/internal/narrative"
	"prison-pulse/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	dateFlag := flag.String("date", "", "run date in YYYY-MM-DD form (default today)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	runDate := time.Now().UTC()
	if *dateFlag != "" {
		parsed, err := time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			log.Fatalf("Invalid -date value %q: %v", *dateFlag, err)
		}
		runDate = parsed
	}

	if err := database.Connect(database.LoadConfig()); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	normalizer, err := loadNormalizer()
	if err != nil {
		log.Fatal("Failed to load facilities table:", err)
	}

	storage, err := narrative.NewStorage(getEnv("DATA_DIR", "data"))
	if err != nil {
		log.Fatal("Failed to initialize narrative storage:", err)
	}

	coll := collector.New(
		storage,
		services.NewEventsService(database.DB, normalizer),
		services.NewArticlesService(database.DB),
		feeds.NewService(nil, metadata.NewMetadataExtractor()),
		extraction.NewClient(getEnv("EXTRACTOR_URL", "http://localhost:8090")),
	)

	report, err := coll.Run(runDate)
	if err != nil {
		log.Fatal("Collection run failed:", err)
	}
	if len(report.Errors) > 0 {
		log.Printf("Run finished with %d category errors", len(report.Errors))
		os.Exit(1)
	}
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
