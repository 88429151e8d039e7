package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prison-pulse/internal/auth"
	"prison-pulse/internal/collector"
	"prison-pulse/internal/database"
	"prison-pulse/internal/extraction"
	"prison-pulse/internal/facilities"
	"prison-pulse/internal/feeds"
	"prison-pulse/internal/handlers"
	"prison-pulse/internal/metadata"
	"prison-pulse/internal/narrative"
	"prison-pulse/internal/services"
	"prison-pulse/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load database configuration
	dbConfig := database.LoadConfig()

	// Connect to database
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations
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

	eventsService := services.NewEventsService(database.DB, normalizer)
	cleanupService := services.NewCleanupService(database.DB, normalizer, false)
	statsService := services.NewStatsService(database.DB)

	feedService := feeds.NewService(nil, metadata.NewMetadataExtractor())
	extractionClient := extraction.NewClient(getEnv("EXTRACTOR_URL", "http://localhost:8090"))
	coll := collector.New(storage, eventsService, services.NewArticlesService(database.DB), feedService, extractionClient)

	// Initialize and start background workers
	workerService := worker.NewWorkerService(coll, cleanupService)
	if err := workerService.Start(); err != nil {
		log.Fatal("Failed to start background workers:", err)
	}

	// Setup graceful shutdown
	setupGracefulShutdown(workerService)

	// Setup HTTP server
	setupServer(storage, statsService, coll, cleanupService, workerService)
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

func setupGracefulShutdown(workerService *worker.WorkerService) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Received shutdown signal, gracefully shutting down...")

		workerService.Stop()
		database.Close()

		log.Println("Shutdown complete")
		os.Exit(0)
	}()
}

func setupServer(storage *narrative.Storage, stats *services.StatsService, coll *collector.Collector, cleanup *services.CleanupService, workerService *worker.WorkerService) {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	tokens := auth.NewTokenService(getEnv("ADMIN_TOKEN_SECRET", "dev-secret"), 24*time.Hour)

	narrativeHandler := handlers.NewNarrativeHandler(storage)
	eventsHandler := handlers.NewEventsHandler(stats)
	adminHandler := handlers.NewAdminHandler(tokens, coll, cleanup)
	docsHandler := handlers.NewDocsHandler()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"workers_running": workerService.IsRunning(),
		})
	})

	// Serve Markdown documentation as HTML
	r.GET("/doc/:doc", docsHandler.ServeMarkdownAsHTML)

	// API routes
	api := r.Group("/api")
	{
		n := api.Group("/narrative")
		{
			n.GET("", narrativeHandler.GetContext)
			n.GET("/stories", narrativeHandler.GetStories)
			n.GET("/stories/:id", narrativeHandler.GetStory)
			n.GET("/characters", narrativeHandler.GetCharacters)
			n.GET("/followups", narrativeHandler.GetFollowUps)
		}

		events := api.Group("/events")
		{
			events.GET("/stats", eventsHandler.GetEventStats)
			events.GET("/timeline", eventsHandler.GetEventTimeline)
			events.GET("/facilities", eventsHandler.GetTopFacilities)
		}

		snapshots := api.Group("/snapshots")
		{
			snapshots.GET("", eventsHandler.GetSnapshots)
			snapshots.GET("/trend", eventsHandler.GetNationalTrend)
			snapshots.GET("/regions", eventsHandler.GetRegionalSummary)
		}

		admin := api.Group("/admin", adminHandler.RequireAdmin())
		{
			admin.POST("/collect", adminHandler.TriggerCollection)
			admin.POST("/cleanup", adminHandler.TriggerCleanup)
			admin.POST("/normalize-facilities", adminHandler.NormalizeFacilities)
		}
	}

	port := getEnv("PORT", "8080")
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
