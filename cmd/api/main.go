package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"merchant-analytics-layer/internal/application"
	apiinfra "merchant-analytics-layer/internal/infrastructure/api"
	"merchant-analytics-layer/internal/infrastructure/cache"
	"merchant-analytics-layer/internal/infrastructure/encryption"
	"merchant-analytics-layer/internal/infrastructure/repository"
)

const reportCacheTTL = 5 * time.Minute

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal().Msg("DATABASE_URL environment variable is required")
	}

	encryptionKey := os.Getenv("ENCRYPTION_KEY")
	if encryptionKey == "" {
		logger.Fatal().Msg("ENCRYPTION_KEY environment variable is required")
	}

	// Connect to Postgres and run migrations
	db, err := repository.Open(dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	encryptionService, err := encryption.NewService(encryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	// Initialize repositories
	credentialRepo := repository.NewCredentialRepository(db)
	metricRepo := repository.NewMetricRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	// Report cache is optional; REDIS_ADDR empty means reports compute
	// directly on every request.
	reportCache := cache.NewReportCache(os.Getenv("REDIS_ADDR"), reportCacheTTL, logger)

	// Initialize application services
	credentialsService := application.NewCredentialsService(credentialRepo, encryptionService, logger)
	productService := application.NewProductService(productRepo, logger)
	reportService := application.NewReportService(metricRepo, orderRepo, reportCache, logger)
	adImportService := application.NewAdImportService(metricRepo, logger)

	server := apiinfra.NewServer(
		credentialsService,
		productService,
		reportService,
		adImportService,
		orderRepo,
		customerRepo,
		logger,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("Starting API server")
	if err := http.ListenAndServe(":"+port, server.Router()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
