package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/tradehub-dev/tradehub/db"
	"github.com/tradehub-dev/tradehub/internal/auth"
	"github.com/tradehub-dev/tradehub/internal/entitlement"
	"github.com/tradehub-dev/tradehub/internal/geocode"
	"github.com/tradehub-dev/tradehub/internal/handlers"
	"github.com/tradehub-dev/tradehub/internal/router"
	"github.com/tradehub-dev/tradehub/internal/services"
)

const defaultGeocodingURL = "https://maps.googleapis.com/maps/api/geocode/json"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")

	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if err := db.ConnectDatabase(dsn); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	geocodingURL := os.Getenv("GEOCODING_BASE_URL")

	if geocodingURL == "" {
		geocodingURL = defaultGeocodingURL
	}

	handlers.Resolver = geocode.NewResolver(
		geocode.NewClient(geocodingURL, os.Getenv("GEOCODING_API_KEY")),
		geocode.NZBounds,
	)

	handlers.Gate = entitlement.NewGate(db.DB)
	handlers.Mail = services.NewSendgridMailer()
	handlers.Payments = services.NewStripeProvider()

	storage, err := services.NewS3Storage(context.Background())

	if err != nil {
		log.Printf("Object storage disabled: %v", err)
	} else {
		handlers.Storage = storage
	}

	r := router.NewRouter()

	var port string

	if port = os.Getenv("PORT"); port == "" {
		port = "3000"
		log.Println("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
