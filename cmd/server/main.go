package main

import (
	"context"
	"log"

	"github.com/anonto42/henstagram/backend/internal/router"
	"github.com/anonto42/henstagram/backend/pkg/config"
	"github.com/anonto42/henstagram/backend/pkg/firebase"
	"github.com/anonto42/henstagram/backend/pkg/push"
	"github.com/anonto42/henstagram/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Initialize Firebase
	ctx := context.Background()
	var firebaseApp *firebase.App
	if cfg.StoreBackend == config.BackendFirestore {
		firebaseApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseProjectID)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		defer firebaseApp.Close()
	}

	pushClient := push.NewClient(push.Config{
		Endpoint:    cfg.ExpoPushURL,
		AccessToken: cfg.ExpoAccessToken,
		Timeout:     cfg.ExpoHTTPTimeout,
	})

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, router.Dependencies{
		Config:   cfg,
		DB:       db,
		Firebase: firebaseApp,
		Push:     pushClient,
	})

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
