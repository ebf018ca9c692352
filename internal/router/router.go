package router

import (
	"fmt"
	"log"

	"github.com/anonto42/henstagram/backend/internal/handlers"
	"github.com/anonto42/henstagram/backend/internal/middleware"
	"github.com/anonto42/henstagram/backend/internal/models"
	"github.com/anonto42/henstagram/backend/internal/repositories"
	"github.com/anonto42/henstagram/backend/internal/triggers"
	"github.com/anonto42/henstagram/backend/pkg/config"
	"github.com/anonto42/henstagram/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
)

// EventBodyLimit caps a trigger request. An update event carries the old and
// new document images, each up to Firestore's 1 MiB document size.
const EventBodyLimit = "4M"

// Dependencies are the connections opened by main
type Dependencies struct {
	Config   *config.Config
	DB       *config.DB
	Firebase *firebase.App
	Push     triggers.Sender
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.RequestLogger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.BodyLimit(EventBodyLimit))
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	if deps.DB != nil && deps.DB.Postgres != nil {
		if err := deps.DB.Postgres.AutoMigrate(&models.NotificationClaim{}); err != nil {
			log.Fatalf("Failed to auto migrate models: %v", err)
		}
		log.Println("PostgreSQL auto-migrations completed.")
	}

	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	postRepo, tokenRegistry, ledger, err := newRepositories(deps)
	if err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// --- Triggers ---
	commentTrigger := triggers.NewCommentTrigger(postRepo, nil)
	challengeTrigger := triggers.NewChallengeTrigger(tokenRegistry, deps.Push, ledger, triggers.ChallengeConfig{
		DeepLinkScheme:    deps.Config.DeepLinkScheme,
		RequireExpoTokens: deps.Config.RequireExpoTokens,
	}, nil)

	// --- Event routes ---
	events := e.Group("/triggers")
	if deps.Config.TriggerAudience != "" {
		events.Use(middleware.TriggerAuthMiddleware(deps.Config.TriggerAudience, nil))
		log.Println("OIDC verification applied to /triggers group.")
	} else {
		log.Println("TRIGGER_AUDIENCE not set, /triggers accepts unauthenticated events.")
	}

	triggerHandler := handlers.NewTriggerHandler(commentTrigger, challengeTrigger)
	triggerHandler.RegisterTriggerRoutes(events)
	log.Println("Trigger routes configured.")
}

func newRepositories(deps Dependencies) (repositories.PostRepository, repositories.TokenRegistry, repositories.NotificationLedger, error) {
	var (
		posts  repositories.PostRepository
		users  repositories.TokenRegistry
		ledger repositories.NotificationLedger
	)

	switch deps.Config.StoreBackend {
	case config.BackendFirestore:
		if deps.Firebase == nil {
			return nil, nil, nil, fmt.Errorf("firestore backend selected but Firebase is not initialized")
		}
		posts = repositories.NewFirestorePostRepository(deps.Firebase.Firestore)
		users = repositories.NewFirestoreTokenRegistry(deps.Firebase.Firestore)
		ledger = repositories.NewFirestoreNotificationLedger(deps.Firebase.Firestore)
	case config.BackendMongo:
		if deps.DB == nil || deps.DB.Mongo == nil {
			return nil, nil, nil, fmt.Errorf("mongo backend selected but MongoDB is not connected")
		}
		mdb := deps.DB.Mongo.Database(deps.Config.MongoDatabase)
		posts = repositories.NewMongoPostRepository(mdb)
		users = repositories.NewMongoTokenRegistry(mdb)
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", deps.Config.StoreBackend)
	}

	if deps.DB != nil && deps.DB.Postgres != nil {
		ledger = repositories.NewPostgresNotificationLedger(deps.DB.Postgres)
		log.Println("Using PostgreSQL notification ledger.")
	}
	if ledger == nil {
		log.Println("No notification ledger configured, redelivered activation events will push again.")
	}
	return posts, users, ledger, nil
}
