package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends for posts and the user token registry.
const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	FirebaseProjectID       string
	StoreBackend            string
	MongoURI                string
	MongoDatabase           string
	PostgresConnStr         string
	ExpoPushURL             string
	ExpoAccessToken         string
	ExpoHTTPTimeout         time.Duration
	DeepLinkScheme          string
	RequireExpoTokens       bool
	TriggerAudience         string
}

// Load reads configuration from .env file and environment variables
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	timeout, err := time.ParseDuration(getEnv("EXPO_HTTP_TIMEOUT", "15s"))
	if err != nil {
		log.Printf("Invalid EXPO_HTTP_TIMEOUT, using 15s: %v", err)
		timeout = 15 * time.Second
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		StoreBackend:            getEnv("STORE_BACKEND", BackendFirestore),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "henstagram"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		ExpoPushURL:             getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		ExpoAccessToken:         getEnv("EXPO_ACCESS_TOKEN", ""),
		ExpoHTTPTimeout:         timeout,
		DeepLinkScheme:          getEnv("DEEP_LINK_SCHEME", "henstagrammobile"),
		RequireExpoTokens:       getBool("CHALLENGE_REQUIRE_EXPO_TOKENS", false),
		TriggerAudience:         getEnv("TRIGGER_AUDIENCE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return b
}
