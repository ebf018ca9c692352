package firebase

import (
	"context"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and Firestore client
type App struct {
	FirebaseApp *firebase.App
	Firestore   *firestore.Client
}

// InitFirebase initializes the Firebase application and Firestore client.
// With no credentials path the application default credentials are used,
// which is what the platform provides when running next to the database.
func InitFirebase(ctx context.Context, credentialsPath, projectID string) (*App, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("Firebase credentials file not found at %s", credentialsPath)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	firebaseApp, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	firestoreClient, err := firebaseApp.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client: %w", err)
	}

	log.Println("Firebase app and Firestore client initialized successfully!")
	return &App{FirebaseApp: firebaseApp, Firestore: firestoreClient}, nil
}

// Close releases the Firestore client
func (a *App) Close() {
	if a == nil || a.Firestore == nil {
		return
	}
	if err := a.Firestore.Close(); err != nil {
		log.Printf("Error closing Firestore client: %v\n", err)
	}
}
