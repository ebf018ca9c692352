package repositories

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/henstagram/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TokenRegistry reads the push tokens every user registered. Filtering is
// left to the caller.
type TokenRegistry interface {
	ListUserTokens(ctx context.Context) ([]models.UserTokens, error)
}

// FirestoreTokenRegistry implements TokenRegistry over the Firestore users collection
type FirestoreTokenRegistry struct {
	client *firestore.Client
}

// NewFirestoreTokenRegistry creates a new FirestoreTokenRegistry
func NewFirestoreTokenRegistry(client *firestore.Client) *FirestoreTokenRegistry {
	return &FirestoreTokenRegistry{client: client}
}

// ListUserTokens scans the whole users collection
func (r *FirestoreTokenRegistry) ListUserTokens(ctx context.Context) ([]models.UserTokens, error) {
	docs, err := r.client.Collection(models.UsersCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	users := make([]models.UserTokens, 0, len(docs))
	for _, doc := range docs {
		users = append(users, models.UserTokens{
			UserID: doc.Ref.ID,
			Tokens: doc.Data()[models.ExpoPushTokensField],
		})
	}
	return users, nil
}

// MongoTokenRegistry implements TokenRegistry over the MongoDB users collection
type MongoTokenRegistry struct {
	collection *mongo.Collection
}

// NewMongoTokenRegistry creates a new MongoTokenRegistry
func NewMongoTokenRegistry(db *mongo.Database) *MongoTokenRegistry {
	return &MongoTokenRegistry{collection: db.Collection(models.UsersCollection)}
}

// ListUserTokens scans the whole users collection
func (r *MongoTokenRegistry) ListUserTokens(ctx context.Context) ([]models.UserTokens, error) {
	opts := options.Find().SetProjection(bson.M{models.ExpoPushTokensField: 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]models.UserTokens, 0, len(docs))
	for _, doc := range docs {
		tokens := doc[models.ExpoPushTokensField]
		if arr, ok := tokens.(primitive.A); ok {
			tokens = []any(arr)
		}
		users = append(users, models.UserTokens{
			UserID: fmt.Sprint(doc["_id"]),
			Tokens: tokens,
		})
	}
	return users, nil
}
