package repositories

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/henstagram/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrPostNotFound is returned when the parent post of a comment does not exist.
var ErrPostNotFound = errors.New("post not found")

// PostRepository defines the counter mutations the comment trigger issues
type PostRepository interface {
	// IncrementCommentsCount adds one using the store's atomic increment.
	IncrementCommentsCount(ctx context.Context, postID string) error
	// DecrementCommentsCount removes one inside a transaction, never going
	// below zero, and returns the value written.
	DecrementCommentsCount(ctx context.Context, postID string) (int64, error)
}

// FirestorePostRepository implements PostRepository for Firestore
type FirestorePostRepository struct {
	client *firestore.Client
}

// NewFirestorePostRepository creates a new FirestorePostRepository
func NewFirestorePostRepository(client *firestore.Client) *FirestorePostRepository {
	return &FirestorePostRepository{client: client}
}

func (r *FirestorePostRepository) postRef(postID string) *firestore.DocumentRef {
	return r.client.Collection(models.PostsCollection).Doc(postID)
}

// IncrementCommentsCount increments the comments count of a post
func (r *FirestorePostRepository) IncrementCommentsCount(ctx context.Context, postID string) error {
	_, err := r.postRef(postID).Update(ctx, []firestore.Update{
		{Path: models.CommentsCountField, Value: firestore.Increment(1)},
	})
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s", ErrPostNotFound, postID)
	}
	return err
}

// DecrementCommentsCount decrements the comments count of a post, floored at zero
func (r *FirestorePostRepository) DecrementCommentsCount(ctx context.Context, postID string) (int64, error) {
	ref := r.postRef(postID)
	var next int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		next = models.DecrementedCount(snap.Data()[models.CommentsCountField])
		return tx.Update(ref, []firestore.Update{
			{Path: models.CommentsCountField, Value: next},
		})
	})
	if status.Code(err) == codes.NotFound {
		return 0, fmt.Errorf("%w: %s", ErrPostNotFound, postID)
	}
	return next, err
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection(models.PostsCollection)}
}

// postIDFilter matches a post whose _id is either the ObjectID spelled by
// postID or the plain string. Posts created through the API carry ObjectIDs,
// imported ones keep their document id.
func postIDFilter(postID string) bson.M {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return bson.M{"_id": postID}
	}
	return bson.M{"_id": bson.M{"$in": bson.A{objID, postID}}}
}

// IncrementCommentsCount increments the comments count of a post
func (r *MongoPostRepository) IncrementCommentsCount(ctx context.Context, postID string) error {
	res, err := r.collection.UpdateOne(ctx, postIDFilter(postID), bson.M{"$inc": bson.M{models.CommentsCountField: 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrPostNotFound, postID)
	}
	return nil
}

// DecrementCommentsCount decrements the comments count of a post, floored at
// zero. Requires a replica set, MongoDB only runs transactions there.
func (r *MongoPostRepository) DecrementCommentsCount(ctx context.Context, postID string) (int64, error) {
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return 0, fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var post bson.M
		opts := options.FindOne().SetProjection(bson.M{models.CommentsCountField: 1})
		if err := r.collection.FindOne(sc, postIDFilter(postID), opts).Decode(&post); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, fmt.Errorf("%w: %s", ErrPostNotFound, postID)
			}
			return nil, err
		}

		next := models.DecrementedCount(post[models.CommentsCountField])
		_, err := r.collection.UpdateOne(sc, bson.M{"_id": post["_id"]}, bson.M{"$set": bson.M{models.CommentsCountField: next}})
		return next, err
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}
