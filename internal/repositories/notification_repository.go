package repositories

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/henstagram/backend/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationLedger records which notifications were already sent so a
// redelivered event does not notify everyone twice.
type NotificationLedger interface {
	// Claim records key and reports whether this call created it.
	Claim(ctx context.Context, key, kind, targetID string) (bool, error)
	// Release forgets key so a later retry can claim it again.
	Release(ctx context.Context, key string) error
}

type postgresNotificationLedger struct {
	db *gorm.DB
}

func NewPostgresNotificationLedger(db *gorm.DB) NotificationLedger {
	return &postgresNotificationLedger{db: db}
}

func (r *postgresNotificationLedger) Claim(ctx context.Context, key, kind, targetID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.NotificationClaim{Key: key, Kind: kind, TargetID: targetID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *postgresNotificationLedger) Release(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.NotificationClaim{}).Error
}

// NotificationClaimsCollection stores ledger entries when Firestore is the backend.
const NotificationClaimsCollection = "notificationClaims"

type firestoreNotificationLedger struct {
	client *firestore.Client
}

func NewFirestoreNotificationLedger(client *firestore.Client) NotificationLedger {
	return &firestoreNotificationLedger{client: client}
}

func (r *firestoreNotificationLedger) ref(key string) *firestore.DocumentRef {
	return r.client.Collection(NotificationClaimsCollection).Doc(strings.ReplaceAll(key, "/", "_"))
}

func (r *firestoreNotificationLedger) Claim(ctx context.Context, key, kind, targetID string) (bool, error) {
	_, err := r.ref(key).Create(ctx, map[string]interface{}{
		"key":       key,
		"kind":      kind,
		"targetId":  targetID,
		"createdAt": firestore.ServerTimestamp,
	})
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *firestoreNotificationLedger) Release(ctx context.Context, key string) error {
	_, err := r.ref(key).Delete(ctx)
	return err
}
