// internal/app/store/linktokens/linktokenstore.go
package linktokenstore

import (
	"context"
	"time"

	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("link_tokens")}
}

// DefaultTTL is how long a deep-link token stays redeemable. The TTL index
// on expires_at garbage-collects stale rows; Consume additionally checks
// the deadline since Mongo's TTL monitor only runs about once a minute.
const DefaultTTL = 15 * time.Minute

// Issue mints a single-use token that deep-links a Telegram /start back to
// this account. Any previous tokens for the account are dropped first, so
// only the newest link in the UI is redeemable.
func (s *Store) Issue(ctx context.Context, userID primitive.ObjectID, ttl time.Duration) (models.LinkToken, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if _, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return models.LinkToken{}, err
	}

	now := time.Now().UTC()
	tok := models.LinkToken{
		ID:        primitive.NewObjectID(),
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if _, err := s.c.InsertOne(ctx, tok); err != nil {
		return models.LinkToken{}, err
	}
	return tok, nil
}

// Consume atomically redeems a token: it is found, checked for expiry, and
// deleted in one FindOneAndDelete, so a token can be spent exactly once
// even under concurrent /start deliveries. Returns mongo.ErrNoDocuments
// for unknown or expired tokens.
func (s *Store) Consume(ctx context.Context, token string) (models.LinkToken, error) {
	var tok models.LinkToken
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&tok)
	if err != nil {
		return models.LinkToken{}, err
	}
	return tok, nil
}

// DeleteExpired sweeps tokens past their deadline. The TTL index does this
// too; the cleanup job keeps the collection tidy between monitor passes.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByUser drops any outstanding tokens for an account. Part of the
// cascade when the account is rejected or deleted.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
