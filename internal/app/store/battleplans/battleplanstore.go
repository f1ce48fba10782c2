// internal/app/store/battleplans/battleplanstore.go
package battleplanstore

import (
	"context"
	"errors"
	"time"

	"github.com/disciplo/disciplo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("battleplans")}
}

var (
	errBadDuration = errors.New("battleplan duration must be 30, 60 or 90 days")
	errBadPillars  = errors.New("battleplan must carry one pillar of each type")
)

// Create inserts a battleplan and makes it the user's active plan,
// deactivating any previous active plans first. The end date is derived
// from the start date and duration.
func (s *Store) Create(ctx context.Context, p models.Battleplan) (models.Battleplan, error) {
	switch p.Duration {
	case 30, 60, 90:
	default:
		return models.Battleplan{}, errBadDuration
	}
	if err := validatePillars(p.Pillars); err != nil {
		return models.Battleplan{}, err
	}

	now := time.Now().UTC()
	if p.StartDate.IsZero() {
		p.StartDate = now
	}
	p.ID = primitive.NewObjectID()
	p.EndDate = p.StartDate.AddDate(0, 0, p.Duration)
	p.IsActive = true
	p.CreatedAt = now

	if _, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": p.UserID, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false}},
	); err != nil {
		return models.Battleplan{}, err
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Battleplan{}, err
	}
	return p, nil
}

func validatePillars(pillars []models.Pillar) error {
	if len(pillars) != len(models.PillarTypes) {
		return errBadPillars
	}
	seen := make(map[string]bool, len(pillars))
	for _, pl := range pillars {
		seen[pl.Type] = true
	}
	for _, t := range models.PillarTypes {
		if !seen[t] {
			return errBadPillars
		}
	}
	return nil
}

// GetByID loads a battleplan by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Battleplan, error) {
	var p models.Battleplan
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetActiveByUser returns the user's active battleplan, or
// mongo.ErrNoDocuments when no plan is active.
func (s *Store) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*models.Battleplan, error) {
	var p models.Battleplan
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID, "is_active": true}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByUser returns the user's battleplans, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Battleplan, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var plans []models.Battleplan
	if err := cur.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Delete removes a single battleplan, but only when userID owns it.
func (s *Store) Delete(ctx context.Context, id, userID primitive.ObjectID) (deleted bool, err error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// DeleteByUser removes every battleplan the user owns. Part of the
// cascade when the account is rejected or deleted.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
