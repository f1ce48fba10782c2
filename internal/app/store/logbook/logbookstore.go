// internal/app/store/logbook/logbookstore.go
package logbookstore

import (
	"context"
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
	return &Store{c: db.Collection("logbook_entries")}
}

// Create inserts a meeting record.
func (s *Store) Create(ctx context.Context, e models.LogbookEntry) (models.LogbookEntry, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	if e.MeetingDate.IsZero() {
		e.MeetingDate = now
	}
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.LogbookEntry{}, err
	}
	return e, nil
}

// GetByID loads an entry by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.LogbookEntry, error) {
	var e models.LogbookEntry
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update rewrites an entry's editable fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, title, content string, meetingDate time.Time) (updated bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"title":        title,
			"content":      content,
			"meeting_date": meetingDate,
			"updated_at":   time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// Delete removes an entry. Deleting an absent entry reports deleted=false
// with no error.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (deleted bool, err error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// ListByGroup returns a group's entries, most recent meeting first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.LogbookEntry, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"group_id": groupID},
		options.Find().SetSort(bson.D{{Key: "meeting_date", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []models.LogbookEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteByGroup removes every entry in a group. Part of the cascade when
// the group is deleted.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
