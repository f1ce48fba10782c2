// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/disciplo/disciplo/internal/app/system/normalize"
	"github.com/disciplo/disciplo/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

var (
	// ErrDuplicateChatID is returned when a Telegram chat is already bound
	// to another group.
	ErrDuplicateChatID = errors.New("this Telegram chat is already linked to a group")
	errBadType         = errors.New(`group type must be "main"|"local"|"online"|"special"`)
)

// Create inserts a new group after normalizing and validating fields.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	g.ID = primitive.NewObjectID()
	g.Name = normalize.Name(g.Name)
	g.NameCI = text.Fold(g.Name)

	switch g.Type {
	case models.GroupTypeMain, models.GroupTypeLocal, models.GroupTypeOnline, models.GroupTypeSpecial:
	default:
		return models.Group{}, errBadType
	}

	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateChatID
		}
		return models.Group{}, err
	}
	return g, nil
}

// GetByID loads a group by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByTelegramChatID resolves the group synced with a Telegram chat.
// Returns mongo.ErrNoDocuments when the chat is unknown.
func (s *Store) GetByTelegramChatID(ctx context.Context, chatID string) (*models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"telegram_chat_id": chatID}).Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetDefault returns the community default group, if one has been elected.
// Returns mongo.ErrNoDocuments when no group is default yet.
func (s *Store) GetDefault(ctx context.Context) (*models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"is_default": true}).Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ActivateTelegram creates (or returns) the group bound to a Telegram chat.
// The first chat the bot is added to is elected the community default and
// typed "main"; later chats become non-default "local" groups. The partial
// unique index on is_default makes the election race-safe: the loser of a
// concurrent activation gets a dup error on is_default and retries as a
// non-default local group. An activation for an already-bound chat returns
// the existing group unchanged.
func (s *Store) ActivateTelegram(ctx context.Context, chatID, title string) (*models.Group, bool, error) {
	if existing, err := s.GetByTelegramChatID(ctx, chatID); err == nil {
		return existing, false, nil
	} else if err != mongo.ErrNoDocuments {
		return nil, false, err
	}

	hasDefault, err := s.hasDefault(ctx)
	if err != nil {
		return nil, false, err
	}

	g := models.Group{
		Name:           normalize.Name(title),
		Type:           models.GroupTypeLocal,
		TelegramChatID: &chatID,
		IsDefault:      !hasDefault,
	}
	if g.IsDefault {
		g.Type = models.GroupTypeMain
	}
	if g.Name == "" {
		g.Name = "Telegram Group"
	}

	created, err := s.Create(ctx, g)
	if err == nil {
		return &created, true, nil
	}
	if err != ErrDuplicateChatID {
		return nil, false, err
	}

	// Dup on either unique index. If the chat itself is now bound, another
	// activation won the whole race; otherwise we lost only the default
	// election and insert again as a plain local group.
	if existing, gErr := s.GetByTelegramChatID(ctx, chatID); gErr == nil {
		return existing, false, nil
	} else if gErr != mongo.ErrNoDocuments {
		return nil, false, gErr
	}

	g.IsDefault = false
	g.Type = models.GroupTypeLocal
	created, err = s.Create(ctx, g)
	if err == ErrDuplicateChatID {
		existing, gErr := s.GetByTelegramChatID(ctx, chatID)
		if gErr != nil {
			return nil, false, gErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &created, true, nil
}

func (s *Store) hasDefault(ctx context.Context) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"is_default": true}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns all groups sorted by folded name.
func (s *Store) List(ctx context.Context) ([]models.Group, error) {
	cur, err := s.c.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ListSynced returns groups bound to a Telegram chat. Used by the
// reconcile sweep.
func (s *Store) ListSynced(ctx context.Context) ([]models.Group, error) {
	cur, err := s.c.Find(ctx, bson.M{"telegram_chat_id": bson.M{"$exists": true}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Delete removes a group document. Memberships are cleaned up by the
// caller before the group itself goes away.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (deleted bool, err error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
