// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/disciplo/disciplo/internal/app/system/normalize"
	"github.com/disciplo/disciplo/internal/app/system/paging"
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
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when creating a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrAlreadyLinked is returned when the account already carries a Telegram link.
	// The link is set exactly once and never cleared automatically.
	ErrAlreadyLinked = errors.New("account is already linked to a Telegram user")
	errBadRole       = errors.New(`role must be "admin"|"group_admin"|"member"`)
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByTelegramID resolves the account linked to a Telegram user.
// Returns mongo.ErrNoDocuments if no account carries the link.
func (s *Store) GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"telegram_id": normalize.TelegramID(telegramID)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing and validating fields.
// Accounts are created unapproved; approval is a separate admin action.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)

	switch u.Role {
	case "admin", "group_admin", "member":
	default:
		return models.User{}, errBadRole
	}

	// Registration never creates pre-approved accounts; the only approved
	// insert path is the startup admin bootstrap.
	if u.Role != "admin" {
		u.Approved = false
		u.ApprovedAt = nil
		u.ApprovedBy = nil
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Approve flips an unapproved account to approved, stamping the approval
// time and the acting admin. The filter includes approved=false so two
// concurrent approvals resolve to exactly one state change; the loser
// observes changed=false, the benign "already approved / not found"
// outcome. Same outcome for an account that was already purged.
func (s *Store) Approve(ctx context.Context, id, approvedBy primitive.ObjectID) (changed bool, err error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "approved": false},
		bson.M{"$set": bson.M{
			"approved":    true,
			"approved_at": now,
			"approved_by": approvedBy,
			"updated_at":  now,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// Delete removes a user document outright (rejection purges the record; no
// "rejected" state is kept). Deleting an absent user reports deleted=false
// with no error.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (deleted bool, err error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// SetTelegramLink records the Telegram identity for an account. The filter
// requires telegram_id to be absent: the link is written exactly once.
// Returns ErrAlreadyLinked when the account exists but already has a link,
// mongo.ErrNoDocuments when the account is gone.
func (s *Store) SetTelegramLink(ctx context.Context, id primitive.ObjectID, telegramID, username string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "telegram_id": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{
			"telegram_id":       normalize.TelegramID(telegramID),
			"telegram_username": username,
			"updated_at":        time.Now().UTC(),
		}},
	)
	if err != nil {
		if wafflemongo.IsDup(err) {
			// Another account already holds this telegram_id.
			return ErrAlreadyLinked
		}
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish "gone" from "already linked".
		if cnt, cntErr := s.c.CountDocuments(ctx, bson.M{"_id": id}); cntErr == nil && cnt > 0 {
			return ErrAlreadyLinked
		}
		return mongo.ErrNoDocuments
	}
	return nil
}

// PromoteToAdmin grants the admin role. Admins are approved by
// definition, so the approval flag is set in the same write.
func (s *Store) PromoteToAdmin(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"role":        "admin",
			"approved":    true,
			"approved_at": now,
			"updated_at":  now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateProfile sets the editable profile fields.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, bio, city string) (updated bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"bio":        bio,
			"city":       city,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// IsAdmin re-verifies, from the store, that the given account currently
// holds the admin role. Privileged actions call this on every request and
// never trust a caller-supplied role claim.
func (s *Store) IsAdmin(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id, "role": "admin", "approved": true}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListPending returns unapproved accounts, oldest registration first.
func (s *Store) ListPending(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"approved": false},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CountPending returns the number of accounts awaiting review.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"approved": false})
}

// ListApprovedLinked returns approved accounts that have completed the
// Telegram link handshake. Used by the reconcile sweep.
func (s *Store) ListApprovedLinked(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"approved":    true,
		"telegram_id": bson.M{"$exists": true},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListDirectory returns one keyset page of approved accounts sorted by
// folded name, optionally narrowed by a name-prefix search. The page is
// fetched with one extra row so callers can detect a following page.
func (s *Store) ListDirectory(ctx context.Context, search string, cfg paging.KeysetConfig) ([]models.User, error) {
	filter := bson.M{"approved": true}
	if search != "" {
		filter["full_name_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(text.Fold(search))}
	}
	if window := cfg.KeysetWindow("full_name_ci"); window != nil {
		for k, v := range window {
			filter[k] = v
		}
	}

	find := options.Find()
	cfg.ApplyToFind(find, "full_name_ci")

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListApproved returns all approved accounts.
func (s *Store) ListApproved(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{"approved": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
