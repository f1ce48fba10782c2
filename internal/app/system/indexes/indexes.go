// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so any problem is visible and startup can fail fast.

The unique indexes here are load-bearing for correctness, not just lookup
speed: membership reconciliation relies on the (group_id, user_id) unique
index for idempotent add/remove, and the partial unique index on
is_default enforces the single-default-group invariant under concurrent
group activations.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureGroups(ctx, db); err != nil {
		problems = append(problems, "groups: "+err.Error())
	}
	if err := ensureGroupMemberships(ctx, db); err != nil {
		problems = append(problems, "group_memberships: "+err.Error())
	}
	if err := ensureLinkTokens(ctx, db); err != nil {
		problems = append(problems, "link_tokens: "+err.Error())
	}
	if err := ensureBattleplans(ctx, db); err != nil {
		problems = append(problems, "battleplans: "+err.Error())
	}
	if err := ensureLogbookEntries(ctx, db); err != nil {
		problems = append(problems, "logbook_entries: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			// Sparse: most accounts are created before the Telegram link
			// handshake runs.
			Keys:    bson.D{{Key: "telegram_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_telegram_id"),
		},
		{
			Keys:    bson.D{{Key: "approved", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("approved_created"),
		},
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}},
			Options: options.Index().SetName("full_name_ci"),
		},
	})
	return err
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("groups")
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "telegram_chat_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_telegram_chat_id"),
		},
		{
			// Partial unique index: at most one document may carry
			// is_default=true. Concurrent activations race on this index
			// and exactly one wins the default slot.
			Keys: bson.D{{Key: "is_default", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_default": true}).
				SetName("uniq_default_group"),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("name_ci"),
		},
	})
	return err
}

func ensureGroupMemberships(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("group_memberships")
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_group_user"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id"),
		},
	})
	return err
}

func ensureLinkTokens(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("link_tokens")
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_token"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
		},
	})
	return err
}

func ensureBattleplans(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("battleplans")
	_, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "is_active", Value: 1}},
		Options: options.Index().SetName("user_active"),
	})
	return err
}

func ensureLogbookEntries(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("logbook_entries")
	_, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "meeting_date", Value: -1}},
		Options: options.Index().SetName("group_meeting_date"),
	})
	return err
}

// EnsureWithTimeout runs EnsureAll with its own deadline, for callers that
// do not already carry one (startup hooks pass their own context).
func EnsureWithTimeout(parent context.Context, db *mongo.Database, d time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return EnsureAll(ctx, db)
}
