// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import (
	"context"
	"net/http"

	"github.com/disciplo/disciplo/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsGroupAdmin returns true if the given user holds the admin role in
// the given group according to the authoritative group_memberships
// collection.
func IsGroupAdmin(ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID) (bool, error) {
	c := db.Collection("group_memberships")
	n, err := c.CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
		"role":     "admin",
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsMember returns true if the given user has any membership row in the
// given group.
func IsMember(ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID) (bool, error) {
	c := db.Collection("group_memberships")
	n, err := c.CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CanManageGroup reports whether the current request user can manage
// the group: site admins always can, group admins only for groups where
// they hold the admin membership role. Returns an error when the
// database check fails, so callers can distinguish "not authorized"
// (false, nil) from "database error" (false, err).
func CanManageGroup(ctx context.Context, db *mongo.Database, r *http.Request, groupID primitive.ObjectID) (bool, error) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false, nil
	}
	if role == "admin" {
		return true, nil
	}
	if role != "group_admin" {
		return false, nil
	}
	return IsGroupAdmin(ctx, db, groupID, uid)
}
