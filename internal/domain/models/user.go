// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a Disciplo account: admins, group admins, and members.
//
// NOTE:
//   - Group membership is not embedded on User.
//     Use the group_memberships collection to discover a user's groups.
//   - Approval invariant: ApprovedAt is set if and only if Approved is true,
//     and role "admin" implies Approved. Rejection deletes the document
//     outright; there is no "rejected" state to represent.
//   - TelegramID is set exactly once by the link handshake and is never
//     cleared automatically.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Bio          string             `bson:"bio,omitempty" json:"bio,omitempty"`
	City         string             `bson:"city,omitempty" json:"city,omitempty"`
	Role         string             `bson:"role" json:"role"` // admin | group_admin | member

	Approved   bool                `bson:"approved" json:"approved"`
	ApprovedAt *time.Time          `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	ApprovedBy *primitive.ObjectID `bson:"approved_by,omitempty" json:"approved_by,omitempty"`

	TelegramID       *string `bson:"telegram_id,omitempty" json:"telegram_id,omitempty"`
	TelegramUsername *string `bson:"telegram_username,omitempty" json:"telegram_username,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Linked reports whether the user has completed the Telegram link handshake.
func (u *User) Linked() bool {
	return u.TelegramID != nil && *u.TelegramID != ""
}
