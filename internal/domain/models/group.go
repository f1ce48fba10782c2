// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group types. "main" is reserved for the community default group.
const (
	GroupTypeMain    = "main"
	GroupTypeLocal   = "local"
	GroupTypeOnline  = "online"
	GroupTypeSpecial = "special"
)

// Group represents an accountability community.
//
// NOTE:
//   - Member lists are not embedded on Group.
//     All membership is stored in the group_memberships collection.
//   - At most one group system-wide has IsDefault set; the partial unique
//     index on {is_default: true} enforces this even under concurrent
//     Telegram group activations.
//   - TelegramChatID is populated when the bot reports a group activation
//     event for the chat.
type Group struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        string             `bson:"type" json:"type"` // main | local | online | special
	City        string             `bson:"city,omitempty" json:"city,omitempty"`
	MaxMembers  int                `bson:"max_members,omitempty" json:"max_members,omitempty"`

	TelegramChatID *string `bson:"telegram_chat_id,omitempty" json:"telegram_chat_id,omitempty"`
	IsDefault      bool    `bson:"is_default,omitempty" json:"is_default"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Synced reports whether the group is linked to a Telegram chat.
func (g *Group) Synced() bool {
	return g.TelegramChatID != nil && *g.TelegramChatID != ""
}
