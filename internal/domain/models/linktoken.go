// internal/domain/models/linktoken.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LinkToken is a one-shot token carried in a Telegram deep link
// (t.me/<bot>?start=<token>) that ties a Telegram user to a Disciplo
// account. Tokens expire via a TTL index on expires_at and are deleted on
// first use.
type LinkToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Token     string             `bson:"token" json:"token"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
