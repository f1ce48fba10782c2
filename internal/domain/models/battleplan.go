// internal/domain/models/battleplan.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pillar types for a battleplan. Every battleplan carries exactly one
// pillar of each type.
const (
	PillarInteriority   = "interiority"
	PillarRelationships = "relationships"
	PillarResources     = "resources"
	PillarHealth        = "health"
)

// PillarTypes lists the four fixed pillar types in display order.
var PillarTypes = []string{
	PillarInteriority,
	PillarRelationships,
	PillarResources,
	PillarHealth,
}

// Routine is a daily practice inside a pillar.
type Routine struct {
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// Pillar groups the routines for one of the four life areas.
type Pillar struct {
	Type      string    `bson:"type" json:"type"` // one of PillarTypes
	Objective string    `bson:"objective" json:"objective"`
	Routines  []Routine `bson:"routines,omitempty" json:"routines,omitempty"`
}

// Battleplan is a 30/60/90-day transformation tracker. A user has at most
// one active battleplan; creating a new one deactivates the rest.
type Battleplan struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID              primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title               string             `bson:"title" json:"title"`
	Priority            string             `bson:"priority" json:"priority"`
	PriorityDescription string             `bson:"priority_description,omitempty" json:"priority_description,omitempty"`
	StartDate           time.Time          `bson:"start_date" json:"start_date"`
	EndDate             time.Time          `bson:"end_date" json:"end_date"`
	Duration            int                `bson:"duration" json:"duration"` // 30 | 60 | 90
	IsActive            bool               `bson:"is_active" json:"is_active"`
	Pillars             []Pillar           `bson:"pillars" json:"pillars"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
