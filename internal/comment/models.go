package comment

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityType names the record a comment is attached to.
type EntityType string

const (
	EntityStudy       EntityType = "study"
	EntityPatient     EntityType = "patient"
	EntityVisit       EntityType = "visit"
	EntityActivity    EntityType = "activity"
	EntityFeasibility EntityType = "feasibility"
)

// Comment is a free-text note left by a user on a clinical record.
type Comment struct {
	ID         uuid.UUID  `json:"id"`
	AuthorID   uuid.UUID  `json:"author_id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   uuid.UUID  `json:"entity_id"`
	Body       string     `json:"body"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CreateInput is the request payload for a new comment. The author is taken
// from the caller's token, never from the body.
type CreateInput struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   uuid.UUID  `json:"entity_id"`
	Body       string     `json:"body"`

	AuthorID uuid.UUID `json:"-"`
}

func (in *CreateInput) normalize() {
	in.EntityType = EntityType(strings.ToLower(strings.TrimSpace(string(in.EntityType))))
	in.Body = strings.TrimSpace(in.Body)
}

// Patch edits the comment body.
type Patch struct {
	Body *string `json:"body"`
}

// Actor is the user performing a write.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}

func (a Actor) canModify(c Comment) bool {
	return a.Admin || a.ID == c.AuthorID
}

// Filter narrows List results.
type Filter struct {
	EntityType EntityType
	EntityID   *uuid.UUID
	AuthorID   *uuid.UUID
}
