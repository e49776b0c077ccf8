// internal/domain/models/announcement.go
package models

import (
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announcement categories.
const (
	CategoryProject  = "project"
	CategoryResearch = "research"
)

// TeamState is a member's position in an announcement's team pipeline.
type TeamState string

const (
	TeamStateNone       TeamState = "none"
	TeamStateInterested TeamState = "interested"
	TeamStateApproved   TeamState = "approved"
)

// Announcement is a project or research call for collaborators.
//
// NOTE:
//   - Interested and TeamMembers hold member handles and are disjoint:
//     approval moves a handle from one to the other, it never copies it.
//   - Likes hold member ids.
type Announcement struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID       primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Topic         string             `bson:"topic" json:"topic"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	CoverImageURL string             `bson:"cover_image_url" json:"cover_image_url"`
	Category      string             `bson:"category" json:"category"` // project | research
	Link          string             `bson:"link,omitempty" json:"link,omitempty"`

	Interested  []string             `bson:"interested" json:"interested"`
	TeamMembers []string             `bson:"team_members" json:"team_members"`
	Likes       []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments    []Comment            `bson:"comments" json:"comments"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidCategory reports whether c is a known announcement category.
func ValidCategory(c string) bool {
	return c == CategoryProject || c == CategoryResearch
}

// LikedBy reports whether memberID is in the like set.
func (a Announcement) LikedBy(memberID primitive.ObjectID) bool {
	return containsID(a.Likes, memberID)
}

// StateOf returns the team state of the member with the given handle.
func (a Announcement) StateOf(handle string) TeamState {
	key := text.Fold(handle)
	for _, h := range a.TeamMembers {
		if text.Fold(h) == key {
			return TeamStateApproved
		}
	}
	for _, h := range a.Interested {
		if text.Fold(h) == key {
			return TeamStateInterested
		}
	}
	return TeamStateNone
}
