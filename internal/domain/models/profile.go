// internal/domain/models/profile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is the optional enrichment of a Member. It is created lazily on the
// first write that needs it (for example the first follow) and callers must
// not assume it exists.
type Profile struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID  primitive.ObjectID `bson:"member_id" json:"member_id"`
	Headline  string             `bson:"headline,omitempty" json:"headline,omitempty"`
	Bio       string             `bson:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL string             `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"` // overrides Member.AvatarURL

	Education    []ProfileEntry `bson:"education,omitempty" json:"education,omitempty"`
	Experience   []ProfileEntry `bson:"experience,omitempty" json:"experience,omitempty"`
	Certificates []ProfileEntry `bson:"certificates,omitempty" json:"certificates,omitempty"`
	Skills       []string       `bson:"skills,omitempty" json:"skills,omitempty"`

	Followers []primitive.ObjectID `bson:"followers,omitempty" json:"followers,omitempty"`
	Following []primitive.ObjectID `bson:"following,omitempty" json:"following,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ProfileEntry is one line of an education, experience or certificate list.
type ProfileEntry struct {
	Title        string     `bson:"title" json:"title"`
	Organization string     `bson:"organization,omitempty" json:"organization,omitempty"`
	From         *time.Time `bson:"from,omitempty" json:"from,omitempty"`
	To           *time.Time `bson:"to,omitempty" json:"to,omitempty"`
}
