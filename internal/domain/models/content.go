// internal/domain/models/content.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind discriminates the two content item kinds.
type Kind string

const (
	KindUpdate       Kind = "update"
	KindAnnouncement Kind = "announcement"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindUpdate || k == KindAnnouncement
}

// ContentRef addresses one content item.
type ContentRef struct {
	Kind Kind
	ID   primitive.ObjectID
}

// Comment is embedded in its content item and is never stored on its own.
// Comments are append-only.
type Comment struct {
	ID        string    `bson:"id" json:"id"`
	Author    string    `bson:"author" json:"author"` // member handle
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Update is a short free-text post.
type Update struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID  primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Body     string             `bson:"body" json:"body"`
	ImageURL string             `bson:"image_url,omitempty" json:"image_url,omitempty"`

	Likes    []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments []Comment            `bson:"comments" json:"comments"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// LikedBy reports whether memberID is in the like set.
func (u Update) LikedBy(memberID primitive.ObjectID) bool {
	return containsID(u.Likes, memberID)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
