// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member roles.
const (
	RoleMember       = "member"
	RoleOrganization = "organization" // startups and companies
	RoleAdmin        = "admin"
)

// Member is a registered account. The handle is unique (case-insensitively,
// via HandleCI) and effectively immutable once claimed.
type Member struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Handle      string             `bson:"handle" json:"handle"`
	HandleCI    string             `bson:"handle_ci" json:"-"` // folded copy used for lookups
	DisplayName string             `bson:"display_name,omitempty" json:"display_name,omitempty"`
	Role        string             `bson:"role" json:"role"` // member | organization | admin
	AvatarURL   string             `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Ref returns an id reference to the member.
func (m Member) Ref() MemberRef {
	return RefByID(m.ID)
}
