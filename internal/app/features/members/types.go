// internal/app/features/members/types.go
package members

import (
	"github.com/dalemusser/collabhub/internal/app/services/identity"
	"github.com/dalemusser/collabhub/internal/domain/models"
)

// memberView is the GET /members/{ref} response.
type memberView struct {
	identity.Identity
	Role           string                `json:"role"`
	Bio            string                `json:"bio,omitempty"`
	Skills         []string              `json:"skills,omitempty"`
	Education      []models.ProfileEntry `json:"education,omitempty"`
	Experience     []models.ProfileEntry `json:"experience,omitempty"`
	Certificates   []models.ProfileEntry `json:"certificates,omitempty"`
	FollowerCount  int                   `json:"follower_count"`
	FollowingCount int                   `json:"following_count"`
	FollowedByYou  *bool                 `json:"followed_by_you,omitempty"`
}

type followResponse struct {
	Following     bool `json:"following"`
	FollowerCount int  `json:"follower_count"`
}

// profileInput is the PUT /members/{ref}/profile body. Omitted fields are
// cleared.
type profileInput struct {
	Headline     string                `json:"headline"`
	Bio          string                `json:"bio"`
	AvatarURL    string                `json:"avatar_url"`
	Skills       []string              `json:"skills"`
	Education    []models.ProfileEntry `json:"education"`
	Experience   []models.ProfileEntry `json:"experience"`
	Certificates []models.ProfileEntry `json:"certificates"`
}
