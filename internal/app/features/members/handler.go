// internal/app/features/members/handler.go
package members

import (
	"github.com/dalemusser/collabhub/internal/app/services/identity"
	"github.com/dalemusser/collabhub/internal/app/store"
	"go.uber.org/zap"
)

// Handler serves member identities and the follow toggle.
type Handler struct {
	Members  store.MemberSource
	Profiles store.ProfileSource
	Resolver *identity.Resolver
	Log      *zap.Logger
}

// NewHandler constructs a members Handler.
func NewHandler(members store.MemberSource, profiles store.ProfileSource, resolver *identity.Resolver, logger *zap.Logger) *Handler {
	return &Handler{
		Members:  members,
		Profiles: profiles,
		Resolver: resolver,
		Log:      logger,
	}
}
