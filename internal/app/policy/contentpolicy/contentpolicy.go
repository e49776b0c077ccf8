// Package contentpolicy holds the authorization rules for content and team
// transitions. Every rule is a pure predicate over already-loaded values and
// returns an apperr Forbidden error when the actor lacks authority.
//
// Authorization rules:
//   - Only the owner can delete a content item
//   - Only the owner can approve or remove team members
//   - Nobody can approve or remove themselves, the owner included
//   - The owner cannot declare interest in their own announcement
//   - Only the owner can read an announcement's audit history
//   - Members cannot follow themselves
//   - Members edit only their own profile
package contentpolicy

import (
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IsOwner reports whether actorID owns the item.
func IsOwner(actorID, ownerID primitive.ObjectID) bool {
	return !actorID.IsZero() && actorID == ownerID
}

// CanDelete allows the owner only.
func CanDelete(actorID, ownerID primitive.ObjectID) error {
	if !IsOwner(actorID, ownerID) {
		return apperr.Forbidden("only the owner can delete this item")
	}
	return nil
}

// CanManageTeam allows the owner to move someone other than themselves.
// Ownership is checked first, so a non-owner is refused whatever the
// target's state.
func CanManageTeam(actor models.Member, ownerID primitive.ObjectID, target models.Member) error {
	if !IsOwner(actor.ID, ownerID) {
		return apperr.Forbidden("only the announcement owner can manage its team")
	}
	if actor.ID == target.ID {
		return apperr.Forbidden("members cannot change their own team state")
	}
	return nil
}

// CanManageTeamActor is the owner half of CanManageTeam, used before the
// target has been resolved.
func CanManageTeamActor(actor models.Member, ownerID primitive.ObjectID) error {
	if !IsOwner(actor.ID, ownerID) {
		return apperr.Forbidden("only the announcement owner can manage its team")
	}
	return nil
}

// CanViewHistory allows the owner only.
func CanViewHistory(actorID, ownerID primitive.ObjectID) error {
	if !IsOwner(actorID, ownerID) {
		return apperr.Forbidden("only the owner can view this history")
	}
	return nil
}

// CanDeclareInterest refuses the owner.
func CanDeclareInterest(actor models.Member, ownerID primitive.ObjectID) error {
	if IsOwner(actor.ID, ownerID) {
		return apperr.Forbidden("owners cannot declare interest in their own announcement")
	}
	return nil
}

// CanFollow refuses self-follows.
func CanFollow(followerID, targetID primitive.ObjectID) error {
	if followerID == targetID {
		return apperr.Forbidden("members cannot follow themselves")
	}
	return nil
}

// CanEditProfile allows members to edit their own profile only.
func CanEditProfile(actorID, memberID primitive.ObjectID) error {
	if !IsOwner(actorID, memberID) {
		return apperr.Forbidden("members can only edit their own profile")
	}
	return nil
}
