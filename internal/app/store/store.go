// Package store holds the persistence contracts the engagement services are
// written against. The MongoDB implementations live in the subpackages
// content, members and profiles; package memory implements every contract in
// process for tests and local development.
//
// Mutating methods on ContentRepository are single atomic operations against
// the backing store and return the document as it is after the mutation.
// Implementations must never read an array, change it in memory and write it
// back.
package store

import (
	"context"
	"errors"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotInterested is returned by ApproveMember when the target is not in
	// the interested set.
	ErrNotInterested = errors.New("member is not in the interested set")
	// ErrNotOnTeam is returned by RemoveMember when the target is not on the team.
	ErrNotOnTeam = errors.New("member is not on the team")
	// ErrOnTeam is returned by ToggleInterest when the member is already on
	// the team; interest and team membership are exclusive.
	ErrOnTeam = errors.New("member is already on the team")
	// ErrDuplicateHandle is returned when a handle is already claimed.
	ErrDuplicateHandle = errors.New("handle already taken")
)

// ContentRepository persists updates and announcements.
type ContentRepository interface {
	CreateUpdate(ctx context.Context, u models.Update) (models.Update, error)
	GetUpdate(ctx context.Context, id primitive.ObjectID) (models.Update, error)
	// ListUpdates returns every update in insertion order.
	ListUpdates(ctx context.Context) ([]models.Update, error)
	DeleteUpdate(ctx context.Context, id primitive.ObjectID) error
	ToggleUpdateLike(ctx context.Context, id, memberID primitive.ObjectID) (models.Update, error)
	AppendUpdateComment(ctx context.Context, id primitive.ObjectID, c models.Comment) (models.Update, error)

	CreateAnnouncement(ctx context.Context, a models.Announcement) (models.Announcement, error)
	GetAnnouncement(ctx context.Context, id primitive.ObjectID) (models.Announcement, error)
	// ListAnnouncements returns every announcement in insertion order.
	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	// ListAnnouncementsByOwner returns up to limit of the owner's
	// announcements, newest first. limit < 1 returns all of them.
	ListAnnouncementsByOwner(ctx context.Context, ownerID primitive.ObjectID, limit int) ([]models.Announcement, error)
	DeleteAnnouncement(ctx context.Context, id primitive.ObjectID) error
	ToggleAnnouncementLike(ctx context.Context, id, memberID primitive.ObjectID) (models.Announcement, error)
	AppendAnnouncementComment(ctx context.Context, id primitive.ObjectID, c models.Comment) (models.Announcement, error)

	// ToggleInterest adds handle to the interested set or removes it.
	// Returns ErrOnTeam if handle is on the team.
	ToggleInterest(ctx context.Context, id primitive.ObjectID, handle string) (models.Announcement, error)
	// ApproveMember moves handle from the interested set to the team in one
	// update. Only matches announcements owned by ownerID.
	ApproveMember(ctx context.Context, id, ownerID primitive.ObjectID, handle string) (models.Announcement, error)
	// RemoveMember takes handle off the team. Only matches announcements
	// owned by ownerID.
	RemoveMember(ctx context.Context, id, ownerID primitive.ObjectID, handle string) (models.Announcement, error)
}

// MemberSource looks up members.
type MemberSource interface {
	GetMember(ctx context.Context, ref models.MemberRef) (models.Member, error)
	// FindMembers resolves many references in one lookup. References with no
	// match are absent from the result.
	FindMembers(ctx context.Context, refs []models.MemberRef) ([]models.Member, error)
}

// ProfileSource looks up and mutates profiles.
type ProfileSource interface {
	// GetByMember returns memberID's profile or ErrNotFound.
	GetByMember(ctx context.Context, memberID primitive.ObjectID) (models.Profile, error)
	// Upsert writes the editable profile fields for p.MemberID, creating the
	// profile if needed. Follow sets are not touched.
	Upsert(ctx context.Context, p models.Profile) (models.Profile, error)
	// FindProfiles returns the profiles that exist for memberIDs in one lookup.
	FindProfiles(ctx context.Context, memberIDs []primitive.ObjectID) ([]models.Profile, error)
	// ToggleFollow adds followerID to target's followers (and target to the
	// follower's following) or removes both, creating profiles as needed.
	// It reports whether follower now follows target.
	ToggleFollow(ctx context.Context, followerID, targetID primitive.ObjectID) (bool, error)
}
