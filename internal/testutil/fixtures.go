package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures inserts test documents directly, bypassing the stores.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateMember inserts a member with the given handle and display name.
func (f *Fixtures) CreateMember(ctx context.Context, handle, displayName string) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Member{
		ID:          primitive.NewObjectID(),
		Handle:      handle,
		HandleCI:    text.Fold(handle),
		DisplayName: displayName,
		Role:        models.RoleMember,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}

// CreateProfile inserts a profile for memberID.
func (f *Fixtures) CreateProfile(ctx context.Context, memberID primitive.ObjectID, headline, avatarURL string) models.Profile {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Profile{
		ID:        primitive.NewObjectID(),
		MemberID:  memberID,
		Headline:  headline,
		AvatarURL: avatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// CreateUpdate inserts an update owned by ownerID created at createdAt.
func (f *Fixtures) CreateUpdate(ctx context.Context, ownerID primitive.ObjectID, body string, createdAt time.Time) models.Update {
	f.t.Helper()

	u := models.Update{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		Body:      body,
		Likes:     []primitive.ObjectID{},
		Comments:  []models.Comment{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if _, err := f.db.Collection("updates").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test update: %v", err)
	}
	return u
}

// CreateAnnouncement inserts a project announcement owned by ownerID.
func (f *Fixtures) CreateAnnouncement(ctx context.Context, ownerID primitive.ObjectID, topic string, createdAt time.Time) models.Announcement {
	f.t.Helper()

	a := models.Announcement{
		ID:            primitive.NewObjectID(),
		OwnerID:       ownerID,
		Topic:         topic,
		CoverImageURL: "/static/img/cover.png",
		Category:      models.CategoryProject,
		Interested:    []string{},
		TeamMembers:   []string{},
		Likes:         []primitive.ObjectID{},
		Comments:      []models.Comment{},
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	if _, err := f.db.Collection("announcements").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test announcement: %v", err)
	}
	return a
}
