package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/services/identity"
	"github.com/dalemusser/collabhub/internal/app/store/memory"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const placeholder = "/img/none.png"

func seed(t *testing.T) (*memory.Store, models.Member, models.Member, models.Member) {
	t.Helper()
	ctx := context.Background()
	mem := memory.New()

	withProfile, err := mem.CreateMember(ctx, models.Member{Handle: "ada", DisplayName: "Ada Lovelace", AvatarURL: "/a/member.png"})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	if _, err := mem.Upsert(ctx, models.Profile{MemberID: withProfile.ID, AvatarURL: "/a/profile.png", Headline: "Analyst"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	memberOnly, err := mem.CreateMember(ctx, models.Member{Handle: "bob", AvatarURL: "/b/member.png"})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	bare, err := mem.CreateMember(ctx, models.Member{Handle: "cy", DisplayName: "Cy"})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	return mem, withProfile, memberOnly, bare
}

func TestResolve_Precedence(t *testing.T) {
	mem, ada, bob, cy := seed(t)
	r := identity.New(mem, mem, placeholder, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name       string
		ref        models.MemberRef
		wantName   string
		wantAvatar string
	}{
		{"profile override wins", ada.Ref(), "Ada Lovelace", "/a/profile.png"},
		{"member avatar without profile", bob.Ref(), "bob", "/b/member.png"},
		{"placeholder when neither", cy.Ref(), "Cy", placeholder},
		{"handle reference", models.RefByHandle("@ADA"), "Ada Lovelace", "/a/profile.png"},
		{"unknown handle", models.RefByHandle("ghost"), "ghost", placeholder},
		{"unknown id", models.RefByID(primitive.NewObjectID()), identity.UnknownName, placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(ctx, tt.ref)
			if got.DisplayName != tt.wantName {
				t.Errorf("DisplayName = %q, want %q", got.DisplayName, tt.wantName)
			}
			if got.AvatarURL != tt.wantAvatar {
				t.Errorf("AvatarURL = %q, want %q", got.AvatarURL, tt.wantAvatar)
			}
		})
	}
}

func TestResolveBatch_OnePassPerStore(t *testing.T) {
	mem, ada, bob, cy := seed(t)
	r := identity.New(mem, mem, placeholder, zap.NewNop())

	refs := []models.MemberRef{
		ada.Ref(), models.RefByHandle("bob"), cy.Ref(), ada.Ref(),
		models.RefByHandle("ADA"), models.RefByHandle("ghost"), bob.Ref(),
	}
	set := r.ResolveBatch(context.Background(), refs)

	if got := mem.MemberLookups(); got != 1 {
		t.Errorf("member lookups = %d, want 1", got)
	}
	if got := mem.ProfileLookups(); got != 1 {
		t.Errorf("profile lookups = %d, want 1", got)
	}
	if set.Len() != 3 {
		t.Errorf("resolved %d members, want 3", set.Len())
	}
	if got := set.Lookup(models.RefByHandle("Bob")); got.MemberID != bob.ID {
		t.Errorf("handle lookup returned %+v", got)
	}
}

func TestResolveBatch_OrderIndependent(t *testing.T) {
	mem, ada, bob, cy := seed(t)
	r := identity.New(mem, mem, placeholder, zap.NewNop())
	ctx := context.Background()

	a := r.ResolveBatch(ctx, []models.MemberRef{ada.Ref(), bob.Ref(), cy.Ref()})
	b := r.ResolveBatch(ctx, []models.MemberRef{cy.Ref(), bob.Ref(), ada.Ref(), bob.Ref()})

	for _, m := range []models.Member{ada, bob, cy} {
		if a.Lookup(m.Ref()) != b.Lookup(m.Ref()) {
			t.Errorf("lookup for %s differs between batches", m.Handle)
		}
	}
}

func TestResolveBatch_Empty(t *testing.T) {
	mem := memory.New()
	r := identity.New(mem, mem, "", nil)

	set := r.ResolveBatch(context.Background(), nil)
	if set.Len() != 0 {
		t.Error("expected empty set")
	}
	if mem.MemberLookups() != 0 {
		t.Error("expected no lookup for empty batch")
	}
	if got := set.Lookup(models.RefByHandle("x1")); got.AvatarURL != identity.DefaultPlaceholder {
		t.Errorf("expected default placeholder, got %q", got.AvatarURL)
	}
}

type failingMembers struct{}

func (failingMembers) GetMember(context.Context, models.MemberRef) (models.Member, error) {
	return models.Member{}, errors.New("db down")
}

func (failingMembers) FindMembers(context.Context, []models.MemberRef) ([]models.Member, error) {
	return nil, errors.New("db down")
}

func TestResolveBatch_StoreErrorDegrades(t *testing.T) {
	mem := memory.New()
	r := identity.New(failingMembers{}, mem, placeholder, zap.NewNop())

	got := r.Resolve(context.Background(), models.RefByHandle("ada"))
	if got.DisplayName != "ada" || got.AvatarURL != placeholder {
		t.Errorf("expected fallback identity, got %+v", got)
	}
	if got.Known {
		t.Error("fallback identity should not be Known")
	}
}
