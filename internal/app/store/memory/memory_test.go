package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/store"
	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/app/store/memory"
	"github.com/dalemusser/collabhub/internal/app/store/storetest"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestContentRepository(t *testing.T) {
	storetest.ContentRepository(t, func(*testing.T) store.ContentRepository { return memory.New() })
}

func TestMembers(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	ada, err := s.CreateMember(ctx, models.Member{Handle: "@Ada"})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	if ada.Handle != "Ada" || ada.Role != models.RoleMember {
		t.Errorf("unexpected member %+v", ada)
	}
	if _, err := s.CreateMember(ctx, models.Member{Handle: "ADA"}); !errors.Is(err, store.ErrDuplicateHandle) {
		t.Errorf("duplicate handle: got %v", err)
	}
	if _, err := s.CreateMember(ctx, models.Member{Handle: "no spaces"}); err == nil {
		t.Error("expected invalid handle to be rejected")
	}

	got, err := s.GetMember(ctx, models.RefByHandle("ada"))
	if err != nil || got.ID != ada.ID {
		t.Errorf("GetMember by handle: %v", err)
	}
	if _, err := s.GetMember(ctx, models.RefByID(primitive.NewObjectID())); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetMember missing: got %v", err)
	}

	found, _ := s.FindMembers(ctx, []models.MemberRef{ada.Ref(), models.RefByHandle("ADA"), models.RefByHandle("ghost")})
	if len(found) != 1 {
		t.Errorf("FindMembers should dedupe and skip misses, got %d", len(found))
	}
	if s.MemberLookups() != 1 {
		t.Errorf("MemberLookups = %d", s.MemberLookups())
	}
}

func TestToggleFollow(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	following, err := s.ToggleFollow(ctx, a, b)
	if err != nil || !following {
		t.Fatalf("first follow: %v %v", following, err)
	}
	ps, _ := s.FindProfiles(ctx, []primitive.ObjectID{a, b})
	if len(ps) != 2 {
		t.Fatalf("profiles should be created lazily, got %d", len(ps))
	}
	following, _ = s.ToggleFollow(ctx, a, b)
	if following {
		t.Error("second toggle should unfollow")
	}
}

func TestUpsertProfile_KeepsFollows(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	if _, err := s.GetByMember(ctx, b); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no profile yet, got %v", err)
	}
	if _, err := s.ToggleFollow(ctx, a, b); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upsert(ctx, models.Profile{MemberID: b, Headline: "Lead", AvatarURL: "/b.png"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	p, err := s.GetByMember(ctx, b)
	if err != nil {
		t.Fatalf("GetByMember: %v", err)
	}
	if p.Headline != "Lead" || p.AvatarURL != "/b.png" || len(p.Followers) != 1 || p.Followers[0] != a {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestAuditEvents(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	content, other := primitive.NewObjectID(), primitive.NewObjectID()

	for _, e := range []audit.Event{
		{EventType: audit.EventTeamMemberApproved, ContentID: &content, TargetHandle: "bob"},
		{EventType: audit.EventAnnouncementDeleted, ContentID: &other},
		{EventType: audit.EventTeamMemberRemoved, ContentID: &content, TargetHandle: "bob"},
		{EventType: "no_content"},
	} {
		if err := s.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	got, err := s.GetByContent(ctx, content, 0)
	if err != nil || len(got) != 2 {
		t.Fatalf("GetByContent: %d events, %v", len(got), err)
	}
	if got[0].EventType != audit.EventTeamMemberRemoved || got[0].ID.IsZero() || got[0].Timestamp.IsZero() {
		t.Errorf("most recent event = %+v", got[0])
	}
	if one, _ := s.GetByContent(ctx, content, 1); len(one) != 1 {
		t.Errorf("limit 1: got %d events", len(one))
	}
}
