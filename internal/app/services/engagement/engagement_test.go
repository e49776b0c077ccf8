package engagement_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/services/engagement"
	"github.com/dalemusser/collabhub/internal/app/services/identity"
	"github.com/dalemusser/collabhub/internal/app/store/memory"
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	mem *memory.Store
	svc *engagement.Service
	ada models.Member
	bob models.Member
	cy  models.Member
	ann models.ContentRef
	upd models.ContentRef
	ctx context.Context
}

func setup(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	mem := memory.New()
	mk := func(h string) models.Member {
		m, err := mem.CreateMember(ctx, models.Member{Handle: h, DisplayName: strings.ToUpper(h)})
		if err != nil {
			t.Fatalf("CreateMember(%s): %v", h, err)
		}
		return m
	}
	e := env{mem: mem, ctx: ctx, ada: mk("ada"), bob: mk("bob"), cy: mk("cy")}
	resolver := identity.New(mem, mem, "/ph.png", zap.NewNop())
	e.svc = engagement.New(mem, mem, resolver, nil, zap.NewNop())

	a, err := e.svc.PublishAnnouncement(ctx, e.ada.Ref(), engagement.AnnouncementInput{
		Topic: "Build X", CoverImageURL: "https://cdn.example.com/x.png", Category: "project",
	})
	if err != nil {
		t.Fatalf("PublishAnnouncement: %v", err)
	}
	e.ann = a.Ref()
	u, err := e.svc.PublishUpdate(ctx, e.ada.Ref(), engagement.UpdateInput{Body: "shipped"})
	if err != nil {
		t.Fatalf("PublishUpdate: %v", err)
	}
	e.upd = u.Ref()
	return e
}

func TestToggleLike_Involution(t *testing.T) {
	e := setup(t)
	for _, ref := range []models.ContentRef{e.ann, e.upd} {
		t.Run(string(ref.Kind), func(t *testing.T) {
			first, err := e.svc.ToggleLike(e.ctx, ref, e.bob.Ref())
			if err != nil {
				t.Fatalf("ToggleLike: %v", err)
			}
			if !first.Liked || first.LikeCount != 1 {
				t.Errorf("after first toggle: liked=%v count=%d", first.Liked, first.LikeCount)
			}
			if first.Item.Viewer == nil || !first.Item.Viewer.Liked {
				t.Error("expected viewer flag liked")
			}

			second, err := e.svc.ToggleLike(e.ctx, ref, e.bob.Ref())
			if err != nil {
				t.Fatalf("ToggleLike: %v", err)
			}
			if second.Liked || second.LikeCount != 0 || len(second.Item.Likes) != 0 {
				t.Errorf("after second toggle: liked=%v count=%d likes=%v", second.Liked, second.LikeCount, second.Item.Likes)
			}
		})
	}
}

func TestToggleLike_ConcurrentMembers(t *testing.T) {
	e := setup(t)
	var members []models.Member
	for i := 0; i < 20; i++ {
		m, err := e.mem.CreateMember(e.ctx, models.Member{Handle: "m" + string(rune('a'+i)) + "x"})
		if err != nil {
			t.Fatalf("CreateMember: %v", err)
		}
		members = append(members, m)
	}

	var wg sync.WaitGroup
	for _, m := range members {
		wg.Add(1)
		go func(m models.Member) {
			defer wg.Done()
			if _, err := e.svc.ToggleLike(e.ctx, e.upd, m.Ref()); err != nil {
				t.Errorf("ToggleLike: %v", err)
			}
		}(m)
	}
	wg.Wait()

	u, err := e.mem.GetUpdate(e.ctx, e.upd.ID)
	if err != nil {
		t.Fatalf("GetUpdate: %v", err)
	}
	if len(u.Likes) != len(members) {
		t.Errorf("expected %d likes, got %d", len(members), len(u.Likes))
	}
}

func TestToggleInterest(t *testing.T) {
	e := setup(t)

	res, err := e.svc.ToggleInterest(e.ctx, e.ann, e.bob.Ref())
	if err != nil {
		t.Fatalf("ToggleInterest: %v", err)
	}
	if !res.Interested || len(res.Item.Interested) != 1 || res.Item.Interested[0] != "bob" {
		t.Errorf("expected bob interested, got %+v", res)
	}
	if res.Item.Viewer.TeamState != models.TeamStateInterested {
		t.Errorf("viewer team state = %q", res.Item.Viewer.TeamState)
	}

	res, err = e.svc.ToggleInterest(e.ctx, e.ann, e.bob.Ref())
	if err != nil {
		t.Fatalf("ToggleInterest: %v", err)
	}
	if res.Interested || len(res.Item.Interested) != 0 {
		t.Errorf("expected interest withdrawn, got %+v", res)
	}
}

func TestToggleInterest_Errors(t *testing.T) {
	e := setup(t)
	missing := models.ContentRef{Kind: models.KindAnnouncement, ID: primitive.NewObjectID()}

	tests := []struct {
		name    string
		content models.ContentRef
		actor   models.MemberRef
		want    error
	}{
		{"update kind", e.upd, e.bob.Ref(), apperr.ErrInvalidOperation},
		{"owner", e.ann, e.ada.Ref(), apperr.ErrForbidden},
		{"missing announcement", missing, e.bob.Ref(), apperr.ErrNotFound},
		{"unknown actor", e.ann, models.RefByHandle("ghost"), apperr.ErrNotFound},
		{"anonymous", e.ann, models.MemberRef{}, apperr.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.ToggleInterest(e.ctx, tt.content, tt.actor)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want kind %s", err, apperr.KindOf(tt.want))
			}
		})
	}
}

func TestToggleInterest_OnTeamIsInvalidState(t *testing.T) {
	e := setup(t)
	if _, err := e.mem.ToggleInterest(e.ctx, e.ann.ID, "bob"); err != nil {
		t.Fatalf("seed interest: %v", err)
	}
	if _, err := e.mem.ApproveMember(e.ctx, e.ann.ID, e.ada.ID, "bob"); err != nil {
		t.Fatalf("seed approve: %v", err)
	}

	_, err := e.svc.ToggleInterest(e.ctx, e.ann, e.bob.Ref())
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected InvalidState, got %v", err)
	}
}

func TestAddComment(t *testing.T) {
	e := setup(t)

	res, err := e.svc.AddComment(e.ctx, e.upd, e.bob.Ref(), "  <b>nice</b> work  ")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if res.Comment.Text != "nice work" {
		t.Errorf("Text = %q", res.Comment.Text)
	}
	if res.Comment.ID == "" || res.Comment.CreatedAt.IsZero() {
		t.Error("expected server-assigned id and timestamp")
	}
	if res.Comment.Author.DisplayName != "BOB" {
		t.Errorf("author = %+v", res.Comment.Author)
	}

	second, err := e.svc.AddComment(e.ctx, e.upd, e.cy.Ref(), "agreed")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(second.Item.Comments) != 2 || second.Item.Comments[0].ID != res.Comment.ID {
		t.Errorf("expected comments appended in order, got %+v", second.Item.Comments)
	}
}

func TestAddComment_Validation(t *testing.T) {
	e := setup(t)
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t"},
		{"markup only", "<script>alert(1)</script>"},
		{"too long", strings.Repeat("x", engagement.MaxCommentLen+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.AddComment(e.ctx, e.ann, e.bob.Ref(), tt.text)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected Validation, got %v", err)
			}
		})
	}
}

func TestPublishAnnouncement_Validation(t *testing.T) {
	e := setup(t)
	valid := engagement.AnnouncementInput{Topic: "T", CoverImageURL: "/img/c.png", Category: "research"}

	tests := []struct {
		name   string
		mutate func(*engagement.AnnouncementInput)
	}{
		{"missing topic", func(in *engagement.AnnouncementInput) { in.Topic = " " }},
		{"missing cover", func(in *engagement.AnnouncementInput) { in.CoverImageURL = "" }},
		{"bad cover scheme", func(in *engagement.AnnouncementInput) { in.CoverImageURL = "javascript:alert(1)" }},
		{"unknown category", func(in *engagement.AnnouncementInput) { in.Category = "party" }},
		{"bad link", func(in *engagement.AnnouncementInput) { in.Link = "ftp://x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			if _, err := e.svc.PublishAnnouncement(e.ctx, e.bob.Ref(), in); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected Validation, got %v", err)
			}
		})
	}

	it, err := e.svc.PublishAnnouncement(e.ctx, e.bob.Ref(), valid)
	if err != nil {
		t.Fatalf("valid publish failed: %v", err)
	}
	if it.Owner.MemberID != e.bob.ID || it.Category != "research" {
		t.Errorf("unexpected item %+v", it)
	}
}

func TestDelete(t *testing.T) {
	e := setup(t)

	if err := e.svc.Delete(e.ctx, e.upd, e.bob.Ref()); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("non-owner delete: expected Forbidden, got %v", err)
	}
	if err := e.svc.Delete(e.ctx, e.upd, e.ada.Ref()); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := e.svc.Get(e.ctx, e.upd, nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound after delete, got %v", err)
	}
	if err := e.svc.Delete(e.ctx, e.upd, e.ada.Ref()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: expected NotFound, got %v", err)
	}
}

func TestListAnnouncementsByOwner(t *testing.T) {
	e := setup(t)
	if _, err := e.svc.PublishAnnouncement(e.ctx, e.ada.Ref(), engagement.AnnouncementInput{
		Topic: "Second", CoverImageURL: "/c.png", Category: "project",
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	items, err := e.svc.ListAnnouncementsByOwner(e.ctx, models.RefByHandle("ada"), 0, nil)
	if err != nil {
		t.Fatalf("ListAnnouncementsByOwner: %v", err)
	}
	if len(items) != 2 || items[0].Topic != "Second" {
		t.Errorf("expected newest first, got %d items", len(items))
	}

	none, err := e.svc.ListAnnouncementsByOwner(e.ctx, models.RefByHandle("ghost"), 0, nil)
	if err != nil || len(none) != 0 {
		t.Errorf("unknown owner: got %v, %v", none, err)
	}

	one, err := e.svc.ListAnnouncementsByOwner(e.ctx, models.RefByHandle("ada"), 1, nil)
	if err != nil || len(one) != 1 || one[0].Topic != "Second" {
		t.Errorf("limit 1: got %d items, %v", len(one), err)
	}
}

func TestPublishAnnouncement_TeamMembers(t *testing.T) {
	e := setup(t)
	input := func(team ...string) engagement.AnnouncementInput {
		return engagement.AnnouncementInput{
			Topic: "Team", CoverImageURL: "/t.png", Category: "research", TeamMembers: team,
		}
	}

	it, err := e.svc.PublishAnnouncement(e.ctx, e.ada.Ref(), input("@BOB", e.bob.ID.Hex(), "cy"))
	if err != nil {
		t.Fatalf("PublishAnnouncement: %v", err)
	}
	if len(it.TeamMembers) != 2 || it.TeamMembers[0] != "bob" || it.TeamMembers[1] != "cy" {
		t.Errorf("expected canonical deduplicated team [bob cy], got %v", it.TeamMembers)
	}
	if len(it.Interested) != 0 {
		t.Errorf("interested should start empty, got %v", it.Interested)
	}

	// A seeded member is already on the team.
	if _, err := e.svc.ToggleInterest(e.ctx, it.Ref(), e.bob.Ref()); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("interest from seeded member: expected InvalidState, got %v", err)
	}

	tests := []struct {
		name string
		team []string
		want error
	}{
		{"unknown handle", []string{"ghost"}, apperr.ErrNotFound},
		{"owner listed", []string{"bob", "ada"}, apperr.ErrForbidden},
		{"malformed entry", []string{"not a handle!"}, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.svc.PublishAnnouncement(e.ctx, e.ada.Ref(), input(tt.team...)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
