package members_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/features/members"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/collabhub/internal/testutil"
	"go.uber.org/zap"
)

type view struct {
	Handle        string `json:"handle"`
	DisplayName   string `json:"display_name"`
	AvatarURL     string `json:"avatar_url"`
	Headline      string `json:"headline"`
	FollowerCount int    `json:"follower_count"`
	FollowedByYou *bool  `json:"followed_by_you"`
}

func setup(t *testing.T) (*testutil.Services, http.Handler) {
	t.Helper()
	svc := testutil.NewServices()
	h := members.NewHandler(svc.Mem, svc.Mem, svc.Resolver, zap.NewNop())
	return svc, members.Routes(h)
}

func serve(router http.Handler, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestServeView(t *testing.T) {
	svc, router := setup(t)
	ada := svc.Member(t, "ada", "")
	if _, err := svc.Mem.Upsert(context.Background(), models.Profile{
		MemberID: ada.ID, Headline: "Engineer", AvatarURL: "/a.png",
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"by handle", "/@ada", http.StatusOK},
		{"by handle without at", "/ADA", http.StatusOK},
		{"by id", "/" + ada.ID.Hex(), http.StatusOK},
		{"unknown", "/@nobody", http.StatusNotFound},
		{"bad ref", "/a%20b", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, testutil.NewJSONRequest(t, "GET", tt.path, nil))
			rec.AssertStatus(t, tt.status)
			if tt.status != http.StatusOK {
				return
			}
			var v view
			rec.DecodeJSON(t, &v)
			if v.Handle != "ada" || v.DisplayName != "ada" || v.AvatarURL != "/a.png" || v.Headline != "Engineer" {
				t.Errorf("unexpected view %+v", v)
			}
			if v.FollowedByYou != nil {
				t.Error("anonymous view should not carry follow state")
			}
		})
	}
}

func TestHandleFollow(t *testing.T) {
	svc, router := setup(t)
	ada := svc.Member(t, "ada", "Ada")
	bob := svc.Member(t, "bob", "Bob")

	follow := func(as models.Member, ref string) *testutil.ResponseRecorder {
		req := testutil.WithMember(testutil.NewJSONRequest(t, "POST", "/"+ref+"/follow", nil), as)
		return serve(router, req)
	}

	var resp struct {
		Following     bool `json:"following"`
		FollowerCount int  `json:"follower_count"`
	}
	rec := follow(bob, "@ada")
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &resp)
	if !resp.Following || resp.FollowerCount != 1 {
		t.Errorf("first follow = %+v", resp)
	}

	req := testutil.WithMember(testutil.NewJSONRequest(t, "GET", "/@ada", nil), bob)
	var v view
	serve(router, req).DecodeJSON(t, &v)
	if v.FollowedByYou == nil || !*v.FollowedByYou || v.FollowerCount != 1 {
		t.Errorf("view after follow = %+v", v)
	}

	rec = follow(bob, "@ada")
	rec.DecodeJSON(t, &resp)
	if resp.Following || resp.FollowerCount != 0 {
		t.Errorf("second follow should undo, got %+v", resp)
	}

	rec = follow(ada, "@ada")
	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertErrorKind(t, "forbidden")

	follow(ada, "@ghost").AssertStatus(t, http.StatusNotFound)

	rec = serve(router, testutil.NewJSONRequest(t, "POST", "/@ada/follow", nil))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleProfileEdit(t *testing.T) {
	svc, router := setup(t)
	ctx := context.Background()
	ada, err := svc.Mem.CreateMember(ctx, models.Member{Handle: "ada", DisplayName: "Ada", AvatarURL: "/member.png"})
	if err != nil {
		t.Fatal(err)
	}
	bob := svc.Member(t, "bob", "Bob")

	edit := func(as *models.Member, ref string, body any) *testutil.ResponseRecorder {
		req := testutil.NewJSONRequest(t, "PUT", "/"+ref+"/profile", body)
		if as != nil {
			req = testutil.WithMember(req, *as)
		}
		return serve(router, req)
	}

	if got := svc.Resolver.Resolve(ctx, ada.Ref()); got.AvatarURL != "/member.png" {
		t.Fatalf("before edit: avatar %q", got.AvatarURL)
	}
	serve(router, testutil.WithMember(testutil.NewJSONRequest(t, "POST", "/@ada/follow", nil), bob)).
		AssertStatus(t, http.StatusOK)

	rec := edit(&ada, "@ada", map[string]any{
		"headline":   " <b>Analyst</b> ",
		"avatar_url": "https://cdn.example.com/ada.png",
		"skills":     []string{"Go", "go", " ", "Mongo"},
		"education":  []map[string]string{{"title": "BSc Mathematics", "organization": "UCL"}},
	})
	rec.AssertStatus(t, http.StatusOK)
	var v struct {
		view
		Skills []string `json:"skills"`
	}
	rec.DecodeJSON(t, &v)
	if v.AvatarURL != "https://cdn.example.com/ada.png" || v.Headline != "Analyst" {
		t.Errorf("profile override not applied: %+v", v)
	}
	if len(v.Skills) != 2 || v.Skills[0] != "Go" || v.Skills[1] != "Mongo" {
		t.Errorf("skills not cleaned: %v", v.Skills)
	}
	if v.FollowerCount != 1 {
		t.Errorf("edit must keep followers, got %d", v.FollowerCount)
	}
	if got := svc.Resolver.Resolve(ctx, ada.Ref()); got.AvatarURL != "https://cdn.example.com/ada.png" {
		t.Errorf("resolver should prefer the profile avatar, got %q", got.AvatarURL)
	}

	tests := []struct {
		name   string
		as     *models.Member
		ref    string
		body   any
		status int
		kind   string
	}{
		{"other member", &bob, "@ada", map[string]any{"headline": "x"}, http.StatusForbidden, "forbidden"},
		{"anonymous", nil, "@ada", map[string]any{"headline": "x"}, http.StatusUnauthorized, "unauthorized"},
		{"unknown member", &ada, "@ghost", map[string]any{}, http.StatusNotFound, "not_found"},
		{"bad avatar", &ada, "@ada", map[string]any{"avatar_url": "javascript:alert(1)"}, http.StatusBadRequest, "validation"},
		{"untitled entry", &ada, "@ada", map[string]any{"experience": []map[string]string{{"organization": "X"}}}, http.StatusBadRequest, "validation"},
		{"unknown field", &ada, "@ada", map[string]any{"followers": []string{}}, http.StatusBadRequest, "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := edit(tt.as, tt.ref, tt.body)
			rec.AssertStatus(t, tt.status)
			rec.AssertErrorKind(t, tt.kind)
		})
	}
}
