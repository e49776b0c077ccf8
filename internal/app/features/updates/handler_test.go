package updates_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/features/updates"
	"github.com/dalemusser/collabhub/internal/app/services/enrich"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/collabhub/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (http.Handler, models.Member, models.Member) {
	t.Helper()
	svc := testutil.NewServices()
	h := updates.NewHandler(svc.Engagement, zap.NewNop())
	return updates.Routes(h), svc.Member(t, "ada", "Ada"), svc.Member(t, "bob", "Bob")
}

func do(t *testing.T, router http.Handler, as *models.Member, method, target string, body any) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, target, body)
	if as != nil {
		req = testutil.WithMember(req, *as)
	}
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUpdateLifecycle(t *testing.T) {
	router, ada, bob := setup(t)

	rec := do(t, router, &ada, "POST", "/", map[string]string{"body": "Shipped <script>x</script>v2"})
	rec.AssertStatus(t, http.StatusCreated)
	var it enrich.Item
	rec.DecodeJSON(t, &it)
	if it.Kind != models.KindUpdate || it.Body != "Shipped v2" {
		t.Fatalf("unexpected item kind=%s body=%q", it.Kind, it.Body)
	}
	path := "/" + it.ID.Hex()

	do(t, router, &bob, "PATCH", path, map[string]string{"action": "like"}).AssertStatus(t, http.StatusOK)
	do(t, router, &bob, "PATCH", path, map[string]string{"action": "comment", "text": "nice"}).AssertStatus(t, http.StatusCreated)

	rec = do(t, router, &bob, "GET", path, nil)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &it)
	if it.LikeCount != 1 || len(it.Comments) != 1 || it.Comments[0].Author.DisplayName != "Bob" {
		t.Errorf("engagement not visible: likes=%d comments=%d", it.LikeCount, len(it.Comments))
	}
	if it.Viewer == nil || !it.Viewer.Liked || it.Viewer.IsOwner {
		t.Errorf("viewer flags = %+v", it.Viewer)
	}

	do(t, router, &bob, "DELETE", path, nil).AssertStatus(t, http.StatusForbidden)
	do(t, router, &ada, "DELETE", path, nil).AssertStatus(t, http.StatusNoContent)
	do(t, router, nil, "GET", path, nil).AssertStatus(t, http.StatusNotFound)
}

func TestEngage_TeamActionsRejected(t *testing.T) {
	router, ada, bob := setup(t)

	rec := do(t, router, &ada, "POST", "/", map[string]string{"body": "hello"})
	var it enrich.Item
	rec.DecodeJSON(t, &it)
	path := "/" + it.ID.Hex()

	for _, action := range []string{"interested", "approve", "remove"} {
		t.Run(action, func(t *testing.T) {
			rec := do(t, router, &bob, "PATCH", path, map[string]string{"action": action, "target": "@ada"})
			rec.AssertStatus(t, http.StatusUnprocessableEntity)
			rec.AssertErrorKind(t, "invalid_operation")
		})
	}
}

func TestCreate_RequiresSignIn(t *testing.T) {
	router, _, _ := setup(t)
	rec := do(t, router, nil, "POST", "/", map[string]string{"body": "hi"})
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertErrorKind(t, "unauthorized")
}
