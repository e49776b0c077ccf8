package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserCtx_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)

	role, handle, id, ok := authz.UserCtx(req)
	if ok {
		t.Error("expected ok=false without a user")
	}
	if role != "visitor" || handle != "" || id != primitive.NilObjectID {
		t.Errorf("unexpected visitor context: %q %q %v", role, handle, id)
	}
	if authz.Viewer(req) != nil {
		t.Error("expected nil viewer")
	}
}

func TestUserCtx_MalformedID(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "not-an-id", Handle: "ada", Role: "member"})

	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected malformed id to fail closed")
	}
	if _, ok := authz.Actor(req); ok {
		t.Error("expected no actor for malformed id")
	}
}

func TestUserCtx_WithUser(t *testing.T) {
	id := primitive.NewObjectID()
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: id.Hex(), Handle: "ada", Role: "Member"})

	role, handle, got, ok := authz.UserCtx(req)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if role != "member" {
		t.Errorf("expected lowercased role, got %q", role)
	}
	if handle != "ada" || got != id {
		t.Errorf("unexpected handle/id %q %v", handle, got)
	}

	v := authz.Viewer(req)
	if v == nil || v.ID != id {
		t.Errorf("expected viewer ref for %v, got %+v", id, v)
	}
}
