// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the signed-in member's role (lowercased), handle, ObjectID
// and a found flag. A missing user or a malformed id in the session yields
// "visitor", "", NilObjectID, false, so ok=true always means a usable id.
func UserCtx(r *http.Request) (role, handle string, memberID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	memberID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// corrupted session: fail closed
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Handle, memberID, true
}

// Actor returns the signed-in member as an id reference.
func Actor(r *http.Request) (models.MemberRef, bool) {
	_, _, id, ok := UserCtx(r)
	if !ok {
		return models.MemberRef{}, false
	}
	return models.RefByID(id), true
}

// Viewer is Actor as a pointer, nil for anonymous requests.
func Viewer(r *http.Request) *models.MemberRef {
	ref, ok := Actor(r)
	if !ok {
		return nil
	}
	return &ref
}
