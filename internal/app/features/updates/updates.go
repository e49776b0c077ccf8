// internal/app/features/updates/updates.go
package updates

import (
	"net/http"
	"strings"

	"github.com/dalemusser/collabhub/internal/app/services/engagement"
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/authz"
	"github.com/dalemusser/collabhub/internal/app/system/httpjson"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type engageRequest struct {
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
	Target string `json:"target,omitempty"`
}

// Create handles POST /updates.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)

	var in engagement.UpdateInput
	if err := httpjson.Decode(w, r, &in); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "publish update")
	defer cancel()

	it, err := h.Engagement.PublishUpdate(ctx, actor, in)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, it)
}

// Show handles GET /updates/{id}.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id", "update")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get update")
	defer cancel()

	it, err := h.Engagement.Get(ctx, ref(id), authz.Viewer(r))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, it)
}

// Engage handles PATCH /updates/{id}. Updates take likes and comments; the
// team actions belong to announcements and are refused as invalid
// operations.
func (h *Handler) Engage(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id", "update")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	var req engageRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	actor, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "engage update")
	defer cancel()

	var (
		out    any
		status = http.StatusOK
	)
	switch action := strings.ToLower(strings.TrimSpace(req.Action)); action {
	case "like":
		out, err = h.Engagement.ToggleLike(ctx, ref(id), actor)
	case "comment":
		out, err = h.Engagement.AddComment(ctx, ref(id), actor, req.Text)
		status = http.StatusCreated
	case "interested":
		out, err = h.Engagement.ToggleInterest(ctx, ref(id), actor)
	case "approve", "remove":
		err = apperr.InvalidOperation("%s applies to announcements only", action)
	default:
		err = apperr.Validation("unknown action %q", req.Action)
	}
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, status, out)
}

// Delete handles DELETE /updates/{id}. Owner only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id", "update")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	actor, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete update")
	defer cancel()

	if err := h.Engagement.Delete(ctx, ref(id), actor); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func ref(id primitive.ObjectID) models.ContentRef {
	return models.ContentRef{Kind: models.KindUpdate, ID: id}
}
