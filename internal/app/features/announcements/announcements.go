// internal/app/features/announcements/announcements.go
package announcements

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/collabhub/internal/app/services/engagement"
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/authz"
	"github.com/dalemusser/collabhub/internal/app/system/httpjson"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
)

// engageRequest is the PATCH body. text goes with "comment", target with
// "approve" and "remove".
type engageRequest struct {
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
	Target string `json:"target,omitempty"`
}

// Create handles POST /announcements.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)

	var in engagement.AnnouncementInput
	if err := httpjson.Decode(w, r, &in); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "publish announcement")
	defer cancel()

	it, err := h.Engagement.PublishAnnouncement(ctx, actor, in)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, it)
}

// List handles GET /announcements?owner=<id or @handle>&limit=N, newest
// first. limit defaults to 50 and is capped at 200. An owner that matches no
// member yields an empty list.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	raw := query.Get(r, "owner")
	if raw == "" {
		httpjson.Error(w, h.Log, apperr.Validation("owner is required"))
		return
	}
	owner, err := models.ParseMemberRef(raw)
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Validation("invalid owner %q", raw))
		return
	}
	limit := 0
	if rawLimit := query.Get(r, "limit"); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n < 1 {
			httpjson.Error(w, h.Log, apperr.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list announcements")
	defer cancel()

	items, err := h.Engagement.ListAnnouncementsByOwner(ctx, owner, limit, authz.Viewer(r))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"items": items})
}

// Show handles GET /announcements/{id}.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id", "announcement")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get announcement")
	defer cancel()

	it, err := h.Engagement.Get(ctx, models.ContentRef{Kind: models.KindAnnouncement, ID: id}, authz.Viewer(r))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, it)
}

// Engage handles PATCH /announcements/{id}.
func (h *Handler) Engage(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id", "announcement")
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
	ref := models.ContentRef{Kind: models.KindAnnouncement, ID: id}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "engage announcement")
	defer cancel()

	var (
		out    any
		status = http.StatusOK
	)
	action := strings.ToLower(strings.TrimSpace(req.Action))
	switch action {
	case "like":
		out, err = h.Engagement.ToggleLike(ctx, ref, actor)
	case "interested":
		out, err = h.Engagement.ToggleInterest(ctx, ref, actor)
	case "comment":
		out, err = h.Engagement.AddComment(ctx, ref, actor, req.Text)
		status = http.StatusCreated
	case "approve", "remove":
		target, perr := parseTarget(req.Target)
		if perr != nil {
			httpjson.Error(w, h.Log, perr)
			return
		}
		if action == "approve" {
			out, err = h.Team.Approve(ctx, id, actor, target)
		} else {
			out, err = h.Team.Remove(ctx, id, actor, target)
		}
	default:
		err = apperr.Validation("unknown action %q", req.Action)
	}
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, status, out)
}

// TeamState handles GET /announcements/{id}/team/{member}.
func (h *Handler) TeamState(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id", "announcement")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	member, err := models.ParseMemberRef(chi.URLParam(r, "member"))
	if err != nil {
		httpjson.Error(w, h.Log, apperr.Validation("invalid member reference"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "team state")
	defer cancel()

	res, err := h.Team.State(ctx, id, member)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

// History handles GET /announcements/{id}/history: the announcement's audit
// trail, most recent first. Owner only.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id", "announcement")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	actor, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "announcement history")
	defer cancel()

	events, err := h.Team.History(ctx, id, actor)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"events": events})
}

// Delete handles DELETE /announcements/{id}. Owner only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id", "announcement")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	actor, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete announcement")
	defer cancel()

	if err := h.Engagement.Delete(ctx, models.ContentRef{Kind: models.KindAnnouncement, ID: id}, actor); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseTarget(raw string) (models.MemberRef, error) {
	if strings.TrimSpace(raw) == "" {
		return models.MemberRef{}, apperr.Validation("target is required")
	}
	ref, err := models.ParseMemberRef(raw)
	if err != nil {
		return models.MemberRef{}, apperr.Validation("invalid target %q", raw)
	}
	return ref, nil
}
