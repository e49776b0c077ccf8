// internal/app/features/members/view.go
package members

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/collabhub/internal/app/policy/contentpolicy"
	"github.com/dalemusser/collabhub/internal/app/services/engagement"
	"github.com/dalemusser/collabhub/internal/app/store"
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/authz"
	"github.com/dalemusser/collabhub/internal/app/system/httpjson"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeView handles GET /members/{ref}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ref, err := pathRef(r)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "view member")
	defer cancel()

	m, err := engagement.ResolveMember(ctx, h.Members, ref, false)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	p, err := h.profile(ctx, m.ID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	httpjson.Write(w, http.StatusOK, h.view(ctx, r, m, p))
}

// view assembles the member response. p may be nil.
func (h *Handler) view(ctx context.Context, r *http.Request, m models.Member, p *models.Profile) memberView {
	view := memberView{
		Identity: h.Resolver.Resolve(ctx, m.Ref()),
		Role:     m.Role,
	}
	if p != nil {
		view.Bio = p.Bio
		view.Skills = p.Skills
		view.Education = p.Education
		view.Experience = p.Experience
		view.Certificates = p.Certificates
		view.FollowerCount = len(p.Followers)
		view.FollowingCount = len(p.Following)
	}
	if viewerID, ok := viewerID(r); ok && viewerID != m.ID {
		followed := p != nil && containsID(p.Followers, viewerID)
		view.FollowedByYou = &followed
	}
	return view
}

// HandleFollow handles POST /members/{ref}/follow. It toggles the signed-in
// member's follow of ref; profiles on both sides are created if missing.
func (h *Handler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	ref, err := pathRef(r)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	actorRef, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "toggle follow")
	defer cancel()

	actor, err := engagement.ResolveMember(ctx, h.Members, actorRef, true)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	target, err := engagement.ResolveMember(ctx, h.Members, ref, false)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if err := contentpolicy.CanFollow(actor.ID, target.ID); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	following, err := h.Profiles.ToggleFollow(ctx, actor.ID, target.ID)
	if err != nil {
		httpjson.Error(w, h.Log, fmt.Errorf("toggle follow: %w", err))
		return
	}
	resp := followResponse{Following: following}
	if p, err := h.profile(ctx, target.ID); err == nil && p != nil {
		resp.FollowerCount = len(p.Followers)
	}

	h.Log.Info("follow toggled",
		zap.String("follower", actor.Handle),
		zap.String("target", target.Handle),
		zap.Bool("following", following))
	httpjson.Write(w, http.StatusOK, resp)
}

// profile returns the member's profile, or nil when none exists yet.
func (h *Handler) profile(ctx context.Context, memberID primitive.ObjectID) (*models.Profile, error) {
	p, err := h.Profiles.GetByMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &p, nil
}

func pathRef(r *http.Request) (models.MemberRef, error) {
	raw := chi.URLParam(r, "ref")
	ref, err := models.ParseMemberRef(raw)
	if err != nil {
		return models.MemberRef{}, apperr.Validation("invalid member reference %q", raw)
	}
	return ref, nil
}

func viewerID(r *http.Request) (primitive.ObjectID, bool) {
	_, _, id, ok := authz.UserCtx(r)
	return id, ok
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
