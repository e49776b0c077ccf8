// internal/app/features/members/profile.go
package members

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/collabhub/internal/app/policy/contentpolicy"
	"github.com/dalemusser/collabhub/internal/app/services/engagement"
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/authz"
	"github.com/dalemusser/collabhub/internal/app/system/httpjson"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.uber.org/zap"
)

// Profile field limits, in runes unless noted.
const (
	maxHeadlineLen = 200
	maxBioLen      = 5000
	maxTitleLen    = 200
	maxSkillLen    = 60
	maxListEntries = 50
)

// HandleProfileEdit handles PUT /members/{ref}/profile. Members replace the
// editable fields of their own profile; follow sets are untouched. The saved
// avatar_url overrides the member avatar from then on.
func (h *Handler) HandleProfileEdit(w http.ResponseWriter, r *http.Request) {
	ref, err := pathRef(r)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	var in profileInput
	if err := httpjson.Decode(w, r, &in); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	actorRef, _ := authz.Actor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "edit profile")
	defer cancel()

	actor, err := engagement.ResolveMember(ctx, h.Members, actorRef, true)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	m, err := engagement.ResolveMember(ctx, h.Members, ref, false)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if err := contentpolicy.CanEditProfile(actor.ID, m.ID); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	p, err := in.toProfile(m)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	saved, err := h.Profiles.Upsert(ctx, p)
	if err != nil {
		httpjson.Error(w, h.Log, fmt.Errorf("save profile: %w", err))
		return
	}

	h.Log.Info("profile updated", zap.String("member", m.Handle))
	httpjson.Write(w, http.StatusOK, h.view(ctx, r, m, &saved))
}

func (in profileInput) toProfile(m models.Member) (models.Profile, error) {
	p := models.Profile{MemberID: m.ID}
	var err error
	if p.Headline, err = engagement.CleanText("headline", in.Headline, maxHeadlineLen, false); err != nil {
		return p, err
	}
	if p.Bio, err = engagement.CleanText("bio", in.Bio, maxBioLen, false); err != nil {
		return p, err
	}
	if p.AvatarURL, err = engagement.CleanURL("avatar_url", in.AvatarURL, false); err != nil {
		return p, err
	}
	if p.Skills, err = cleanSkills(in.Skills); err != nil {
		return p, err
	}
	if p.Education, err = cleanEntries("education", in.Education); err != nil {
		return p, err
	}
	if p.Experience, err = cleanEntries("experience", in.Experience); err != nil {
		return p, err
	}
	if p.Certificates, err = cleanEntries("certificates", in.Certificates); err != nil {
		return p, err
	}
	return p, nil
}

// cleanSkills drops blanks and case-insensitive duplicates, keeping order.
func cleanSkills(raw []string) ([]string, error) {
	if len(raw) > maxListEntries {
		return nil, apperr.Validation("skills exceeds %d entries", maxListEntries)
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, s := range raw {
		skill, err := engagement.CleanText("skill", s, maxSkillLen, false)
		if err != nil {
			return nil, err
		}
		key := text.Fold(skill)
		if skill == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, skill)
	}
	return out, nil
}

func cleanEntries(field string, raw []models.ProfileEntry) ([]models.ProfileEntry, error) {
	if len(raw) > maxListEntries {
		return nil, apperr.Validation("%s exceeds %d entries", field, maxListEntries)
	}
	out := make([]models.ProfileEntry, 0, len(raw))
	for i, e := range raw {
		title, err := engagement.CleanText(fmt.Sprintf("%s[%d].title", field, i), e.Title, maxTitleLen, true)
		if err != nil {
			return nil, err
		}
		org, err := engagement.CleanText(fmt.Sprintf("%s[%d].organization", field, i), e.Organization, maxTitleLen, false)
		if err != nil {
			return nil, err
		}
		if e.From != nil && e.To != nil && e.To.Before(*e.From) {
			return nil, apperr.Validation("%s[%d] ends before it starts", field, i)
		}
		out = append(out, models.ProfileEntry{Title: title, Organization: org, From: e.From, To: e.To})
	}
	return out, nil
}
