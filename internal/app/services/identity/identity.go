// Package identity resolves member references to the name and avatar shown
// next to content.
//
// Avatar precedence: profile override, then member avatar, then the
// placeholder. Display name precedence: member display name, then handle.
// Lookups never fail: a missing member or profile, or a store error, falls
// through to the next source.
package identity

import (
	"context"

	"github.com/dalemusser/collabhub/internal/app/store"
	"github.com/dalemusser/collabhub/internal/app/system/metrics"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultPlaceholder is used when no placeholder URL is configured.
const DefaultPlaceholder = "/static/img/avatar-placeholder.png"

// UnknownName is shown for id references that match no member.
const UnknownName = "Unknown member"

// Identity is the resolved presentation of one member.
type Identity struct {
	MemberID    primitive.ObjectID `json:"member_id,omitempty"`
	Handle      string             `json:"handle,omitempty"`
	DisplayName string             `json:"display_name"`
	AvatarURL   string             `json:"avatar_url"`
	Headline    string             `json:"headline,omitempty"`
	Known       bool               `json:"-"`
}

// Resolver reads members and profiles.
type Resolver struct {
	members     store.MemberSource
	profiles    store.ProfileSource
	placeholder string
	log         *zap.Logger
}

func New(members store.MemberSource, profiles store.ProfileSource, placeholder string, log *zap.Logger) *Resolver {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{members: members, profiles: profiles, placeholder: placeholder, log: log}
}

// Resolve resolves a single reference.
func (r *Resolver) Resolve(ctx context.Context, ref models.MemberRef) Identity {
	return r.ResolveBatch(ctx, []models.MemberRef{ref}).Lookup(ref)
}

// ResolveBatch resolves refs with one members query and one profiles query,
// however many references are passed. Duplicates collapse and order does not
// matter.
func (r *Resolver) ResolveBatch(ctx context.Context, refs []models.MemberRef) Set {
	set := Set{
		byID:        make(map[primitive.ObjectID]Identity),
		byHandle:    make(map[string]Identity),
		placeholder: r.placeholder,
	}

	refs = dedupe(refs)
	if len(refs) == 0 {
		return set
	}

	members, err := r.members.FindMembers(ctx, refs)
	if err != nil {
		r.log.Warn("identity: member lookup failed; using fallbacks",
			zap.Int("refs", len(refs)), zap.Error(err))
		members = nil
	}

	profilesByMember := make(map[primitive.ObjectID]models.Profile)
	if len(members) > 0 {
		ids := make([]primitive.ObjectID, 0, len(members))
		for _, m := range members {
			ids = append(ids, m.ID)
		}
		profiles, err := r.profiles.FindProfiles(ctx, ids)
		if err != nil {
			r.log.Warn("identity: profile lookup failed; using member data",
				zap.Int("members", len(ids)), zap.Error(err))
		}
		for _, p := range profiles {
			profilesByMember[p.MemberID] = p
		}
	}

	for _, m := range members {
		var prof *models.Profile
		if p, ok := profilesByMember[m.ID]; ok {
			prof = &p
		}
		id := r.compose(m, prof)
		set.byID[m.ID] = id
		set.byHandle[text.Fold(m.Handle)] = id
	}

	misses := 0
	for _, ref := range refs {
		if _, ok := set.find(ref); !ok {
			misses++
		}
	}
	metrics.AddIdentityFallbacks(misses)
	return set
}

func (r *Resolver) compose(m models.Member, p *models.Profile) Identity {
	id := Identity{
		MemberID:    m.ID,
		Handle:      m.Handle,
		DisplayName: m.DisplayName,
		AvatarURL:   m.AvatarURL,
		Known:       true,
	}
	if id.DisplayName == "" {
		id.DisplayName = m.Handle
	}
	if p != nil {
		if p.AvatarURL != "" {
			id.AvatarURL = p.AvatarURL
		}
		id.Headline = p.Headline
	}
	if id.AvatarURL == "" {
		id.AvatarURL = r.placeholder
	}
	return id
}

func dedupe(refs []models.MemberRef) []models.MemberRef {
	seenID := make(map[primitive.ObjectID]bool)
	seenHandle := make(map[string]bool)
	out := make([]models.MemberRef, 0, len(refs))
	for _, ref := range refs {
		switch {
		case ref.IsID():
			if seenID[ref.ID] {
				continue
			}
			seenID[ref.ID] = true
		case ref.Handle != "":
			k := ref.HandleKey()
			if seenHandle[k] {
				continue
			}
			seenHandle[k] = true
		default:
			continue
		}
		out = append(out, ref)
	}
	return out
}

// Set is the result of a batch resolution.
type Set struct {
	byID        map[primitive.ObjectID]Identity
	byHandle    map[string]Identity
	placeholder string
}

// Lookup returns the identity for ref, or the fallback identity when the
// batch found no member for it.
func (s Set) Lookup(ref models.MemberRef) Identity {
	if id, ok := s.find(ref); ok {
		return id
	}
	placeholder := s.placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	if ref.IsID() {
		return Identity{MemberID: ref.ID, DisplayName: UnknownName, AvatarURL: placeholder}
	}
	return Identity{Handle: ref.Handle, DisplayName: ref.Handle, AvatarURL: placeholder}
}

// Len reports how many members the batch found.
func (s Set) Len() int { return len(s.byID) }

func (s Set) find(ref models.MemberRef) (Identity, bool) {
	if ref.IsID() {
		id, ok := s.byID[ref.ID]
		return id, ok
	}
	id, ok := s.byHandle[ref.HandleKey()]
	return id, ok
}
