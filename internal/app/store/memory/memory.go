// Package memory implements the store contracts, and the audit event store,
// in process. Every mutation
// runs under one lock, which gives the same atomicity the MongoDB stores get
// from single-document updates. Used by tests and by local runs without a
// database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/collabhub/internal/app/store"
	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds members, profiles and content in maps plus insertion-order
// slices.
type Store struct {
	mu sync.RWMutex

	members  map[primitive.ObjectID]models.Member
	profiles map[primitive.ObjectID]models.Profile // keyed by member id

	updates       map[primitive.ObjectID]models.Update
	updateOrder   []primitive.ObjectID
	announcements map[primitive.ObjectID]models.Announcement
	annOrder      []primitive.ObjectID

	events []audit.Event // append order

	memberLookups  atomic.Int64
	profileLookups atomic.Int64

	now func() time.Time
}

var (
	_ store.ContentRepository = (*Store)(nil)
	_ store.MemberSource      = (*Store)(nil)
	_ store.ProfileSource     = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		members:       make(map[primitive.ObjectID]models.Member),
		profiles:      make(map[primitive.ObjectID]models.Profile),
		updates:       make(map[primitive.ObjectID]models.Update),
		announcements: make(map[primitive.ObjectID]models.Announcement),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Log appends an audit event, assigning its id and timestamp if unset.
func (s *Store) Log(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	s.events = append(s.events, e)
	return nil
}

// GetByContent returns up to limit events for contentID, most recent first.
// limit < 1 selects audit.DefaultLimit.
func (s *Store) GetByContent(_ context.Context, contentID primitive.ObjectID, limit int64) ([]audit.Event, error) {
	if limit < 1 {
		limit = audit.DefaultLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []audit.Event{}
	for i := len(s.events) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if e := s.events[i]; e.ContentID != nil && *e.ContentID == contentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// MemberLookups counts FindMembers calls.
func (s *Store) MemberLookups() int64 { return s.memberLookups.Load() }

// ProfileLookups counts FindProfiles calls.
func (s *Store) ProfileLookups() int64 { return s.profileLookups.Load() }

/* -------------------------------------------------------------------------- */
/* Members and profiles                                                       */
/* -------------------------------------------------------------------------- */

// CreateMember mirrors memberstore.Store.Create.
func (s *Store) CreateMember(_ context.Context, m models.Member) (models.Member, error) {
	m.Handle = strings.TrimPrefix(strings.TrimSpace(m.Handle), "@")
	if !models.ValidHandle(m.Handle) {
		return models.Member{}, models.ErrBadMemberRef
	}
	m.HandleCI = text.Fold(m.Handle)
	if m.Role == "" {
		m.Role = models.RoleMember
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.members {
		if existing.HandleCI == m.HandleCI {
			return models.Member{}, store.ErrDuplicateHandle
		}
	}
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.CreatedAt = s.now()
	m.UpdatedAt = m.CreatedAt
	s.members[m.ID] = m
	return m, nil
}

func (s *Store) GetMember(_ context.Context, ref models.MemberRef) (models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.lookupMember(ref); ok {
		return m, nil
	}
	return models.Member{}, store.ErrNotFound
}

func (s *Store) FindMembers(_ context.Context, refs []models.MemberRef) ([]models.Member, error) {
	s.memberLookups.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[primitive.ObjectID]bool)
	var out []models.Member
	for _, r := range refs {
		m, ok := s.lookupMember(r)
		if !ok || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) lookupMember(ref models.MemberRef) (models.Member, bool) {
	if ref.IsID() {
		m, ok := s.members[ref.ID]
		return m, ok
	}
	if ref.Handle == "" {
		return models.Member{}, false
	}
	key := ref.HandleKey()
	for _, m := range s.members {
		if m.HandleCI == key {
			return m, true
		}
	}
	return models.Member{}, false
}

// Upsert writes the editable fields of p.MemberID's profile, creating it if
// needed. Follow sets are left alone.
func (s *Store) Upsert(_ context.Context, p models.Profile) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[p.MemberID]; ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		p.Followers = existing.Followers
		p.Following = existing.Following
	} else {
		p.ID = primitive.NewObjectID()
		p.CreatedAt = s.now()
	}
	p.UpdatedAt = s.now()
	s.profiles[p.MemberID] = p
	return p, nil
}

func (s *Store) GetByMember(_ context.Context, memberID primitive.ObjectID) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[memberID]
	if !ok {
		return models.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) FindProfiles(_ context.Context, memberIDs []primitive.ObjectID) ([]models.Profile, error) {
	s.profileLookups.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Profile
	seen := make(map[primitive.ObjectID]bool)
	for _, id := range memberIDs {
		if p, ok := s.profiles[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ToggleFollow(_ context.Context, followerID, targetID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.profileFor(targetID)
	var following bool
	target.Followers, following = toggleID(target.Followers, followerID)
	s.profiles[targetID] = target

	follower := s.profileFor(followerID)
	follower.Following = removeID(follower.Following, targetID)
	if following {
		follower.Following = append(follower.Following, targetID)
	}
	s.profiles[followerID] = follower
	return following, nil
}

// profileFor returns the profile for memberID, building an empty one if
// needed. Caller holds the write lock.
func (s *Store) profileFor(memberID primitive.ObjectID) models.Profile {
	p, ok := s.profiles[memberID]
	if !ok {
		p = models.Profile{ID: primitive.NewObjectID(), MemberID: memberID, CreatedAt: s.now()}
	}
	p.UpdatedAt = s.now()
	return p
}

/* -------------------------------------------------------------------------- */
/* Updates                                                                    */
/* -------------------------------------------------------------------------- */

func (s *Store) CreateUpdate(_ context.Context, u models.Update) (models.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	u.UpdatedAt = u.CreatedAt
	if u.Likes == nil {
		u.Likes = []primitive.ObjectID{}
	}
	if u.Comments == nil {
		u.Comments = []models.Comment{}
	}
	s.updates[u.ID] = u
	s.updateOrder = append(s.updateOrder, u.ID)
	return copyUpdate(u), nil
}

func (s *Store) GetUpdate(_ context.Context, id primitive.ObjectID) (models.Update, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.updates[id]
	if !ok {
		return models.Update{}, store.ErrNotFound
	}
	return copyUpdate(u), nil
}

func (s *Store) ListUpdates(_ context.Context) ([]models.Update, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Update, 0, len(s.updateOrder))
	for _, id := range s.updateOrder {
		out = append(out, copyUpdate(s.updates[id]))
	}
	return out, nil
}

func (s *Store) DeleteUpdate(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.updates[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.updates, id)
	s.updateOrder = removeID(s.updateOrder, id)
	return nil
}

func (s *Store) ToggleUpdateLike(_ context.Context, id, memberID primitive.ObjectID) (models.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.updates[id]
	if !ok {
		return models.Update{}, store.ErrNotFound
	}
	u.Likes, _ = toggleID(u.Likes, memberID)
	u.UpdatedAt = s.now()
	s.updates[id] = u
	return copyUpdate(u), nil
}

func (s *Store) AppendUpdateComment(_ context.Context, id primitive.ObjectID, c models.Comment) (models.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.updates[id]
	if !ok {
		return models.Update{}, store.ErrNotFound
	}
	u.Comments = append(append([]models.Comment(nil), u.Comments...), c)
	u.UpdatedAt = s.now()
	s.updates[id] = u
	return copyUpdate(u), nil
}

/* -------------------------------------------------------------------------- */
/* Announcements                                                              */
/* -------------------------------------------------------------------------- */

func (s *Store) CreateAnnouncement(_ context.Context, a models.Announcement) (models.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	a.UpdatedAt = a.CreatedAt
	if a.Interested == nil {
		a.Interested = []string{}
	}
	if a.TeamMembers == nil {
		a.TeamMembers = []string{}
	}
	if a.Likes == nil {
		a.Likes = []primitive.ObjectID{}
	}
	if a.Comments == nil {
		a.Comments = []models.Comment{}
	}
	s.announcements[a.ID] = a
	s.annOrder = append(s.annOrder, a.ID)
	return copyAnnouncement(a), nil
}

func (s *Store) GetAnnouncement(_ context.Context, id primitive.ObjectID) (models.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.announcements[id]
	if !ok {
		return models.Announcement{}, store.ErrNotFound
	}
	return copyAnnouncement(a), nil
}

func (s *Store) ListAnnouncements(_ context.Context) ([]models.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Announcement, 0, len(s.annOrder))
	for _, id := range s.annOrder {
		out = append(out, copyAnnouncement(s.announcements[id]))
	}
	return out, nil
}

func (s *Store) ListAnnouncementsByOwner(_ context.Context, ownerID primitive.ObjectID, limit int) ([]models.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Announcement
	for i := len(s.annOrder) - 1; i >= 0; i-- {
		a := s.announcements[s.annOrder[i]]
		if a.OwnerID == ownerID {
			out = append(out, copyAnnouncement(a))
		}
	}
	// newest first; later insertion wins ties
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteAnnouncement(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.announcements[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.announcements, id)
	s.annOrder = removeID(s.annOrder, id)
	return nil
}

func (s *Store) ToggleAnnouncementLike(_ context.Context, id, memberID primitive.ObjectID) (models.Announcement, error) {
	return s.mutateAnnouncement(id, func(a *models.Announcement) error {
		a.Likes, _ = toggleID(a.Likes, memberID)
		return nil
	})
}

func (s *Store) AppendAnnouncementComment(_ context.Context, id primitive.ObjectID, c models.Comment) (models.Announcement, error) {
	return s.mutateAnnouncement(id, func(a *models.Announcement) error {
		a.Comments = append(append([]models.Comment(nil), a.Comments...), c)
		return nil
	})
}

func (s *Store) ToggleInterest(_ context.Context, id primitive.ObjectID, handle string) (models.Announcement, error) {
	return s.mutateAnnouncement(id, func(a *models.Announcement) error {
		if containsHandle(a.TeamMembers, handle) {
			return store.ErrOnTeam
		}
		if containsHandle(a.Interested, handle) {
			a.Interested = removeHandle(a.Interested, handle)
		} else {
			a.Interested = append(append([]string(nil), a.Interested...), handle)
		}
		return nil
	})
}

func (s *Store) ApproveMember(_ context.Context, id, ownerID primitive.ObjectID, handle string) (models.Announcement, error) {
	return s.mutateAnnouncement(id, func(a *models.Announcement) error {
		if a.OwnerID != ownerID {
			return store.ErrNotFound
		}
		if !containsHandle(a.Interested, handle) {
			return store.ErrNotInterested
		}
		a.Interested = removeHandle(a.Interested, handle)
		if !containsHandle(a.TeamMembers, handle) {
			a.TeamMembers = append(append([]string(nil), a.TeamMembers...), handle)
		}
		return nil
	})
}

func (s *Store) RemoveMember(_ context.Context, id, ownerID primitive.ObjectID, handle string) (models.Announcement, error) {
	return s.mutateAnnouncement(id, func(a *models.Announcement) error {
		if a.OwnerID != ownerID {
			return store.ErrNotFound
		}
		if !containsHandle(a.TeamMembers, handle) {
			return store.ErrNotOnTeam
		}
		a.TeamMembers = removeHandle(a.TeamMembers, handle)
		return nil
	})
}

// mutateAnnouncement applies fn to a copy of the announcement under the write
// lock and stores the result only when fn succeeds.
func (s *Store) mutateAnnouncement(id primitive.ObjectID, fn func(*models.Announcement) error) (models.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.announcements[id]
	if !ok {
		return models.Announcement{}, store.ErrNotFound
	}
	a := copyAnnouncement(cur)
	if err := fn(&a); err != nil {
		return models.Announcement{}, err
	}
	a.UpdatedAt = s.now()
	s.announcements[id] = a
	return copyAnnouncement(a), nil
}

/* -------------------------------------------------------------------------- */
/* helpers                                                                    */
/* -------------------------------------------------------------------------- */

func toggleID(ids []primitive.ObjectID, id primitive.ObjectID) ([]primitive.ObjectID, bool) {
	for _, x := range ids {
		if x == id {
			return removeID(ids, id), false
		}
	}
	return append(append([]primitive.ObjectID(nil), ids...), id), true
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func containsHandle(hs []string, h string) bool {
	for _, x := range hs {
		if x == h {
			return true
		}
	}
	return false
}

func removeHandle(hs []string, h string) []string {
	out := make([]string, 0, len(hs))
	for _, x := range hs {
		if x != h {
			out = append(out, x)
		}
	}
	return out
}

func copyUpdate(u models.Update) models.Update {
	u.Likes = append([]primitive.ObjectID{}, u.Likes...)
	u.Comments = append([]models.Comment{}, u.Comments...)
	return u
}

func copyAnnouncement(a models.Announcement) models.Announcement {
	a.Interested = append([]string{}, a.Interested...)
	a.TeamMembers = append([]string{}, a.TeamMembers...)
	a.Likes = append([]primitive.ObjectID{}, a.Likes...)
	a.Comments = append([]models.Comment{}, a.Comments...)
	return a
}
