// Package enrich turns stored updates and announcements into the single item
// shape clients render, with identities spliced onto owners and comment
// authors.
package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/collabhub/internal/app/services/identity"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Item is one update or announcement, normalized.
type Item struct {
	Kind     models.Kind        `json:"kind"`
	ID       primitive.ObjectID `json:"id"`
	Owner    identity.Identity  `json:"owner"`
	Body     string             `json:"body"`
	ImageURL string             `json:"image_url,omitempty"`

	// announcement only
	Topic       string   `json:"topic,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Link        string   `json:"link,omitempty"`
	Interested  []string `json:"interested,omitempty"`
	TeamMembers []string `json:"team_members,omitempty"`

	Likes     []primitive.ObjectID `json:"likes"`
	LikeCount int                  `json:"like_count"`
	Comments  []CommentView        `json:"comments"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Viewer *ViewerFlags `json:"viewer,omitempty"`

	ownerID     primitive.ObjectID
	rawComments []models.Comment
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	ID        string            `json:"id"`
	Author    identity.Identity `json:"author"`
	Text      string            `json:"text"`
	CreatedAt time.Time         `json:"created_at"`
}

// ViewerFlags personalize an item for the signed-in viewer.
type ViewerFlags struct {
	IsOwner   bool             `json:"is_owner"`
	Liked     bool             `json:"liked"`
	TeamState models.TeamState `json:"team_state,omitempty"` // announcements only
}

// Ref returns the content reference of the item.
func (it Item) Ref() models.ContentRef {
	return models.ContentRef{Kind: it.Kind, ID: it.ID}
}

// FromUpdate normalizes an update.
func FromUpdate(u models.Update) Item {
	it := Item{
		Kind:        models.KindUpdate,
		ID:          u.ID,
		Body:        u.Body,
		ImageURL:    u.ImageURL,
		Likes:       nonNilIDs(u.Likes),
		LikeCount:   len(u.Likes),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		ownerID:     u.OwnerID,
		rawComments: u.Comments,
	}
	it.Owner = identity.Identity{MemberID: u.OwnerID}
	it.Comments = bareComments(u.Comments)
	return it
}

// FromAnnouncement normalizes an announcement. The display body is the topic,
// followed by a blank line and the description when there is one.
func FromAnnouncement(a models.Announcement) Item {
	body := a.Topic
	if d := strings.TrimSpace(a.Description); d != "" {
		body = a.Topic + "\n\n" + d
	}
	it := Item{
		Kind:        models.KindAnnouncement,
		ID:          a.ID,
		Body:        body,
		ImageURL:    a.CoverImageURL,
		Topic:       a.Topic,
		Description: a.Description,
		Category:    a.Category,
		Link:        a.Link,
		Interested:  nonNilStrings(a.Interested),
		TeamMembers: nonNilStrings(a.TeamMembers),
		Likes:       nonNilIDs(a.Likes),
		LikeCount:   len(a.Likes),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		ownerID:     a.OwnerID,
		rawComments: a.Comments,
	}
	it.Owner = identity.Identity{MemberID: a.OwnerID}
	it.Comments = bareComments(a.Comments)
	return it
}

// Refs collects every member reference the items mention: owners by id and
// comment authors by handle.
func Refs(items []Item) []models.MemberRef {
	var refs []models.MemberRef
	for _, it := range items {
		refs = append(refs, models.RefByID(it.ownerID))
		for _, c := range it.rawComments {
			refs = append(refs, models.RefByHandle(c.Author))
		}
	}
	return refs
}

// Apply splices identities from set onto owners and comment authors.
func Apply(items []Item, set identity.Set) {
	for i := range items {
		items[i].Owner = set.Lookup(models.RefByID(items[i].ownerID))
		for j, c := range items[i].rawComments {
			items[i].Comments[j].Author = set.Lookup(models.RefByHandle(c.Author))
		}
	}
}

// ApplyViewer sets per-item viewer flags for the given member.
func ApplyViewer(items []Item, viewerID primitive.ObjectID, viewerHandle string) {
	sets := models.Announcement{}
	for i := range items {
		it := &items[i]
		flags := &ViewerFlags{
			IsOwner: it.ownerID == viewerID,
		}
		for _, id := range it.Likes {
			if id == viewerID {
				flags.Liked = true
				break
			}
		}
		if it.Kind == models.KindAnnouncement {
			sets.Interested, sets.TeamMembers = it.Interested, it.TeamMembers
			flags.TeamState = sets.StateOf(viewerHandle)
		}
		it.Viewer = flags
	}
}

// Enrich resolves every identity the items mention, plus the viewer when one
// is given, in a single batch pass. It returns the viewer's identity, or nil
// when there is no viewer or the viewer matches no member; viewer flags are
// only set in the first case.
func Enrich(ctx context.Context, r *identity.Resolver, items []Item, viewer *models.MemberRef) *identity.Identity {
	refs := Refs(items)
	if viewer != nil && !viewer.IsZero() {
		refs = append(refs, *viewer)
	}
	set := r.ResolveBatch(ctx, refs)
	Apply(items, set)

	if viewer == nil || viewer.IsZero() {
		return nil
	}
	v := set.Lookup(*viewer)
	if !v.Known {
		return nil
	}
	ApplyViewer(items, v.MemberID, v.Handle)
	return &v
}

func bareComments(cs []models.Comment) []CommentView {
	out := make([]CommentView, len(cs))
	for i, c := range cs {
		out[i] = CommentView{
			ID:        c.ID,
			Author:    identity.Identity{Handle: c.Author, DisplayName: c.Author},
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		}
	}
	return out
}

func nonNilIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
