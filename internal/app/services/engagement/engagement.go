// Package engagement owns the interaction sets on a single content item
// (likes, interest, comments) and the publish/delete lifecycle of updates
// and announcements.
//
// Every mutation is one atomic repository call; the returned item is the
// post-update document, enriched with identities for the acting member.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/collabhub/internal/app/policy/contentpolicy"
	"github.com/dalemusser/collabhub/internal/app/services/enrich"
	"github.com/dalemusser/collabhub/internal/app/services/identity"
	"github.com/dalemusser/collabhub/internal/app/store"
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/collabhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/collabhub/internal/app/system/metrics"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Limits on member-supplied text, in runes.
const (
	MaxCommentLen     = 2000
	MaxBodyLen        = 5000
	MaxTopicLen       = 200
	MaxDescriptionLen = 10000
	MaxInitialTeam    = 50
)

// Owner listings are capped like the feed.
const (
	DefaultOwnerListLimit = 50
	MaxOwnerListLimit     = 200
)

// Service implements engagement operations.
type Service struct {
	repo     store.ContentRepository
	members  store.MemberSource
	resolver *identity.Resolver
	audit    *auditlog.Logger
	log      *zap.Logger

	now   func() time.Time
	newID func() string
}

// New wires a Service. audit may be nil.
func New(repo store.ContentRepository, members store.MemberSource, resolver *identity.Resolver, audit *auditlog.Logger, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		members:  members,
		resolver: resolver,
		audit:    audit,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
	}
}

// LikeResult is returned by ToggleLike.
type LikeResult struct {
	Liked     bool        `json:"liked"`
	LikeCount int         `json:"like_count"`
	Item      enrich.Item `json:"item"`
}

// InterestResult is returned by ToggleInterest.
type InterestResult struct {
	Interested bool        `json:"interested"`
	Item       enrich.Item `json:"item"`
}

// CommentResult is returned by AddComment.
type CommentResult struct {
	Comment enrich.CommentView `json:"comment"`
	Item    enrich.Item        `json:"item"`
}

// UpdateInput is the body of a publish-update call.
type UpdateInput struct {
	Body     string `json:"body"`
	ImageURL string `json:"image_url"`
}

// AnnouncementInput is the body of a publish-announcement call.
type AnnouncementInput struct {
	Topic         string `json:"topic"`
	Description   string `json:"description"`
	CoverImageURL string `json:"cover_image_url"`
	Category      string `json:"category"`
	Link          string `json:"link"`
	// TeamMembers seeds the team. Entries are ids or handles of existing
	// members other than the owner.
	TeamMembers []string `json:"team_members"`
}

/* -------------------------------------------------------------------------- */
/* Engagement                                                                 */
/* -------------------------------------------------------------------------- */

// ToggleLike adds the actor to the item's like set or removes them.
func (s *Service) ToggleLike(ctx context.Context, content models.ContentRef, actorRef models.MemberRef) (res LikeResult, err error) {
	defer func() { record(content.Kind, "like", err) }()

	actor, err := s.ResolveActor(ctx, actorRef)
	if err != nil {
		return LikeResult{}, err
	}

	var it enrich.Item
	switch content.Kind {
	case models.KindUpdate:
		u, err := s.repo.ToggleUpdateLike(ctx, content.ID, actor.ID)
		if err != nil {
			return LikeResult{}, translate(err, content)
		}
		it = enrich.FromUpdate(u)
		res.Liked = u.LikedBy(actor.ID)
	case models.KindAnnouncement:
		a, err := s.repo.ToggleAnnouncementLike(ctx, content.ID, actor.ID)
		if err != nil {
			return LikeResult{}, translate(err, content)
		}
		it = enrich.FromAnnouncement(a)
		res.Liked = a.LikedBy(actor.ID)
	default:
		return LikeResult{}, badKind(content.Kind)
	}

	res.Item = s.enrichOne(ctx, it, actor)
	res.LikeCount = res.Item.LikeCount
	return res, nil
}

// ToggleInterest flips the actor's interest in an announcement. Updates have
// no interest set (InvalidOperation). The owner cannot declare interest and a
// team member cannot either, since interest and team membership are exclusive.
func (s *Service) ToggleInterest(ctx context.Context, content models.ContentRef, actorRef models.MemberRef) (res InterestResult, err error) {
	defer func() { record(content.Kind, "interest", err) }()

	switch content.Kind {
	case models.KindAnnouncement:
	case models.KindUpdate:
		return InterestResult{}, apperr.InvalidOperation("interest only applies to announcements")
	default:
		return InterestResult{}, badKind(content.Kind)
	}

	actor, err := s.ResolveActor(ctx, actorRef)
	if err != nil {
		return InterestResult{}, err
	}
	cur, err := s.repo.GetAnnouncement(ctx, content.ID)
	if err != nil {
		return InterestResult{}, translate(err, content)
	}
	if err := contentpolicy.CanDeclareInterest(actor, cur.OwnerID); err != nil {
		return InterestResult{}, err
	}

	a, err := s.repo.ToggleInterest(ctx, content.ID, actor.Handle)
	if err != nil {
		if errors.Is(err, store.ErrOnTeam) {
			return InterestResult{}, apperr.InvalidState("@%s is already on the team", actor.Handle)
		}
		return InterestResult{}, translate(err, content)
	}

	res.Interested = a.StateOf(actor.Handle) == models.TeamStateInterested
	res.Item = s.enrichOne(ctx, enrich.FromAnnouncement(a), actor)
	return res, nil
}

// AddComment appends a comment by the actor. Markup is stripped; empty or
// over-long text is a validation error.
func (s *Service) AddComment(ctx context.Context, content models.ContentRef, actorRef models.MemberRef, text string) (res CommentResult, err error) {
	defer func() { record(content.Kind, "comment", err) }()

	if !content.Kind.Valid() {
		return CommentResult{}, badKind(content.Kind)
	}
	clean, err := CleanText("comment", text, MaxCommentLen, true)
	if err != nil {
		return CommentResult{}, err
	}
	actor, err := s.ResolveActor(ctx, actorRef)
	if err != nil {
		return CommentResult{}, err
	}

	c := models.Comment{
		ID:        s.newID(),
		Author:    actor.Handle,
		Text:      clean,
		CreatedAt: s.now(),
	}

	var it enrich.Item
	switch content.Kind {
	case models.KindUpdate:
		u, err := s.repo.AppendUpdateComment(ctx, content.ID, c)
		if err != nil {
			return CommentResult{}, translate(err, content)
		}
		it = enrich.FromUpdate(u)
	case models.KindAnnouncement:
		a, err := s.repo.AppendAnnouncementComment(ctx, content.ID, c)
		if err != nil {
			return CommentResult{}, translate(err, content)
		}
		it = enrich.FromAnnouncement(a)
	}

	res.Item = s.enrichOne(ctx, it, actor)
	for _, cv := range res.Item.Comments {
		if cv.ID == c.ID {
			res.Comment = cv
			break
		}
	}
	return res, nil
}

/* -------------------------------------------------------------------------- */
/* Lifecycle                                                                  */
/* -------------------------------------------------------------------------- */

// PublishUpdate creates an update owned by the actor.
func (s *Service) PublishUpdate(ctx context.Context, actorRef models.MemberRef, in UpdateInput) (enrich.Item, error) {
	actor, err := s.ResolveActor(ctx, actorRef)
	if err != nil {
		return enrich.Item{}, err
	}
	body, err := CleanText("body", in.Body, MaxBodyLen, true)
	if err != nil {
		return enrich.Item{}, err
	}
	img, err := CleanURL("image_url", in.ImageURL, false)
	if err != nil {
		return enrich.Item{}, err
	}

	u, err := s.repo.CreateUpdate(ctx, models.Update{
		OwnerID:   actor.ID,
		Body:      body,
		ImageURL:  img,
		CreatedAt: s.now(),
	})
	if err != nil {
		return enrich.Item{}, fmt.Errorf("create update: %w", err)
	}
	s.audit.ContentPublished(ctx, actor.ID, models.ContentRef{Kind: models.KindUpdate, ID: u.ID})
	return s.enrichOne(ctx, enrich.FromUpdate(u), actor), nil
}

// PublishAnnouncement creates an announcement owned by the actor. Topic,
// cover image and a known category are required.
func (s *Service) PublishAnnouncement(ctx context.Context, actorRef models.MemberRef, in AnnouncementInput) (enrich.Item, error) {
	actor, err := s.ResolveActor(ctx, actorRef)
	if err != nil {
		return enrich.Item{}, err
	}
	topic, err := CleanText("topic", in.Topic, MaxTopicLen, true)
	if err != nil {
		return enrich.Item{}, err
	}
	desc, err := CleanText("description", in.Description, MaxDescriptionLen, false)
	if err != nil {
		return enrich.Item{}, err
	}
	cover, err := CleanURL("cover_image_url", in.CoverImageURL, true)
	if err != nil {
		return enrich.Item{}, err
	}
	link, err := CleanURL("link", in.Link, false)
	if err != nil {
		return enrich.Item{}, err
	}
	category := strings.ToLower(strings.TrimSpace(in.Category))
	if !models.ValidCategory(category) {
		return enrich.Item{}, apperr.Validation("category must be %q or %q", models.CategoryProject, models.CategoryResearch)
	}
	team, err := s.initialTeam(ctx, actor, in.TeamMembers)
	if err != nil {
		return enrich.Item{}, err
	}

	a, err := s.repo.CreateAnnouncement(ctx, models.Announcement{
		OwnerID:       actor.ID,
		Topic:         topic,
		Description:   desc,
		CoverImageURL: cover,
		Category:      category,
		Link:          link,
		TeamMembers:   team,
		CreatedAt:     s.now(),
	})
	if err != nil {
		return enrich.Item{}, fmt.Errorf("create announcement: %w", err)
	}
	s.audit.ContentPublished(ctx, actor.ID, models.ContentRef{Kind: models.KindAnnouncement, ID: a.ID})
	return s.enrichOne(ctx, enrich.FromAnnouncement(a), actor), nil
}

// Get returns one enriched item. viewer may be nil.
func (s *Service) Get(ctx context.Context, content models.ContentRef, viewer *models.MemberRef) (enrich.Item, error) {
	var it enrich.Item
	switch content.Kind {
	case models.KindUpdate:
		u, err := s.repo.GetUpdate(ctx, content.ID)
		if err != nil {
			return enrich.Item{}, translate(err, content)
		}
		it = enrich.FromUpdate(u)
	case models.KindAnnouncement:
		a, err := s.repo.GetAnnouncement(ctx, content.ID)
		if err != nil {
			return enrich.Item{}, translate(err, content)
		}
		it = enrich.FromAnnouncement(a)
	default:
		return enrich.Item{}, badKind(content.Kind)
	}
	items := []enrich.Item{it}
	enrich.Enrich(ctx, s.resolver, items, viewer)
	return items[0], nil
}

// initialTeam resolves the requested team members to canonical handles.
// Duplicates collapse; the owner cannot be on their own team.
func (s *Service) initialTeam(ctx context.Context, owner models.Member, raw []string) ([]string, error) {
	if len(raw) > MaxInitialTeam {
		return nil, apperr.Validation("team_members exceeds %d entries", MaxInitialTeam)
	}
	team := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, entry := range raw {
		ref, err := models.ParseMemberRef(entry)
		if err != nil {
			return nil, apperr.Validation("invalid team member %q", entry)
		}
		m, err := ResolveMember(ctx, s.members, ref, false)
		if err != nil {
			return nil, err
		}
		if m.ID == owner.ID {
			return nil, apperr.Forbidden("owner cannot be listed as a team member")
		}
		key := text.Fold(m.Handle)
		if seen[key] {
			continue
		}
		seen[key] = true
		team = append(team, m.Handle)
	}
	return team, nil
}

// ListAnnouncementsByOwner returns up to limit of the owner's announcements,
// newest first. limit < 1 selects DefaultOwnerListLimit; larger values are
// capped at MaxOwnerListLimit. An unknown owner yields an empty list.
func (s *Service) ListAnnouncementsByOwner(ctx context.Context, ownerRef models.MemberRef, limit int, viewer *models.MemberRef) ([]enrich.Item, error) {
	switch {
	case limit < 1:
		limit = DefaultOwnerListLimit
	case limit > MaxOwnerListLimit:
		limit = MaxOwnerListLimit
	}
	owner, err := s.members.GetMember(ctx, ownerRef)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []enrich.Item{}, nil
		}
		return nil, fmt.Errorf("load owner: %w", err)
	}
	list, err := s.repo.ListAnnouncementsByOwner(ctx, owner.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	items := make([]enrich.Item, 0, len(list))
	for _, a := range list {
		items = append(items, enrich.FromAnnouncement(a))
	}
	enrich.Enrich(ctx, s.resolver, items, viewer)
	return items, nil
}

// Delete removes an item. Only its owner may delete it.
func (s *Service) Delete(ctx context.Context, content models.ContentRef, actorRef models.MemberRef) error {
	actor, err := s.ResolveActor(ctx, actorRef)
	if err != nil {
		return err
	}

	var ownerID primitive.ObjectID
	switch content.Kind {
	case models.KindUpdate:
		u, err := s.repo.GetUpdate(ctx, content.ID)
		if err != nil {
			return translate(err, content)
		}
		ownerID = u.OwnerID
	case models.KindAnnouncement:
		a, err := s.repo.GetAnnouncement(ctx, content.ID)
		if err != nil {
			return translate(err, content)
		}
		ownerID = a.OwnerID
	default:
		return badKind(content.Kind)
	}
	if err := contentpolicy.CanDelete(actor.ID, ownerID); err != nil {
		return err
	}

	if content.Kind == models.KindUpdate {
		err = s.repo.DeleteUpdate(ctx, content.ID)
	} else {
		err = s.repo.DeleteAnnouncement(ctx, content.ID)
	}
	if err != nil {
		return translate(err, content)
	}
	s.audit.ContentDeleted(ctx, actor.ID, content)
	s.log.Info("content deleted",
		zap.String("kind", string(content.Kind)),
		zap.String("id", content.ID.Hex()),
		zap.String("actor", actor.Handle))
	return nil
}

/* -------------------------------------------------------------------------- */
/* helpers                                                                    */
/* -------------------------------------------------------------------------- */

// ResolveActor loads the acting member. A zero reference is Unauthorized; a
// reference that matches no member is NotFound.
func (s *Service) ResolveActor(ctx context.Context, ref models.MemberRef) (models.Member, error) {
	return ResolveMember(ctx, s.members, ref, true)
}

// ResolveMember loads the member ref points at and translates store errors.
// actor selects Unauthorized rather than Validation for an empty reference.
func ResolveMember(ctx context.Context, members store.MemberSource, ref models.MemberRef, actor bool) (models.Member, error) {
	if ref.IsZero() {
		if actor {
			return models.Member{}, apperr.Unauthorized("sign in required")
		}
		return models.Member{}, apperr.Validation("member reference is required")
	}
	m, err := members.GetMember(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Member{}, apperr.NotFound("member %s not found", ref)
		}
		return models.Member{}, fmt.Errorf("load member %s: %w", ref, err)
	}
	return m, nil
}

func (s *Service) enrichOne(ctx context.Context, it enrich.Item, actor models.Member) enrich.Item {
	items := []enrich.Item{it}
	viewer := actor.Ref()
	enrich.Enrich(ctx, s.resolver, items, &viewer)
	return items[0]
}

// translate maps repository errors for content onto apperr kinds.
func translate(err error, content models.ContentRef) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("%s %s not found", content.Kind, content.ID.Hex())
	}
	return fmt.Errorf("%s %s: %w", content.Kind, content.ID.Hex(), err)
}

func badKind(k models.Kind) error {
	return apperr.Validation("unknown content kind %q", k)
}

func record(kind models.Kind, action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	metrics.RecordEngagement(string(kind), action, outcome)
}

// CleanText sanitizes member text to plain text and enforces max runes.
func CleanText(field, in string, max int, required bool) (string, error) {
	out := htmlsanitize.PlainText(in)
	if out == "" {
		if required {
			return "", apperr.Validation("%s is required", field)
		}
		return "", nil
	}
	if utf8.RuneCountInString(out) > max {
		return "", apperr.Validation("%s exceeds %d characters", field, max)
	}
	return out, nil
}

// CleanURL accepts absolute http(s) URLs and site-relative paths, the forms
// the upload service hands back.
func CleanURL(field, in string, required bool) (string, error) {
	in = strings.TrimSpace(in)
	if in == "" {
		if required {
			return "", apperr.Validation("%s is required", field)
		}
		return "", nil
	}
	u, err := url.Parse(in)
	if err != nil {
		return "", apperr.Validation("%s is not a valid URL", field)
	}
	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		if u.Host == "" {
			return "", apperr.Validation("%s is not a valid URL", field)
		}
	case u.Scheme == "" && strings.HasPrefix(in, "/") && !strings.HasPrefix(in, "//"):
	default:
		return "", apperr.Validation("%s must be an http(s) URL or a site path", field)
	}
	return in, nil
}
