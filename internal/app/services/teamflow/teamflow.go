// Package teamflow moves members through an announcement's team pipeline:
//
//	none -> interested   (member toggles interest, see engagement)
//	interested -> approved   (owner approves)
//	approved -> none         (owner removes)
//
// Only the owner may approve or remove, and never themselves.
package teamflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/collabhub/internal/app/policy/contentpolicy"
	"github.com/dalemusser/collabhub/internal/app/services/engagement"
	"github.com/dalemusser/collabhub/internal/app/services/enrich"
	"github.com/dalemusser/collabhub/internal/app/services/identity"
	"github.com/dalemusser/collabhub/internal/app/store"
	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/collabhub/internal/app/system/metrics"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Service struct {
	repo     store.ContentRepository
	members  store.MemberSource
	resolver *identity.Resolver
	audit    *auditlog.Logger
	log      *zap.Logger
}

func New(repo store.ContentRepository, members store.MemberSource, resolver *identity.Resolver, audit *auditlog.Logger, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, members: members, resolver: resolver, audit: audit, log: log}
}

// StateResult answers a team state query.
type StateResult struct {
	Member identity.Identity `json:"member"`
	State  models.TeamState  `json:"state"`
}

// Approve moves target from interested to the team.
//
// Checks run in order: announcement exists, actor is the owner, target
// exists, target is not the actor, target is interested. The move itself is
// one conditional update, so a concurrent withdrawal of interest makes the
// approval fail rather than leave target in both sets.
func (s *Service) Approve(ctx context.Context, announcementID primitive.ObjectID, actorRef, targetRef models.MemberRef) (it enrich.Item, err error) {
	defer func() { record("approve", err) }()

	actor, target, ownerID, err := s.authorize(ctx, announcementID, actorRef, targetRef)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindForbidden && !actor.ID.IsZero() {
			s.audit.MemberApproveDenied(ctx, actor.ID, announcementID, target.Handle, apperr.Message(err))
		}
		return enrich.Item{}, err
	}

	a, err := s.repo.ApproveMember(ctx, announcementID, ownerID, target.Handle)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotInterested):
			s.audit.MemberApproveDenied(ctx, actor.ID, announcementID, target.Handle, "not interested")
			return enrich.Item{}, apperr.InvalidState("@%s has not declared interest", target.Handle)
		case errors.Is(err, store.ErrNotFound):
			return enrich.Item{}, apperr.NotFound("announcement %s not found", announcementID.Hex())
		}
		return enrich.Item{}, fmt.Errorf("approve %s: %w", target.Handle, err)
	}

	s.audit.MemberApproved(ctx, actor.ID, announcementID, target.Handle)
	s.log.Info("team member approved",
		zap.String("announcement", announcementID.Hex()),
		zap.String("owner", actor.Handle),
		zap.String("member", target.Handle))
	return s.enrichItem(ctx, a, actor), nil
}

// Remove takes target off the team, back to no state. Target may declare
// interest again afterwards.
func (s *Service) Remove(ctx context.Context, announcementID primitive.ObjectID, actorRef, targetRef models.MemberRef) (it enrich.Item, err error) {
	defer func() { record("remove", err) }()

	actor, target, ownerID, err := s.authorize(ctx, announcementID, actorRef, targetRef)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindForbidden && !actor.ID.IsZero() {
			s.audit.MemberRemoveDenied(ctx, actor.ID, announcementID, target.Handle, apperr.Message(err))
		}
		return enrich.Item{}, err
	}

	a, err := s.repo.RemoveMember(ctx, announcementID, ownerID, target.Handle)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotOnTeam):
			return enrich.Item{}, apperr.InvalidState("@%s is not on the team", target.Handle)
		case errors.Is(err, store.ErrNotFound):
			return enrich.Item{}, apperr.NotFound("announcement %s not found", announcementID.Hex())
		}
		return enrich.Item{}, fmt.Errorf("remove %s: %w", target.Handle, err)
	}

	s.audit.MemberRemoved(ctx, actor.ID, announcementID, target.Handle)
	s.log.Info("team member removed",
		zap.String("announcement", announcementID.Hex()),
		zap.String("owner", actor.Handle),
		zap.String("member", target.Handle))
	return s.enrichItem(ctx, a, actor), nil
}

// State reports where member stands on the announcement's team.
func (s *Service) State(ctx context.Context, announcementID primitive.ObjectID, memberRef models.MemberRef) (StateResult, error) {
	a, err := s.loadAnnouncement(ctx, announcementID)
	if err != nil {
		return StateResult{}, err
	}
	m, err := engagement.ResolveMember(ctx, s.members, memberRef, false)
	if err != nil {
		return StateResult{}, err
	}
	return StateResult{
		Member: s.resolver.Resolve(ctx, m.Ref()),
		State:  a.StateOf(m.Handle),
	}, nil
}

// HistoryLimit caps History.
const HistoryLimit = 100

// History returns the announcement's stored audit events, most recent first.
// Only the owner may read them.
func (s *Service) History(ctx context.Context, announcementID primitive.ObjectID, actorRef models.MemberRef) ([]audit.Event, error) {
	a, err := s.loadAnnouncement(ctx, announcementID)
	if err != nil {
		return nil, err
	}
	actor, err := engagement.ResolveMember(ctx, s.members, actorRef, true)
	if err != nil {
		return nil, err
	}
	if err := contentpolicy.CanViewHistory(actor.ID, a.OwnerID); err != nil {
		return nil, err
	}
	events, err := s.audit.History(ctx, announcementID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return events, nil
}

// authorize loads everything Approve and Remove need and applies the
// ownership and self-target rules. actor is returned whenever it resolved,
// so callers can audit denials.
func (s *Service) authorize(ctx context.Context, announcementID primitive.ObjectID, actorRef, targetRef models.MemberRef) (actor, target models.Member, ownerID primitive.ObjectID, err error) {
	a, err := s.loadAnnouncement(ctx, announcementID)
	if err != nil {
		return actor, target, ownerID, err
	}
	actor, err = engagement.ResolveMember(ctx, s.members, actorRef, true)
	if err != nil {
		return actor, target, ownerID, err
	}
	if err = contentpolicy.CanManageTeamActor(actor, a.OwnerID); err != nil {
		return actor, target, ownerID, err
	}
	target, err = engagement.ResolveMember(ctx, s.members, targetRef, false)
	if err != nil {
		return actor, target, ownerID, err
	}
	if err = contentpolicy.CanManageTeam(actor, a.OwnerID, target); err != nil {
		return actor, target, ownerID, err
	}
	return actor, target, a.OwnerID, nil
}

func (s *Service) loadAnnouncement(ctx context.Context, id primitive.ObjectID) (models.Announcement, error) {
	a, err := s.repo.GetAnnouncement(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Announcement{}, apperr.NotFound("announcement %s not found", id.Hex())
		}
		return models.Announcement{}, fmt.Errorf("load announcement: %w", err)
	}
	return a, nil
}

func (s *Service) enrichItem(ctx context.Context, a models.Announcement, actor models.Member) enrich.Item {
	items := []enrich.Item{enrich.FromAnnouncement(a)}
	viewer := actor.Ref()
	enrich.Enrich(ctx, s.resolver, items, &viewer)
	return items[0]
}

func record(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	metrics.RecordEngagement(string(models.KindAnnouncement), action, outcome)
}
