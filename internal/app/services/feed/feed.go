// Package feed merges updates and announcements into one newest-first view.
package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dalemusser/collabhub/internal/app/services/enrich"
	"github.com/dalemusser/collabhub/internal/app/services/identity"
	"github.com/dalemusser/collabhub/internal/app/store"
	"github.com/dalemusser/collabhub/internal/app/system/metrics"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.uber.org/zap"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Feed is what clients receive.
type Feed struct {
	Viewer *identity.Identity `json:"viewer,omitempty"`
	Items  []enrich.Item      `json:"items"`
}

type Service struct {
	repo         store.ContentRepository
	resolver     *identity.Resolver
	log          *zap.Logger
	defaultLimit int
}

// New builds the aggregator. defaultLimit <= 0 means DefaultLimit.
func New(repo store.ContentRepository, resolver *identity.Resolver, log *zap.Logger, defaultLimit int) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if defaultLimit <= 0 || defaultLimit > MaxLimit {
		defaultLimit = DefaultLimit
	}
	return &Service{repo: repo, resolver: resolver, log: log, defaultLimit: defaultLimit}
}

// Build assembles the feed for viewer (nil for anonymous). limit <= 0 uses
// the default; values above MaxLimit are capped. Only content reads can fail
// the call; identity misses degrade to fallbacks and an unknown viewer is
// treated as anonymous.
func (s *Service) Build(ctx context.Context, viewer *models.MemberRef, limit int) (Feed, error) {
	start := time.Now()

	updates, err := s.repo.ListUpdates(ctx)
	if err != nil {
		return Feed{}, fmt.Errorf("list updates: %w", err)
	}
	announcements, err := s.repo.ListAnnouncements(ctx)
	if err != nil {
		return Feed{}, fmt.Errorf("list announcements: %w", err)
	}

	items := Merge(updates, announcements)
	if n := s.clamp(limit); len(items) > n {
		items = items[:n]
	}

	v := enrich.Enrich(ctx, s.resolver, items, viewer)
	if viewer != nil && v == nil {
		s.log.Debug("feed viewer did not resolve; serving anonymous feed",
			zap.String("viewer", viewer.String()))
	}

	metrics.ObserveFeedBuild(v != nil, time.Since(start))
	return Feed{Viewer: v, Items: items}, nil
}

func (s *Service) clamp(limit int) int {
	switch {
	case limit <= 0:
		return s.defaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// Merge normalizes both kinds, concatenates them (updates first, each in
// store order) and stable-sorts newest first. Items with equal timestamps
// keep their concatenation order.
func Merge(updates []models.Update, announcements []models.Announcement) []enrich.Item {
	items := make([]enrich.Item, 0, len(updates)+len(announcements))
	for _, u := range updates {
		items = append(items, enrich.FromUpdate(u))
	}
	for _, a := range announcements {
		items = append(items, enrich.FromAnnouncement(a))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}
