package testutil

import (
	"context"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/services/engagement"
	"github.com/dalemusser/collabhub/internal/app/services/feed"
	"github.com/dalemusser/collabhub/internal/app/services/identity"
	"github.com/dalemusser/collabhub/internal/app/services/teamflow"
	"github.com/dalemusser/collabhub/internal/app/store/memory"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.uber.org/zap"
)

// Placeholder is the avatar Services configures for unresolved identities.
const Placeholder = "/static/img/test-placeholder.png"

// Services wires every service to one in-memory store, for handler tests.
type Services struct {
	Mem        *memory.Store
	Audit      *auditlog.Logger
	Resolver   *identity.Resolver
	Engagement *engagement.Service
	Team       *teamflow.Service
	Feed       *feed.Service
}

// NewServices builds Services with no-op logging. Audit events are kept in
// the same in-memory store.
func NewServices() *Services {
	mem := memory.New()
	log := zap.NewNop()
	resolver := identity.New(mem, mem, Placeholder, log)
	audit := auditlog.New(mem, log, auditlog.Config{})
	return &Services{
		Mem:        mem,
		Audit:      audit,
		Resolver:   resolver,
		Engagement: engagement.New(mem, mem, resolver, audit, log),
		Team:       teamflow.New(mem, mem, resolver, audit, log),
		Feed:       feed.New(mem, resolver, log, 0),
	}
}

// Member creates a member in the in-memory store.
func (s *Services) Member(t *testing.T, handle, displayName string) models.Member {
	t.Helper()
	m, err := s.Mem.CreateMember(context.Background(), models.Member{Handle: handle, DisplayName: displayName})
	if err != nil {
		t.Fatalf("create member %s: %v", handle, err)
	}
	return m
}
