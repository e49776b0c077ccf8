package auditlog_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type recorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recorder) Log(_ context.Context, e audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) GetByContent(_ context.Context, contentID primitive.ObjectID, _ int64) ([]audit.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []audit.Event{}
	for _, e := range r.events {
		if e.ContentID != nil && *e.ContentID == contentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx := context.Background()

	// must not panic
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.MemberApproved(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "bob")
	logger.ContentDeleted(ctx, primitive.NewObjectID(), models.ContentRef{Kind: models.KindUpdate})
}

func TestLogger_Modes(t *testing.T) {
	tests := []struct {
		name   string
		mode   string
		stored int
	}{
		{"all", auditlog.ModeAll, 1},
		{"db", auditlog.ModeDB, 1},
		{"log", auditlog.ModeLog, 0},
		{"off", auditlog.ModeOff, 0},
		{"empty defaults to all", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			logger := auditlog.New(rec, zap.NewNop(), auditlog.Config{Team: tt.mode, Content: auditlog.ModeOff})

			logger.MemberRemoved(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "bob")

			if len(rec.events) != tt.stored {
				t.Errorf("stored %d events, want %d", len(rec.events), tt.stored)
			}
		})
	}
}

func TestLogger_TeamEventFields(t *testing.T) {
	rec := &recorder{}
	logger := auditlog.New(rec, zap.NewNop(), auditlog.Config{})
	actor, ann := primitive.NewObjectID(), primitive.NewObjectID()

	logger.MemberApproveDenied(context.Background(), actor, ann, "bob", "not interested")

	if len(rec.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rec.events))
	}
	e := rec.events[0]
	if e.Category != audit.CategoryTeam || e.EventType != audit.EventTeamMemberApproveDenied {
		t.Errorf("unexpected classification %s/%s", e.Category, e.EventType)
	}
	if e.Success {
		t.Error("expected denied event to be unsuccessful")
	}
	if *e.ActorID != actor || *e.ContentID != ann || e.TargetHandle != "bob" {
		t.Errorf("unexpected event fields %+v", e)
	}
}

func TestLogger_ContentEventType(t *testing.T) {
	rec := &recorder{}
	logger := auditlog.New(rec, zap.NewNop(), auditlog.Config{})
	actor := primitive.NewObjectID()

	logger.ContentDeleted(context.Background(), actor, models.ContentRef{Kind: models.KindAnnouncement, ID: primitive.NewObjectID()})
	logger.ContentPublished(context.Background(), actor, models.ContentRef{Kind: models.KindUpdate, ID: primitive.NewObjectID()})

	if rec.events[0].EventType != audit.EventAnnouncementDeleted {
		t.Errorf("got %q, want %q", rec.events[0].EventType, audit.EventAnnouncementDeleted)
	}
	if rec.events[1].EventType != audit.EventUpdatePublished {
		t.Errorf("got %q, want %q", rec.events[1].EventType, audit.EventUpdatePublished)
	}
}

func TestLogger_History(t *testing.T) {
	ctx := context.Background()
	ann := primitive.NewObjectID()

	var nilLogger *auditlog.Logger
	if got, err := nilLogger.History(ctx, ann, 10); err != nil || got == nil || len(got) != 0 {
		t.Errorf("nil logger: got %v, %v", got, err)
	}

	rec := &recorder{}
	logger := auditlog.New(rec, zap.NewNop(), auditlog.Config{Content: auditlog.ModeLog})
	logger.MemberApproved(ctx, primitive.NewObjectID(), ann, "bob")
	logger.MemberApproved(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "cy")
	logger.ContentPublished(ctx, primitive.NewObjectID(), models.ContentRef{Kind: models.KindAnnouncement, ID: ann})

	got, err := logger.History(ctx, ann, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 1 || got[0].TargetHandle != "bob" {
		t.Errorf("expected only the stored team event for this announcement, got %+v", got)
	}
}
