// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Modes for each category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config selects where each category is written.
type Config struct {
	Team    string
	Content string
}

// EventStore persists and reads back audit events. *audit.Store and
// *memory.Store satisfy it.
type EventStore interface {
	Log(ctx context.Context, event audit.Event) error
	GetByContent(ctx context.Context, contentID primitive.ObjectID, limit int64) ([]audit.Event, error)
}

// Logger writes audit events to the event store and to zap.
// A nil *Logger is a no-op.
type Logger struct {
	store  EventStore
	zapLog *zap.Logger
	config Config
}

func New(store EventStore, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.TargetHandle != "" {
		fields = append(fields, zap.String("target", event.TargetHandle))
	}
	if event.ContentID != nil {
		fields = append(fields,
			zap.String("content_kind", event.ContentKind),
			zap.String("content_id", event.ContentID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log routes event according to the mode configured for its category.
// Unknown categories are written everywhere.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := ModeAll
	switch event.Category {
	case audit.CategoryTeam:
		setting = l.config.Team
	case audit.CategoryContent:
		setting = l.config.Content
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// History returns up to limit stored events for one content item, most
// recent first. Events routed only to zap are not included. A nil Logger
// or one without a store has no history.
func (l *Logger) History(ctx context.Context, contentID primitive.ObjectID, limit int64) ([]audit.Event, error) {
	if l == nil || l.store == nil {
		return []audit.Event{}, nil
	}
	return l.store.GetByContent(ctx, contentID, limit)
}

// --- Team events ---

func (l *Logger) MemberApproved(ctx context.Context, actorID, announcementID primitive.ObjectID, target string) {
	l.Log(ctx, teamEvent(audit.EventTeamMemberApproved, actorID, announcementID, target, ""))
}

func (l *Logger) MemberApproveDenied(ctx context.Context, actorID, announcementID primitive.ObjectID, target, reason string) {
	l.Log(ctx, teamEvent(audit.EventTeamMemberApproveDenied, actorID, announcementID, target, reason))
}

func (l *Logger) MemberRemoved(ctx context.Context, actorID, announcementID primitive.ObjectID, target string) {
	l.Log(ctx, teamEvent(audit.EventTeamMemberRemoved, actorID, announcementID, target, ""))
}

func (l *Logger) MemberRemoveDenied(ctx context.Context, actorID, announcementID primitive.ObjectID, target, reason string) {
	l.Log(ctx, teamEvent(audit.EventTeamMemberRemoveDenied, actorID, announcementID, target, reason))
}

func teamEvent(eventType string, actorID, announcementID primitive.ObjectID, target, reason string) audit.Event {
	return audit.Event{
		Category:      audit.CategoryTeam,
		EventType:     eventType,
		ActorID:       &actorID,
		TargetHandle:  target,
		ContentKind:   string(models.KindAnnouncement),
		ContentID:     &announcementID,
		Success:       reason == "",
		FailureReason: reason,
	}
}

// --- Content events ---

// ContentPublished records a new update or announcement.
func (l *Logger) ContentPublished(ctx context.Context, actorID primitive.ObjectID, ref models.ContentRef) {
	et := audit.EventUpdatePublished
	if ref.Kind == models.KindAnnouncement {
		et = audit.EventAnnouncementPublished
	}
	l.Log(ctx, contentEvent(et, actorID, ref))
}

// ContentDeleted records an owner delete.
func (l *Logger) ContentDeleted(ctx context.Context, actorID primitive.ObjectID, ref models.ContentRef) {
	et := audit.EventUpdateDeleted
	if ref.Kind == models.KindAnnouncement {
		et = audit.EventAnnouncementDeleted
	}
	l.Log(ctx, contentEvent(et, actorID, ref))
}

func contentEvent(eventType string, actorID primitive.ObjectID, ref models.ContentRef) audit.Event {
	id := ref.ID
	return audit.Event{
		Category:    audit.CategoryContent,
		EventType:   eventType,
		ActorID:     &actorID,
		ContentKind: string(ref.Kind),
		ContentID:   &id,
		Success:     true,
	}
}
