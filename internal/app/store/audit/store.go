// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryTeam    = "team"
	CategoryContent = "content"
)

// Team event types
const (
	EventTeamMemberApproved      = "team_member_approved"
	EventTeamMemberApproveDenied = "team_member_approve_denied"
	EventTeamMemberRemoved       = "team_member_removed"
	EventTeamMemberRemoveDenied  = "team_member_remove_denied"
)

// Content event types
const (
	EventUpdatePublished       = "update_published"
	EventUpdateDeleted         = "update_deleted"
	EventAnnouncementPublished = "announcement_published"
	EventAnnouncementDeleted   = "announcement_deleted"
)

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// Who
	ActorID      *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	TargetHandle string              `bson:"target_handle,omitempty" json:"target_handle,omitempty"` // affected member, for team events

	// What
	ContentKind string              `bson:"content_kind,omitempty" json:"content_kind,omitempty"`
	ContentID   *primitive.ObjectID `bson:"content_id,omitempty" json:"content_id,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// DefaultLimit caps GetByContent when no limit is given.
const DefaultLimit = 100

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// GetByContent returns up to limit events for one content item, most
// recent first. limit < 1 selects DefaultLimit.
func (s *Store) GetByContent(ctx context.Context, contentID primitive.ObjectID, limit int64) ([]Event, error) {
	if limit < 1 {
		limit = DefaultLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, bson.M{"content_id": contentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
