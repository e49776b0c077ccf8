// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/collabhub/internal/app/store"
	"github.com/dalemusser/collabhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var _ store.MemberSource = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

// Create inserts a member, deriving HandleCI and defaulting the role.
// Returns store.ErrDuplicateHandle when the handle is already claimed.
func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	m.Handle = strings.TrimPrefix(strings.TrimSpace(m.Handle), "@")
	if !models.ValidHandle(m.Handle) {
		return models.Member{}, models.ErrBadMemberRef
	}
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.HandleCI = text.Fold(m.Handle)
	m.DisplayName = strings.TrimSpace(m.DisplayName)
	if m.Role == "" {
		m.Role = models.RoleMember
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, store.ErrDuplicateHandle
		}
		return models.Member{}, err
	}
	return m, nil
}

// GetMember loads the member ref points at.
func (s *Store) GetMember(ctx context.Context, ref models.MemberRef) (models.Member, error) {
	if ref.IsZero() {
		return models.Member{}, store.ErrNotFound
	}
	var m models.Member
	if err := s.c.FindOne(ctx, refFilter(ref)).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Member{}, store.ErrNotFound
		}
		return models.Member{}, err
	}
	return m, nil
}

// FindMembers resolves refs with a single query. Id and handle references may
// be mixed; duplicates are collapsed by the database.
func (s *Store) FindMembers(ctx context.Context, refs []models.MemberRef) ([]models.Member, error) {
	var ids []primitive.ObjectID
	var handles []string
	for _, r := range refs {
		switch {
		case r.IsID():
			ids = append(ids, r.ID)
		case r.Handle != "":
			handles = append(handles, r.HandleKey())
		}
	}
	if len(ids) == 0 && len(handles) == 0 {
		return nil, nil
	}

	var or bson.A
	if len(ids) > 0 {
		or = append(or, bson.M{"_id": bson.M{"$in": ids}})
	}
	if len(handles) > 0 {
		or = append(or, bson.M{"handle_ci": bson.M{"$in": handles}})
	}

	cur, err := s.c.Find(ctx, bson.M{"$or": or})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func refFilter(ref models.MemberRef) bson.M {
	if ref.IsID() {
		return bson.M{"_id": ref.ID}
	}
	return bson.M{"handle_ci": ref.HandleKey()}
}
