// internal/app/store/content/contentstore.go
package contentstore

// Terminology: Member References
//   - like sets hold member ObjectIDs (_id of the members collection)
//   - interested / team_members sets and comment authors hold member handles

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/collabhub/internal/app/store"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the MongoDB ContentRepository.
type Store struct {
	updates       *mongo.Collection
	announcements *mongo.Collection
}

var _ store.ContentRepository = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		updates:       db.Collection("updates"),
		announcements: db.Collection("announcements"),
	}
}

func after() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// togglePipeline builds an update pipeline that removes value from the array
// at field when present and appends it otherwise. The whole toggle runs as one
// document update on the server, so concurrent toggles by different members
// cannot lose each other's writes.
func togglePipeline(field string, value any, now time.Time) mongo.Pipeline {
	arr := bson.M{"$ifNull": bson.A{"$" + field, bson.A{}}}
	lit := bson.M{"$literal": value}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: field, Value: bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{lit, arr}},
				bson.M{"$filter": bson.M{
					"input": arr,
					"cond":  bson.M{"$ne": bson.A{"$$this", lit}},
				}},
				bson.M{"$concatArrays": bson.A{arr, bson.A{lit}}},
			}}},
			{Key: "updated_at", Value: now},
		}}},
	}
}

/* -------------------------------------------------------------------------- */
/* Updates                                                                    */
/* -------------------------------------------------------------------------- */

// CreateUpdate inserts u with empty engagement sets.
func (s *Store) CreateUpdate(ctx context.Context, u models.Update) (models.Update, error) {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt
	if u.Likes == nil {
		u.Likes = []primitive.ObjectID{}
	}
	if u.Comments == nil {
		u.Comments = []models.Comment{}
	}
	if _, err := s.updates.InsertOne(ctx, u); err != nil {
		return models.Update{}, err
	}
	return u, nil
}

func (s *Store) GetUpdate(ctx context.Context, id primitive.ObjectID) (models.Update, error) {
	var u models.Update
	if err := s.updates.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.Update{}, notFound(err)
	}
	return u, nil
}

// ListUpdates returns all updates in insertion (_id) order.
func (s *Store) ListUpdates(ctx context.Context) ([]models.Update, error) {
	cur, err := s.updates.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Update
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteUpdate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.updates.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ToggleUpdateLike(ctx context.Context, id, memberID primitive.ObjectID) (models.Update, error) {
	var u models.Update
	err := s.updates.FindOneAndUpdate(ctx, bson.M{"_id": id},
		togglePipeline("likes", memberID, time.Now().UTC()), after()).Decode(&u)
	if err != nil {
		return models.Update{}, notFound(err)
	}
	return u, nil
}

func (s *Store) AppendUpdateComment(ctx context.Context, id primitive.ObjectID, c models.Comment) (models.Update, error) {
	var u models.Update
	err := s.updates.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}, after()).Decode(&u)
	if err != nil {
		return models.Update{}, notFound(err)
	}
	return u, nil
}

/* -------------------------------------------------------------------------- */
/* Announcements                                                              */
/* -------------------------------------------------------------------------- */

// CreateAnnouncement inserts a. Interest, likes and comments start empty;
// a.TeamMembers is stored as given, so callers pass canonical handles.
func (s *Store) CreateAnnouncement(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
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
	if _, err := s.announcements.InsertOne(ctx, a); err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

func (s *Store) GetAnnouncement(ctx context.Context, id primitive.ObjectID) (models.Announcement, error) {
	var a models.Announcement
	if err := s.announcements.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Announcement{}, notFound(err)
	}
	return a, nil
}

// ListAnnouncements returns all announcements in insertion (_id) order.
func (s *Store) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	return s.findAnnouncements(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// ListAnnouncementsByOwner returns up to limit of the owner's announcements,
// newest first. limit < 1 returns all of them.
func (s *Store) ListAnnouncementsByOwner(ctx context.Context, ownerID primitive.ObjectID, limit int) ([]models.Announcement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return s.findAnnouncements(ctx, bson.M{"owner_id": ownerID}, opts)
}

func (s *Store) findAnnouncements(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Announcement, error) {
	cur, err := s.announcements.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Announcement
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteAnnouncement(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.announcements.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ToggleAnnouncementLike(ctx context.Context, id, memberID primitive.ObjectID) (models.Announcement, error) {
	var a models.Announcement
	err := s.announcements.FindOneAndUpdate(ctx, bson.M{"_id": id},
		togglePipeline("likes", memberID, time.Now().UTC()), after()).Decode(&a)
	if err != nil {
		return models.Announcement{}, notFound(err)
	}
	return a, nil
}

func (s *Store) AppendAnnouncementComment(ctx context.Context, id primitive.ObjectID, c models.Comment) (models.Announcement, error) {
	var a models.Announcement
	err := s.announcements.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}, after()).Decode(&a)
	if err != nil {
		return models.Announcement{}, notFound(err)
	}
	return a, nil
}

// ToggleInterest flips handle's membership of the interested set. The filter
// excludes announcements where handle is already on the team, so a team
// member can never also appear as interested.
func (s *Store) ToggleInterest(ctx context.Context, id primitive.ObjectID, handle string) (models.Announcement, error) {
	var a models.Announcement
	err := s.announcements.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "team_members": bson.M{"$ne": handle}},
		togglePipeline("interested", handle, time.Now().UTC()), after()).Decode(&a)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Announcement{}, err
	}
	if _, gerr := s.GetAnnouncement(ctx, id); gerr != nil {
		return models.Announcement{}, gerr
	}
	return models.Announcement{}, store.ErrOnTeam
}

// ApproveMember pulls handle from interested and adds it to team_members in
// a single update. The filter requires handle to be interested at the moment
// of the write.
func (s *Store) ApproveMember(ctx context.Context, id, ownerID primitive.ObjectID, handle string) (models.Announcement, error) {
	var a models.Announcement
	err := s.announcements.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "owner_id": ownerID, "interested": handle},
		bson.M{
			"$pull":     bson.M{"interested": handle},
			"$addToSet": bson.M{"team_members": handle},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		}, after()).Decode(&a)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Announcement{}, err
	}
	return models.Announcement{}, s.diagnose(ctx, id, ownerID, store.ErrNotInterested)
}

// RemoveMember pulls handle from team_members. The member goes back to no
// state at all, not to interested.
func (s *Store) RemoveMember(ctx context.Context, id, ownerID primitive.ObjectID, handle string) (models.Announcement, error) {
	var a models.Announcement
	err := s.announcements.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "owner_id": ownerID, "team_members": handle},
		bson.M{
			"$pull": bson.M{"team_members": handle},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		}, after()).Decode(&a)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Announcement{}, err
	}
	return models.Announcement{}, s.diagnose(ctx, id, ownerID, store.ErrNotOnTeam)
}

// diagnose explains why a conditional team update matched nothing: the
// announcement is gone or owned by someone else (ErrNotFound), or the member
// precondition failed (stateErr).
func (s *Store) diagnose(ctx context.Context, id, ownerID primitive.ObjectID, stateErr error) error {
	a, err := s.GetAnnouncement(ctx, id)
	if err != nil {
		return err
	}
	if a.OwnerID != ownerID {
		return store.ErrNotFound
	}
	return stateErr
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}
