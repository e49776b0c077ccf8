// internal/app/store/profiles/profilestore.go
package profilestore

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

type Store struct {
	c *mongo.Collection
}

var _ store.ProfileSource = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// Upsert writes the editable profile fields for p.MemberID, creating the
// profile if it does not exist. Follow sets are left alone.
func (s *Store) Upsert(ctx context.Context, p models.Profile) (models.Profile, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"headline":     p.Headline,
			"bio":          p.Bio,
			"avatar_url":   p.AvatarURL,
			"education":    p.Education,
			"experience":   p.Experience,
			"certificates": p.Certificates,
			"skills":       p.Skills,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.Profile
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"member_id": p.MemberID}, update, opts).Decode(&out); err != nil {
		return models.Profile{}, err
	}
	return out, nil
}

// GetByMember returns the profile for memberID or store.ErrNotFound.
func (s *Store) GetByMember(ctx context.Context, memberID primitive.ObjectID) (models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"member_id": memberID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Profile{}, store.ErrNotFound
		}
		return models.Profile{}, err
	}
	return p, nil
}

// FindProfiles loads the profiles that exist for memberIDs in one query.
func (s *Store) FindProfiles(ctx context.Context, memberIDs []primitive.ObjectID) ([]models.Profile, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"member_id": bson.M{"$in": memberIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Profile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToggleFollow flips followerID in target's followers with one pipeline
// update (upserting the target profile), then mirrors the outcome onto the
// follower's following set with an idempotent $addToSet or $pull.
func (s *Store) ToggleFollow(ctx context.Context, followerID, targetID primitive.ObjectID) (bool, error) {
	now := time.Now().UTC()
	followers := bson.M{"$ifNull": bson.A{"$followers", bson.A{}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "followers", Value: bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{followerID, followers}},
				bson.M{"$filter": bson.M{
					"input": followers,
					"cond":  bson.M{"$ne": bson.A{"$$this", followerID}},
				}},
				bson.M{"$concatArrays": bson.A{followers, bson.A{followerID}}},
			}}},
			{Key: "created_at", Value: bson.M{"$ifNull": bson.A{"$created_at", now}}},
			{Key: "updated_at", Value: now},
		}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var target models.Profile
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"member_id": targetID}, pipeline, opts).Decode(&target); err != nil {
		return false, err
	}

	following := false
	for _, id := range target.Followers {
		if id == followerID {
			following = true
			break
		}
	}

	op := "$pull"
	if following {
		op = "$addToSet"
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"member_id": followerID}, bson.M{
		op:             bson.M{"following": targetID},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return following, nil
}
