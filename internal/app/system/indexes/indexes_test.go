package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/system/indexes"
	"github.com/dalemusser/collabhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, coll *mongo.Collection) map[string]bool {
	t.Helper()
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"members":       {"uniq_members_handle_ci"},
		"profiles":      {"uniq_profiles_member"},
		"updates":       {"idx_updates_owner_created", "idx_updates_created"},
		"announcements": {"idx_announcements_owner_created", "idx_announcements_created"},
		"audit_events":  {"idx_audit_timestamp", "idx_audit_content_timestamp"},
	}
	for coll, want := range expected {
		names := indexNames(t, ctx, db.Collection(coll))
		for _, n := range want {
			if !names[n] {
				t.Errorf("expected index %q on %s", n, coll)
			}
		}
	}
}

func TestEnsureAll_UniqueHandle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	c := db.Collection("members")
	if _, err := c.InsertOne(ctx, bson.M{"handle": "Ada", "handle_ci": "ada"}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err := c.InsertOne(ctx, bson.M{"handle": "ADA", "handle_ci": "ada"})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error, got %v", err)
	}
}
