// Package storetest holds behavior tests every ContentRepository must pass.
// Implementations call ContentRepository from their own _test.go files.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/collabhub/internal/app/store"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Factory returns an empty repository for one subtest.
type Factory func(t *testing.T) store.ContentRepository

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// ContentRepository runs the shared behavior suite against newRepo.
func ContentRepository(t *testing.T, newRepo Factory) {
	t.Run("ToggleLikeIsInvolution", func(t *testing.T) { toggleLike(t, newRepo(t)) })
	t.Run("Comments", func(t *testing.T) { comments(t, newRepo(t)) })
	t.Run("InterestAndTeam", func(t *testing.T) { interestAndTeam(t, newRepo(t)) })
	t.Run("SeededTeam", func(t *testing.T) { seededTeam(t, newRepo(t)) })
	t.Run("OwnerGuard", func(t *testing.T) { ownerGuard(t, newRepo(t)) })
	t.Run("ListsAndDelete", func(t *testing.T) { listsAndDelete(t, newRepo(t)) })
	t.Run("NotFound", func(t *testing.T) { notFound(t, newRepo(t)) })
	t.Run("ConcurrentLikes", func(t *testing.T) { concurrentLikes(t, newRepo(t)) })
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

func announcement(t *testing.T, repo store.ContentRepository, owner primitive.ObjectID, topic string, at time.Time) models.Announcement {
	t.Helper()
	a, err := repo.CreateAnnouncement(ctx(t), models.Announcement{
		OwnerID: owner, Topic: topic, CoverImageURL: "/c.png",
		Category: models.CategoryProject, CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}
	return a
}

func toggleLike(t *testing.T, repo store.ContentRepository) {
	c := ctx(t)
	u, err := repo.CreateUpdate(c, models.Update{OwnerID: primitive.NewObjectID(), Body: "hi", CreatedAt: base})
	if err != nil {
		t.Fatalf("CreateUpdate: %v", err)
	}
	if u.Likes == nil || u.Comments == nil {
		t.Error("new update should carry empty, non-nil sets")
	}
	m := primitive.NewObjectID()

	u, err = repo.ToggleUpdateLike(c, u.ID, m)
	if err != nil || !u.LikedBy(m) || len(u.Likes) != 1 {
		t.Fatalf("first toggle: likes=%v err=%v", u.Likes, err)
	}
	u, err = repo.ToggleUpdateLike(c, u.ID, m)
	if err != nil || u.LikedBy(m) || len(u.Likes) != 0 {
		t.Fatalf("second toggle: likes=%v err=%v", u.Likes, err)
	}

	a := announcement(t, repo, primitive.NewObjectID(), "x", base)
	a, _ = repo.ToggleAnnouncementLike(c, a.ID, m)
	a, _ = repo.ToggleAnnouncementLike(c, a.ID, m)
	a, err = repo.ToggleAnnouncementLike(c, a.ID, m)
	if err != nil || !a.LikedBy(m) || len(a.Likes) != 1 {
		t.Errorf("three toggles should leave one like, got %v (%v)", a.Likes, err)
	}
}

func comments(t *testing.T, repo store.ContentRepository) {
	c := ctx(t)
	u, _ := repo.CreateUpdate(c, models.Update{OwnerID: primitive.NewObjectID(), Body: "hi", CreatedAt: base})
	for i, text := range []string{"one", "two"} {
		var err error
		u, err = repo.AppendUpdateComment(c, u.ID, models.Comment{ID: text, Author: "bob", Text: text, CreatedAt: base})
		if err != nil {
			t.Fatalf("AppendUpdateComment: %v", err)
		}
		if len(u.Comments) != i+1 || u.Comments[i].Text != text {
			t.Fatalf("comments = %+v", u.Comments)
		}
	}

	a := announcement(t, repo, primitive.NewObjectID(), "x", base)
	a, err := repo.AppendAnnouncementComment(c, a.ID, models.Comment{ID: "c", Author: "cy", Text: "yo", CreatedAt: base})
	if err != nil || len(a.Comments) != 1 || a.Comments[0].Author != "cy" {
		t.Errorf("announcement comments = %+v (%v)", a.Comments, err)
	}
}

func interestAndTeam(t *testing.T, repo store.ContentRepository) {
	c := ctx(t)
	owner := primitive.NewObjectID()
	a := announcement(t, repo, owner, "Build X", base)

	a, err := repo.ToggleInterest(c, a.ID, "bob")
	if err != nil || a.StateOf("bob") != models.TeamStateInterested {
		t.Fatalf("interest: %v %v", a.Interested, err)
	}

	if _, err := repo.ApproveMember(c, a.ID, owner, "cy"); !errors.Is(err, store.ErrNotInterested) {
		t.Errorf("approve uninterested: got %v", err)
	}

	a, err = repo.ApproveMember(c, a.ID, owner, "bob")
	if err != nil {
		t.Fatalf("ApproveMember: %v", err)
	}
	if len(a.Interested) != 0 || len(a.TeamMembers) != 1 || a.StateOf("bob") != models.TeamStateApproved {
		t.Fatalf("after approve: interested=%v team=%v", a.Interested, a.TeamMembers)
	}

	if _, err := repo.ToggleInterest(c, a.ID, "bob"); !errors.Is(err, store.ErrOnTeam) {
		t.Errorf("interest while on team: got %v", err)
	}
	if _, err := repo.ApproveMember(c, a.ID, owner, "bob"); !errors.Is(err, store.ErrNotInterested) {
		t.Errorf("second approve: got %v", err)
	}

	a, err = repo.RemoveMember(c, a.ID, owner, "bob")
	if err != nil || a.StateOf("bob") != models.TeamStateNone {
		t.Fatalf("RemoveMember: team=%v err=%v", a.TeamMembers, err)
	}
	if _, err := repo.RemoveMember(c, a.ID, owner, "bob"); !errors.Is(err, store.ErrNotOnTeam) {
		t.Errorf("second remove: got %v", err)
	}

	a, err = repo.ToggleInterest(c, a.ID, "bob")
	if err != nil || a.StateOf("bob") != models.TeamStateInterested {
		t.Errorf("re-entry: %v %v", a.Interested, err)
	}
	a, err = repo.ToggleInterest(c, a.ID, "bob")
	if err != nil || a.StateOf("bob") != models.TeamStateNone {
		t.Errorf("withdraw: %v %v", a.Interested, err)
	}
}

func ownerGuard(t *testing.T, repo store.ContentRepository) {
	c := ctx(t)
	owner := primitive.NewObjectID()
	a := announcement(t, repo, owner, "x", base)
	if _, err := repo.ToggleInterest(c, a.ID, "bob"); err != nil {
		t.Fatal(err)
	}

	other := primitive.NewObjectID()
	if _, err := repo.ApproveMember(c, a.ID, other, "bob"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("approve by non-owner: got %v", err)
	}
	got, _ := repo.GetAnnouncement(c, a.ID)
	if got.StateOf("bob") != models.TeamStateInterested {
		t.Errorf("non-owner approve changed state to %s", got.StateOf("bob"))
	}
}

func seededTeam(t *testing.T, repo store.ContentRepository) {
	c := ctx(t)
	owner := primitive.NewObjectID()
	a, err := repo.CreateAnnouncement(c, models.Announcement{
		OwnerID: owner, Topic: "seeded", CoverImageURL: "/c.png",
		Category: models.CategoryResearch, CreatedAt: base,
		TeamMembers: []string{"bob"},
	})
	if err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}
	got, err := repo.GetAnnouncement(c, a.ID)
	if err != nil || got.StateOf("bob") != models.TeamStateApproved || len(got.Interested) != 0 {
		t.Fatalf("seeded team not stored: team=%v interested=%v err=%v", got.TeamMembers, got.Interested, err)
	}
	if _, err := repo.ToggleInterest(c, a.ID, "bob"); !errors.Is(err, store.ErrOnTeam) {
		t.Errorf("interest from seeded member: got %v", err)
	}
	got, err = repo.RemoveMember(c, a.ID, owner, "bob")
	if err != nil || got.StateOf("bob") != models.TeamStateNone {
		t.Errorf("remove seeded member: state=%s err=%v", got.StateOf("bob"), err)
	}
}

func listsAndDelete(t *testing.T, repo store.ContentRepository) {
	c := ctx(t)
	owner := primitive.NewObjectID()
	first := announcement(t, repo, owner, "first", base)
	_ = announcement(t, repo, primitive.NewObjectID(), "other", base.Add(time.Minute))
	second := announcement(t, repo, owner, "second", base.Add(2*time.Minute))

	all, err := repo.ListAnnouncements(c)
	if err != nil || len(all) != 3 || all[0].ID != first.ID {
		t.Fatalf("ListAnnouncements: %d items, err %v", len(all), err)
	}
	mine, err := repo.ListAnnouncementsByOwner(c, owner, 0)
	if err != nil || len(mine) != 2 || mine[0].ID != second.ID || mine[1].ID != first.ID {
		t.Fatalf("ListAnnouncementsByOwner should be newest first, got %d items (%v)", len(mine), err)
	}
	newest, err := repo.ListAnnouncementsByOwner(c, owner, 1)
	if err != nil || len(newest) != 1 || newest[0].ID != second.ID {
		t.Fatalf("ListAnnouncementsByOwner with limit 1: got %d items (%v)", len(newest), err)
	}
	none, err := repo.ListAnnouncementsByOwner(c, primitive.NewObjectID(), 0)
	if err != nil || len(none) != 0 {
		t.Errorf("unknown owner: %d items (%v)", len(none), err)
	}

	u1, _ := repo.CreateUpdate(c, models.Update{OwnerID: owner, Body: "a", CreatedAt: base})
	u2, _ := repo.CreateUpdate(c, models.Update{OwnerID: owner, Body: "b", CreatedAt: base})
	ups, err := repo.ListUpdates(c)
	if err != nil || len(ups) != 2 || ups[0].ID != u1.ID || ups[1].ID != u2.ID {
		t.Fatalf("ListUpdates should keep insertion order (%v)", err)
	}

	if err := repo.DeleteUpdate(c, u1.ID); err != nil {
		t.Fatalf("DeleteUpdate: %v", err)
	}
	if err := repo.DeleteUpdate(c, u1.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: got %v", err)
	}
	if err := repo.DeleteAnnouncement(c, first.ID); err != nil {
		t.Fatalf("DeleteAnnouncement: %v", err)
	}
	if _, err := repo.GetAnnouncement(c, first.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("get after delete: got %v", err)
	}
}

func notFound(t *testing.T, repo store.ContentRepository) {
	c := ctx(t)
	id := primitive.NewObjectID()
	m := primitive.NewObjectID()

	checks := map[string]error{}
	_, checks["GetUpdate"] = repo.GetUpdate(c, id)
	_, checks["ToggleUpdateLike"] = repo.ToggleUpdateLike(c, id, m)
	_, checks["AppendUpdateComment"] = repo.AppendUpdateComment(c, id, models.Comment{ID: "x", Author: "a", Text: "t"})
	_, checks["GetAnnouncement"] = repo.GetAnnouncement(c, id)
	_, checks["ToggleAnnouncementLike"] = repo.ToggleAnnouncementLike(c, id, m)
	_, checks["ToggleInterest"] = repo.ToggleInterest(c, id, "bob")
	_, checks["ApproveMember"] = repo.ApproveMember(c, id, m, "bob")
	_, checks["RemoveMember"] = repo.RemoveMember(c, id, m, "bob")
	checks["DeleteAnnouncement"] = repo.DeleteAnnouncement(c, id)

	for op, err := range checks {
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("%s on missing item: got %v", op, err)
		}
	}
}

func concurrentLikes(t *testing.T, repo store.ContentRepository) {
	c := ctx(t)
	a := announcement(t, repo, primitive.NewObjectID(), "x", base)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.ToggleAnnouncementLike(c, a.ID, primitive.NewObjectID()); err != nil {
				t.Errorf("ToggleAnnouncementLike: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := repo.GetAnnouncement(c, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Likes) != n {
		t.Errorf("expected %d likes, got %d", n, len(got.Likes))
	}
}
