package logbookstore

import (
	"testing"
	"time"

	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/disciplo/disciplo/internal/testutil"
)

func TestCreateUpdateDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fx.CreateGroup(ctx, "Group")
	author := fx.CreateMember(ctx, "Author", "a@example.com")

	e, err := store.Create(ctx, models.LogbookEntry{
		GroupID:  g.ID,
		AuthorID: author.ID,
		Title:    "Kickoff",
		Content:  "First meeting notes.",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if e.MeetingDate.IsZero() {
		t.Error("meeting date should default to now")
	}

	updated, err := store.Update(ctx, e.ID, "Kickoff (edited)", "Revised notes.", e.MeetingDate)
	if err != nil || !updated {
		t.Fatalf("Update = %v, %v; want true", updated, err)
	}

	got, err := store.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Kickoff (edited)" {
		t.Errorf("title = %q after update", got.Title)
	}

	deleted, err := store.Delete(ctx, e.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v; want true", deleted, err)
	}
	deleted, err = store.Delete(ctx, e.ID)
	if err != nil || deleted {
		t.Errorf("second Delete = %v, %v; want false, nil", deleted, err)
	}
}

func TestListByGroupNewestMeetingFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fx.CreateGroup(ctx, "Group")
	author := fx.CreateMember(ctx, "Author", "a@example.com")

	old := time.Now().UTC().AddDate(0, 0, -7)
	if _, err := store.Create(ctx, models.LogbookEntry{
		GroupID: g.ID, AuthorID: author.ID, Title: "Old", Content: "x", MeetingDate: old,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.LogbookEntry{
		GroupID: g.ID, AuthorID: author.ID, Title: "Recent", Content: "y",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	entries, err := store.ListByGroup(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListByGroup returned %d entries, want 2", len(entries))
	}
	if entries[0].Title != "Recent" {
		t.Errorf("entries should sort newest meeting first, got %q first", entries[0].Title)
	}
}
