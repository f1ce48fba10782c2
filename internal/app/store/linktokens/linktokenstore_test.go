package linktokenstore

import (
	"testing"
	"time"

	"github.com/disciplo/disciplo/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIssueReplacesPreviousTokens(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateMember(ctx, "Member", "m@example.com")

	first, err := store.Issue(ctx, u.ID, 0)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	second, err := store.Issue(ctx, u.ID, 0)
	if err != nil {
		t.Fatalf("second Issue failed: %v", err)
	}
	if first.Token == second.Token {
		t.Error("tokens should be unique per issue")
	}

	// Only the newest token is redeemable.
	if _, err := store.Consume(ctx, first.Token); err != mongo.ErrNoDocuments {
		t.Errorf("stale token should be gone, got %v", err)
	}
	got, err := store.Consume(ctx, second.Token)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if got.UserID != u.ID {
		t.Error("consumed token should carry the issuing user")
	}
}

func TestConsumeIsSingleUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateMember(ctx, "Member", "m@example.com")
	tok, err := store.Issue(ctx, u.ID, time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := store.Consume(ctx, tok.Token); err != nil {
		t.Fatalf("first Consume failed: %v", err)
	}
	if _, err := store.Consume(ctx, tok.Token); err != mongo.ErrNoDocuments {
		t.Errorf("second Consume should fail with ErrNoDocuments, got %v", err)
	}
}

func TestConsumeRejectsExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateMember(ctx, "Member", "m@example.com")
	tok, err := store.Issue(ctx, u.ID, time.Nanosecond)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := store.Consume(ctx, tok.Token); err != mongo.ErrNoDocuments {
		t.Errorf("expired token should not redeem, got %v", err)
	}

	n, err := store.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	// The failed Consume leaves the expired row in place; the sweep takes it.
	if n != 1 {
		t.Errorf("DeleteExpired removed %d tokens, want 1", n)
	}
}

func TestDeleteByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateMember(ctx, "Member", "m@example.com")
	other := fx.CreateMember(ctx, "Other", "o@example.com")
	if _, err := store.Issue(ctx, u.ID, time.Minute); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	kept, err := store.Issue(ctx, other.ID, time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	n, err := store.DeleteByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("DeleteByUser failed: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteByUser removed %d tokens, want 1", n)
	}
	if _, err := store.Consume(ctx, kept.Token); err != nil {
		t.Errorf("other user's token should survive, got %v", err)
	}
}
