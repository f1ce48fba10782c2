package userstore

import (
	"testing"

	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/disciplo/disciplo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName:     "  Ada Lovelace  ",
		Email:        "Ada@Example.COM ",
		PasswordHash: "hash",
		Role:         "member",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Email != "ada@example.com" {
		t.Errorf("email not normalized: %q", created.Email)
	}
	if created.FullName != "Ada Lovelace" {
		t.Errorf("name not trimmed: %q", created.FullName)
	}
	if created.Approved {
		t.Error("new member should start unapproved")
	}

	_, err = store.Create(ctx, models.User{
		FullName:     "Other",
		Email:        "ADA@example.com",
		PasswordHash: "hash",
		Role:         "member",
	})
	if err != ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestCreateRejectsBadRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{
		FullName: "X", Email: "x@example.com", PasswordHash: "h", Role: "superuser",
	}); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestApproveIsRaceSafe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	pending := fx.CreatePendingUser(ctx, "Pending", "pending@example.com")

	changed, err := store.Approve(ctx, pending.ID, admin.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if !changed {
		t.Fatal("first approval should report a state change")
	}

	// Second approval of the same account is the no-op loser.
	changed, err = store.Approve(ctx, pending.ID, admin.ID)
	if err != nil {
		t.Fatalf("second Approve failed: %v", err)
	}
	if changed {
		t.Error("second approval should not report a state change")
	}

	// Approving a purged account is the same benign outcome.
	changed, err = store.Approve(ctx, primitive.NewObjectID(), admin.ID)
	if err != nil {
		t.Fatalf("Approve of missing user failed: %v", err)
	}
	if changed {
		t.Error("approval of missing user should not report a change")
	}

	got, err := store.GetByID(ctx, pending.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Approved || got.ApprovedAt == nil || got.ApprovedBy == nil {
		t.Error("approval should stamp approved_at and approved_by")
	}
	if got.ApprovedBy != nil && *got.ApprovedBy != admin.ID {
		t.Errorf("approved_by = %s, want %s", got.ApprovedBy.Hex(), admin.ID.Hex())
	}
}

func TestSetTelegramLinkIsSetOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	member := fx.CreateMember(ctx, "Member", "member@example.com")

	if err := store.SetTelegramLink(ctx, member.ID, "12345", "member_tg"); err != nil {
		t.Fatalf("SetTelegramLink failed: %v", err)
	}
	if err := store.SetTelegramLink(ctx, member.ID, "99999", "other"); err != ErrAlreadyLinked {
		t.Errorf("relink should fail with ErrAlreadyLinked, got %v", err)
	}

	got, err := store.GetByTelegramID(ctx, "12345")
	if err != nil {
		t.Fatalf("GetByTelegramID failed: %v", err)
	}
	if got.ID != member.ID {
		t.Error("telegram lookup returned the wrong account")
	}
	if got.TelegramID == nil || *got.TelegramID != "12345" {
		t.Error("first link should have stuck")
	}

	if err := store.SetTelegramLink(ctx, primitive.NewObjectID(), "55555", "ghost"); err != mongo.ErrNoDocuments {
		t.Errorf("link of missing user should return ErrNoDocuments, got %v", err)
	}
}

func TestSetTelegramLinkRejectsTakenIdentity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateLinkedMember(ctx, "First", "first@example.com", "777")
	second := fx.CreateMember(ctx, "Second", "second@example.com")

	if err := store.SetTelegramLink(ctx, second.ID, "777", "dup"); err != ErrAlreadyLinked {
		t.Errorf("linking a taken telegram id should fail, got %v", err)
	}
}

func TestIsAdminReVerifiesRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	member := fx.CreateMember(ctx, "Member", "member@example.com")

	if ok, err := store.IsAdmin(ctx, admin.ID); err != nil || !ok {
		t.Errorf("IsAdmin(admin) = %v, %v; want true", ok, err)
	}
	if ok, err := store.IsAdmin(ctx, member.ID); err != nil || ok {
		t.Errorf("IsAdmin(member) = %v, %v; want false", ok, err)
	}
	if ok, err := store.IsAdmin(ctx, primitive.NewObjectID()); err != nil || ok {
		t.Errorf("IsAdmin(missing) = %v, %v; want false", ok, err)
	}
}

func TestListAndCountPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateMember(ctx, "Approved", "approved@example.com")
	fx.CreatePendingUser(ctx, "P One", "p1@example.com")
	fx.CreatePendingUser(ctx, "P Two", "p2@example.com")

	pending, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("ListPending returned %d users, want 2", len(pending))
	}

	n, err := store.CountPending(ctx)
	if err != nil {
		t.Fatalf("CountPending failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CountPending = %d, want 2", n)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreatePendingUser(ctx, "Doomed", "doomed@example.com")

	deleted, err := store.Delete(ctx, u.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v; want true", deleted, err)
	}
	deleted, err = store.Delete(ctx, u.ID)
	if err != nil || deleted {
		t.Errorf("second Delete = %v, %v; want false, nil", deleted, err)
	}
}
