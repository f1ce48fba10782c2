package bootstrap

import (
	"testing"

	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/authutil"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/disciplo/disciplo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestEnsureAdminCreatesAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := ensureAdmin(ctx, db, "admin@disciplo.test", "a-strong-password", zap.NewNop()); err != nil {
		t.Fatalf("ensureAdmin: %v", err)
	}

	user, err := userstore.New(db).GetByEmail(ctx, "admin@disciplo.test")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if user.Role != "admin" {
		t.Errorf("role = %q, want admin", user.Role)
	}
	if !user.Approved || user.ApprovedAt == nil {
		t.Error("bootstrap admin must be approved with a timestamp")
	}
	if !authutil.CheckPassword(user.PasswordHash, "a-strong-password") {
		t.Error("password not usable")
	}
}

func TestEnsureAdminPromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hash, err := authutil.HashPassword("original-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	existing, err := userstore.New(db).Create(ctx, models.User{
		FullName:     "Future Admin",
		Email:        "promote@disciplo.test",
		PasswordHash: hash,
		Role:         "member",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := ensureAdmin(ctx, db, "promote@disciplo.test", "", zap.NewNop()); err != nil {
		t.Fatalf("ensureAdmin: %v", err)
	}

	user, err := userstore.New(db).GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.Role != "admin" || !user.Approved {
		t.Errorf("account not promoted: role=%q approved=%v", user.Role, user.Approved)
	}
	if !authutil.CheckPassword(user.PasswordHash, "original-pass") {
		t.Error("promotion must not touch the password")
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := ensureAdmin(ctx, db, "admin@disciplo.test", "a-strong-password", zap.NewNop()); err != nil {
		t.Fatalf("first ensureAdmin: %v", err)
	}
	if err := ensureAdmin(ctx, db, "admin@disciplo.test", "", zap.NewNop()); err != nil {
		t.Fatalf("second ensureAdmin: %v", err)
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": "admin@disciplo.test"})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 1 {
		t.Errorf("admin count = %d, want 1", n)
	}
}

func TestEnsureAdminRequiresPasswordForNewAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := ensureAdmin(ctx, db, "missing@disciplo.test", "", zap.NewNop()); err == nil {
		t.Fatal("expected error when the account is missing and no password is configured")
	}
}
