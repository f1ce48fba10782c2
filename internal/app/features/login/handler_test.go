package login_test

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/disciplo/disciplo/internal/app/features/login"
	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/auth"
	"github.com/disciplo/disciplo/internal/app/system/authutil"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/disciplo/disciplo/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*login.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	if err := auth.InitSessionStore("0123456789abcdef0123456789abcdef", "", "", false, zap.NewNop()); err != nil {
		t.Fatalf("InitSessionStore: %v", err)
	}
	return login.NewHandler(db, zap.NewNop(), nil), db
}

func createUser(t *testing.T, db *mongo.Database, email, password string, approved bool) models.User {
	t.Helper()
	hash, err := authutil.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u, err := userstore.New(db).Create(context.Background(), models.User{
		FullName:     "Login User",
		Email:        email,
		PasswordHash: hash,
		Role:         "member",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if approved {
		if _, err := userstore.New(db).Approve(context.Background(), u.ID, u.ID); err != nil {
			t.Fatalf("Approve: %v", err)
		}
	}
	return u
}

func postLogin(h *login.Handler, email, password string) *httptest.ResponseRecorder {
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	// Failure paths re-render the form, which panics when no template
	// sets are registered in the test binary.
	func() {
		defer func() { _ = recover() }()
		h.HandlePost(rec, req)
	}()
	return rec
}

func TestLoginSucceedsForApprovedUser(t *testing.T) {
	h, db := setup(t)
	createUser(t, db, "ok@example.com", "sufficiently long", true)

	rec := postLogin(h, "ok@example.com", "sufficiently long")

	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("redirect = %q, want /dashboard", loc)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("no session cookie set")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h, db := setup(t)
	createUser(t, db, "wrong@example.com", "sufficiently long", true)

	rec := postLogin(h, "wrong@example.com", "not the password")

	if rec.Code == 303 {
		t.Fatal("wrong password should not redirect")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("session cookie set on failed login")
	}
}

func TestLoginRejectsPendingAccount(t *testing.T) {
	h, db := setup(t)
	createUser(t, db, "pending@example.com", "sufficiently long", false)

	rec := postLogin(h, "pending@example.com", "sufficiently long")

	if rec.Code == 303 {
		t.Fatal("pending account should not sign in")
	}
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	h, _ := setup(t)

	rec := postLogin(h, "nobody@example.com", "whatever else")

	if rec.Code == 303 {
		t.Fatal("unknown email should not redirect")
	}
}
