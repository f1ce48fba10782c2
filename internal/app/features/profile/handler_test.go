package profile_test

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/disciplo/disciplo/internal/app/features/profile"
	linktokenstore "github.com/disciplo/disciplo/internal/app/store/linktokens"
	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/auth"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/disciplo/disciplo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestUpdateSanitizesAndSaves(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := context.Background()

	member := fx.CreateMember(ctx, "Edith", "edith@example.com")
	h := profile.NewHandler(db, zap.NewNop(), "disciplo_bot")

	form := url.Values{
		"bio":  {`Runner <script>alert("x")</script> and reader`},
		"city": {"Lisbon"},
	}
	req := httptest.NewRequest("POST", "/profile", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: member.ID.Hex(), Name: member.FullName, Email: member.Email, Role: member.Role,
	})
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	user, err := userstore.New(db).GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if strings.Contains(user.Bio, "<script>") {
		t.Errorf("bio not sanitized: %q", user.Bio)
	}
	if user.City != "Lisbon" {
		t.Errorf("city = %q, want Lisbon", user.City)
	}
}

func TestIssueLinkTokenCreatesOneShotToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := context.Background()

	member := fx.CreateMember(ctx, "Linker", "linker@example.com")
	h := profile.NewHandler(db, zap.NewNop(), "@disciplo_bot")

	req := httptest.NewRequest("POST", "/profile/telegram-link", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: member.ID.Hex(), Name: member.FullName, Email: member.Email, Role: member.Role,
	})
	rec := httptest.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		h.HandleIssueLinkToken(rec, req)
	}()

	var token models.LinkToken
	if err := db.Collection("link_tokens").FindOne(ctx, bson.M{"user_id": member.ID}).Decode(&token); err != nil {
		t.Fatalf("token not issued: %v", err)
	}
	if token.Token == "" {
		t.Error("empty token value")
	}
	if _, err := linktokenstore.New(db).Consume(ctx, token.Token); err != nil {
		t.Fatalf("Consume: %v", err)
	}
}

func TestIssueLinkTokenRefusedWhenAlreadyLinked(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := context.Background()

	member := fx.CreateLinkedMember(ctx, "Linked", "linked@example.com", "777001")
	h := profile.NewHandler(db, zap.NewNop(), "disciplo_bot")

	req := httptest.NewRequest("POST", "/profile/telegram-link", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: member.ID.Hex(), Name: member.FullName, Email: member.Email, Role: member.Role,
	})
	rec := httptest.NewRecorder()
	h.HandleIssueLinkToken(rec, req)

	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303 redirect back to profile", rec.Code)
	}
	n, err := db.Collection("link_tokens").CountDocuments(ctx, bson.M{"user_id": member.ID})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 0 {
		t.Errorf("token count = %d, want 0", n)
	}
}
