package battleplans_test

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/disciplo/disciplo/internal/app/features/battleplans"
	battleplanstore "github.com/disciplo/disciplo/internal/app/store/battleplans"
	"github.com/disciplo/disciplo/internal/app/system/auth"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/disciplo/disciplo/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func fullForm(title string) url.Values {
	return url.Values{
		"title":                   {title},
		"priority":                {"Get up earlier"},
		"duration":                {"60"},
		"objective_interiority":   {"Morning reflection"},
		"routines_interiority":    {"Journal\nRead 10 pages"},
		"objective_relationships": {"Weekly family call"},
		"objective_resources":     {"Track spending"},
		"objective_health":        {"Run three times a week"},
		"routines_health":         {"Run\n\nStretch"},
	}
}

func postCreate(t *testing.T, h *battleplans.Handler, user models.User, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/battleplans/new", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: user.ID.Hex(), Name: user.FullName, Email: user.Email, Role: user.Role,
	})
	rec := httptest.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		h.HandleCreate(rec, req)
	}()
	return rec
}

func TestCreateBuildsFourPillarPlan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := context.Background()

	member := fx.CreateMember(ctx, "Planner", "planner@example.com")
	h := battleplans.NewHandler(db, zap.NewNop())

	rec := postCreate(t, h, member, fullForm("Spring push"))
	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303", rec.Code)
	}

	plan, err := battleplanstore.New(db).GetActiveByUser(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetActiveByUser: %v", err)
	}
	if plan.Duration != 60 {
		t.Errorf("duration = %d, want 60", plan.Duration)
	}
	if len(plan.Pillars) != 4 {
		t.Fatalf("pillar count = %d, want 4", len(plan.Pillars))
	}
	want := plan.StartDate.AddDate(0, 0, 60)
	if !plan.EndDate.Equal(want) {
		t.Errorf("end date = %v, want %v", plan.EndDate, want)
	}
	for _, p := range plan.Pillars {
		if p.Type == models.PillarHealth && len(p.Routines) != 2 {
			t.Errorf("health routines = %d, want 2 (blank lines skipped)", len(p.Routines))
		}
	}
}

func TestCreateDeactivatesPreviousPlan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := context.Background()

	member := fx.CreateMember(ctx, "Planner", "planner@example.com")
	h := battleplans.NewHandler(db, zap.NewNop())

	if rec := postCreate(t, h, member, fullForm("First")); rec.Code != 303 {
		t.Fatalf("first create status = %d", rec.Code)
	}
	if rec := postCreate(t, h, member, fullForm("Second")); rec.Code != 303 {
		t.Fatalf("second create status = %d", rec.Code)
	}

	store := battleplanstore.New(db)
	active, err := store.GetActiveByUser(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetActiveByUser: %v", err)
	}
	if active.Title != "Second" {
		t.Errorf("active plan = %q, want Second", active.Title)
	}
	all, err := store.ListByUser(ctx, member.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	activeCount := 0
	for _, p := range all {
		if p.IsActive {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Errorf("active plans = %d, want exactly 1", activeCount)
	}
}

func TestCreateRejectsBadDuration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := context.Background()

	member := fx.CreateMember(ctx, "Planner", "planner@example.com")
	h := battleplans.NewHandler(db, zap.NewNop())

	form := fullForm("Odd plan")
	form.Set("duration", "45")
	postCreate(t, h, member, form)

	if _, err := battleplanstore.New(db).GetActiveByUser(ctx, member.ID); err != mongo.ErrNoDocuments {
		t.Fatalf("plan should not exist, got err=%v", err)
	}
}

func TestDeleteOnlyTouchesOwnPlans(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := context.Background()

	owner := fx.CreateMember(ctx, "Owner", "owner@example.com")
	other := fx.CreateMember(ctx, "Other", "other@example.com")
	h := battleplans.NewHandler(db, zap.NewNop())

	if rec := postCreate(t, h, owner, fullForm("Mine")); rec.Code != 303 {
		t.Fatalf("create status = %d", rec.Code)
	}
	plan, err := battleplanstore.New(db).GetActiveByUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetActiveByUser: %v", err)
	}

	req := httptest.NewRequest("POST", "/battleplans/x/delete", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: other.ID.Hex(), Name: other.FullName, Email: other.Email, Role: other.Role,
	})
	req = testutil.WithChiURLParam(req, "id", plan.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if _, err := battleplanstore.New(db).GetByID(ctx, plan.ID); err != nil {
		t.Fatalf("plan should survive a stranger's delete, got err=%v", err)
	}
}
