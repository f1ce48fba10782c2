package groups_test

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/disciplo/disciplo/internal/app/features/groups"
	groupstore "github.com/disciplo/disciplo/internal/app/store/groups"
	logbookstore "github.com/disciplo/disciplo/internal/app/store/logbook"
	membershipstore "github.com/disciplo/disciplo/internal/app/store/memberships"
	"github.com/disciplo/disciplo/internal/app/system/auth"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/disciplo/disciplo/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type harness struct {
	handler *groups.Handler
	db      *mongo.Database
	fx      *testutil.Fixtures
}

func setup(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return &harness{
		handler: groups.NewHandler(db, zap.NewNop(), nil),
		db:      db,
		fx:      testutil.NewFixtures(t, db),
	}
}

func TestJoinCreatesMembership(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	member := h.fx.CreateMember(ctx, "Joiner", "joiner@example.com")
	group := h.fx.CreateGroup(ctx, "Local Crew")

	req := httptest.NewRequest("POST", "/groups/x/join", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: member.ID.Hex(), Name: member.FullName, Email: member.Email, Role: member.Role,
	})
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	rec := httptest.NewRecorder()
	h.handler.HandleJoin(rec, req)

	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	exists, err := membershipstore.New(h.db).Exists(ctx, group.ID, member.ID)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("membership not created")
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	member := h.fx.CreateMember(ctx, "Repeat", "repeat@example.com")
	group := h.fx.CreateGroup(ctx, "Local Crew")
	h.fx.CreateMembership(ctx, group.ID, member.ID, models.MembershipRoleMember)

	req := httptest.NewRequest("POST", "/groups/x/join", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: member.ID.Hex(), Name: member.FullName, Email: member.Email, Role: member.Role,
	})
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	rec := httptest.NewRecorder()
	h.handler.HandleJoin(rec, req)

	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	n, err := membershipstore.New(h.db).CountByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("CountByGroup: %v", err)
	}
	if n != 1 {
		t.Errorf("membership count = %d, want 1", n)
	}
}

func TestJoinRespectsMemberLimit(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	group, err := groupstore.New(h.db).Create(ctx, models.Group{
		Name: "Tiny Group", Type: models.GroupTypeLocal, MaxMembers: 1,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	first := h.fx.CreateMember(ctx, "First", "first@example.com")
	h.fx.CreateMembership(ctx, group.ID, first.ID, models.MembershipRoleMember)

	late := h.fx.CreateMember(ctx, "Late", "late@example.com")
	req := httptest.NewRequest("POST", "/groups/x/join", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: late.ID.Hex(), Name: late.FullName, Email: late.Email, Role: late.Role,
	})
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	rec := httptest.NewRecorder()
	h.handler.HandleJoin(rec, req)

	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	exists, err := membershipstore.New(h.db).Exists(ctx, group.ID, late.ID)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("join should be refused when the group is full")
	}
}

func TestLeaveRemovesMembership(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	member := h.fx.CreateMember(ctx, "Leaver", "leaver@example.com")
	group := h.fx.CreateGroup(ctx, "Local Crew")
	h.fx.CreateMembership(ctx, group.ID, member.ID, models.MembershipRoleMember)

	req := httptest.NewRequest("POST", "/groups/x/leave", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: member.ID.Hex(), Name: member.FullName, Email: member.Email, Role: member.Role,
	})
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	rec := httptest.NewRecorder()
	h.handler.HandleLeave(rec, req)

	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	exists, err := membershipstore.New(h.db).Exists(ctx, group.ID, member.ID)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("membership not removed")
	}
}

func TestCreateRequiresStoredAdminRole(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	// Session claims admin but the stored role is member.
	impostor := h.fx.CreateMember(ctx, "Impostor", "impostor@example.com")

	form := url.Values{"name": {"Sneaky Group"}, "type": {"local"}}
	req := httptest.NewRequest("POST", "/groups/new", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: impostor.ID.Hex(), Name: impostor.FullName, Email: impostor.Email, Role: "admin",
	})
	rec := httptest.NewRecorder()
	h.handler.HandleCreate(rec, req)

	if rec.Code != 403 {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	all, err := groupstore.New(h.db).List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("group count = %d, want 0", len(all))
	}
}

func TestCreateInsertsGroup(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	admin := h.fx.CreateAdmin(ctx, "Admin", "admin@example.com")

	form := url.Values{
		"name":        {"  Night   Owls "},
		"type":        {"online"},
		"description": {"Late sessions"},
		"max_members": {"12"},
	}
	req := httptest.NewRequest("POST", "/groups/new", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: admin.ID.Hex(), Name: admin.FullName, Email: admin.Email, Role: admin.Role,
	})
	rec := httptest.NewRecorder()
	h.handler.HandleCreate(rec, req)

	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	all, err := groupstore.New(h.db).List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("group count = %d, want 1", len(all))
	}
	g := all[0]
	if g.Name != "Night Owls" {
		t.Errorf("name = %q, want normalized %q", g.Name, "Night Owls")
	}
	if g.MaxMembers != 12 {
		t.Errorf("max members = %d, want 12", g.MaxMembers)
	}
}

func TestAddMemberByEmail(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	group := h.fx.CreateGroup(ctx, "Roster")
	leader := h.fx.CreateMember(ctx, "Leader", "leader@example.com")
	h.fx.CreateMembership(ctx, group.ID, leader.ID, models.MembershipRoleAdmin)
	joiner := h.fx.CreateLinkedMember(ctx, "Joiner", "joiner@example.com", "810001")

	form := url.Values{"email": {"joiner@example.com"}}
	req := httptest.NewRequest("POST", "/groups/x/members", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: leader.ID.Hex(), Name: leader.FullName, Email: leader.Email, Role: "group_admin",
	})
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	rec := httptest.NewRecorder()
	h.handler.HandleAddMember(rec, req)

	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	exists, err := membershipstore.New(h.db).Exists(ctx, group.ID, joiner.ID)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("approved member should be added to the roster")
	}
}

func TestAddMemberRefusesPendingAccount(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	group := h.fx.CreateGroup(ctx, "Roster")
	admin := h.fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	pending := h.fx.CreatePendingUser(ctx, "Pending", "pending@example.com")

	form := url.Values{"email": {"pending@example.com"}}
	req := httptest.NewRequest("POST", "/groups/x/members", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: admin.ID.Hex(), Name: admin.FullName, Email: admin.Email, Role: admin.Role,
	})
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	rec := httptest.NewRecorder()
	h.handler.HandleAddMember(rec, req)

	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	exists, err := membershipstore.New(h.db).Exists(ctx, group.ID, pending.ID)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("pending accounts must not be added to a roster")
	}
}

func TestRemoveMemberRequiresManager(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	group := h.fx.CreateGroup(ctx, "Roster")
	target := h.fx.CreateMember(ctx, "Target", "target@example.com")
	h.fx.CreateMembership(ctx, group.ID, target.ID, models.MembershipRoleMember)
	outsider := h.fx.CreateMember(ctx, "Outsider", "outsider@example.com")

	req := httptest.NewRequest("POST", "/groups/x/members/y/remove", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: outsider.ID.Hex(), Name: outsider.FullName, Email: outsider.Email, Role: outsider.Role,
	})
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	req = testutil.WithChiURLParam(req, "userID", target.ID.Hex())
	rec := httptest.NewRecorder()
	h.handler.HandleRemoveMember(rec, req)

	if rec.Code != 403 {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	exists, err := membershipstore.New(h.db).Exists(ctx, group.ID, target.ID)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("membership should survive an unauthorized removal attempt")
	}
}

func TestDeleteCascades(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	admin := h.fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	member := h.fx.CreateMember(ctx, "Member", "member@example.com")
	group := h.fx.CreateGroup(ctx, "Doomed")
	h.fx.CreateMembership(ctx, group.ID, member.ID, models.MembershipRoleMember)
	if _, err := logbookstore.New(h.db).Create(ctx, models.LogbookEntry{
		GroupID:     group.ID,
		AuthorID:    member.ID,
		Title:       "Last meeting",
		Content:     "notes",
		MeetingDate: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("logbook Create: %v", err)
	}

	req := httptest.NewRequest("POST", "/groups/x/delete", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: admin.ID.Hex(), Name: admin.FullName, Email: admin.Email, Role: admin.Role,
	})
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	rec := httptest.NewRecorder()
	h.handler.HandleDelete(rec, req)

	if rec.Code != 303 {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if _, err := groupstore.New(h.db).GetByID(ctx, group.ID); err != mongo.ErrNoDocuments {
		t.Fatalf("group should be gone, got err=%v", err)
	}
	n, err := membershipstore.New(h.db).CountByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("CountByGroup: %v", err)
	}
	if n != 0 {
		t.Errorf("membership count = %d, want 0", n)
	}
	entries, err := logbookstore.New(h.db).ListByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("logbook count = %d, want 0", len(entries))
	}
}
