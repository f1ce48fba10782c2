package groupstore

import (
	"testing"

	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/disciplo/disciplo/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreateValidatesType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Group{Name: "Bad", Type: "cluster"}); err == nil {
		t.Error("expected error for invalid group type")
	}

	g, err := store.Create(ctx, models.Group{Name: "  Rome Chapter ", Type: models.GroupTypeLocal})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if g.Name != "Rome Chapter" {
		t.Errorf("name not trimmed: %q", g.Name)
	}
}

func TestCreateRejectsDuplicateChatID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	chat := "-100200300"
	if _, err := store.Create(ctx, models.Group{Name: "One", Type: models.GroupTypeLocal, TelegramChatID: &chat}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Group{Name: "Two", Type: models.GroupTypeLocal, TelegramChatID: &chat}); err != ErrDuplicateChatID {
		t.Errorf("expected ErrDuplicateChatID, got %v", err)
	}
}

func TestActivateTelegramElectsFirstDefault(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, created, err := store.ActivateTelegram(ctx, "-100111", "Main Hall")
	if err != nil {
		t.Fatalf("first ActivateTelegram failed: %v", err)
	}
	if !created {
		t.Error("first activation should create a group")
	}
	if !first.IsDefault || first.Type != models.GroupTypeMain {
		t.Errorf("first synced group should be the main default, got default=%v type=%q", first.IsDefault, first.Type)
	}

	second, created, err := store.ActivateTelegram(ctx, "-100222", "Side Room")
	if err != nil {
		t.Fatalf("second ActivateTelegram failed: %v", err)
	}
	if !created {
		t.Error("second activation should create a group")
	}
	if second.IsDefault || second.Type != models.GroupTypeLocal {
		t.Errorf("later synced groups should be non-default local, got default=%v type=%q", second.IsDefault, second.Type)
	}

	def, err := store.GetDefault(ctx)
	if err != nil {
		t.Fatalf("GetDefault failed: %v", err)
	}
	if def.ID != first.ID {
		t.Error("default should be the first activated group")
	}
}

func TestActivateTelegramIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, _, err := store.ActivateTelegram(ctx, "-100333", "Hall")
	if err != nil {
		t.Fatalf("ActivateTelegram failed: %v", err)
	}

	again, created, err := store.ActivateTelegram(ctx, "-100333", "Hall Renamed")
	if err != nil {
		t.Fatalf("repeat ActivateTelegram failed: %v", err)
	}
	if created {
		t.Error("repeat activation should not create a new group")
	}
	if again.ID != first.ID {
		t.Error("repeat activation should return the existing group")
	}
}

func TestGetByTelegramChatID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fx.CreateSyncedGroup(ctx, "Synced", "-100444")

	got, err := store.GetByTelegramChatID(ctx, "-100444")
	if err != nil {
		t.Fatalf("GetByTelegramChatID failed: %v", err)
	}
	if got.ID != g.ID {
		t.Error("lookup returned the wrong group")
	}

	if _, err := store.GetByTelegramChatID(ctx, "-100999"); err != mongo.ErrNoDocuments {
		t.Errorf("unknown chat should return ErrNoDocuments, got %v", err)
	}
}

func TestListSortsByFoldedName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateGroup(ctx, "zeta")
	fx.CreateGroup(ctx, "Alpha")

	groups, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("List returned %d groups, want 2", len(groups))
	}
	if groups[0].Name != "Alpha" {
		t.Errorf("expected case-insensitive sort, got %q first", groups[0].Name)
	}
}
