package members_test

import (
	"context"
	"fmt"
	"testing"

	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/paging"
	"github.com/disciplo/disciplo/internal/testutil"
)

func TestListDirectoryPagesByFoldedName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := context.Background()

	for i := 0; i < paging.PageSize+5; i++ {
		fx.CreateMember(ctx, fmt.Sprintf("Member %03d", i), fmt.Sprintf("m%03d@example.com", i))
	}
	fx.CreatePendingUser(ctx, "Hidden Pending", "hidden@example.com")

	store := userstore.New(db)
	cfg := paging.ConfigureKeyset("", "")
	rows, err := store.ListDirectory(ctx, "", cfg)
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if len(rows) != paging.PageSize+1 {
		t.Fatalf("row count = %d, want %d (page plus lookahead)", len(rows), paging.PageSize+1)
	}
	for _, u := range rows {
		if !u.Approved {
			t.Errorf("unapproved account %q leaked into the directory", u.Email)
		}
	}

	page := paging.TrimPage(&rows, "", "")
	if !page.HasNext {
		t.Error("expected a next page")
	}
	if page.HasPrev {
		t.Error("first page should have no previous page")
	}
	if rows[0].FullName != "Member 000" {
		t.Errorf("first row = %q, want %q", rows[0].FullName, "Member 000")
	}
}

func TestListDirectorySearchIsPrefixFolded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := context.Background()

	fx.CreateMember(ctx, "Ana Silva", "ana@example.com")
	fx.CreateMember(ctx, "Bruno Costa", "bruno@example.com")

	store := userstore.New(db)
	rows, err := store.ListDirectory(ctx, "ANA", paging.ConfigureKeyset("", ""))
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if len(rows) != 1 || rows[0].Email != "ana@example.com" {
		t.Fatalf("search result = %v, want just Ana", rows)
	}
}
