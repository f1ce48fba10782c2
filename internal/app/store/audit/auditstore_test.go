package audit

import (
	"context"
	"testing"
	"time"

	"github.com/disciplo/disciplo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLogAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := New(db)

	userID := primitive.NewObjectID()
	actorID := primitive.NewObjectID()

	events := []Event{
		{Category: CategoryAuth, EventType: EventLoginSuccess, UserID: &userID, Success: true, IP: "10.0.0.1"},
		{Category: CategoryAuth, EventType: EventLoginFailedWrongPassword, UserID: &userID, Success: false},
		{Category: CategoryAdmin, EventType: EventUserApproved, UserID: &userID, ActorID: &actorID, Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	got, err := store.Query(ctx, QueryFilter{Category: CategoryAuth})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("auth events: got %d, want 2", len(got))
	}
	for _, e := range got {
		if e.Timestamp.IsZero() {
			t.Error("Log did not stamp Timestamp")
		}
	}

	byUser, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(byUser) != 3 {
		t.Errorf("user events: got %d, want 3", len(byUser))
	}

	n, err := store.CountByFilter(ctx, QueryFilter{EventType: EventUserApproved})
	if err != nil {
		t.Fatalf("CountByFilter: %v", err)
	}
	if n != 1 {
		t.Errorf("approved events: got %d, want 1", n)
	}
}

func TestGetFailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := New(db)

	userID := primitive.NewObjectID()
	if err := store.Log(ctx, Event{
		Category: CategoryAuth, EventType: EventLoginFailedNotApproved,
		UserID: &userID, Success: false, FailureReason: "account pending approval",
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := store.Log(ctx, Event{
		Category: CategoryAuth, EventType: EventLoginSuccess, UserID: &userID, Success: true,
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	failed, err := store.GetFailedLogins(ctx, time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("GetFailedLogins: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("failed logins: got %d, want 1", len(failed))
	}
	if failed[0].EventType != EventLoginFailedNotApproved {
		t.Errorf("event type = %q", failed[0].EventType)
	}
}
