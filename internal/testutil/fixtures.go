package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		rctx.URLParams.Add(key, value)
		return r
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateAdmin creates an approved admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	u := f.baseUser(name, email, "admin")
	now := time.Now().UTC()
	u.Approved = true
	u.ApprovedAt = &now
	f.insertUser(ctx, u)
	return u
}

// CreateMember creates an approved member user.
func (f *Fixtures) CreateMember(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	u := f.baseUser(name, email, "member")
	now := time.Now().UTC()
	u.Approved = true
	u.ApprovedAt = &now
	f.insertUser(ctx, u)
	return u
}

// CreatePendingUser creates an unapproved member awaiting admin review.
func (f *Fixtures) CreatePendingUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	u := f.baseUser(name, email, "member")
	f.insertUser(ctx, u)
	return u
}

// CreateLinkedMember creates an approved member with a Telegram link.
func (f *Fixtures) CreateLinkedMember(ctx context.Context, name, email, telegramID string) models.User {
	f.t.Helper()
	u := f.baseUser(name, email, "member")
	now := time.Now().UTC()
	u.Approved = true
	u.ApprovedAt = &now
	u.TelegramID = &telegramID
	f.insertUser(ctx, u)
	return u
}

// CreateGroup creates a plain (non-default, unsynced) group.
func (f *Fixtures) CreateGroup(ctx context.Context, name string) models.Group {
	f.t.Helper()
	g := f.baseGroup(name, "local")
	f.insertGroup(ctx, g)
	return g
}

// CreateDefaultGroup creates the system-wide default group linked to the
// given Telegram chat.
func (f *Fixtures) CreateDefaultGroup(ctx context.Context, name, chatID string) models.Group {
	f.t.Helper()
	g := f.baseGroup(name, "main")
	g.IsDefault = true
	if chatID != "" {
		g.TelegramChatID = &chatID
	}
	f.insertGroup(ctx, g)
	return g
}

// CreateSyncedGroup creates a non-default group linked to a Telegram chat.
func (f *Fixtures) CreateSyncedGroup(ctx context.Context, name, chatID string) models.Group {
	f.t.Helper()
	g := f.baseGroup(name, "local")
	g.TelegramChatID = &chatID
	f.insertGroup(ctx, g)
	return g
}

// CreateMembership inserts a membership row directly.
func (f *Fixtures) CreateMembership(ctx context.Context, groupID, userID primitive.ObjectID, role string) models.GroupMembership {
	f.t.Helper()
	m := models.GroupMembership{
		ID:       primitive.NewObjectID(),
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

func (f *Fixtures) baseUser(name, email, role string) models.User {
	now := time.Now().UTC()
	return models.User{
		ID:           primitive.NewObjectID(),
		FullName:     name,
		FullNameCI:   text.Fold(name),
		Email:        email,
		PasswordHash: "$2a$10$testhashtesthashtesthashtesthashtesthashtesthashtesta",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (f *Fixtures) insertUser(ctx context.Context, u models.User) {
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
}

func (f *Fixtures) baseGroup(name, typ string) models.Group {
	now := time.Now().UTC()
	return models.Group{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (f *Fixtures) insertGroup(ctx context.Context, g models.Group) {
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
}
