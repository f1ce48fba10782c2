// internal/app/system/auditlog/auditlog.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/disciplo/disciplo/internal/app/store/audit"
	"github.com/disciplo/disciplo/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Logger records audit events to both MongoDB (via audit.Store) and the
// structured log. A nil *Logger is a no-op, so handlers and tests never
// need to guard their audit calls.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
}

// New creates an audit Logger.
func New(store *audit.Store, zapLog *zap.Logger) *Logger {
	return &Logger{store: store, zapLog: zapLog}
}

// Log records one audit event. Store failures are logged and swallowed:
// auditing must never break the action being audited.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}

	if err := l.store.Log(ctx, event); err != nil {
		l.zapLog.Error("failed to store audit event",
			zap.Error(err),
			zap.String("event_type", event.EventType))
	}
}

// --- Authentication events ---

// Registered logs a new account registration.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventRegistered,
		UserID:    &userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailed logs a failed login. eventType is one of the
// audit.EventLoginFailed* constants; userID may be nil when the account
// was not found.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	})
}

// Logout logs a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    &userID,
		IP:        ratelimit.ClientIP(r),
		Success:   true,
	})
}

// --- Admin events ---

// UserApproved logs an admin approving a pending account.
func (l *Logger) UserApproved(ctx context.Context, r *http.Request, userID, actorID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserApproved,
		UserID:    &userID,
		ActorID:   &actorID,
		IP:        ratelimit.ClientIP(r),
		Success:   true,
	})
}

// UserRejected logs an admin rejecting (deleting) an account.
func (l *Logger) UserRejected(ctx context.Context, r *http.Request, userID, actorID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserRejected,
		UserID:    &userID,
		ActorID:   &actorID,
		IP:        ratelimit.ClientIP(r),
		Success:   true,
	})
}

// GroupCreated logs an admin creating a group.
func (l *Logger) GroupCreated(ctx context.Context, r *http.Request, groupID, actorID primitive.ObjectID, name string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupCreated,
		ActorID:   &actorID,
		IP:        ratelimit.ClientIP(r),
		Success:   true,
		Details:   map[string]string{"group_id": groupID.Hex(), "name": name},
	})
}

// GroupDeleted logs an admin deleting a group.
func (l *Logger) GroupDeleted(ctx context.Context, r *http.Request, groupID, actorID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupDeleted,
		ActorID:   &actorID,
		IP:        ratelimit.ClientIP(r),
		Success:   true,
		Details:   map[string]string{"group_id": groupID.Hex()},
	})
}

// MemberAdded logs a membership row created from the web side.
func (l *Logger) MemberAdded(ctx context.Context, r *http.Request, groupID, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMemberAddedToGroup,
		UserID:    &userID,
		IP:        ratelimit.ClientIP(r),
		Success:   true,
		Details:   map[string]string{"group_id": groupID.Hex()},
	})
}

// MemberRemoved logs a membership row removed from the web side.
func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, groupID, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMemberRemovedFromGroup,
		UserID:    &userID,
		IP:        ratelimit.ClientIP(r),
		Success:   true,
		Details:   map[string]string{"group_id": groupID.Hex()},
	})
}

// --- Telegram events ---

// TelegramLinked logs a completed link handshake.
func (l *Logger) TelegramLinked(ctx context.Context, userID primitive.ObjectID, telegramID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryTelegram,
		EventType: audit.EventTelegramLinked,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"telegram_id": telegramID},
	})
}

// GroupActivated logs a Telegram chat being bound to a group.
func (l *Logger) GroupActivated(ctx context.Context, groupID primitive.ObjectID, chatID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryTelegram,
		EventType: audit.EventGroupActivated,
		Success:   true,
		Details:   map[string]string{"group_id": groupID.Hex(), "chat_id": chatID},
	})
}
