// internal/app/features/approvals/handler.go
package approvals

import (
	"context"
	"net/http"

	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/auditlog"
	"github.com/disciplo/disciplo/internal/app/system/gates"
	"github.com/disciplo/disciplo/internal/app/system/navigation"
	"github.com/disciplo/disciplo/internal/app/system/reconcile"
	"github.com/disciplo/disciplo/internal/app/system/timeouts"
	"github.com/disciplo/disciplo/internal/app/system/viewdata"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin approval queue. Approving or rejecting runs
// the full cascade through the reconciler: default group join, Telegram
// unban/kick, and notifications.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	Audit      *auditlog.Logger
	Reconciler *reconcile.Reconciler
	users      *userstore.Store
}

// NewHandler constructs an approvals Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger, auditLog *auditlog.Logger, reconciler *reconcile.Reconciler) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		Audit:      auditLog,
		Reconciler: reconciler,
		users:      userstore.New(db),
	}
}

type listData struct {
	viewdata.BaseVM
	Pending []models.User
}

// ServeList handles GET /admin/approvals.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "Only admins can review registrations.", "/dashboard")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pending, err := h.users.ListPending(ctx)
	if err != nil {
		h.Log.Error("pending list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := listData{
		BaseVM:  viewdata.NewBaseVM(r, "Pending approvals", "/dashboard"),
		Pending: pending,
	}
	templates.Render(w, r, "approvals_list", data)
}

// HandleApprove handles POST /admin/approvals/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	actor, userID, ok := h.gate(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	changed, err := h.Reconciler.ApproveUser(ctx, userID, actor)
	if err != nil {
		h.Log.Error("approval failed",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if changed {
		h.Audit.UserApproved(ctx, r, userID, actor)
	}

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.ApprovalsBackURL), http.StatusSeeOther)
}

// HandleReject handles POST /admin/approvals/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	actor, userID, ok := h.gate(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	deleted, err := h.Reconciler.RejectUser(ctx, userID)
	if err != nil {
		h.Log.Error("rejection failed",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if deleted {
		h.Audit.UserRejected(ctx, r, userID, actor)
	}

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.ApprovalsBackURL), http.StatusSeeOther)
}

// gate checks the admin role twice: the session role for routing and
// the stored role for the actual mutation.
func (h *Handler) gate(w http.ResponseWriter, r *http.Request) (actor, target primitive.ObjectID, ok bool) {
	res := gates.RequireAdmin(w, r, "Only admins can review registrations.", "/dashboard")
	if !res.OK {
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	isAdmin, err := h.users.IsAdmin(ctx, res.UserID)
	if err != nil {
		h.Log.Error("admin re-verification failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	if !isAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return res.UserID, userID, true
}
