// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"net/http"

	"github.com/disciplo/disciplo/internal/app/policy/grouppolicy"
	groupstore "github.com/disciplo/disciplo/internal/app/store/groups"
	logbookstore "github.com/disciplo/disciplo/internal/app/store/logbook"
	membershipstore "github.com/disciplo/disciplo/internal/app/store/memberships"
	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/auditlog"
	"github.com/disciplo/disciplo/internal/app/system/gates"
	"github.com/disciplo/disciplo/internal/app/system/navigation"
	"github.com/disciplo/disciplo/internal/app/system/timeouts"
	"github.com/disciplo/disciplo/internal/app/system/viewdata"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves group browsing, membership self-service, and admin
// group management.
type Handler struct {
	DB          *mongo.Database
	Log         *zap.Logger
	Audit       *auditlog.Logger
	users       *userstore.Store
	groups      *groupstore.Store
	memberships *membershipstore.Store
	logbook     *logbookstore.Store
}

// NewHandler constructs a groups Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger, auditLog *auditlog.Logger) *Handler {
	return &Handler{
		DB:          db,
		Log:         logger,
		Audit:       auditLog,
		users:       userstore.New(db),
		groups:      groupstore.New(db),
		memberships: membershipstore.New(db),
		logbook:     logbookstore.New(db),
	}
}

type groupRow struct {
	models.Group
	MemberCount int64
	IsMember    bool
}

type listData struct {
	viewdata.BaseVM
	Groups []groupRow
}

// ServeList handles GET /groups.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	all, err := h.groups.List(ctx)
	if err != nil {
		h.Log.Error("group list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := listData{BaseVM: viewdata.NewBaseVM(r, "Groups", "/dashboard")}
	for _, g := range all {
		row := groupRow{Group: g}
		if n, err := h.memberships.CountByGroup(ctx, g.ID); err == nil {
			row.MemberCount = n
		}
		if member, err := h.memberships.Exists(ctx, g.ID, res.UserID); err == nil {
			row.IsMember = member
		}
		data.Groups = append(data.Groups, row)
	}

	templates.Render(w, r, "groups_list", data)
}

type memberRow struct {
	UserID primitive.ObjectID
	Name   string
	City   string
	Role   string
	Linked bool
}

type viewData struct {
	viewdata.BaseVM
	Group       models.Group
	Members     []memberRow
	Entries     []models.LogbookEntry
	IsMember    bool
	CanManage   bool
	MemberCount int64
}

// ServeView handles GET /groups/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, err := h.groups.GetByID(ctx, groupID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.NotFound(w, r)
			return
		}
		h.Log.Error("group lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := viewData{
		BaseVM: viewdata.NewBaseVM(r, group.Name, "/groups"),
		Group:  *group,
	}

	rows, err := h.memberships.ListByGroup(ctx, groupID)
	if err != nil {
		h.Log.Error("membership list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	data.MemberCount = int64(len(rows))
	for _, m := range rows {
		if m.UserID == res.UserID {
			data.IsMember = true
		}
		u, err := h.users.GetByID(ctx, m.UserID)
		if err != nil {
			continue
		}
		data.Members = append(data.Members, memberRow{
			UserID: u.ID,
			Name:   u.FullName,
			City:   u.City,
			Role:   m.Role,
			Linked: u.Linked(),
		})
	}

	if manage, err := grouppolicy.CanManageGroup(ctx, h.DB, r, groupID); err == nil {
		data.CanManage = manage
	}
	if entries, err := h.logbook.ListByGroup(ctx, groupID); err == nil {
		data.Entries = entries
	}

	templates.Render(w, r, "group_view", data)
}

// HandleJoin handles POST /groups/{id}/join.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, err := h.groups.GetByID(ctx, groupID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.NotFound(w, r)
			return
		}
		h.Log.Error("group lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if group.MaxMembers > 0 {
		n, err := h.memberships.CountByGroup(ctx, groupID)
		if err != nil {
			h.Log.Error("member count failed", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if n >= int64(group.MaxMembers) {
			http.Redirect(w, r, "/groups/"+groupID.Hex(), http.StatusSeeOther)
			return
		}
	}

	if _, err := h.memberships.Add(ctx, groupID, res.UserID, models.MembershipRoleMember); err != nil && err != membershipstore.ErrDuplicateMembership {
		h.Log.Error("join failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.Audit.MemberAdded(ctx, r, groupID, res.UserID)

	http.Redirect(w, r, "/groups/"+groupID.Hex(), http.StatusSeeOther)
}

// HandleLeave handles POST /groups/{id}/leave.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	removed, err := h.memberships.Remove(ctx, groupID, res.UserID)
	if err != nil {
		h.Log.Error("leave failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if removed {
		h.Audit.MemberRemoved(ctx, r, groupID, res.UserID)
	}

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.GroupsBackURL), http.StatusSeeOther)
}
