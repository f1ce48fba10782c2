// internal/app/features/groups/admin.go
package groups

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/disciplo/disciplo/internal/app/policy/grouppolicy"
	membershipstore "github.com/disciplo/disciplo/internal/app/store/memberships"
	"github.com/disciplo/disciplo/internal/app/system/formutil"
	"github.com/disciplo/disciplo/internal/app/system/gates"
	"github.com/disciplo/disciplo/internal/app/system/limits"
	"github.com/disciplo/disciplo/internal/app/system/navigation"
	"github.com/disciplo/disciplo/internal/app/system/timeouts"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type newFormData struct {
	formutil.Base
	Name        string
	Type        string
	Description string
	City        string
	MaxMembers  string
}

// ServeNew handles GET /groups/new.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminGate(w, r); !ok {
		return
	}

	var data newFormData
	formutil.SetBase(&data.Base, r, "New group", "/groups")
	templates.Render(w, r, "group_new", data)
}

// HandleCreate handles POST /groups/new.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.adminGate(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var data newFormData
	formutil.SetBase(&data.Base, r, "New group", "/groups")
	data.Name = strings.TrimSpace(r.PostFormValue("name"))
	data.Type = strings.TrimSpace(r.PostFormValue("type"))
	data.Description = strings.TrimSpace(r.PostFormValue("description"))
	data.City = strings.TrimSpace(r.PostFormValue("city"))
	data.MaxMembers = strings.TrimSpace(r.PostFormValue("max_members"))

	if data.Name == "" {
		data.SetError("Group name is required.")
		templates.Render(w, r, "group_new", data)
		return
	}

	maxMembers := 0
	if data.MaxMembers != "" {
		n, err := strconv.Atoi(data.MaxMembers)
		if err != nil || n < 0 {
			data.SetError("Member limit must be a non-negative number.")
			templates.Render(w, r, "group_new", data)
			return
		}
		maxMembers = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, err := h.groups.Create(ctx, models.Group{
		Name:        data.Name,
		Type:        data.Type,
		Description: data.Description,
		City:        data.City,
		MaxMembers:  maxMembers,
	})
	if err != nil {
		data.SetError("Could not create the group: " + err.Error())
		templates.Render(w, r, "group_new", data)
		return
	}
	h.Audit.GroupCreated(ctx, r, group.ID, actor, group.Name)

	http.Redirect(w, r, "/groups/"+group.ID.Hex(), http.StatusSeeOther)
}

// HandleDelete handles POST /groups/{id}/delete. Memberships and
// logbook entries go with the group.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.adminGate(w, r)
	if !ok {
		return
	}

	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	deleted, err := h.groups.Delete(ctx, groupID)
	if err != nil {
		h.Log.Error("group delete failed", zap.String("group_id", groupID.Hex()), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if deleted {
		if _, err := h.memberships.DeleteByGroup(ctx, groupID); err != nil {
			h.Log.Error("membership cascade failed", zap.String("group_id", groupID.Hex()), zap.Error(err))
		}
		if _, err := h.logbook.DeleteByGroup(ctx, groupID); err != nil {
			h.Log.Error("logbook cascade failed", zap.String("group_id", groupID.Hex()), zap.Error(err))
		}
		h.Audit.GroupDeleted(ctx, r, groupID, actor)
	}

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.GroupsBackURL), http.StatusSeeOther)
}

// HandleAddMember handles POST /groups/{id}/members. The member is
// looked up by email and must already be approved; capacity limits apply
// the same way they do for self-service joins.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.managerGate(ctx, w, r, groupID) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))

	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.Redirect(w, r, "/groups/"+groupID.Hex(), http.StatusSeeOther)
			return
		}
		h.Log.Error("member lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !user.Approved {
		http.Redirect(w, r, "/groups/"+groupID.Hex(), http.StatusSeeOther)
		return
	}

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

	if _, err := h.memberships.Add(ctx, groupID, user.ID, models.MembershipRoleMember); err != nil && err != membershipstore.ErrDuplicateMembership {
		h.Log.Error("member add failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.Audit.MemberAdded(ctx, r, groupID, user.ID)

	http.Redirect(w, r, "/groups/"+groupID.Hex(), http.StatusSeeOther)
}

// HandleRemoveMember handles POST /groups/{id}/members/{userID}/remove.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.managerGate(ctx, w, r, groupID) {
		return
	}

	removed, err := h.memberships.Remove(ctx, groupID, userID)
	if err != nil {
		h.Log.Error("member remove failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if removed {
		h.Audit.MemberRemoved(ctx, r, groupID, userID)
	}

	http.Redirect(w, r, "/groups/"+groupID.Hex(), http.StatusSeeOther)
}

// managerGate authorizes roster changes: site admins always, group
// admins only inside their own group.
func (h *Handler) managerGate(ctx context.Context, w http.ResponseWriter, r *http.Request, groupID primitive.ObjectID) bool {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return false
	}

	can, err := grouppolicy.CanManageGroup(ctx, h.DB, r, groupID)
	if err != nil {
		h.Log.Error("group policy check failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return false
	}
	if !can {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// adminGate checks the admin role twice: the session role for routing
// and the stored role for the actual mutation.
func (h *Handler) adminGate(w http.ResponseWriter, r *http.Request) (actor primitive.ObjectID, ok bool) {
	res := gates.RequireAdmin(w, r, "Only admins can manage groups.", "/groups")
	if !res.OK {
		return primitive.NilObjectID, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	isAdmin, err := h.users.IsAdmin(ctx, res.UserID)
	if err != nil {
		h.Log.Error("admin re-verification failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return primitive.NilObjectID, false
	}
	if !isAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return primitive.NilObjectID, false
	}
	return res.UserID, true
}
