// internal/app/features/logbook/handler.go
package logbook

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/disciplo/disciplo/internal/app/policy/grouppolicy"
	groupstore "github.com/disciplo/disciplo/internal/app/store/groups"
	logbookstore "github.com/disciplo/disciplo/internal/app/store/logbook"
	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/formutil"
	"github.com/disciplo/disciplo/internal/app/system/gates"
	"github.com/disciplo/disciplo/internal/app/system/limits"
	"github.com/disciplo/disciplo/internal/app/system/notify"
	"github.com/disciplo/disciplo/internal/app/system/timeouts"
	"github.com/disciplo/disciplo/internal/app/system/viewdata"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves group logbooks: meeting records written by group
// admins. Creating an entry pings the group's Telegram chat.
type Handler struct {
	DB        *mongo.Database
	Log       *zap.Logger
	Notify    *notify.Dispatcher
	users     *userstore.Store
	groups    *groupstore.Store
	entries   *logbookstore.Store
	sanitizer *bluemonday.Policy
}

// NewHandler constructs a logbook Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger, dispatcher *notify.Dispatcher) *Handler {
	return &Handler{
		DB:        db,
		Log:       logger,
		Notify:    dispatcher,
		users:     userstore.New(db),
		groups:    groupstore.New(db),
		entries:   logbookstore.New(db),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// loadGroup resolves the {id} route param to a group, writing the
// response itself on failure.
func (h *Handler) loadGroup(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Group, bool) {
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	group, err := h.groups.GetByID(ctx, groupID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.NotFound(w, r)
			return nil, false
		}
		h.Log.Error("group lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return group, true
}

// requireManager gates writes behind the group-management policy.
func (h *Handler) requireManager(ctx context.Context, w http.ResponseWriter, r *http.Request, groupID primitive.ObjectID) bool {
	can, err := grouppolicy.CanManageGroup(ctx, h.DB, r, groupID)
	if err != nil {
		h.Log.Error("policy check failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return false
	}
	if !can {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

type entryRow struct {
	models.LogbookEntry
	AuthorName string
}

type listData struct {
	viewdata.BaseVM
	Group     models.Group
	Entries   []entryRow
	CanManage bool
}

// ServeList handles GET /groups/{id}/logbook.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}

	rows, err := h.entries.ListByGroup(ctx, group.ID)
	if err != nil {
		h.Log.Error("logbook list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := listData{
		BaseVM: viewdata.NewBaseVM(r, group.Name+" logbook", "/groups/"+group.ID.Hex()),
		Group:  *group,
	}
	for _, e := range rows {
		row := entryRow{LogbookEntry: e}
		if u, err := h.users.GetByID(ctx, e.AuthorID); err == nil {
			row.AuthorName = u.FullName
		}
		data.Entries = append(data.Entries, row)
	}
	if can, err := grouppolicy.CanManageGroup(ctx, h.DB, r, group.ID); err == nil {
		data.CanManage = can
	}

	templates.Render(w, r, "logbook_list", data)
}

type entryData struct {
	viewdata.BaseVM
	Group     models.Group
	Entry     models.LogbookEntry
	Author    string
	CanManage bool
}

// ServeEntry handles GET /groups/{id}/logbook/{entryID}.
func (h *Handler) ServeEntry(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	entryID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "entryID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	entry, err := h.entries.GetByID(ctx, entryID)
	if err != nil || entry.GroupID != group.ID {
		http.NotFound(w, r)
		return
	}

	data := entryData{
		BaseVM: viewdata.NewBaseVM(r, entry.Title, "/groups/"+group.ID.Hex()+"/logbook"),
		Group:  *group,
		Entry:  *entry,
	}
	if u, err := h.users.GetByID(ctx, entry.AuthorID); err == nil {
		data.Author = u.FullName
	}
	if can, err := grouppolicy.CanManageGroup(ctx, h.DB, r, group.ID); err == nil {
		data.CanManage = can
	}

	templates.Render(w, r, "logbook_entry", data)
}

type formData struct {
	formutil.Base
	Group       models.Group
	EntryID     string
	Title       string
	Content     string
	MeetingDate string
}

// ServeNew handles GET /groups/{id}/logbook/new.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	if !h.requireManager(ctx, w, r, group.ID) {
		return
	}

	data := formData{Group: *group, MeetingDate: time.Now().UTC().Format("2006-01-02")}
	formutil.SetBase(&data.Base, r, "New logbook entry", "/groups/"+group.ID.Hex()+"/logbook")
	templates.Render(w, r, "logbook_new", data)
}

// HandleCreate handles POST /groups/{id}/logbook/new. The Telegram ping
// is best effort: the entry is saved either way.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	group, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	if !h.requireManager(ctx, w, r, group.ID) {
		return
	}

	data := formData{
		Group:       *group,
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Content:     h.sanitizer.Sanitize(strings.TrimSpace(r.PostFormValue("content"))),
		MeetingDate: strings.TrimSpace(r.PostFormValue("meeting_date")),
	}
	formutil.SetBase(&data.Base, r, "New logbook entry", "/groups/"+group.ID.Hex()+"/logbook")

	if data.Title == "" {
		data.SetError("Entry title is required.")
		templates.Render(w, r, "logbook_new", data)
		return
	}
	meetingDate, err := time.Parse("2006-01-02", data.MeetingDate)
	if err != nil {
		data.SetError("Meeting date must be YYYY-MM-DD.")
		templates.Render(w, r, "logbook_new", data)
		return
	}

	entry, err := h.entries.Create(ctx, models.LogbookEntry{
		GroupID:     group.ID,
		AuthorID:    res.UserID,
		Title:       data.Title,
		Content:     data.Content,
		MeetingDate: meetingDate,
	})
	if err != nil {
		h.Log.Error("logbook create failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.Notify.GroupActivity(ctx, *group, "New logbook entry: "+entry.Title)

	http.Redirect(w, r, "/groups/"+group.ID.Hex()+"/logbook/"+entry.ID.Hex(), http.StatusSeeOther)
}

// loadEntry resolves {entryID} and checks it belongs to the group.
func (h *Handler) loadEntry(ctx context.Context, w http.ResponseWriter, r *http.Request, groupID primitive.ObjectID) (*models.LogbookEntry, bool) {
	entryID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "entryID"))
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	entry, err := h.entries.GetByID(ctx, entryID)
	if err != nil || entry.GroupID != groupID {
		http.NotFound(w, r)
		return nil, false
	}
	return entry, true
}

// ServeEdit handles GET /groups/{id}/logbook/{entryID}/edit.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	if !h.requireManager(ctx, w, r, group.ID) {
		return
	}
	entry, ok := h.loadEntry(ctx, w, r, group.ID)
	if !ok {
		return
	}

	data := formData{
		Group:       *group,
		EntryID:     entry.ID.Hex(),
		Title:       entry.Title,
		Content:     entry.Content,
		MeetingDate: entry.MeetingDate.Format("2006-01-02"),
	}
	formutil.SetBase(&data.Base, r, "Edit logbook entry", "/groups/"+group.ID.Hex()+"/logbook/"+entry.ID.Hex())
	templates.Render(w, r, "logbook_edit", data)
}

// HandleUpdate handles POST /groups/{id}/logbook/{entryID}/edit.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	if !h.requireManager(ctx, w, r, group.ID) {
		return
	}
	entry, ok := h.loadEntry(ctx, w, r, group.ID)
	if !ok {
		return
	}

	data := formData{
		Group:       *group,
		EntryID:     entry.ID.Hex(),
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Content:     h.sanitizer.Sanitize(strings.TrimSpace(r.PostFormValue("content"))),
		MeetingDate: strings.TrimSpace(r.PostFormValue("meeting_date")),
	}
	formutil.SetBase(&data.Base, r, "Edit logbook entry", "/groups/"+group.ID.Hex()+"/logbook/"+entry.ID.Hex())

	if data.Title == "" {
		data.SetError("Entry title is required.")
		templates.Render(w, r, "logbook_edit", data)
		return
	}
	meetingDate, err := time.Parse("2006-01-02", data.MeetingDate)
	if err != nil {
		data.SetError("Meeting date must be YYYY-MM-DD.")
		templates.Render(w, r, "logbook_edit", data)
		return
	}

	if _, err := h.entries.Update(ctx, entry.ID, data.Title, data.Content, meetingDate); err != nil {
		h.Log.Error("logbook update failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/groups/"+group.ID.Hex()+"/logbook/"+entry.ID.Hex(), http.StatusSeeOther)
}

// HandleDelete handles POST /groups/{id}/logbook/{entryID}/delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	if !h.requireManager(ctx, w, r, group.ID) {
		return
	}

	entry, ok := h.loadEntry(ctx, w, r, group.ID)
	if !ok {
		return
	}

	if _, err := h.entries.Delete(ctx, entry.ID); err != nil {
		h.Log.Error("logbook delete failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/groups/"+group.ID.Hex()+"/logbook", http.StatusSeeOther)
}
