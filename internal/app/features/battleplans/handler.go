// internal/app/features/battleplans/handler.go
package battleplans

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	battleplanstore "github.com/disciplo/disciplo/internal/app/store/battleplans"
	"github.com/disciplo/disciplo/internal/app/system/formutil"
	"github.com/disciplo/disciplo/internal/app/system/gates"
	"github.com/disciplo/disciplo/internal/app/system/limits"
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

// Handler serves a user's battleplans: 30/60/90-day transformation
// trackers built on four fixed pillars.
type Handler struct {
	DB    *mongo.Database
	Log   *zap.Logger
	plans *battleplanstore.Store
}

// NewHandler constructs a battleplans Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Log:   logger,
		plans: battleplanstore.New(db),
	}
}

type listData struct {
	viewdata.BaseVM
	Plans []models.Battleplan
}

// ServeList handles GET /battleplans.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	plans, err := h.plans.ListByUser(ctx, res.UserID)
	if err != nil {
		h.Log.Error("battleplan list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := listData{
		BaseVM: viewdata.NewBaseVM(r, "Battle plans", "/dashboard"),
		Plans:  plans,
	}
	templates.Render(w, r, "battleplans_list", data)
}

type pillarForm struct {
	Type      string
	Label     string
	Objective string
	Routines  string // one title per line
}

type newFormData struct {
	formutil.Base
	Title               string
	Priority            string
	PriorityDescription string
	Duration            string
	Pillars             []pillarForm
}

var pillarLabels = map[string]string{
	models.PillarInteriority:   "Interiority",
	models.PillarRelationships: "Relationships",
	models.PillarResources:     "Resources",
	models.PillarHealth:        "Health",
}

func emptyPillarForms() []pillarForm {
	forms := make([]pillarForm, 0, len(models.PillarTypes))
	for _, t := range models.PillarTypes {
		forms = append(forms, pillarForm{Type: t, Label: pillarLabels[t]})
	}
	return forms
}

// ServeNew handles GET /battleplans/new.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	data := newFormData{Duration: "30", Pillars: emptyPillarForms()}
	formutil.SetBase(&data.Base, r, "New battle plan", "/battleplans")
	templates.Render(w, r, "battleplan_new", data)
}

// HandleCreate handles POST /battleplans/new. A new plan always becomes
// the active one; the store deactivates the rest.
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

	data := newFormData{
		Title:               strings.TrimSpace(r.PostFormValue("title")),
		Priority:            strings.TrimSpace(r.PostFormValue("priority")),
		PriorityDescription: strings.TrimSpace(r.PostFormValue("priority_description")),
		Duration:            strings.TrimSpace(r.PostFormValue("duration")),
	}
	formutil.SetBase(&data.Base, r, "New battle plan", "/battleplans")
	for _, t := range models.PillarTypes {
		data.Pillars = append(data.Pillars, pillarForm{
			Type:      t,
			Label:     pillarLabels[t],
			Objective: strings.TrimSpace(r.PostFormValue("objective_" + t)),
			Routines:  r.PostFormValue("routines_" + t),
		})
	}

	if data.Title == "" {
		data.SetError("Plan title is required.")
		templates.Render(w, r, "battleplan_new", data)
		return
	}
	if data.Priority == "" {
		data.SetError("Pick the one priority this plan attacks.")
		templates.Render(w, r, "battleplan_new", data)
		return
	}
	duration, err := strconv.Atoi(data.Duration)
	if err != nil || (duration != 30 && duration != 60 && duration != 90) {
		data.SetError("Duration must be 30, 60 or 90 days.")
		templates.Render(w, r, "battleplan_new", data)
		return
	}

	pillars := make([]models.Pillar, 0, len(data.Pillars))
	for _, pf := range data.Pillars {
		if pf.Objective == "" {
			data.SetError("Every pillar needs an objective.")
			templates.Render(w, r, "battleplan_new", data)
			return
		}
		pillars = append(pillars, models.Pillar{
			Type:      pf.Type,
			Objective: pf.Objective,
			Routines:  parseRoutines(pf.Routines),
		})
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	plan, err := h.plans.Create(ctx, models.Battleplan{
		UserID:              res.UserID,
		Title:               data.Title,
		Priority:            data.Priority,
		PriorityDescription: data.PriorityDescription,
		StartDate:           time.Now().UTC(),
		Duration:            duration,
		Pillars:             pillars,
	})
	if err != nil {
		data.SetError("Could not create the plan: " + err.Error())
		templates.Render(w, r, "battleplan_new", data)
		return
	}

	http.Redirect(w, r, "/battleplans/"+plan.ID.Hex(), http.StatusSeeOther)
}

// parseRoutines turns one-title-per-line textarea input into routines.
func parseRoutines(raw string) []models.Routine {
	var routines []models.Routine
	for _, line := range strings.Split(raw, "\n") {
		title := strings.TrimSpace(line)
		if title == "" {
			continue
		}
		routines = append(routines, models.Routine{Title: title})
	}
	return routines
}

type viewData struct {
	viewdata.BaseVM
	Plan     models.Battleplan
	DaysLeft int
	Labels   map[string]string
}

// ServeView handles GET /battleplans/{id}. Plans are private to their
// owner.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	planID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	plan, err := h.plans.GetByID(ctx, planID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.NotFound(w, r)
			return
		}
		h.Log.Error("battleplan lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if plan.UserID != res.UserID {
		http.NotFound(w, r)
		return
	}

	daysLeft := 0
	if plan.IsActive {
		if d := int(time.Until(plan.EndDate).Hours() / 24); d > 0 {
			daysLeft = d
		}
	}

	data := viewData{
		BaseVM:   viewdata.NewBaseVM(r, plan.Title, "/battleplans"),
		Plan:     *plan,
		DaysLeft: daysLeft,
		Labels:   pillarLabels,
	}
	templates.Render(w, r, "battleplan_view", data)
}

// HandleDelete handles POST /battleplans/{id}/delete. The store filter
// is owner-scoped, so deleting someone else's plan is a no-op.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	planID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.plans.Delete(ctx, planID, res.UserID); err != nil {
		h.Log.Error("battleplan delete failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.BattlePlansBackURL), http.StatusSeeOther)
}
