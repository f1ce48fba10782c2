// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	battleplanstore "github.com/disciplo/disciplo/internal/app/store/battleplans"
	groupstore "github.com/disciplo/disciplo/internal/app/store/groups"
	membershipstore "github.com/disciplo/disciplo/internal/app/store/memberships"
	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/gates"
	"github.com/disciplo/disciplo/internal/app/system/timeouts"
	"github.com/disciplo/disciplo/internal/app/system/viewdata"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in landing page.
type Handler struct {
	DB          *mongo.Database
	Log         *zap.Logger
	users       *userstore.Store
	groups      *groupstore.Store
	memberships *membershipstore.Store
	battleplans *battleplanstore.Store
}

// NewHandler constructs a dashboard Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Log:         logger,
		users:       userstore.New(db),
		groups:      groupstore.New(db),
		memberships: membershipstore.New(db),
		battleplans: battleplanstore.New(db),
	}
}

type viewData struct {
	viewdata.BaseVM
	ActivePlan     *models.Battleplan
	PlanDaysLeft   int
	Groups         []models.Group
	TelegramLinked bool
	PendingCount   int64 // admins only
}

// Serve handles GET /dashboard.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := viewData{BaseVM: viewdata.NewBaseVM(r, "Dashboard", "/")}

	if plan, err := h.battleplans.GetActiveByUser(ctx, res.UserID); err == nil {
		data.ActivePlan = plan
		if left := int(time.Until(plan.EndDate).Hours() / 24); left > 0 {
			data.PlanDaysLeft = left
		}
	} else if err != mongo.ErrNoDocuments {
		h.Log.Error("active battleplan lookup failed", zap.Error(err))
	}

	if groups, err := h.loadGroups(ctx, res.UserID); err == nil {
		data.Groups = groups
	} else {
		h.Log.Error("dashboard group lookup failed", zap.Error(err))
	}

	if user, err := h.users.GetByID(ctx, res.UserID); err == nil {
		data.TelegramLinked = user.Linked()
	}

	if res.Role == "admin" {
		if n, err := h.users.CountPending(ctx); err == nil {
			data.PendingCount = n
		} else {
			h.Log.Error("pending count failed", zap.Error(err))
		}
	}

	templates.Render(w, r, "dashboard", data)
}

// loadGroups resolves the user's membership rows into group documents.
func (h *Handler) loadGroups(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	rows, err := h.memberships.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	groups := make([]models.Group, 0, len(rows))
	for _, m := range rows {
		g, err := h.groups.GetByID(ctx, m.GroupID)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				continue
			}
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, nil
}
