// internal/app/features/members/handler.go
package members

import (
	"context"
	"net/http"

	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/gates"
	"github.com/disciplo/disciplo/internal/app/system/paging"
	"github.com/disciplo/disciplo/internal/app/system/timeouts"
	"github.com/disciplo/disciplo/internal/app/system/viewdata"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the member directory: approved accounts, searchable by
// name, keyset-paged.
type Handler struct {
	DB    *mongo.Database
	Log   *zap.Logger
	users *userstore.Store
}

// NewHandler constructs a members Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Log:   logger,
		users: userstore.New(db),
	}
}

type listData struct {
	viewdata.BaseVM
	Members    []models.User
	Search     string
	HasPrev    bool
	HasNext    bool
	PrevCursor string
	NextCursor string
}

// ServeList handles GET /members.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	search := query.Get(r, "q")
	before := query.Get(r, "before")
	after := query.Get(r, "after")
	cfg := paging.ConfigureKeyset(before, after)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.users.ListDirectory(ctx, search, cfg)
	if err != nil {
		h.Log.Error("member directory failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page := paging.TrimPage(&rows, before, after)
	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	prev, next := paging.BuildCursors(rows,
		func(u models.User) string { return u.FullNameCI },
		func(u models.User) primitive.ObjectID { return u.ID },
	)

	data := listData{
		BaseVM:     viewdata.NewBaseVM(r, "Members", "/dashboard"),
		Members:    rows,
		Search:     search,
		HasPrev:    page.HasPrev,
		HasNext:    page.HasNext,
		PrevCursor: prev,
		NextCursor: next,
	}
	templates.Render(w, r, "members_list", data)
}
