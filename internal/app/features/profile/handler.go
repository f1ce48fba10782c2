// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"net/http"
	"strings"

	linktokenstore "github.com/disciplo/disciplo/internal/app/store/linktokens"
	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/formutil"
	"github.com/disciplo/disciplo/internal/app/system/gates"
	"github.com/disciplo/disciplo/internal/app/system/limits"
	"github.com/disciplo/disciplo/internal/app/system/timeouts"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's own profile: bio and city edits
// plus the Telegram link handshake.
type Handler struct {
	DB          *mongo.Database
	Log         *zap.Logger
	BotUsername string
	users       *userstore.Store
	tokens      *linktokenstore.Store
	sanitizer   *bluemonday.Policy
}

// NewHandler constructs a profile Handler. botUsername is the Telegram
// bot the link deep link points at, without the leading @.
func NewHandler(db *mongo.Database, logger *zap.Logger, botUsername string) *Handler {
	return &Handler{
		DB:          db,
		Log:         logger,
		BotUsername: strings.TrimPrefix(botUsername, "@"),
		users:       userstore.New(db),
		tokens:      linktokenstore.New(db),
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

type profileData struct {
	formutil.Base
	User     models.User
	Linked   bool
	Bio      string
	City     string
	LinkURL  string
	BotKnown bool
}

// ServeView handles GET /profile.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.users.GetByID(ctx, res.UserID)
	if err != nil {
		h.Log.Error("profile lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := h.viewData(r, *user)
	templates.Render(w, r, "profile", data)
}

// HandleUpdate handles POST /profile.
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

	bio := h.sanitizer.Sanitize(strings.TrimSpace(r.PostFormValue("bio")))
	city := h.sanitizer.Sanitize(strings.TrimSpace(r.PostFormValue("city")))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.users.UpdateProfile(ctx, res.UserID, bio, city); err != nil {
		h.Log.Error("profile update failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// HandleIssueLinkToken handles POST /profile/telegram-link. It issues a
// fresh single-use token and shows the t.me deep link. Already-linked
// accounts are bounced back; the link is set once and never reissued.
func (h *Handler) HandleIssueLinkToken(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r, "/login")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.users.GetByID(ctx, res.UserID)
	if err != nil {
		h.Log.Error("profile lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if user.Linked() {
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	token, err := h.tokens.Issue(ctx, res.UserID, linktokenstore.DefaultTTL)
	if err != nil {
		h.Log.Error("link token issue failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := h.viewData(r, *user)
	data.LinkURL = "https://t.me/" + h.BotUsername + "?start=" + token.Token
	templates.Render(w, r, "profile", data)
}

func (h *Handler) viewData(r *http.Request, user models.User) profileData {
	var data profileData
	formutil.SetBase(&data.Base, r, "Profile", "/dashboard")
	data.User = user
	data.Linked = user.Linked()
	data.Bio = user.Bio
	data.City = user.City
	data.BotKnown = h.BotUsername != ""
	return data
}
