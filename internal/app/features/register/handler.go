// internal/app/features/register/handler.go
package register

import (
	"context"
	"net/http"
	"strings"

	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/auditlog"
	"github.com/disciplo/disciplo/internal/app/system/auth"
	"github.com/disciplo/disciplo/internal/app/system/authutil"
	"github.com/disciplo/disciplo/internal/app/system/formutil"
	"github.com/disciplo/disciplo/internal/app/system/limits"
	"github.com/disciplo/disciplo/internal/app/system/notify"
	"github.com/disciplo/disciplo/internal/app/system/timeouts"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves account registration. New accounts always start
// unapproved; an admin reviews them from the approval queue.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Audit  *auditlog.Logger
	Notify *notify.Dispatcher
	users  *userstore.Store
}

// NewHandler constructs a register Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger, auditLog *auditlog.Logger, dispatcher *notify.Dispatcher) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Audit:  auditLog,
		Notify: dispatcher,
		users:  userstore.New(db),
	}
}

type formData struct {
	formutil.Base
	FullName string
	Email    string
	City     string
}

// ServeForm handles GET /register.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	if _, signedIn := auth.CurrentUser(r); signedIn {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	var data formData
	formutil.SetBase(&data.Base, r, "Register", "/")
	templates.Render(w, r, "register", data)
}

// HandlePost handles POST /register.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	data := formData{
		FullName: strings.TrimSpace(r.FormValue("full_name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		City:     strings.TrimSpace(r.FormValue("city")),
	}
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirm")

	if msg := h.validate(data, password, confirm); msg != "" {
		h.renderError(w, r, data, msg)
		return
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.users.Create(ctx, models.User{
		FullName:     data.FullName,
		Email:        data.Email,
		City:         data.City,
		PasswordHash: hash,
		Role:         "member",
	})
	if err != nil {
		if err == userstore.ErrDuplicateEmail {
			h.renderError(w, r, data, "An account with this email already exists.")
			return
		}
		h.Log.Error("registration insert failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.Audit.Registered(ctx, r, user.ID, user.Email)
	h.Notify.Welcome(ctx, user)

	var done formData
	formutil.SetBase(&done.Base, r, "Registration received", "/")
	templates.Render(w, r, "register_done", done)
}

func (h *Handler) validate(data formData, password, confirm string) string {
	if data.FullName == "" {
		return "Please enter your full name."
	}
	if !strings.Contains(data.Email, "@") {
		return "Please enter a valid email address."
	}
	if err := authutil.ValidatePassword(password); err != nil {
		return err.Error()
	}
	if password != confirm {
		return "Passwords do not match."
	}
	return ""
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, data formData, msg string) {
	formutil.SetBase(&data.Base, r, "Register", "/")
	data.SetError(msg)
	templates.Render(w, r, "register", data)
}
