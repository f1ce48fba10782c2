// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"
	"strings"

	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/store/audit"
	"github.com/disciplo/disciplo/internal/app/system/auditlog"
	"github.com/disciplo/disciplo/internal/app/system/auth"
	"github.com/disciplo/disciplo/internal/app/system/authutil"
	"github.com/disciplo/disciplo/internal/app/system/formutil"
	"github.com/disciplo/disciplo/internal/app/system/limits"
	"github.com/disciplo/disciplo/internal/app/system/ratelimit"
	"github.com/disciplo/disciplo/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the email/password login flow.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	Audit   *auditlog.Logger
	users   *userstore.Store
	limiter *ratelimit.LoginLimiter
}

// NewHandler constructs a login Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger, auditLog *auditlog.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		Audit:   auditLog,
		users:   userstore.New(db),
		limiter: ratelimit.NewLoginLimiter(),
	}
}

type formData struct {
	formutil.Base
	Email  string
	Return string
}

// ServeForm handles GET /login.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	if _, signedIn := auth.CurrentUser(r); signedIn {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := formData{Return: urlutil.SafeReturn(r.URL.Query().Get("return"), "", "")}
	formutil.SetBase(&data.Base, r, "Sign in", "/")
	templates.Render(w, r, "login", data)
}

// HandlePost handles POST /login.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if allowed, reason := h.limiter.Check(r, email); !allowed {
		h.Audit.LoginFailed(r.Context(), r, audit.EventLoginFailedRateLimit, nil, email, reason)
		h.renderError(w, r, email, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			h.Audit.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, nil, email, "user not found")
			h.renderError(w, r, email, "Invalid email or password.")
			return
		}
		h.Log.Error("login lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !authutil.CheckPassword(user.PasswordHash, password) {
		h.Audit.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, &user.ID, email, "wrong password")
		h.renderError(w, r, email, "Invalid email or password.")
		return
	}

	// Pending accounts can't sign in until an admin approves them.
	if !user.Approved {
		h.Audit.LoginFailed(ctx, r, audit.EventLoginFailedNotApproved, &user.ID, email, "account pending approval")
		h.renderError(w, r, email, "Your account is still under review. You'll receive an email once it's approved.")
		return
	}

	if err := auth.SignIn(w, r, auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
		Role:  user.Role,
	}); err != nil {
		h.Log.Error("session write failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.limiter.ResetEmail(email)
	h.Audit.LoginSuccess(ctx, r, user.ID, user.Email)

	dest := urlutil.SafeReturn(r.FormValue("return"), "", "")
	if dest == "" {
		dest = "/dashboard"
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, email, msg string) {
	data := formData{
		Email:  email,
		Return: urlutil.SafeReturn(r.FormValue("return"), "", ""),
	}
	formutil.SetBase(&data.Base, r, "Sign in", "/")
	data.SetError(msg)
	templates.Render(w, r, "login", data)
}
