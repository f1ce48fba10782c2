// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/disciplo/disciplo/internal/app/system/auditlog"
	"github.com/disciplo/disciplo/internal/app/system/auth"
	"github.com/disciplo/disciplo/internal/app/system/authz"
	"go.uber.org/zap"
)

// Handler clears the session.
type Handler struct {
	Log   *zap.Logger
	Audit *auditlog.Logger
}

// NewHandler constructs a logout Handler.
func NewHandler(logger *zap.Logger, auditLog *auditlog.Logger) *Handler {
	return &Handler{Log: logger, Audit: auditLog}
}

// HandlePost handles POST /logout.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	if _, _, uid, ok := authz.UserCtx(r); ok {
		h.Audit.Logout(r.Context(), r, uid)
	}
	if err := auth.SignOut(w, r); err != nil {
		h.Log.Warn("session clear failed", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
