// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	approvalsfeature "github.com/disciplo/disciplo/internal/app/features/approvals"
	battleplansfeature "github.com/disciplo/disciplo/internal/app/features/battleplans"
	dashboardfeature "github.com/disciplo/disciplo/internal/app/features/dashboard"
	errorsfeature "github.com/disciplo/disciplo/internal/app/features/errors"
	groupsfeature "github.com/disciplo/disciplo/internal/app/features/groups"
	healthfeature "github.com/disciplo/disciplo/internal/app/features/health"
	homefeature "github.com/disciplo/disciplo/internal/app/features/home"
	logbookfeature "github.com/disciplo/disciplo/internal/app/features/logbook"
	loginfeature "github.com/disciplo/disciplo/internal/app/features/login"
	logoutfeature "github.com/disciplo/disciplo/internal/app/features/logout"
	membersfeature "github.com/disciplo/disciplo/internal/app/features/members"
	profilefeature "github.com/disciplo/disciplo/internal/app/features/profile"
	registerfeature "github.com/disciplo/disciplo/internal/app/features/register"
	telegramhookfeature "github.com/disciplo/disciplo/internal/app/features/telegramhook"
	"github.com/disciplo/disciplo/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and the Startup hook have completed. The Telegram webhook and the
// health check live outside the CSRF and session layers: the webhook
// authenticates with its own secret header and health has no state.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	// Boot the template engine once at startup. Dev mode enables
	// template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	db := deps.MongoDatabase

	r := chi.NewRouter()

	// Machine endpoints, outside sessions and CSRF.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	hookHandler := telegramhookfeature.NewHandler(db, logger, svc.Audit, svc.Reconciler,
		svc.Telegram, appCfg.TelegramWebhookSecret, appCfg.TelegramBotUsername)
	r.Mount("/telegram", telegramhookfeature.Routes(hookHandler))

	// Static assets with pre-compressed file support (gzip/brotli).
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Browser-facing routes: sessions plus CSRF protection.
	r.Group(func(r chi.Router) {
		r.Use(csrf.Protect([]byte(appCfg.CSRFKey), csrf.Secure(secure), csrf.Path("/")))
		r.Use(auth.LoadSessionUser)

		homeHandler := homefeature.NewHandler(db, logger)
		r.Mount("/", homefeature.Routes(homeHandler))

		loginHandler := loginfeature.NewHandler(db, logger, svc.Audit)
		r.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(logger, svc.Audit)
		r.Mount("/logout", logoutfeature.Routes(logoutHandler))

		registerHandler := registerfeature.NewHandler(db, logger, svc.Audit, svc.Notify)
		r.Mount("/register", registerfeature.Routes(registerHandler))

		errorsHandler := errorsfeature.NewHandler()
		r.Get("/forbidden", errorsHandler.Forbidden)
		r.Get("/unauthorized", errorsHandler.Unauthorized)

		// Signed-in area.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSignedIn)

			dashboardHandler := dashboardfeature.NewHandler(db, logger)
			r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

			groupsHandler := groupsfeature.NewHandler(db, logger, svc.Audit)
			r.Mount("/groups", groupsfeature.Routes(groupsHandler))

			logbookHandler := logbookfeature.NewHandler(db, logger, svc.Notify)
			r.Mount("/groups/{id}/logbook", logbookfeature.Routes(logbookHandler))

			membersHandler := membersfeature.NewHandler(db, logger)
			r.Mount("/members", membersfeature.Routes(membersHandler))

			profileHandler := profilefeature.NewHandler(db, logger, appCfg.TelegramBotUsername)
			r.Mount("/profile", profilefeature.Routes(profileHandler))

			battleplansHandler := battleplansfeature.NewHandler(db, logger)
			r.Mount("/battleplans", battleplansfeature.Routes(battleplansHandler))
		})

		// Admin area. The role check here is a routing gate; handlers
		// re-verify the stored role before any mutation.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSignedIn)
			r.Use(auth.RequireRole("admin"))

			approvalsHandler := approvalsfeature.NewHandler(db, logger, svc.Audit, svc.Reconciler)
			r.Mount("/admin/approvals", approvalsfeature.Routes(approvalsHandler))
		})
	})

	return r, nil
}
