// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/disciplo/disciplo/internal/app/resources"
	auditstore "github.com/disciplo/disciplo/internal/app/store/audit"
	battleplanstore "github.com/disciplo/disciplo/internal/app/store/battleplans"
	groupstore "github.com/disciplo/disciplo/internal/app/store/groups"
	linktokenstore "github.com/disciplo/disciplo/internal/app/store/linktokens"
	membershipstore "github.com/disciplo/disciplo/internal/app/store/memberships"
	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/auditlog"
	"github.com/disciplo/disciplo/internal/app/system/authutil"
	"github.com/disciplo/disciplo/internal/app/system/mailer"
	"github.com/disciplo/disciplo/internal/app/system/notify"
	"github.com/disciplo/disciplo/internal/app/system/reconcile"
	"github.com/disciplo/disciplo/internal/app/system/telegram"
	"github.com/disciplo/disciplo/internal/app/system/workers"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// services holds the long-lived pieces built once at startup and shared
// by BuildHandler and Shutdown.
type services struct {
	Telegram     *telegram.Client
	Notify       *notify.Dispatcher
	Reconciler   *reconcile.Reconciler
	Audit        *auditlog.Logger
	Sweep        *workers.ReconcileSweep
	TokenCleanup *workers.LinkTokenCleanup
}

var svc services

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// It loads shared templates, builds the notification and reconcile
// stack, bootstraps the admin account, and starts background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	db := deps.MongoDatabase

	mail := mailer.New(
		appCfg.MailSMTPHost, appCfg.MailSMTPPort,
		appCfg.MailSMTPUser, appCfg.MailSMTPPass,
		appCfg.MailFrom, appCfg.MailFromName,
		logger,
	)
	svc.Telegram = telegram.NewClient(appCfg.TelegramBotToken, 10*time.Second, logger)
	svc.Notify = notify.New(mail, svc.Telegram, appCfg.BaseURL+"/login", logger)
	svc.Reconciler = reconcile.New(
		userstore.New(db),
		groupstore.New(db),
		membershipstore.New(db),
		linktokenstore.New(db),
		battleplanstore.New(db),
		svc.Telegram,
		svc.Notify,
		logger,
	)

	audits := auditstore.New(db)
	if err := audits.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	svc.Audit = auditlog.New(audits, logger)

	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, db, appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
	}

	svc.Sweep = workers.NewReconcileSweep(svc.Reconciler, logger, appCfg.SweepInterval)
	svc.Sweep.Start()
	svc.TokenCleanup = workers.NewLinkTokenCleanup(linktokenstore.New(db), logger, appCfg.TokenCleanupInterval)
	svc.TokenCleanup.Start()

	return nil
}

// ensureAdmin promotes the configured account to admin, creating it
// when it does not exist yet. Admins are approved by definition.
func ensureAdmin(ctx context.Context, db *mongo.Database, email, password string, logger *zap.Logger) error {
	users := userstore.New(db)

	existing, err := users.GetByEmail(ctx, email)
	if err != nil && err != mongo.ErrNoDocuments {
		return err
	}

	if err == nil {
		if existing.Role == "admin" && existing.Approved {
			return nil
		}
		if err := users.PromoteToAdmin(ctx, existing.ID); err != nil {
			return err
		}
		logger.Info("promoted account to admin", zap.String("email", email))
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin account %q does not exist and admin_password is not set", email)
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	admin, err := users.Create(ctx, models.User{
		FullName:     "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         "admin",
		Approved:     true,
		ApprovedAt:   &now,
	})
	if err != nil {
		return err
	}
	logger.Info("created admin account",
		zap.String("email", email),
		zap.String("user_id", admin.ID.Hex()))
	return nil
}
