// internal/app/system/notify/notify.go
//
// Best-effort notification dispatch. Every channel failure is logged and
// swallowed: approvals, joins and group activity must never fail because
// an email relay or the Telegram API is down. Nothing here retries;
// notifications are fire-and-forget by design of the membership flow.
package notify

import (
	"context"

	"github.com/disciplo/disciplo/internal/app/system/mailer"
	"github.com/disciplo/disciplo/internal/app/system/telegram"
	"github.com/disciplo/disciplo/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Dispatcher fans a domain event out to the channels the recipient has.
type Dispatcher struct {
	mail     mailer.Sender
	tg       telegram.API
	log      *zap.Logger
	loginURL string
	strip    *bluemonday.Policy
}

// New builds a Dispatcher. loginURL is the absolute URL put into approval
// emails. Either channel may be a no-op in dev; failures are tolerated
// per call anyway.
func New(mail mailer.Sender, tg telegram.API, loginURL string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		mail:     mail,
		tg:       tg,
		log:      logger,
		loginURL: loginURL,
		strip:    bluemonday.StrictPolicy(),
	}
}

// Welcome sends the "account under review" email right after registration.
func (d *Dispatcher) Welcome(ctx context.Context, user models.User) {
	e := mailer.BuildWelcomeEmail(mailer.WelcomeEmailData{Name: user.FullName})
	e.To = user.Email
	if err := d.mail.Send(e); err != nil {
		d.log.Warn("welcome email failed",
			zap.String("user_id", user.ID.Hex()),
			zap.Error(err))
	}
}

// Approved tells the user their account went through: always by email,
// and additionally by Telegram DM when the account is linked. The two
// channels are independent; one failing does not stop the other.
func (d *Dispatcher) Approved(ctx context.Context, user models.User) {
	e := mailer.BuildApprovalEmail(mailer.ApprovalEmailData{
		Name:     user.FullName,
		LoginURL: d.loginURL,
	})
	e.To = user.Email
	if err := d.mail.Send(e); err != nil {
		d.log.Warn("approval email failed",
			zap.String("user_id", user.ID.Hex()),
			zap.Error(err))
	}

	if user.Linked() {
		msg := "Great news, " + user.FullName + "! Your Disciplo account has been approved. " +
			"You now have full access to the community: " + d.loginURL
		if err := d.tg.SendMessage(ctx, *user.TelegramID, msg); err != nil {
			d.log.Warn("approval telegram DM failed",
				zap.String("user_id", user.ID.Hex()),
				zap.Error(err))
		}
	}
}

// Linked confirms a completed Telegram handshake with a DM. When the
// community default group is known, the confirmation names it so an
// already-approved member knows where to go next.
func (d *Dispatcher) Linked(ctx context.Context, user models.User, defaultGroup *models.Group) {
	if !user.Linked() {
		return
	}
	msg := "You're all set, " + user.FullName + "! Your Telegram is now linked to your Disciplo account."
	if defaultGroup != nil {
		msg += " Your community group is " + defaultGroup.Name + "; you can join its chat now."
	}
	if err := d.tg.SendMessage(ctx, *user.TelegramID, msg); err != nil {
		d.log.Warn("link confirmation DM failed",
			zap.String("user_id", user.ID.Hex()),
			zap.Error(err))
	}
}

// GroupActivity announces something in the group's Telegram chat, for
// synced groups only. User-authored text is stripped of any markup before
// it leaves the app.
func (d *Dispatcher) GroupActivity(ctx context.Context, group models.Group, text string) {
	if !group.Synced() {
		return
	}
	if err := d.tg.SendMessage(ctx, *group.TelegramChatID, d.strip.Sanitize(text)); err != nil {
		d.log.Warn("group announcement failed",
			zap.String("group_id", group.ID.Hex()),
			zap.Error(err))
	}
}
