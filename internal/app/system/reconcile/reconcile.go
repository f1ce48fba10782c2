// internal/app/system/reconcile/reconcile.go
//
// Membership reconciliation between the local store and Telegram. The
// local store is authoritative: every decision is committed locally
// first, and Telegram is mirrored best-effort afterwards. A failed
// mirror call is logged and left for the periodic sweep to repair; it
// never rolls back the local decision.
package reconcile

import (
	"context"
	"errors"
	"strconv"

	battleplanstore "github.com/disciplo/disciplo/internal/app/store/battleplans"
	groupstore "github.com/disciplo/disciplo/internal/app/store/groups"
	linktokenstore "github.com/disciplo/disciplo/internal/app/store/linktokens"
	membershipstore "github.com/disciplo/disciplo/internal/app/store/memberships"
	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/notify"
	"github.com/disciplo/disciplo/internal/app/system/telegram"
	"github.com/disciplo/disciplo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrUnknownToken is returned when a /start deep-link token does not
// redeem (unknown, expired, or already spent).
var ErrUnknownToken = errors.New("link token is unknown or expired")

// Reconciler owns the approval/rejection state machine and the
// bidirectional membership sync with Telegram.
type Reconciler struct {
	users       *userstore.Store
	groups      *groupstore.Store
	memberships *membershipstore.Store
	linkTokens  *linktokenstore.Store
	battleplans *battleplanstore.Store
	tg          telegram.API
	notify      *notify.Dispatcher
	log         *zap.Logger
}

// New wires a Reconciler over the stores and the Telegram gateway.
func New(
	users *userstore.Store,
	groups *groupstore.Store,
	memberships *membershipstore.Store,
	linkTokens *linktokenstore.Store,
	battleplans *battleplanstore.Store,
	tg telegram.API,
	dispatcher *notify.Dispatcher,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		users:       users,
		groups:      groups,
		memberships: memberships,
		linkTokens:  linkTokens,
		battleplans: battleplans,
		tg:          tg,
		notify:      dispatcher,
		log:         logger,
	}
}

// ApproveUser flips a pending account to approved and runs the cascade:
// join the community default group, lift any Telegram bans left by
// earlier join reversals, and notify the user. Returns changed=false when
// the account was already approved or no longer exists. The cascade runs
// only for the approval that actually changed state, so concurrent
// approvals cannot double-notify.
func (r *Reconciler) ApproveUser(ctx context.Context, userID, approvedBy primitive.ObjectID) (bool, error) {
	changed, err := r.users.Approve(ctx, userID, approvedBy)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		// Approved and immediately deleted by someone else; nothing left
		// to cascade.
		if err == mongo.ErrNoDocuments {
			return true, nil
		}
		return true, err
	}

	if def, err := r.groups.GetDefault(ctx); err == nil {
		if _, err := r.memberships.Add(ctx, def.ID, userID, models.MembershipRoleMember); err != nil && err != membershipstore.ErrDuplicateMembership {
			r.log.Error("default group join failed during approval",
				zap.String("user_id", userID.Hex()),
				zap.Error(err))
		}
	} else if err != mongo.ErrNoDocuments {
		r.log.Error("default group lookup failed during approval", zap.Error(err))
	}

	if user.Linked() {
		r.unbanEverywhere(ctx, *user.TelegramID, userID)
	}

	r.notify.Approved(ctx, *user)
	return true, nil
}

// unbanEverywhere lifts join-reversal bans in every synced chat so the
// freshly approved user can accept group invites. Best-effort per chat.
func (r *Reconciler) unbanEverywhere(ctx context.Context, telegramID string, userID primitive.ObjectID) {
	synced, err := r.groups.ListSynced(ctx)
	if err != nil {
		r.log.Error("synced group listing failed during approval", zap.Error(err))
		return
	}
	for _, g := range synced {
		if err := r.tg.UnbanChatMember(ctx, *g.TelegramChatID, telegramID); err != nil {
			r.log.Warn("unban after approval failed",
				zap.String("user_id", userID.Hex()),
				zap.String("group_id", g.ID.Hex()),
				zap.Error(err))
		}
	}
}

// RejectUser removes a pending (or any) account and everything hanging
// off it: memberships, battleplans, outstanding link tokens, and the
// user document itself. If the account was linked, the user is also
// kicked from every synced chat, best-effort. There is no "rejected"
// state and no rejection notice; the record is simply gone.
func (r *Reconciler) RejectUser(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, err
	}

	if _, err := r.memberships.DeleteByUser(ctx, userID); err != nil {
		return false, err
	}
	if _, err := r.battleplans.DeleteByUser(ctx, userID); err != nil {
		return false, err
	}
	if _, err := r.linkTokens.DeleteByUser(ctx, userID); err != nil {
		return false, err
	}

	deleted, err := r.users.Delete(ctx, userID)
	if err != nil {
		return false, err
	}

	if user.Linked() {
		r.kickEverywhere(ctx, *user.TelegramID, userID)
	}
	return deleted, nil
}

// kickEverywhere removes the user from every synced chat. Ban followed by
// unban is a kick, not a punishment: the Telegram account stays free to
// join other communities and to rejoin here if re-registered and approved.
func (r *Reconciler) kickEverywhere(ctx context.Context, telegramID string, userID primitive.ObjectID) {
	synced, err := r.groups.ListSynced(ctx)
	if err != nil {
		r.log.Error("synced group listing failed during rejection", zap.Error(err))
		return
	}
	for _, g := range synced {
		r.kickFromChat(ctx, *g.TelegramChatID, telegramID, userID, g.ID)
	}
}

func (r *Reconciler) kickFromChat(ctx context.Context, chatID, telegramID string, userID, groupID primitive.ObjectID) {
	if err := r.tg.BanChatMember(ctx, chatID, telegramID); err != nil {
		r.log.Warn("telegram kick failed",
			zap.String("user_id", userID.Hex()),
			zap.String("group_id", groupID.Hex()),
			zap.Error(err))
		return
	}
	if err := r.tg.UnbanChatMember(ctx, chatID, telegramID); err != nil {
		r.log.Warn("unban after kick failed",
			zap.String("user_id", userID.Hex()),
			zap.String("group_id", groupID.Hex()),
			zap.Error(err))
	}
}

// HandleExternalJoin processes a Telegram roster event: someone joined a
// chat. If the chat maps to a synced group and the joiner is a linked,
// approved account, the local membership row is created (a duplicate row
// means the web side got there first, which is fine). Anyone else —
// unlinked, unapproved, or unknown — is reversed out of the chat, since
// chat membership must never outrun local approval.
func (r *Reconciler) HandleExternalJoin(ctx context.Context, chatID string, joiner telegram.ChatUser) error {
	if joiner.IsBot {
		return nil
	}

	group, err := r.groups.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil // chat not synced with any group
		}
		return err
	}

	telegramID := strconv.FormatInt(joiner.ID, 10)
	user, err := r.users.GetByTelegramID(ctx, telegramID)
	if err != nil && err != mongo.ErrNoDocuments {
		return err
	}

	if err == mongo.ErrNoDocuments || !user.Approved {
		r.log.Info("reversing unapproved telegram join",
			zap.String("telegram_id", telegramID),
			zap.String("group_id", group.ID.Hex()))
		var userID primitive.ObjectID
		if user != nil {
			userID = user.ID
		}
		r.kickFromChat(ctx, chatID, telegramID, userID, group.ID)
		return nil
	}

	if _, err := r.memberships.Add(ctx, group.ID, user.ID, models.MembershipRoleMember); err != nil && err != membershipstore.ErrDuplicateMembership {
		return err
	}
	return nil
}

// HandleExternalLeave processes the inverse roster event: someone left a
// chat. The matching local membership is removed; a missing row means the
// two sides were already in agreement.
func (r *Reconciler) HandleExternalLeave(ctx context.Context, chatID string, leaver telegram.ChatUser) error {
	if leaver.IsBot {
		return nil
	}

	group, err := r.groups.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil
		}
		return err
	}

	user, err := r.users.GetByTelegramID(ctx, strconv.FormatInt(leaver.ID, 10))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil
		}
		return err
	}

	if _, err := r.memberships.Remove(ctx, group.ID, user.ID); err != nil {
		return err
	}
	return nil
}

// HandleGroupActivated binds a Telegram chat to a group when the bot is
// added to it. The first chat ever activated becomes the community
// default. A greeting is posted to newly activated chats, best-effort.
func (r *Reconciler) HandleGroupActivated(ctx context.Context, chatID, title string) (*models.Group, error) {
	group, created, err := r.groups.ActivateTelegram(ctx, chatID, title)
	if err != nil {
		return nil, err
	}
	if created {
		r.log.Info("telegram group activated",
			zap.String("group_id", group.ID.Hex()),
			zap.String("chat_id", chatID),
			zap.Bool("is_default", group.IsDefault))
		r.notify.GroupActivity(ctx, *group,
			"This chat is now connected to Disciplo as \""+group.Name+"\".")
	}
	return group, nil
}

// LinkTelegram completes the /start deep-link handshake: the token is
// redeemed (single use, expiring) and the Telegram identity is written to
// the account, exactly once. For an account approved before it was
// linked, the external sync deferred at approval time runs now: bans
// left by pre-link join reversals are lifted, and the confirmation DM
// points at the community default group. Returns the linked user so the
// caller can reply in the chat.
func (r *Reconciler) LinkTelegram(ctx context.Context, token string, tgUser telegram.ChatUser) (*models.User, error) {
	tok, err := r.linkTokens.Consume(ctx, token)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUnknownToken
		}
		return nil, err
	}

	telegramID := strconv.FormatInt(tgUser.ID, 10)
	if err := r.users.SetTelegramLink(ctx, tok.UserID, telegramID, tgUser.Username); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUnknownToken
		}
		return nil, err
	}

	user, err := r.users.GetByID(ctx, tok.UserID)
	if err != nil {
		return nil, err
	}

	var def *models.Group
	if user.Approved {
		r.unbanEverywhere(ctx, telegramID, user.ID)
		if g, err := r.groups.GetDefault(ctx); err == nil {
			def = g
		} else if err != mongo.ErrNoDocuments {
			r.log.Error("default group lookup failed during link", zap.Error(err))
		}
	}

	r.notify.Linked(ctx, *user, def)
	return user, nil
}

// Sweep repairs drift on both sides. Locally, every approved account
// that is not yet in the default group gets its membership row
// (re)created. Externally, every approved, linked account has its bans
// lifted in all synced chats: an unban that was lost to a gateway
// outage at approval or link time is retried here. Unbanning a member
// who was never banned is a no-op at the Bot API, so the blanket pass
// is safe to repeat. Telegram rosters cannot be enumerated through the
// Bot API, so join-side drift still self-corrects through join/leave
// events and kick reversals.
func (r *Reconciler) Sweep(ctx context.Context) error {
	def, err := r.groups.GetDefault(ctx)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil // nothing to reconcile against yet
		}
		return err
	}

	users, err := r.users.ListApproved(ctx)
	if err != nil {
		return err
	}

	var repaired int
	for _, u := range users {
		_, err := r.memberships.Add(ctx, def.ID, u.ID, models.MembershipRoleMember)
		if err == membershipstore.ErrDuplicateMembership {
			continue
		}
		if err != nil {
			r.log.Error("sweep membership repair failed",
				zap.String("user_id", u.ID.Hex()),
				zap.Error(err))
			continue
		}
		repaired++
	}
	if repaired > 0 {
		r.log.Info("membership sweep repaired rows", zap.Int("count", repaired))
	}

	linked, err := r.users.ListApprovedLinked(ctx)
	if err != nil {
		return err
	}
	synced, err := r.groups.ListSynced(ctx)
	if err != nil {
		return err
	}
	for _, g := range synced {
		for _, u := range linked {
			if err := r.tg.UnbanChatMember(ctx, *g.TelegramChatID, *u.TelegramID); err != nil {
				r.log.Warn("sweep unban retry failed",
					zap.String("user_id", u.ID.Hex()),
					zap.String("group_id", g.ID.Hex()),
					zap.Error(err))
			}
		}
	}
	return nil
}
