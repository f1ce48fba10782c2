// internal/app/features/telegramhook/commands.go
package telegramhook

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/disciplo/disciplo/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const helpReply = "Commands:\n" +
	"/verify - check your account status\n" +
	"/groups - list your groups\n" +
	"/battleplan - show your active battleplan\n" +
	"/help - this message"

const startReply = "Welcome to Disciplo. To connect this Telegram account, " +
	"open your profile on the web app and tap the link button there.\n\n" + helpReply

const unlinkedReply = "This Telegram account is not linked yet. Open your " +
	"Disciplo profile on the web app and use the link button there."

// reply sends a DM back to the sender, best-effort.
func (h *Handler) reply(ctx context.Context, chatID, text string) {
	if err := h.TG.SendMessage(ctx, chatID, text); err != nil {
		h.Log.Warn("bot reply failed",
			zap.String("chat_id", chatID),
			zap.Error(err))
	}
}

// accountFor resolves the sender to a linked account. A nil return means
// the sender was already answered (or the lookup failed).
func (h *Handler) accountFor(ctx context.Context, chatID string, telegramID int64) *models.User {
	user, err := h.users.GetByTelegramID(ctx, strconv.FormatInt(telegramID, 10))
	if err == mongo.ErrNoDocuments {
		h.reply(ctx, chatID, unlinkedReply)
		return nil
	}
	if err != nil {
		h.Log.Error("account lookup failed",
			zap.String("chat_id", chatID),
			zap.Error(err))
		return nil
	}
	return user
}

func (h *Handler) cmdVerify(ctx context.Context, chatID string, telegramID int64) {
	user := h.accountFor(ctx, chatID, telegramID)
	if user == nil {
		return
	}
	if user.Approved {
		h.reply(ctx, chatID, "Your account is linked and approved. Welcome aboard, "+user.FullName+".")
		return
	}
	h.reply(ctx, chatID, "Your account is linked but still waiting for admin approval.")
}

func (h *Handler) cmdGroups(ctx context.Context, chatID string, telegramID int64) {
	user := h.accountFor(ctx, chatID, telegramID)
	if user == nil {
		return
	}

	rows, err := h.memberships.ListByUser(ctx, user.ID)
	if err != nil {
		h.Log.Error("membership list failed", zap.Error(err))
		return
	}
	if len(rows) == 0 {
		h.reply(ctx, chatID, "You are not in any groups yet. Browse groups on the web app to join one.")
		return
	}

	var b strings.Builder
	b.WriteString("Your groups:")
	for _, m := range rows {
		group, err := h.groups.GetByID(ctx, m.GroupID)
		if err != nil {
			continue
		}
		b.WriteString("\n- " + group.Name)
		if m.Role == models.MembershipRoleAdmin {
			b.WriteString(" (admin)")
		}
	}
	h.reply(ctx, chatID, b.String())
}

func (h *Handler) cmdBattleplan(ctx context.Context, chatID string, telegramID int64) {
	user := h.accountFor(ctx, chatID, telegramID)
	if user == nil {
		return
	}

	plan, err := h.battleplans.GetActiveByUser(ctx, user.ID)
	if err == mongo.ErrNoDocuments {
		h.reply(ctx, chatID, "You have no active battleplan. Create one on the web app.")
		return
	}
	if err != nil {
		h.Log.Error("battleplan lookup failed", zap.Error(err))
		return
	}

	days := int(time.Until(plan.EndDate).Hours() / 24)
	if days < 0 {
		days = 0
	}
	h.reply(ctx, chatID, fmt.Sprintf("%s: %d-day plan, %d days left. Priority: %s",
		plan.Title, plan.Duration, days, plan.Priority))
}
