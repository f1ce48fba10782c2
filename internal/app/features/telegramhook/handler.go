// internal/app/features/telegramhook/handler.go
package telegramhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	battleplanstore "github.com/disciplo/disciplo/internal/app/store/battleplans"
	groupstore "github.com/disciplo/disciplo/internal/app/store/groups"
	membershipstore "github.com/disciplo/disciplo/internal/app/store/memberships"
	userstore "github.com/disciplo/disciplo/internal/app/store/users"
	"github.com/disciplo/disciplo/internal/app/system/auditlog"
	"github.com/disciplo/disciplo/internal/app/system/limits"
	"github.com/disciplo/disciplo/internal/app/system/reconcile"
	"github.com/disciplo/disciplo/internal/app/system/telegram"
	"github.com/disciplo/disciplo/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// secretHeader is the header Telegram echoes back when the webhook was
// registered with a secret_token.
const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Handler receives Telegram Bot API updates: /start deep links in
// private chats and roster events in group chats. The handler always
// answers 200 once the secret checks out; Telegram retries anything
// else, and a retried roster event is useless after the fact.
type Handler struct {
	Log         *zap.Logger
	Audit       *auditlog.Logger
	Reconciler  *reconcile.Reconciler
	TG          telegram.API
	Secret      string
	BotUsername string
	users       *userstore.Store
	groups      *groupstore.Store
	memberships *membershipstore.Store
	battleplans *battleplanstore.Store
}

// NewHandler constructs a webhook Handler. botUsername identifies the
// bot itself in new_chat_members events, without the leading @.
func NewHandler(db *mongo.Database, logger *zap.Logger, auditLog *auditlog.Logger, reconciler *reconcile.Reconciler, tg telegram.API, secret, botUsername string) *Handler {
	return &Handler{
		Log:         logger,
		Audit:       auditLog,
		Reconciler:  reconciler,
		TG:          tg,
		Secret:      secret,
		BotUsername: strings.TrimPrefix(botUsername, "@"),
		users:       userstore.New(db),
		groups:      groupstore.New(db),
		memberships: membershipstore.New(db),
		battleplans: battleplanstore.New(db),
	}
}

// Serve handles POST /telegram/webhook.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxWebhookSize)
	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	h.dispatch(ctx, update)
	w.WriteHeader(http.StatusOK)
}

// authorized compares the secret header in constant time.
func (h *Handler) authorized(r *http.Request) bool {
	if h.Secret == "" {
		return false
	}
	got := r.Header.Get(secretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) == 1
}

func (h *Handler) dispatch(ctx context.Context, update telegram.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	switch {
	case msg.Chat.Type == "private":
		h.handlePrivate(ctx, chatID, msg)

	case len(msg.NewChatMembers) > 0:
		h.handleJoins(ctx, chatID, msg)

	case msg.LeftChatMember != nil:
		if err := h.Reconciler.HandleExternalLeave(ctx, chatID, *msg.LeftChatMember); err != nil {
			h.Log.Error("external leave failed",
				zap.String("chat_id", chatID),
				zap.Error(err))
		}
	}
}

// handlePrivate processes direct messages to the bot. "/start <token>"
// is the second leg of the account link handshake; the rest are status
// commands answered from the local store.
func (h *Handler) handlePrivate(ctx context.Context, chatID string, msg *telegram.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}

	cmd, arg := parseCommand(msg.Text)
	switch cmd {
	case "/start":
		if arg != "" {
			h.linkAccount(ctx, chatID, arg, *msg.From)
			return
		}
		h.reply(ctx, chatID, startReply)
	case "/help":
		h.reply(ctx, chatID, helpReply)
	case "/verify":
		h.cmdVerify(ctx, chatID, msg.From.ID)
	case "/groups":
		h.cmdGroups(ctx, chatID, msg.From.ID)
	case "/battleplan":
		h.cmdBattleplan(ctx, chatID, msg.From.ID)
	}
}

func (h *Handler) linkAccount(ctx context.Context, chatID, token string, from telegram.ChatUser) {
	user, err := h.Reconciler.LinkTelegram(ctx, token, from)
	if err != nil {
		if err == reconcile.ErrUnknownToken {
			h.Log.Info("link token rejected", zap.String("chat_id", chatID))
			h.reply(ctx, chatID, "That link has expired or was already used. Get a fresh one from your Disciplo profile.")
		} else {
			h.Log.Error("telegram link failed",
				zap.String("chat_id", chatID),
				zap.Error(err))
		}
		return
	}
	h.Audit.TelegramLinked(ctx, user.ID, strconv.FormatInt(from.ID, 10))
}

// handleJoins splits a new_chat_members event: the bot itself being
// added activates the chat as a group, everyone else is an external
// join to reconcile.
func (h *Handler) handleJoins(ctx context.Context, chatID string, msg *telegram.Message) {
	for _, joiner := range msg.NewChatMembers {
		if joiner.IsBot && joiner.Username == h.BotUsername {
			group, err := h.Reconciler.HandleGroupActivated(ctx, chatID, msg.Chat.Title)
			if err != nil {
				h.Log.Error("group activation failed",
					zap.String("chat_id", chatID),
					zap.Error(err))
				continue
			}
			h.Audit.GroupActivated(ctx, group.ID, chatID)
			continue
		}
		if err := h.Reconciler.HandleExternalJoin(ctx, chatID, joiner); err != nil {
			h.Log.Error("external join failed",
				zap.String("chat_id", chatID),
				zap.Int64("telegram_id", joiner.ID),
				zap.Error(err))
		}
	}
}

// ServeStatus handles GET /telegram/webhook, a liveness probe for the
// webhook path.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// parseCommand splits "/cmd arg". Telegram appends "@botname" to the
// command when the user taps it from a command list; that suffix is
// stripped.
func parseCommand(text string) (cmd, arg string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", ""
	}
	cmd = fields[0]
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	if len(fields) > 1 {
		arg = fields[1]
	}
	return cmd, arg
}
