// internal/app/system/telegram/api.go
package telegram

import "context"

// API is the narrow surface of the Telegram Bot API the app depends on.
// The reconciler and notification dispatcher program against this
// interface; tests substitute a recording fake. Every call carries a
// timeout via its context and returns an error instead of panicking, so
// callers choose their own best-effort-vs-fatal policy per call site.
// No call retries internally.
type API interface {
	// SendMessage posts text to a chat: a user DM (chatID = telegram user
	// id) or a group (chatID = telegram chat id).
	SendMessage(ctx context.Context, chatID, text string) error

	// BanChatMember removes a user from a group chat.
	BanChatMember(ctx context.Context, chatID, userID string) error

	// UnbanChatMember lifts a ban so the user may rejoin later. Used right
	// after BanChatMember when the removal is a membership reversal, not a
	// punishment.
	UnbanChatMember(ctx context.Context, chatID, userID string) error
}

// Update is an incoming Bot API update delivered to the webhook.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is the subset of a Telegram message the webhook cares about:
// commands in private chats and the roster events in group chats.
type Message struct {
	MessageID      int64      `json:"message_id"`
	From           *ChatUser  `json:"from,omitempty"`
	Chat           Chat       `json:"chat"`
	Text           string     `json:"text,omitempty"`
	NewChatMembers []ChatUser `json:"new_chat_members,omitempty"`
	LeftChatMember *ChatUser  `json:"left_chat_member,omitempty"`
}

// Chat identifies where a message happened.
type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"` // private | group | supergroup
	Title string `json:"title,omitempty"`
}

// ChatUser is a Telegram account referenced in an update.
type ChatUser struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}
