// internal/mocks/telegram.go
package mocks

import (
	"context"
	"sync"
)

// TelegramCall records one call made against the fake gateway.
type TelegramCall struct {
	Method string // "sendMessage" | "banChatMember" | "unbanChatMember"
	ChatID string
	UserID string
	Text   string
}

// FakeTelegram implements telegram.API for tests. It records every call
// and can be told to fail, to exercise best-effort paths.
type FakeTelegram struct {
	mu    sync.Mutex
	Calls []TelegramCall
	Err   error // returned by every call when non-nil
}

// NewFakeTelegram returns an empty fake gateway.
func NewFakeTelegram() *FakeTelegram {
	return &FakeTelegram{}
}

func (f *FakeTelegram) SendMessage(ctx context.Context, chatID, text string) error {
	return f.record(TelegramCall{Method: "sendMessage", ChatID: chatID, Text: text})
}

func (f *FakeTelegram) BanChatMember(ctx context.Context, chatID, userID string) error {
	return f.record(TelegramCall{Method: "banChatMember", ChatID: chatID, UserID: userID})
}

func (f *FakeTelegram) UnbanChatMember(ctx context.Context, chatID, userID string) error {
	return f.record(TelegramCall{Method: "unbanChatMember", ChatID: chatID, UserID: userID})
}

func (f *FakeTelegram) record(c TelegramCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, c)
	return f.Err
}

// CallsTo returns the recorded calls for one method.
func (f *FakeTelegram) CallsTo(method string) []TelegramCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []TelegramCall
	for _, c := range f.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}
