// Package normalize holds small input-normalization helpers shared by
// stores and handlers. Emails are compared case-insensitively everywhere,
// so they are lowered once at the boundary.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// TelegramID trims a Telegram user or chat identifier. Telegram IDs are
// numeric strings; no case handling applies.
func TelegramID(s string) string {
	return strings.TrimSpace(s)
}
