// internal/app/system/limits/limits.go
package limits

// Request body size limits. These keep oversized submissions from
// exhausting memory before validation even runs.
const (
	// MaxFormSize caps ordinary form submissions (registration, profile,
	// battle plans, logbook entries).
	MaxFormSize = 1 << 20 // 1 MB

	// MaxWebhookSize caps Telegram webhook payloads. Bot API updates are
	// small; anything near this limit is garbage.
	MaxWebhookSize = 1 << 20 // 1 MB
)
