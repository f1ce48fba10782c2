// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// framework-level settings (ports, TLS, logging); AppConfig is
// everything specific to Disciplo.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: disciplo-session)
	SessionDomain string // Cookie domain (blank means current host)

	// CSRF protection
	CSRFKey string // 32-byte key for gorilla/csrf token signing

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address
	MailFromName string // From display name

	// Telegram Bot API configuration. Leaving the token empty disables
	// the outbound side; the webhook refuses everything when the secret
	// is empty.
	TelegramBotToken      string
	TelegramBotUsername   string // bot username without the leading @
	TelegramWebhookSecret string // secret_token the webhook was registered with

	// Base URL for links in outgoing email
	BaseURL string // e.g., "https://disciplo.example" or "http://localhost:3000"

	// Admin bootstrap: promotes (or creates) this account as admin on
	// startup so a fresh deployment is not locked out.
	AdminEmail    string
	AdminPassword string // used only when the account does not exist yet

	// Background worker intervals
	SweepInterval        time.Duration // membership reconcile sweep
	TokenCleanupInterval time.Duration // expired link token cleanup
}
