// internal/app/system/telegram/client.go
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned by every call when no bot token is set.
// Callers on best-effort paths log it and move on; the app runs fine
// without a bot.
var ErrNotConfigured = errors.New("telegram: bot token not configured")

const defaultBaseURL = "https://api.telegram.org"

// Client is a thin HTTP client for the Telegram Bot API. It performs no
// retries; transient failures surface as errors and external state drift
// is repaired by the reconcile sweep.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient builds a Client. An empty token yields a client whose calls
// all fail with ErrNotConfigured.
func NewClient(token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: timeout},
		log:     logger,
	}
}

// SetBaseURL overrides the Bot API endpoint. Used by tests to point the
// client at a local fake server.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Configured reports whether a bot token is present.
func (c *Client) Configured() bool {
	return c.token != ""
}

// SendMessage posts text to a user DM or group chat.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	return c.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	})
}

// BanChatMember removes a user from a group chat.
func (c *Client) BanChatMember(ctx context.Context, chatID, userID string) error {
	return c.call(ctx, "banChatMember", map[string]interface{}{
		"chat_id": chatID,
		"user_id": userID,
	})
}

// UnbanChatMember lifts a ban so the user can rejoin once approved.
func (c *Client) UnbanChatMember(ctx context.Context, chatID, userID string) error {
	return c.call(ctx, "unbanChatMember", map[string]interface{}{
		"chat_id":        chatID,
		"user_id":        userID,
		"only_if_banned": true,
	})
}

// apiResponse is the Bot API envelope; only the failure fields matter here.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, params map[string]interface{}) error {
	if c.token == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("telegram: marshal %s params: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()

	// The Bot API reports failures in the envelope, not only via status.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("telegram: read %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("telegram: decode %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram: %s failed: %d %s", method, envelope.ErrorCode, envelope.Description)
	}

	c.log.Debug("telegram call ok", zap.String("method", method))
	return nil
}
