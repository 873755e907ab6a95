// Package notify delivers request lifecycle events to a Telegram chat
// through the Bot API. The bot token and chat id live in the runtime
// settings so admins can change them without a restart.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/playvault/game-request-api/internal/models"
	"github.com/playvault/game-request-api/internal/utils"
)

const defaultAPIBase = "https://api.telegram.org"

// SettingsSource provides the current notification settings. Settings
// are read per send so admin changes take effect immediately.
type SettingsSource interface {
	Settings(ctx context.Context) (models.SystemSettings, error)
}

// TelegramNotifier sends request events as Telegram messages.
type TelegramNotifier struct {
	httpClient *http.Client
	apiBase    string
	settings   SettingsSource
}

func NewTelegramNotifier(settings SettingsSource) *TelegramNotifier {
	return &TelegramNotifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBase:    defaultAPIBase,
		settings:   settings,
	}
}

// NotifyNewRequest announces a freshly opened request.
func (n *TelegramNotifier) NotifyNewRequest(ctx context.Context, r models.GameRequest) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\U0001F3AE <b>New game request</b>\n\n")
	fmt.Fprintf(&b, "<b>Game:</b> %s\n", html.EscapeString(r.GameName))
	fmt.Fprintf(&b, "<b>Requested by:</b> %s\n", html.EscapeString(r.Requester))
	if r.Genres != "" {
		fmt.Fprintf(&b, "<b>Genres:</b> %s\n", html.EscapeString(r.Genres))
	}
	if r.Comment != "" {
		fmt.Fprintf(&b, "<b>Comment:</b> %s\n", html.EscapeString(utils.StripMarkdown(r.Comment)))
	}
	fmt.Fprintf(&b, "\n<b>Status:</b> %s", r.Status)

	if r.CoverURL != "" {
		return n.sendPhoto(ctx, r.CoverURL, b.String())
	}
	return n.sendMessage(ctx, b.String())
}

// NotifyStatusChange announces an admin moving a request through its
// lifecycle.
func (n *TelegramNotifier) NotifyStatusChange(ctx context.Context, r models.GameRequest, previous models.RequestStatus) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>Request updated</b>\n\n", statusEmoji(r.Status))
	fmt.Fprintf(&b, "<b>Game:</b> %s\n", html.EscapeString(r.GameName))
	fmt.Fprintf(&b, "<b>Requested by:</b> %s\n", html.EscapeString(r.Requester))
	fmt.Fprintf(&b, "<b>Status:</b> %s → %s", previous, r.Status)
	if r.AdminNotes != "" {
		fmt.Fprintf(&b, "\n<b>Notes:</b> %s", html.EscapeString(r.AdminNotes))
	}
	return n.sendMessage(ctx, b.String())
}

// SendTest verifies the configured bot token and chat id by sending a
// probe message.
func (n *TelegramNotifier) SendTest(ctx context.Context) error {
	return n.sendMessage(ctx, "✅ Test notification: the request tracker can reach this chat.")
}

func statusEmoji(status models.RequestStatus) string {
	switch status {
	case models.StatusApproved:
		return "✅"
	case models.StatusRejected:
		return "❌"
	case models.StatusCompleted:
		return "\U0001F4E6"
	default:
		return "⏳"
	}
}

func (n *TelegramNotifier) sendMessage(ctx context.Context, text string) error {
	settings, err := n.settings.Settings(ctx)
	if err != nil {
		return fmt.Errorf("loading notification settings: %w", err)
	}
	return n.call(ctx, settings, "sendMessage", map[string]interface{}{
		"chat_id":    settings.TelegramChatID,
		"text":       text,
		"parse_mode": "HTML",
	})
}

func (n *TelegramNotifier) sendPhoto(ctx context.Context, photoURL, caption string) error {
	settings, err := n.settings.Settings(ctx)
	if err != nil {
		return fmt.Errorf("loading notification settings: %w", err)
	}
	err = n.call(ctx, settings, "sendPhoto", map[string]interface{}{
		"chat_id":    settings.TelegramChatID,
		"photo":      photoURL,
		"caption":    caption,
		"parse_mode": "HTML",
	})
	if err != nil {
		// A broken cover URL should not swallow the announcement.
		return n.call(ctx, settings, "sendMessage", map[string]interface{}{
			"chat_id":    settings.TelegramChatID,
			"text":       caption,
			"parse_mode": "HTML",
		})
	}
	return nil
}

func (n *TelegramNotifier) call(ctx context.Context, settings models.SystemSettings, method string, payload map[string]interface{}) error {
	if settings.TelegramBotToken == "" || settings.TelegramChatID == "" {
		return fmt.Errorf("telegram bot token or chat id not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", n.apiBase, settings.TelegramBotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram %s returned %d: %s", method, resp.StatusCode, detail)
	}
	return nil
}
