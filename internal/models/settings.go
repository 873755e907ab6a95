package models

// SystemSettings is the singleton, admin-editable configuration row.
// Defaults are created on first read.
type SystemSettings struct {
	MaxRequestsPerUser       int    `json:"max_requests_per_user"`
	RequireAdminApproval     bool   `json:"require_admin_approval"`
	AllowUserRequestDeletion bool   `json:"allow_user_request_deletion"`
	TelegramEnabled          bool   `json:"telegram_enabled"`
	TelegramBotToken         string `json:"telegram_bot_token,omitempty"`
	TelegramChatID           string `json:"telegram_chat_id,omitempty"`
	NotifyOnNewRequest       bool   `json:"notify_on_new_request"`
	NotifyOnStatusChange     bool   `json:"notify_on_status_change"`
}

// DefaultSettings returns the settings applied before an admin has saved
// anything.
func DefaultSettings() SystemSettings {
	return SystemSettings{
		MaxRequestsPerUser:       5,
		RequireAdminApproval:     true,
		AllowUserRequestDeletion: true,
		NotifyOnNewRequest:       true,
		NotifyOnStatusChange:     true,
	}
}
