package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vaultcast/storefront-backend/pkg/config"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
)

// TelegramSender calls the Bot API sendMessage method with HTML parse mode.
type TelegramSender struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

func NewTelegramSender(cfg config.TelegramConfig) (*TelegramSender, error) {
	if !cfg.Enabled() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "telegram credentials not configured")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &TelegramSender{
		baseURL: baseURL,
		token:   strings.TrimSpace(cfg.BotToken),
		chatID:  strings.TrimSpace(cfg.ChatID),
		client:  newHTTPClient(cfg.Timeout),
	}, nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

func (s *TelegramSender) Notify(ctx context.Context, message string) error {
	if err := ValidateMessage(message); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	resp, body, err := postJSON(ctx, s.client, endpoint, sendMessageRequest{
		ChatID:    s.chatID,
		Text:      message,
		ParseMode: "HTML",
	})
	if err != nil {
		// the error text carries the bot token inside the request URL
		return pkgerrors.New(pkgerrors.CodeUpstream, "telegram unreachable").
			WithDetails(map[string]any{"error": strings.ReplaceAll(err.Error(), s.token, "***")})
	}

	var decoded sendMessageResponse
	_ = json.Unmarshal(body, &decoded)
	if resp.StatusCode != http.StatusOK || !decoded.OK {
		return pkgerrors.New(pkgerrors.CodeUpstream, "failed to send telegram message").
			WithDetails(map[string]any{
				"status":      resp.StatusCode,
				"error_code":  decoded.ErrorCode,
				"description": decoded.Description,
			})
	}
	return nil
}
