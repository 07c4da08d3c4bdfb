// Package notify delivers operator notifications, either through the HTTP
// relay endpoint or straight to the Telegram Bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
)

const (
	defaultTimeout = 10 * time.Second
	// MaxMessageLen is the Telegram sendMessage text limit.
	MaxMessageLen  = 4096
	maxErrorBodyKB = 4
)

// Notifier sends a plain text message to the operator.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// ValidateMessage applies the relay contract: a non-empty string within the
// Telegram size limit.
func ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid message")
	}
	if len(message) > MaxMessageLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid message").
			WithDetails(map[string]any{"max_length": MaxMessageLen})
	}
	return nil
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) (*http.Response, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyKB*1024))
	if err != nil {
		return resp, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, raw, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
