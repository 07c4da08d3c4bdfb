package notify

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
)

// RelayClient posts {"message": ...} to a relay endpoint. Any 2xx answer
// counts as delivered.
type RelayClient struct {
	url    string
	client *http.Client
}

func NewRelayClient(relayURL string, timeout time.Duration) (*RelayClient, error) {
	relayURL = strings.TrimSpace(relayURL)
	parsed, err := url.Parse(relayURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "relay url must be absolute")
	}
	return &RelayClient{url: relayURL, client: newHTTPClient(timeout)}, nil
}

type relayRequest struct {
	Message string `json:"message"`
}

func (c *RelayClient) Notify(ctx context.Context, message string) error {
	if err := ValidateMessage(message); err != nil {
		return err
	}
	resp, body, err := postJSON(ctx, c.client, c.url, relayRequest{Message: message})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "notification relay unreachable")
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return pkgerrors.New(pkgerrors.CodeUpstream, "notification relay rejected message").
			WithDetails(map[string]any{"status": resp.StatusCode, "body": string(body)})
	}
	return nil
}
