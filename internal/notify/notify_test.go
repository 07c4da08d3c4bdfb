package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultcast/storefront-backend/pkg/config"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
)

func TestRelayClient_Notify(t *testing.T) {
	tests := []struct {
		name         string
		mockResponse func()
		code         pkgerrors.Code
	}{
		{
			name: "Success",
			mockResponse: func() {
				gock.New("http://relay.example").
					Post("/api/v1/telegram/notify").
					MatchType("json").
					JSON(map[string]string{"message": "hello"}).
					Reply(200).
					JSON(map[string]any{"data": map[string]bool{"ok": true}})
			},
		},
		{
			name: "Rejected",
			mockResponse: func() {
				gock.New("http://relay.example").
					Post("/api/v1/telegram/notify").
					Reply(502).
					JSON(map[string]string{"error": "upstream"})
			},
			code: pkgerrors.CodeUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()
			tt.mockResponse()

			client, err := NewRelayClient("http://relay.example/api/v1/telegram/notify", time.Second)
			require.NoError(t, err)
			gock.InterceptClient(client.client)

			err = client.Notify(context.Background(), "hello")
			if tt.code == "" {
				assert.NoError(t, err)
			} else {
				assert.True(t, pkgerrors.IsCode(err, tt.code), "got %v", err)
			}
			assert.True(t, gock.IsDone())
		})
	}
}

func TestRelayClientRejectsBadInput(t *testing.T) {
	_, err := NewRelayClient("relay", time.Second)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	client, err := NewRelayClient("http://relay.example/notify", time.Second)
	require.NoError(t, err)
	assert.True(t, pkgerrors.IsCode(client.Notify(context.Background(), "   "), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(client.Notify(context.Background(), strings.Repeat("x", MaxMessageLen+1)), pkgerrors.CodeValidation))
}

func TestTelegramSender_Notify(t *testing.T) {
	cfg := config.TelegramConfig{
		BotToken:   "123:abc",
		ChatID:     "42",
		APIBaseURL: "https://telegram.example/",
		Timeout:    time.Second,
	}

	tests := []struct {
		name         string
		mockResponse func()
		wantErr      bool
	}{
		{
			name: "Success",
			mockResponse: func() {
				gock.New("https://telegram.example").
					Post("/bot123:abc/sendMessage").
					MatchType("json").
					JSON(map[string]string{"chat_id": "42", "text": "paid", "parse_mode": "HTML"}).
					Reply(200).
					JSON(map[string]any{"ok": true, "result": map[string]int{"message_id": 1}})
			},
		},
		{
			name: "TelegramNotOK",
			mockResponse: func() {
				gock.New("https://telegram.example").
					Post("/bot123:abc/sendMessage").
					Reply(400).
					JSON(map[string]any{"ok": false, "error_code": 400, "description": "Bad Request: chat not found"})
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()
			tt.mockResponse()

			sender, err := NewTelegramSender(cfg)
			require.NoError(t, err)
			gock.InterceptClient(sender.client)

			err = sender.Notify(context.Background(), "paid")
			if tt.wantErr {
				require.Error(t, err)
				typed := pkgerrors.As(err)
				require.NotNil(t, typed)
				assert.Equal(t, pkgerrors.CodeUpstream, typed.Code())
				details, ok := typed.Details().(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "Bad Request: chat not found", details["description"])
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, gock.IsDone())
		})
	}
}

func TestNewTelegramSenderRequiresCredentials(t *testing.T) {
	_, err := NewTelegramSender(config.TelegramConfig{BotToken: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}
