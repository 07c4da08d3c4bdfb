package controllers

import (
	"net/http"

	"github.com/vaultcast/storefront-backend/api/responses"
	"github.com/vaultcast/storefront-backend/api/validators"
	"github.com/vaultcast/storefront-backend/internal/notify"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
	"github.com/vaultcast/storefront-backend/pkg/logger"
)

type telegramNotifyRequest struct {
	Message string `json:"message"`
}

// TelegramNotify relays an operator message to the Telegram Bot API. A nil
// sender means the bot credentials are not configured.
func TelegramNotify(sender notify.Notifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body telegramNotifyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid message"))
			return
		}
		if err := notify.ValidateMessage(body.Message); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if sender == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "telegram not configured"))
			return
		}
		if err := sender.Notify(r.Context(), body.Message); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"ok": true})
	}
}
