package checkout

import (
	"fmt"
	"net/url"
	"strings"

	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
)

// Purpose selects the message body of a manual-channel link.
type Purpose string

const (
	PurposePayment     Purpose = "payment"
	PurposeNegotiation Purpose = "negotiation"
)

func ParsePurpose(value string) (Purpose, error) {
	switch Purpose(strings.ToLower(strings.TrimSpace(value))) {
	case "", PurposePayment:
		return PurposePayment, nil
	case PurposeNegotiation:
		return PurposeNegotiation, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid fallback purpose").
			WithDetails(map[string]any{"purpose": value})
	}
}

func fallbackMessage(item Item, purpose Purpose) string {
	price := item.formattedPrice()
	if purpose == PurposeNegotiation {
		return fmt.Sprintf("💬 Negotiation Request\n\n📚 Product: %s\n💰 Price: $%s\n\nI'm interested in this product. Let's discuss payment options.", item.Title, price)
	}
	return fmt.Sprintf("💳 Payment Request\n\n📚 Product: %s\n💰 Amount: $%s\n\nPlease process this payment and send the content.", item.Title, price)
}

// TelegramLink builds a t.me deep link with a prefilled message. Spaces are
// percent-encoded so the text survives clients that do not decode '+'.
func TelegramLink(username, message string) string {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return fmt.Sprintf("https://t.me/%s?text=%s", url.PathEscape(username), text)
}
