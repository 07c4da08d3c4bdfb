package square

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"

	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
)

const categoryPaymentMethod = sq.ErrorCategory("PAYMENT_METHOD_ERROR")

// mapSquareError turns an SDK failure into a coded error. The HTTP status
// picks the default code; the Square error body can refine it.
func mapSquareError(err error, op string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	message := "square " + op + " failed"
	var apiErr *sqcore.APIError
	if !errors.As(err, &apiErr) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
	}

	code := domainCodeForStatus(apiErr.StatusCode)
	detail := ""
	for _, sqErr := range extractSquareErrors(apiErr) {
		if sqErr == nil {
			continue
		}
		if detail == "" {
			detail = stringValue(sqErr.Detail)
		}
		if refined, ok := refineCode(sqErr); ok {
			code = refined
			break
		}
	}
	mapped := pkgerrors.Wrap(code, err, message)
	if detail != "" {
		mapped = mapped.WithDetails(map[string]any{"status": apiErr.StatusCode, "detail": detail})
	}
	return mapped
}

func refineCode(sqErr *sq.Error) (pkgerrors.Code, bool) {
	switch {
	case sqErr.Code == sq.ErrorCodeIdempotencyKeyReused:
		return pkgerrors.CodeIdempotency, true
	case sqErr.Category == sq.ErrorCategoryAuthenticationError:
		return pkgerrors.CodeUnauthorized, true
	case sqErr.Category == categoryPaymentMethod:
		return pkgerrors.CodeProcessor, true
	}
	return "", false
}

// extractSquareErrors decodes the {"errors": [...]} body the SDK keeps as
// the APIError cause.
func extractSquareErrors(apiErr *sqcore.APIError) []*sq.Error {
	if apiErr == nil || apiErr.Unwrap() == nil {
		return nil
	}
	raw := strings.TrimSpace(apiErr.Unwrap().Error())
	if raw == "" {
		return nil
	}
	var payload struct {
		Errors []*sq.Error `json:"errors"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload.Errors
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusPaymentRequired:
		return pkgerrors.CodeProcessor
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	}
	if status >= 400 && status < 500 {
		return pkgerrors.CodeValidation
	}
	return pkgerrors.CodeDependency
}
