package validators

import (
	"net/http"
	"strconv"

	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
	"github.com/vaultcast/storefront-backend/pkg/pagination"
)

const maxQueryValueLen = 512

// QueryString returns the sanitized value of key, or "" when absent.
func QueryString(r *http.Request, key string) string {
	return SanitizeString(r.URL.Query().Get(key), maxQueryValueLen)
}

// QueryInt parses key as an integer within [min, max], returning fallback
// when the parameter is absent.
func QueryInt(r *http.Request, key string, fallback, min, max int) (int, error) {
	raw := QueryString(r, key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be an integer").
			WithDetails(map[string]string{key: "must be an integer"})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").
			WithDetails(map[string]any{key: "out of range", "min": min, "max": max})
	}
	return value, nil
}

func ParsePagination(r *http.Request) (pagination.Params, error) {
	limit, err := QueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Cursor: QueryString(r, "cursor")}, nil
}
