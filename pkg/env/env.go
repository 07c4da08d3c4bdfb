package env

import (
	"os"
	"strings"
)

// Prefix namespaces storefront variables. Get consults the prefixed name
// before the bare one so LOG_FORMAT and STOREFRONT_LOG_FORMAT both work.
const Prefix = "STOREFRONT_"

func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
