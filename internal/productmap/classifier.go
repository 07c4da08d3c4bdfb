package productmap

import "strings"

// sensitiveKeywords flag text that must never reach the payment processor.
// Matching is by lower-cased substring, so "real" also matches "surreal".
var sensitiveKeywords = []string{
	"adult",
	"mature",
	"18+",
	"explicit",
	"porn",
	"xxx",
	"nsfw",
	"nude",
	"naked",
	"sex",
	"sexual",
	"erotic",
	"sensual",
	"intimate",
	"private",
	"personal",
	"real",
	"authentic",
}

// IsSensitive reports whether text contains any sensitive keyword.
func IsSensitive(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
