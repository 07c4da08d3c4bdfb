// Package procenv guesses whether a processor client credential belongs to a
// sandbox or live account. The answer is a heuristic used to pre-fill settings
// and must never be used to authorize anything.
package procenv

import (
	"regexp"
	"strings"

	"github.com/vaultcast/storefront-backend/pkg/enums"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

const (
	shortCredentialMax = 25
	longCredentialMin  = 30
	minCredentialLen   = 20
	maskedPrefixLen    = 10
)

// Result is the outcome of Detect.
type Result struct {
	Environment enums.ProcessorEnvironment `json:"environment"`
	Confidence  Confidence                 `json:"confidence"`
	Reason      string                     `json:"reason"`
}

type rule struct {
	matches func(credential string) bool
	result  Result
}

var (
	sandboxTestPrefix = regexp.MustCompile(`(?i)^test_`)
	sandboxWord       = regexp.MustCompile(`(?i)sandbox`)
	sandboxSBPrefix   = regexp.MustCompile(`(?i)^sb-`)
	sandboxShape      = regexp.MustCompile(`^A[0-9A-Z]{20}$`)

	liveLivePrefix = regexp.MustCompile(`(?i)^live_`)
	liveWord       = regexp.MustCompile(`(?i)production`)
	liveProdPrefix = regexp.MustCompile(`(?i)^prod-`)
	liveShape      = regexp.MustCompile(`^A[0-9A-Z]{30,}$`)

	credentialCharset = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

func patternRule(re *regexp.Regexp, env enums.ProcessorEnvironment, reason string) rule {
	return rule{
		matches: re.MatchString,
		result:  Result{Environment: env, Confidence: ConfidenceHigh, Reason: reason},
	}
}

// rules are evaluated in order; the first match decides.
var rules = []rule{
	{
		matches: func(c string) bool { return c == "" },
		result:  Result{Environment: enums.ProcessorEnvSandbox, Confidence: ConfidenceHigh, Reason: "empty credential"},
	},
	patternRule(sandboxTestPrefix, enums.ProcessorEnvSandbox, "matches sandbox pattern ^test_"),
	patternRule(sandboxWord, enums.ProcessorEnvSandbox, "matches sandbox pattern sandbox"),
	patternRule(sandboxSBPrefix, enums.ProcessorEnvSandbox, "matches sandbox pattern ^sb-"),
	patternRule(sandboxShape, enums.ProcessorEnvSandbox, "matches sandbox credential shape"),
	patternRule(liveLivePrefix, enums.ProcessorEnvLive, "matches live pattern ^live_"),
	patternRule(liveWord, enums.ProcessorEnvLive, "matches live pattern production"),
	patternRule(liveProdPrefix, enums.ProcessorEnvLive, "matches live pattern ^prod-"),
	patternRule(liveShape, enums.ProcessorEnvLive, "matches live credential shape"),
	{
		matches: func(c string) bool { return len(c) <= shortCredentialMax },
		result:  Result{Environment: enums.ProcessorEnvSandbox, Confidence: ConfidenceMedium, Reason: "short credential, likely sandbox"},
	},
	{
		matches: func(c string) bool { return len(c) >= longCredentialMin },
		result:  Result{Environment: enums.ProcessorEnvLive, Confidence: ConfidenceMedium, Reason: "long credential, likely live"},
	},
	{
		matches: func(c string) bool { return strings.HasPrefix(c, "A") },
		result:  Result{Environment: enums.ProcessorEnvLive, Confidence: ConfidenceLow, Reason: "starts with A, possibly live"},
	},
}

var fallback = Result{Environment: enums.ProcessorEnvSandbox, Confidence: ConfidenceLow, Reason: "unknown pattern, safe default"}

// Detect classifies a credential. Surrounding whitespace is ignored.
func Detect(credential string) Result {
	trimmed := strings.TrimSpace(credential)
	for _, r := range rules {
		if r.matches(trimmed) {
			return r.result
		}
	}
	return fallback
}

// IsValidCredential checks the credential shape only.
func IsValidCredential(credential string) bool {
	trimmed := strings.TrimSpace(credential)
	if trimmed == "" || len(trimmed) < minCredentialLen {
		return false
	}
	return credentialCharset.MatchString(trimmed)
}

// Inspection is the admin-facing view of a credential.
type Inspection struct {
	Masked    string `json:"masked"`
	Length    int    `json:"length"`
	Valid     bool   `json:"valid"`
	Detection Result `json:"detection"`
}

func Inspect(credential string) Inspection {
	trimmed := strings.TrimSpace(credential)
	masked := ""
	if trimmed != "" {
		prefix := trimmed
		if len(prefix) > maskedPrefixLen {
			prefix = prefix[:maskedPrefixLen]
		}
		masked = prefix + "..."
	}
	return Inspection{
		Masked:    masked,
		Length:    len(trimmed),
		Valid:     IsValidCredential(trimmed),
		Detection: Detect(trimmed),
	}
}
