package productmap

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultCategory = "Digital Media"
	DefaultName     = "Premium Digital Content"

	longNameThreshold = 20
	sanitizedMaxLen   = 50
)

// Rule maps a trigger substring to a processor-safe name and category.
type Rule struct {
	Trigger  string
	Name     string
	Category string
}

var defaultRules = []Rule{
	{Trigger: "video", Name: "Premium Digital Content", Category: "Digital Media"},
	{Trigger: "content", Name: "Exclusive Digital Material", Category: "Digital Media"},
	{Trigger: "material", Name: "Premium Digital Collection", Category: "Digital Media"},
	{Trigger: "alex", Name: "Premium Digital Guide", Category: "Digital Media"},
	{Trigger: "vip", Name: "VIP Digital Access", Category: "Digital Media"},
	{Trigger: "exclusive", Name: "Exclusive Digital Content", Category: "Digital Media"},
	{Trigger: "premium", Name: "Premium Digital Package", Category: "Digital Media"},
	{Trigger: "video", Name: "Digital Video Collection", Category: "Digital Media"},
	{Trigger: "film", Name: "Digital Film Package", Category: "Digital Media"},
	{Trigger: "movie", Name: "Digital Movie Collection", Category: "Digital Media"},
	{Trigger: "guide", Name: "Digital Learning Guide", Category: "Education"},
	{Trigger: "tutorial", Name: "Digital Tutorial Package", Category: "Education"},
	{Trigger: "course", Name: "Digital Course Material", Category: "Education"},
	{Trigger: "training", Name: "Digital Training Package", Category: "Education"},
	{Trigger: "premium", Name: "Premium Digital Package", Category: "Digital Media"},
	{Trigger: "exclusive", Name: "Exclusive Digital Collection", Category: "Digital Media"},
	{Trigger: "vip", Name: "VIP Digital Access", Category: "Digital Media"},
	{Trigger: "special", Name: "Special Digital Edition", Category: "Digital Media"},
	{Trigger: "digital", Name: "Digital Content Package", Category: "Digital Media"},
	{Trigger: "online", Name: "Online Digital Access", Category: "Digital Media"},
	{Trigger: "web", Name: "Web Digital Content", Category: "Digital Media"},
	{Trigger: "adult", Name: "Mature Digital Content", Category: "Digital Media"},
	{Trigger: "mature", Name: "Mature Digital Collection", Category: "Digital Media"},
	{Trigger: "18+", Name: "Age-Restricted Digital Content", Category: "Digital Media"},
	{Trigger: "explicit", Name: "Explicit Digital Material", Category: "Digital Media"},
	{Trigger: "sensual", Name: "Sensual Digital Content", Category: "Digital Media"},
	{Trigger: "erotic", Name: "Erotic Digital Collection", Category: "Digital Media"},
	{Trigger: "romantic", Name: "Romantic Digital Content", Category: "Digital Media"},
	{Trigger: "intimate", Name: "Intimate Digital Material", Category: "Digital Media"},
}

// DefaultRules returns a copy of the built-in rule list. Order matters: the
// first matching trigger wins, and some triggers appear more than once.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Mapper turns real product titles into generic names for outbound payment
// text. The zero value is not usable; call NewMapper.
type Mapper struct {
	rules []Rule
}

func NewMapper(rules []Rule) Mapper {
	normalized := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		trigger := strings.ToLower(strings.TrimSpace(rule.Trigger))
		if trigger == "" {
			continue
		}
		rule.Trigger = trigger
		normalized = append(normalized, rule)
	}
	return Mapper{rules: normalized}
}

var defaultMapper = NewMapper(defaultRules)

// Default returns the mapper bound to DefaultRules.
func Default() Mapper {
	return defaultMapper
}

func (m Mapper) match(realName string) (Rule, bool) {
	normalized := strings.ToLower(strings.TrimSpace(realName))
	for _, rule := range m.rules {
		if strings.Contains(normalized, rule.Trigger) {
			return rule, true
		}
	}
	return Rule{}, false
}

// GenericName never returns the input itself.
func (m Mapper) GenericName(realName string) string {
	if rule, ok := m.match(realName); ok {
		return rule.Name
	}

	normalized := strings.ToLower(strings.TrimSpace(realName))
	switch {
	case len(normalized) > longNameThreshold:
		return "Premium Digital Content Package"
	case strings.Contains(normalized, "video") || strings.Contains(normalized, "film"):
		return "Digital Video Collection"
	case strings.Contains(normalized, "photo") || strings.Contains(normalized, "image"):
		return "Digital Photo Collection"
	case strings.Contains(normalized, "audio") || strings.Contains(normalized, "music"):
		return "Digital Audio Collection"
	default:
		return DefaultName
	}
}

func (m Mapper) GenericCategory(realName string) string {
	if rule, ok := m.match(realName); ok && rule.Category != "" {
		return rule.Category
	}
	return DefaultCategory
}

// GenericDescription formats "{name} - {category} Package". The price is
// accepted for call-site symmetry and is not rendered.
func (m Mapper) GenericDescription(realName string, _ decimal.Decimal) string {
	return fmt.Sprintf("%s - %s Package", m.GenericName(realName), m.GenericCategory(realName))
}

// Sanitize returns the generic name for sensitive input. Other input keeps
// only ASCII letters, digits, spaces and hyphens, cut to 50 characters.
func (m Mapper) Sanitize(name string) string {
	if IsSensitive(name) {
		return m.GenericName(name)
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isSafeRune(r) {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if len(cleaned) > sanitizedMaxLen {
		cleaned = cleaned[:sanitizedMaxLen]
	}
	return strings.TrimSpace(cleaned)
}

// ProcessorLabel is the name and description sent to the processor. Mapped
// names that still trip the classifier collapse to the neutral default.
func (m Mapper) ProcessorLabel(realName string, price decimal.Decimal) (string, string) {
	name := m.GenericName(realName)
	description := m.GenericDescription(realName, price)
	if IsSensitive(name) || IsSensitive(description) {
		name = DefaultName
		description = fmt.Sprintf("%s - %s Package", DefaultName, DefaultCategory)
	}
	return name, description
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '-':
		return true
	}
	return false
}

func GenericName(realName string) string {
	return defaultMapper.GenericName(realName)
}

func GenericCategory(realName string) string {
	return defaultMapper.GenericCategory(realName)
}

func GenericDescription(realName string, price decimal.Decimal) string {
	return defaultMapper.GenericDescription(realName, price)
}

func Sanitize(name string) string {
	return defaultMapper.Sanitize(name)
}

func ProcessorLabel(realName string, price decimal.Decimal) (string, string) {
	return defaultMapper.ProcessorLabel(realName, price)
}
