package productmap

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestIsSensitive(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{text: "", want: false},
		{text: "Cooking Tutorial", want: false},
		{text: "VIP Private Session", want: true},
		{text: "NSFW clip", want: true},
		{text: "18+ only", want: true},
		{text: "Surreal Landscapes", want: true},
		{text: "AUTHENTIC behind the scenes", want: true},
	}

	for _, tc := range cases {
		if got := IsSensitive(tc.text); got != tc.want {
			t.Fatalf("IsSensitive(%q) = %v, want %v", tc.text, got, tc.want)
		}
		if IsSensitive(tc.text) != IsSensitive(tc.text) {
			t.Fatalf("IsSensitive(%q) is not stable", tc.text)
		}
	}
}

func TestGenericNameFirstMatchWins(t *testing.T) {
	cases := []struct {
		realName string
		want     string
	}{
		{realName: "VIP Private Session", want: "VIP Digital Access"},
		{realName: "My Video", want: "Premium Digital Content"},
		{realName: "Exclusive Content Drop", want: "Exclusive Digital Material"},
		{realName: "Piano course", want: "Digital Course Material"},
		{realName: "  ALEX  ", want: "Premium Digital Guide"},
		{realName: "Erotic Story", want: "Erotic Digital Collection"},
		{realName: "Romantic Evening", want: "Romantic Digital Content"},
		{realName: "Web Series", want: "Web Digital Content"},
	}

	for _, tc := range cases {
		if got := GenericName(tc.realName); got != tc.want {
			t.Fatalf("GenericName(%q) = %q, want %q", tc.realName, got, tc.want)
		}
	}
}

func TestGenericNameFallbacks(t *testing.T) {
	cases := []struct {
		realName string
		want     string
	}{
		{realName: "", want: "Premium Digital Content"},
		{realName: "A very long product title here", want: "Premium Digital Content Package"},
		{realName: "Photo set", want: "Digital Photo Collection"},
		{realName: "Image pack", want: "Digital Photo Collection"},
		{realName: "Music loops", want: "Digital Audio Collection"},
		{realName: "Audio notes", want: "Digital Audio Collection"},
		{realName: "Short one", want: "Premium Digital Content"},
	}

	for _, tc := range cases {
		if got := GenericName(tc.realName); got != tc.want {
			t.Fatalf("GenericName(%q) = %q, want %q", tc.realName, got, tc.want)
		}
	}
}

func TestGenericNameNeverEchoesInput(t *testing.T) {
	inputs := []string{"x", "Something", "Private Show", "Audio notes", "Cooking Basics 2024"}
	for _, input := range inputs {
		got := GenericName(input)
		if got == "" {
			t.Fatalf("GenericName(%q) returned empty", input)
		}
		if got == input {
			t.Fatalf("GenericName(%q) leaked the input", input)
		}
	}
}

func TestGenericCategory(t *testing.T) {
	if got := GenericCategory("Yoga training"); got != "Education" {
		t.Fatalf("expected Education, got %q", got)
	}
	if got := GenericCategory("Random thing"); got != DefaultCategory {
		t.Fatalf("expected default category, got %q", got)
	}
}

func TestGenericDescriptionIgnoresPrice(t *testing.T) {
	a := GenericDescription("VIP Private Session", decimal.RequireFromString("45.00"))
	b := GenericDescription("VIP Private Session", decimal.Zero)
	if a != b {
		t.Fatalf("expected description independent of price, got %q vs %q", a, b)
	}
	if a != "VIP Digital Access - Digital Media Package" {
		t.Fatalf("unexpected description %q", a)
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{name: "Cooking: Basics! (2024)", want: "Cooking Basics 2024"},
		{name: "  snake_case-title  ", want: "snakecase-title"},
		{name: "Private Session", want: GenericName("Private Session")},
		{name: "", want: ""},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.name); got != tc.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSanitizeOutputShape(t *testing.T) {
	inputs := []string{
		strings.Repeat("abc def ", 20),
		"Ünïcödé title with émojis 🎬 and symbols #$%",
		"tabs\tand\nnewlines",
		"Hyphen-ated - words",
	}
	for _, input := range inputs {
		got := Sanitize(input)
		if len(got) > sanitizedMaxLen {
			t.Fatalf("Sanitize(%q) length %d exceeds limit", input, len(got))
		}
		for _, r := range got {
			if !isSafeRune(r) {
				t.Fatalf("Sanitize(%q) kept unsafe rune %q", input, r)
			}
		}
		if got != strings.TrimSpace(got) {
			t.Fatalf("Sanitize(%q) not trimmed: %q", input, got)
		}
	}
}

func TestProcessorLabelNeverCarriesSensitiveText(t *testing.T) {
	titles := []string{
		"VIP Private Session",
		"Erotic Story",
		"Intimate moments",
		"Adult Collection",
		"Mature audiences",
		"Explicit cut",
		"Sensual dance",
		"Cooking basics",
	}
	for _, title := range titles {
		name, description := ProcessorLabel(title, decimal.RequireFromString("10"))
		if IsSensitive(name) || IsSensitive(description) {
			t.Fatalf("ProcessorLabel(%q) leaked sensitive text: %q / %q", title, name, description)
		}
		if strings.Contains(strings.ToLower(description), strings.ToLower(title)) {
			t.Fatalf("ProcessorLabel(%q) leaked the title", title)
		}
	}

	name, description := ProcessorLabel("VIP Private Session", decimal.RequireFromString("45.00"))
	if name != "VIP Digital Access" || description != "VIP Digital Access - Digital Media Package" {
		t.Fatalf("unexpected label %q / %q", name, description)
	}
}

func TestNewMapperCustomRules(t *testing.T) {
	m := NewMapper([]Rule{
		{Trigger: "  ", Name: "ignored"},
		{Trigger: "Yoga", Name: "Wellness Session", Category: "Education"},
	})
	if got := m.GenericName("morning yoga"); got != "Wellness Session" {
		t.Fatalf("expected custom rule, got %q", got)
	}
	if got := m.GenericName("nothing"); got != DefaultName {
		t.Fatalf("expected default fallback, got %q", got)
	}

	rules := DefaultRules()
	rules[0].Name = "mutated"
	if GenericName("video") == "mutated" {
		t.Fatal("DefaultRules must return a copy")
	}
}
