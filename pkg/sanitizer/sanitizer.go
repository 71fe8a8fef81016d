package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// MaxReasonLength caps free-text cancel reasons, counted in runes.
const MaxReasonLength = 280

var (
	reValidTZ         = regexp.MustCompile(`^[A-Za-z0-9_\-+/]+$`)
	reMultiSlash      = regexp.MustCompile(`/+`)
	reMultiUnderscore = regexp.MustCompile(`_+`)
	reCurrency        = regexp.MustCompile(`^[a-z]{3}$`)
)

func trim(s string) string {
	return strings.TrimSpace(s)
}

func lower(s string) string {
	return strings.ToLower(s)
}

func dropInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeID strips whitespace and control characters from an opaque id.
func SanitizeID(input string) string {
	return Pipeline{trim, dropInvisible}.Apply(input)
}

// SanitizeTimeZone cleans an IANA zone name ("America//New__York" becomes
// "America/New_York"). Names with characters outside the IANA alphabet
// become empty.
func SanitizeTimeZone(input string) string {
	p := Pipeline{
		trim,
		func(s string) string { return reMultiSlash.ReplaceAllString(s, "/") },
		func(s string) string { return reMultiUnderscore.ReplaceAllString(s, "_") },
		func(s string) string { return strings.Trim(s, "/") },
	}
	s := p.Apply(input)
	if s == "" || !reValidTZ.MatchString(s) {
		return ""
	}
	return s
}

// SanitizeCurrency lowercases an ISO 4217 code, the form Stripe expects.
func SanitizeCurrency(input string) string {
	s := Pipeline{trim, lower}.Apply(input)
	if !reCurrency.MatchString(s) {
		return ""
	}
	return s
}

func SanitizeReason(input string) string {
	s := TrimAndNormalize(input)
	if r := []rune(s); len(r) > MaxReasonLength {
		s = strings.TrimSpace(string(r[:MaxReasonLength]))
	}
	return s
}

func SanitizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}
