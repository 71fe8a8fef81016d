package sanitizer

import (
	"reflect"
	"strings"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"basic trim", "  hello  ", "hello"},
		{"multiple spaces", "hello    world", "hello world"},
		{"tabs and newlines", "patient\t\nrequested", "patient requested"},
		{"empty", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"unicode preserved", " Dr. Müller ", "Dr. Müller"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  doc_123  ", "doc_123"},
		{"doc 123", "doc123"},
		{"doc\t123\n", "doc123"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeID(tt.input); got != tt.want {
			t.Errorf("SanitizeID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeTimeZone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid", "Asia/Jerusalem", "Asia/Jerusalem"},
		{"surrounding spaces", "  Europe/Berlin ", "Europe/Berlin"},
		{"double slash", "America//New_York", "America/New_York"},
		{"double underscore", "America/New__York", "America/New_York"},
		{"trailing slash", "UTC/", "UTC"},
		{"offset zone", "Etc/GMT+3", "Etc/GMT+3"},
		{"illegal characters", "Europe/Berlin;DROP", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTimeZone(tt.input); got != tt.want {
				t.Errorf("SanitizeTimeZone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeCurrency(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"USD", "usd"},
		{" eur ", "eur"},
		{"us", ""},
		{"dollars", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeCurrency(tt.input); got != tt.want {
			t.Errorf("SanitizeCurrency(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeReason(t *testing.T) {
	if got := SanitizeReason("  changed   my mind "); got != "changed my mind" {
		t.Errorf("SanitizeReason() = %q", got)
	}

	long := strings.Repeat("ab ", MaxReasonLength)
	got := SanitizeReason(long)
	if n := len([]rune(got)); n > MaxReasonLength {
		t.Errorf("SanitizeReason() length = %d, want <= %d", n, MaxReasonLength)
	}
}

func TestSanitizeSlice(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"dedupes after normalizing", []string{"doc_1", " doc_1 ", "doc_2"}, []string{"doc_1", "doc_2"}},
		{"drops empty", []string{"", "  ", "doc_3"}, []string{"doc_3"}},
		{"nil input", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeSlice(tt.input, SanitizeID); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SanitizeSlice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdempotency(t *testing.T) {
	inputs := []string{"  America//New__York ", " USD ", "  a   b  ", "x y"}
	for _, in := range inputs {
		for _, fn := range []Strategy{SanitizeTimeZone, SanitizeCurrency, SanitizeReason, SanitizeID} {
			once := fn(in)
			if twice := fn(once); twice != once {
				t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
			}
		}
	}
}
