package textutil

import "testing"

func TestNormalizeCueText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"whitespace", "  \n\t ", ""},
		{"trims lines", "  hello  \n  world ", "hello\nworld"},
		{"crlf", "one\r\ntwo\rthree", "one\ntwo\nthree"},
		{"blank lines dropped", "first\n\n\nsecond", "first\nsecond"},
		{"nfc composes", "Cafe\u0301", "Caf\u00e9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCueText(tt.input); got != tt.expected {
				t.Errorf("NormalizeCueText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		" Episode 1: Pilot? ": "Episode 1- Pilot",
		"   ":                 "",
		"../../etc/passwd":    "-..-etc-passwd",
		"..":                  "",
		".hidden":             "hidden",
		"tab\\there\x00":      "tab-there",
		"bell\athere":         "bellthere",
		"a<b>|c*d":            "abc-d",
	}
	for input, want := range tests {
		if got := SanitizeFileName(input); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}
