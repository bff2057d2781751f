package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName makes a caller-supplied subtitle base name safe to join
// with an output directory. Path separators, colons and asterisks become
// dashes; quotes, wildcards, redirection characters and control characters
// are dropped. Surrounding spaces and dots are trimmed so the name can
// neither hide the file nor climb out of the directory.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			return '-'
		case strings.ContainsRune(`?"<>|`, r), unicode.IsControl(r):
			return -1
		}
		return r
	}, name)
	return strings.Trim(cleaned, " .\t")
}
