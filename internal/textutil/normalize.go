package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeCueText prepares recognized or translated text for a subtitle cue.
// The result contains no blank lines and no leading or trailing whitespace;
// whitespace-only input yields "".
func NormalizeCueText(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
