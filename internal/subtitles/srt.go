package subtitles

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cue is one numbered, timed block of subtitle text.
type Cue struct {
	Number int
	Start  time.Duration
	End    time.Duration
	Text   string
}

// Document is an ordered list of cues.
type Document struct {
	Cues []Cue
}

// Len returns the cue count.
func (d Document) Len() int { return len(d.Cues) }

// Bytes renders the document as UTF-8 SRT. Each cue ends with a blank line.
func (d Document) Bytes() []byte {
	var buf bytes.Buffer
	for _, cue := range d.Cues {
		buf.WriteString(strconv.Itoa(cue.Number))
		buf.WriteByte('\n')
		buf.WriteString(FormatTimestamp(cue.Start))
		buf.WriteString(" --> ")
		buf.WriteString(FormatTimestamp(cue.End))
		buf.WriteByte('\n')
		if cue.Text != "" {
			buf.WriteString(cue.Text)
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// FormatTimestamp renders d as HH:MM:SS,mmm, truncating below a millisecond.
// Negative durations render as zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := int64(d / time.Millisecond)
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// ParseTimestamp reads HH:MM:SS,mmm. A period separator is accepted too.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	clock, fraction, ok := strings.Cut(value, ",")
	if !ok || len(fraction) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(fraction)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// ParseSRT reads SRT content. Blocks that lack a numeric first line or a
// timing line are reported as errors rather than skipped.
func ParseSRT(data []byte) (Document, error) {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.TrimSpace(content)
	if content == "" {
		return Document{}, nil
	}

	var doc Document
	for i, block := range strings.Split(content, "\n\n") {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return Document{}, fmt.Errorf("block %d: expected number and timing lines", i+1)
		}
		number, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return Document{}, fmt.Errorf("block %d: invalid cue number %q", i+1, lines[0])
		}
		startText, endText, ok := strings.Cut(lines[1], "-->")
		if !ok {
			return Document{}, fmt.Errorf("block %d: missing timing arrow", i+1)
		}
		start, err := ParseTimestamp(startText)
		if err != nil {
			return Document{}, fmt.Errorf("block %d: %w", i+1, err)
		}
		end, err := ParseTimestamp(endText)
		if err != nil {
			return Document{}, fmt.Errorf("block %d: %w", i+1, err)
		}
		doc.Cues = append(doc.Cues, Cue{
			Number: number,
			Start:  start,
			End:    end,
			Text:   strings.Join(lines[2:], "\n"),
		})
	}
	return doc, nil
}
