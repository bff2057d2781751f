package subtitles

import (
	"errors"
	"strings"
	"testing"
	"time"

	"dualsub/internal/services"
	"dualsub/internal/transcription"
)

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func sampleEntries() []transcription.Entry {
	return []transcription.Entry{
		{Index: 0, Start: 0, End: ms(3000), Text: "Hola  ", TranslatedText: "Hello"},
		{Index: 1, Start: ms(3700), End: ms(5000), Text: "", TranslatedText: ""},
		{Index: 2, Start: ms(5000), End: ms(9999), Text: "line one\r\n\r\n  line two ", TranslatedText: "first\nsecond"},
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00,000"},
		{ms(3700), "00:00:03,700"},
		{time.Hour + 2*time.Minute + 3*time.Second + ms(45), "01:02:03,045"},
		{ms(1234) + 999*time.Microsecond, "00:00:01,234"},
		{-time.Second, "00:00:00,000"},
		{100 * time.Hour, "100:00:00,000"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.in); got != tt.want {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp(" 01:02:03,045 ")
	if err != nil || got != time.Hour+2*time.Minute+3*time.Second+ms(45) {
		t.Fatalf("ParseTimestamp = %v, %v", got, err)
	}
	if got, err := ParseTimestamp("00:00:01.500"); err != nil || got != ms(1500) {
		t.Fatalf("period separator: %v, %v", got, err)
	}
	for _, bad := range []string{"", "00:00:01", "00:61:00,000", "aa:00:00,000", "00:00:00,5"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestAssembleKeepsEmptyCuesForParity(t *testing.T) {
	entries := sampleEntries()
	orig, err := Assemble(entries, Original, Options{})
	if err != nil {
		t.Fatalf("Assemble original: %v", err)
	}
	trans, err := Assemble(entries, Translated, Options{})
	if err != nil {
		t.Fatalf("Assemble translated: %v", err)
	}
	if orig.Len() != 3 || trans.Len() != 3 {
		t.Fatalf("expected 3 cues each, got %d and %d", orig.Len(), trans.Len())
	}
	if err := CheckParity(orig, trans); err != nil {
		t.Fatalf("documents should be in parity: %v", err)
	}
	if orig.Cues[2].Text != "line one\nline two" {
		t.Fatalf("text not normalized: %q", orig.Cues[2].Text)
	}
	if orig.Cues[0].Text != "Hola" {
		t.Fatalf("text not trimmed: %q", orig.Cues[0].Text)
	}
	for i, cue := range orig.Cues {
		if cue.Number != i+1 {
			t.Fatalf("cue %d numbered %d", i, cue.Number)
		}
	}
}

func TestAssembleRender(t *testing.T) {
	doc, err := Assemble(sampleEntries(), Translated, Options{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := strings.Join([]string{
		"1",
		"00:00:00,000 --> 00:00:03,000",
		"Hello",
		"",
		"2",
		"00:00:03,700 --> 00:00:05,000",
		"",
		"3",
		"00:00:05,000 --> 00:00:09,999",
		"first",
		"second",
		"",
		"",
	}, "\n")
	if got := string(doc.Bytes()); got != want {
		t.Fatalf("unexpected SRT:\n%s\nwant:\n%s", got, want)
	}

	parsed, err := ParseSRT(doc.Bytes())
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if err := CheckParity(doc, parsed); err != nil {
		t.Fatalf("parsed document differs: %v", err)
	}
	if parsed.Cues[1].Text != "" || parsed.Cues[2].Text != "first\nsecond" {
		t.Fatalf("unexpected parsed text: %+v", parsed.Cues)
	}
	if issues := Validate(parsed); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestAssembleDropEmptyRenumbers(t *testing.T) {
	doc, err := Assemble(sampleEntries(), Original, Options{DropEmpty: true})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if doc.Len() != 2 {
		t.Fatalf("expected 2 cues, got %d", doc.Len())
	}
	if doc.Cues[1].Number != 2 || doc.Cues[1].Start != ms(5000) {
		t.Fatalf("unexpected second cue %+v", doc.Cues[1])
	}
}

func TestAssembleClampsNegativeDuration(t *testing.T) {
	doc, err := Assemble([]transcription.Entry{{Start: ms(2000), End: ms(1500), Text: "x"}}, Original, Options{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if doc.Cues[0].End != ms(2000) {
		t.Fatalf("expected clamped end, got %v", doc.Cues[0].End)
	}
}

func TestAssembleTrimOverlaps(t *testing.T) {
	entries := []transcription.Entry{
		{Start: 0, End: ms(2500), Text: "a"},
		{Start: ms(2000), End: ms(3000), Text: "b"},
		{Start: ms(2000), End: ms(2100), Text: "c"},
	}
	untrimmed, err := Assemble(entries, Original, Options{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if untrimmed.Cues[0].End != ms(2500) {
		t.Fatal("overlaps must be tolerated without TrimOverlaps")
	}
	doc, err := Assemble(entries, Original, Options{TrimOverlaps: true})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if doc.Cues[0].End != ms(2000) {
		t.Fatalf("expected first cue trimmed to 2s, got %v", doc.Cues[0].End)
	}
	if doc.Cues[1].End != ms(2000) {
		t.Fatalf("expected second cue trimmed to its own start, got %v", doc.Cues[1].End)
	}
	for _, cue := range doc.Cues {
		if cue.End < cue.Start {
			t.Fatalf("cue %d ends before start", cue.Number)
		}
	}
}

func TestAssembleRejectsDecreasingStart(t *testing.T) {
	entries := []transcription.Entry{
		{Start: ms(5000), End: ms(6000), Text: "late"},
		{Start: ms(1000), End: ms(2000), Text: "early"},
	}
	_, err := Assemble(entries, Original, Options{})
	var inv *services.AssemblyInvariantError
	if !errors.As(err, &inv) || inv.Index != 1 {
		t.Fatalf("expected AssemblyInvariantError at 1, got %v", err)
	}
}

func TestAssembleEmptyInput(t *testing.T) {
	doc, err := Assemble(nil, nil, Options{})
	if err != nil || doc.Len() != 0 || len(doc.Bytes()) != 0 {
		t.Fatalf("expected empty document, got %+v, %v", doc, err)
	}
}

func TestParseSRTRejectsMalformed(t *testing.T) {
	for _, input := range []string{
		"x\n00:00:00,000 --> 00:00:01,000\nhi\n",
		"1\nno timing\nhi\n",
		"1\n00:00:00,000 --> bad\nhi\n",
		"1\n",
	} {
		if _, err := ParseSRT([]byte(input)); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
	doc, err := ParseSRT([]byte("\ufeff1\r\n00:00:00,000 --> 00:00:01,000\r\nhi\r\n"))
	if err != nil || doc.Len() != 1 || doc.Cues[0].Text != "hi" {
		t.Fatalf("BOM/CRLF input: %+v, %v", doc, err)
	}
}

func TestValidateReportsIssues(t *testing.T) {
	doc := Document{Cues: []Cue{
		{Number: 1, Start: ms(1000), End: ms(500)},
		{Number: 3, Start: ms(200), End: ms(300)},
	}}
	issues := Validate(doc)
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %v", issues)
	}
	if got := Validate(Document{}); len(got) != 1 || got[0] != "empty_subtitle_document" {
		t.Fatalf("unexpected empty issues %v", got)
	}
}

func TestCheckParityDetectsDrift(t *testing.T) {
	a := Document{Cues: []Cue{{Number: 1, Start: 0, End: ms(1000)}}}
	b := Document{Cues: []Cue{{Number: 1, Start: 0, End: ms(1001)}}}
	if err := CheckParity(a, b); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := CheckParity(a, Document{}); err == nil {
		t.Fatal("expected count mismatch error")
	}
}
