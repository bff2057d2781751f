package subtitles

import (
	"dualsub/internal/services"
	"dualsub/internal/textutil"
	"dualsub/internal/transcription"
)

// Selector picks the text an entry contributes to a document.
type Selector func(transcription.Entry) string

// Original selects the recognized text.
func Original(e transcription.Entry) string { return e.Text }

// Translated selects the translated text.
func Translated(e transcription.Entry) string { return e.TranslatedText }

// Options tunes assembly.
type Options struct {
	// DropEmpty removes cues whose text is empty after normalization. Leave
	// it off when two documents must keep equal cue counts.
	DropEmpty bool
	// TrimOverlaps shortens a cue that runs past the next cue's start.
	TrimOverlaps bool
}

// Assemble builds a document from entries in order. Entries whose Start
// decreases produce a *services.AssemblyInvariantError.
func Assemble(entries []transcription.Entry, selector Selector, opts Options) (Document, error) {
	if selector == nil {
		selector = Original
	}
	cues := make([]Cue, 0, len(entries))
	for i, entry := range entries {
		if i > 0 && entry.Start < entries[i-1].Start {
			return Document{}, &services.AssemblyInvariantError{Index: i, Reason: "start time decreases"}
		}
		if entry.Start < 0 {
			return Document{}, &services.AssemblyInvariantError{Index: i, Reason: "negative start time"}
		}
		text := textutil.NormalizeCueText(selector(entry))
		if opts.DropEmpty && text == "" {
			continue
		}
		end := entry.End
		if end < entry.Start {
			end = entry.Start
		}
		cues = append(cues, Cue{Start: entry.Start, End: end, Text: text})
	}

	for i := range cues {
		cues[i].Number = i + 1
		if opts.TrimOverlaps && i+1 < len(cues) && cues[i].End > cues[i+1].Start {
			cues[i].End = max(cues[i+1].Start, cues[i].Start)
		}
	}
	return Document{Cues: cues}, nil
}
