package transcription

import (
	"context"
	"time"

	"dualsub/internal/audio"
)

// Entry is one transcribed speech segment. Start and End equal the
// originating segment span; Index is dense and 0-based in segment order.
type Entry struct {
	Index            int
	Start            time.Duration
	End              time.Duration
	Text             string
	DetectedLanguage string
	// TranslatedText is filled by the translation stage.
	TranslatedText string
}

// Texts returns the source text of each entry, index-aligned.
func Texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

// WithTranslations returns a copy of entries with TranslatedText set from
// texts, which must be index-aligned with entries.
func WithTranslations(entries []Entry, texts []string) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	for i := range out {
		if i < len(texts) {
			out[i].TranslatedText = texts[i]
		}
	}
	return out
}

// Request is a single recognition call.
type Request struct {
	Clip audio.Stream
	// Language is an ISO code, or empty to let the model detect it.
	Language string
	BeamSize int
}

// Recognition is the text a recognizer produced for one clip.
type Recognition struct {
	Text     string
	Language string
}

// Recognizer is a loaded speech-to-text model handle.
type Recognizer interface {
	Recognize(ctx context.Context, req Request) (Recognition, error)
	// PerSegmentLanguage reports whether Recognize detects the language of
	// every clip it is given.
	PerSegmentLanguage() bool
}

// LanguageDetector identifies the spoken language of a clip.
type LanguageDetector interface {
	DetectLanguage(ctx context.Context, clip audio.Stream) (string, error)
}
