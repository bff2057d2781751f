package audio

import (
	"time"

	"dualsub/internal/services"
)

// DefaultSampleRate is the rate ffmpeg extraction produces and recognizers expect.
const DefaultSampleRate = 16000

// Stream is mono PCM audio in the range [-1, 1]. Callers treat Samples as
// read-only; Slice returns views that share the backing array.
type Stream struct {
	Samples    []float32
	SampleRate int
}

// Duration is the playback length of the stream.
func (s Stream) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(s.Samples)) * time.Second / time.Duration(s.SampleRate)
}

// Validate reports an AudioError for an empty stream or non-positive rate.
func (s Stream) Validate() error {
	if s.SampleRate <= 0 {
		return &services.AudioError{Reason: "non-positive sample rate"}
	}
	if len(s.Samples) == 0 {
		return &services.AudioError{Reason: "no samples"}
	}
	return nil
}

// SampleAt converts an offset to a sample index clamped to the stream.
func (s Stream) SampleAt(offset time.Duration) int {
	if offset <= 0 || s.SampleRate <= 0 {
		return 0
	}
	idx := int(offset * time.Duration(s.SampleRate) / time.Second)
	if idx > len(s.Samples) {
		return len(s.Samples)
	}
	return idx
}

// Slice returns the samples between start and end as a view.
func (s Stream) Slice(start, end time.Duration) Stream {
	from := s.SampleAt(start)
	to := s.SampleAt(end)
	if to < from {
		to = from
	}
	return Stream{Samples: s.Samples[from:to:to], SampleRate: s.SampleRate}
}
