package testsupport

import (
	"math"
	"time"

	"dualsub/internal/audio"
)

// Span describes a stretch of synthetic audio.
type Span struct {
	Duration time.Duration
	Speech   bool
}

// Voice is a span of speech-like tone.
func Voice(d time.Duration) Span { return Span{Duration: d, Speech: true} }

// Quiet is a span of digital silence.
func Quiet(d time.Duration) Span { return Span{Duration: d} }

// SynthStream renders spans at 16 kHz. Speech is a 220 Hz sine at amplitude
// 0.5 (about -9 dBFS); silence is zero.
func SynthStream(spans ...Span) audio.Stream {
	const rate = audio.DefaultSampleRate
	var total int
	for _, s := range spans {
		total += int(s.Duration * rate / time.Second)
	}
	samples := make([]float32, 0, total)
	for _, s := range spans {
		n := int(s.Duration * rate / time.Second)
		for i := 0; i < n; i++ {
			if !s.Speech {
				samples = append(samples, 0)
				continue
			}
			samples = append(samples, float32(0.5*math.Sin(2*math.Pi*220*float64(i)/rate)))
		}
	}
	return audio.Stream{Samples: samples, SampleRate: rate}
}
