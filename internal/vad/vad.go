package vad

import (
	"fmt"
	"time"

	"dualsub/internal/audio"
	"dualsub/internal/services"
)

const (
	DefaultFrameSize  = 10 * time.Millisecond
	DefaultMinSilence = 500 * time.Millisecond
	DefaultThreshold  = 0.5
)

// Segment is a half-open span of speech, Start < End.
type Segment struct {
	Start time.Duration
	End   time.Duration
}

// Duration is End - Start.
func (s Segment) Duration() time.Duration { return s.End - s.Start }

// Options configures segmentation. FrameSize and Scorer fall back to
// DefaultFrameSize and EnergyScorer when unset.
type Options struct {
	Enabled    bool
	MinSilence time.Duration
	Threshold  float64
	FrameSize  time.Duration
	SpeechPad  time.Duration
	Scorer     Scorer
}

// DefaultOptions returns VAD enabled with 500 ms minimum silence and 0.5 threshold.
func DefaultOptions() Options {
	return Options{
		Enabled:    true,
		MinSilence: DefaultMinSilence,
		Threshold:  DefaultThreshold,
		FrameSize:  DefaultFrameSize,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if !o.Enabled {
		return nil
	}
	if o.MinSilence <= 0 {
		return services.Wrap(services.ErrConfiguration, "segment", "vad", "min silence must be positive", nil)
	}
	if o.Threshold <= 0 || o.Threshold > 1 {
		return services.Wrap(services.ErrConfiguration, "segment", "vad", fmt.Sprintf("threshold %.3f outside (0, 1]", o.Threshold), nil)
	}
	if o.FrameSize < 0 || o.SpeechPad < 0 {
		return services.Wrap(services.ErrConfiguration, "segment", "vad", "frame size and speech pad must be >= 0", nil)
	}
	return nil
}

// Segmenter turns an audio stream into speech segments.
type Segmenter struct {
	opts Options
}

// New returns a Segmenter for opts.
func New(opts Options) *Segmenter {
	if opts.FrameSize == 0 {
		opts.FrameSize = DefaultFrameSize
	}
	if opts.Scorer == nil {
		opts.Scorer = EnergyScorer{}
	}
	return &Segmenter{opts: opts}
}

// Segment returns ordered, disjoint speech spans. Audio without speech yields
// an empty slice; disabled VAD yields a single span over the whole stream.
func (s *Segmenter) Segment(stream audio.Stream) ([]Segment, error) {
	if err := stream.Validate(); err != nil {
		return nil, err
	}
	if err := s.opts.Validate(); err != nil {
		return nil, err
	}
	total := stream.Duration()
	if total <= 0 {
		return nil, &services.AudioError{Reason: "stream shorter than one sample period"}
	}
	if !s.opts.Enabled {
		return []Segment{{Start: 0, End: total}}, nil
	}

	frameLen := int(s.opts.FrameSize * time.Duration(stream.SampleRate) / time.Second)
	if frameLen < 1 {
		frameLen = 1
	}
	offset := func(sample int) time.Duration {
		return time.Duration(sample) * time.Second / time.Duration(stream.SampleRate)
	}

	var (
		segments     []Segment
		open         bool
		segStart     int
		silenceStart int
		inSilence    bool
	)
	closeAt := func(end int) {
		if end > segStart {
			segments = append(segments, Segment{Start: offset(segStart), End: offset(end)})
		}
		open = false
		inSilence = false
	}

	n := len(stream.Samples)
	for pos := 0; pos < n; pos += frameLen {
		end := min(pos+frameLen, n)
		speech := s.opts.Scorer.Score(stream.Samples[pos:end]) > s.opts.Threshold
		switch {
		case speech && !open:
			open = true
			segStart = pos
			inSilence = false
		case speech && open:
			inSilence = false
		case !speech && open:
			if !inSilence {
				inSilence = true
				silenceStart = pos
			}
			if offset(end-silenceStart) > s.opts.MinSilence {
				closeAt(silenceStart)
			}
		}
	}
	if open {
		if inSilence {
			closeAt(silenceStart)
		} else {
			closeAt(n)
		}
	}

	return pad(segments, s.opts.SpeechPad, total), nil
}

// pad widens segments by p on each side without crossing neighbours or the
// stream bounds.
func pad(segments []Segment, p, total time.Duration) []Segment {
	if p <= 0 || len(segments) == 0 {
		return segments
	}
	out := make([]Segment, len(segments))
	prevEnd := time.Duration(0)
	for i, seg := range segments {
		start := max(seg.Start-p, prevEnd, 0)
		end := min(seg.End+p, total)
		if i+1 < len(segments) {
			end = min(end, segments[i+1].Start)
		}
		out[i] = Segment{Start: start, End: end}
		prevEnd = end
	}
	return out
}

// TotalSpeech sums segment durations.
func TotalSpeech(segments []Segment) time.Duration {
	var total time.Duration
	for _, seg := range segments {
		total += seg.Duration()
	}
	return total
}
