package vad_test

import (
	"errors"
	"testing"
	"time"

	"dualsub/internal/audio"
	"dualsub/internal/services"
	"dualsub/internal/testsupport"
	"dualsub/internal/vad"
)

func TestDisabledReturnsWholeStream(t *testing.T) {
	stream := testsupport.SynthStream(testsupport.Voice(2*time.Second), testsupport.Quiet(8*time.Second))
	opts := vad.DefaultOptions()
	opts.Enabled = false

	segments, err := vad.New(opts).Segment(stream)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(segments) != 1 || segments[0].Start != 0 || segments[0].End != 10*time.Second {
		t.Fatalf("expected single [0,10s] segment, got %+v", segments)
	}
}

func TestLongSilenceSplits(t *testing.T) {
	stream := testsupport.SynthStream(
		testsupport.Voice(3*time.Second),
		testsupport.Quiet(700*time.Millisecond),
		testsupport.Voice(6300*time.Millisecond),
	)
	segments, err := vad.New(vad.DefaultOptions()).Segment(stream)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	want := []vad.Segment{
		{Start: 0, End: 3 * time.Second},
		{Start: 3700 * time.Millisecond, End: 10 * time.Second},
	}
	assertSegments(t, segments, want)
}

func TestShortPausesMerge(t *testing.T) {
	for _, gap := range []time.Duration{100 * time.Millisecond, 300 * time.Millisecond, 500 * time.Millisecond} {
		stream := testsupport.SynthStream(
			testsupport.Voice(time.Second),
			testsupport.Quiet(gap),
			testsupport.Voice(time.Second),
			testsupport.Quiet(gap),
			testsupport.Voice(time.Second),
		)
		segments, err := vad.New(vad.DefaultOptions()).Segment(stream)
		if err != nil {
			t.Fatalf("gap %s: Segment returned error: %v", gap, err)
		}
		if len(segments) != 1 {
			t.Fatalf("gap %s: expected pauses to merge into one segment, got %+v", gap, segments)
		}
		if segments[0].Start != 0 || segments[0].End != stream.Duration() {
			t.Fatalf("gap %s: expected segment to cover stream, got %+v", gap, segments[0])
		}
	}
}

func TestNoSpeechYieldsEmpty(t *testing.T) {
	stream := testsupport.SynthStream(testsupport.Quiet(5 * time.Second))
	segments, err := vad.New(vad.DefaultOptions()).Segment(stream)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected no segments, got %+v", segments)
	}
}

func TestFullyVoicedIsOneSegment(t *testing.T) {
	stream := testsupport.SynthStream(testsupport.Voice(4 * time.Second))
	segments, err := vad.New(vad.DefaultOptions()).Segment(stream)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	assertSegments(t, segments, []vad.Segment{{Start: 0, End: 4 * time.Second}})
}

func TestTrailingAndLeadingSilenceExcluded(t *testing.T) {
	stream := testsupport.SynthStream(
		testsupport.Quiet(time.Second),
		testsupport.Voice(2*time.Second),
		testsupport.Quiet(200*time.Millisecond),
	)
	segments, err := vad.New(vad.DefaultOptions()).Segment(stream)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	assertSegments(t, segments, []vad.Segment{{Start: time.Second, End: 3 * time.Second}})
}

func TestSpeechPadStaysWithinNeighbours(t *testing.T) {
	stream := testsupport.SynthStream(
		testsupport.Quiet(50*time.Millisecond),
		testsupport.Voice(time.Second),
		testsupport.Quiet(600*time.Millisecond),
		testsupport.Voice(time.Second),
		testsupport.Quiet(50*time.Millisecond),
	)
	opts := vad.DefaultOptions()
	opts.SpeechPad = 400 * time.Millisecond
	segments, err := vad.New(opts).Segment(stream)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	want := []vad.Segment{
		{Start: 0, End: 1450 * time.Millisecond},
		{Start: 1450 * time.Millisecond, End: 2700 * time.Millisecond},
	}
	assertSegments(t, segments, want)
}

func TestThresholdIsStrict(t *testing.T) {
	stream := testsupport.SynthStream(testsupport.Voice(time.Second))
	opts := vad.DefaultOptions()
	opts.Threshold = 1
	opts.Scorer = constantScorer(1)
	segments, err := vad.New(opts).Segment(stream)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected score equal to threshold to be non-speech, got %+v", segments)
	}
}

func TestInvalidAudio(t *testing.T) {
	seg := vad.New(vad.DefaultOptions())
	if _, err := seg.Segment(audio.Stream{SampleRate: 16000}); !errors.Is(err, services.ErrAudio) {
		t.Fatalf("expected AudioError for empty stream, got %v", err)
	}
	if _, err := seg.Segment(audio.Stream{Samples: []float32{0.1}, SampleRate: -1}); !errors.Is(err, services.ErrAudio) {
		t.Fatalf("expected AudioError for bad rate, got %v", err)
	}
}

func TestInvalidOptions(t *testing.T) {
	stream := testsupport.SynthStream(testsupport.Voice(time.Second))
	opts := vad.DefaultOptions()
	opts.MinSilence = 0
	if _, err := vad.New(opts).Segment(stream); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestEnergyScorerRange(t *testing.T) {
	var scorer vad.EnergyScorer
	if got := scorer.Score(make([]float32, 160)); got != 0 {
		t.Fatalf("expected silence to score 0, got %f", got)
	}
	full := make([]float32, 160)
	for i := range full {
		full[i] = 1
	}
	if got := scorer.Score(full); got != 1 {
		t.Fatalf("expected full scale to score 1, got %f", got)
	}
	tone := testsupport.SynthStream(testsupport.Voice(10 * time.Millisecond))
	if got := scorer.Score(tone.Samples); got < 0.8 || got > 0.9 {
		t.Fatalf("expected -9 dBFS tone to score about 0.85, got %f", got)
	}
}

type constantScorer float64

func (c constantScorer) Score([]float32) float64 { return float64(c) }

func assertSegments(t *testing.T, got, want []vad.Segment) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d segments, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
