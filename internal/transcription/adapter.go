package transcription

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"dualsub/internal/accel"
	"dualsub/internal/audio"
	"dualsub/internal/language"
	"dualsub/internal/logging"
	"dualsub/internal/retry"
	"dualsub/internal/services"
	"dualsub/internal/vad"
)

// Options tunes an Adapter.
type Options struct {
	// Workers bounds concurrent recognizer calls; values below 1 mean 1.
	Workers int
	Retry   retry.Policy
	// Lock serializes accelerator access; nil runs calls unguarded.
	Lock *accel.Lock
	// Detector is used for auto-detection when the recognizer cannot detect
	// per clip. Nil falls back to a recognizer call without a language.
	Detector LanguageDetector
	Logger   *slog.Logger
}

// Adapter drives a Recognizer over a list of speech segments.
type Adapter struct {
	recognizer Recognizer
	opts       Options
	logger     *slog.Logger
}

// NewAdapter wraps recognizer with the given options.
func NewAdapter(recognizer Recognizer, opts Options) *Adapter {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Adapter{
		recognizer: recognizer,
		opts:       opts,
		logger:     logging.NewComponentLogger(opts.Logger, "transcription"),
	}
}

// Transcribe recognizes every segment and returns one entry per segment in
// segment order. Any final failure aborts the whole call with a
// *services.TranscriptionError; partial results are never returned.
func (a *Adapter) Transcribe(ctx context.Context, stream audio.Stream, segments []vad.Segment, sourceLanguage string, beamSize int) ([]Entry, error) {
	if a == nil || a.recognizer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "adapter", "recognizer not configured", nil)
	}
	if len(segments) == 0 {
		return []Entry{}, nil
	}
	if err := stream.Validate(); err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, a.logger)

	source := strings.TrimSpace(sourceLanguage)
	if source == "" {
		source = language.Auto
	}
	perSegment := source == language.Auto && a.recognizer.PerSegmentLanguage()

	callLanguage := source
	if source == language.Auto {
		callLanguage = ""
		if !perSegment {
			detected, err := a.detect(ctx, stream, segments)
			if err != nil {
				return nil, err
			}
			callLanguage = detected
			logger.Info("language detected",
				logging.String("language", displayOrUnknown(detected)),
				logging.String(logging.FieldDecisionType, "language_detection"),
			)
		}
	}

	entries := make([]Entry, len(segments))
	errs := make([]error, len(segments))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := min(a.opts.Workers, len(segments))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				seg := segments[idx]
				rec, err := a.recognize(runCtx, Request{
					Clip:     stream.Slice(seg.Start, seg.End),
					Language: callLanguage,
					BeamSize: beamSize,
				})
				if err != nil {
					errs[idx] = err
					cancel()
					continue
				}
				detected := callLanguage
				if perSegment {
					detected = language.ToISO2(rec.Language)
				}
				entries[idx] = Entry{
					Index:            idx,
					Start:            seg.Start,
					End:              seg.End,
					Text:             strings.TrimSpace(rec.Text),
					DetectedLanguage: detected,
				}
				logger.Debug("segment transcribed",
					logging.Int("index", idx),
					logging.Seconds("start", seg.Start),
					logging.Seconds("end", seg.End),
					logging.Int("chars", len(entries[idx].Text)),
				)
			}
		}()
	}

feed:
	for idx := range segments {
		select {
		case jobs <- idx:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if idx, err := firstFailure(errs); err != nil {
		return nil, &services.TranscriptionError{Index: idx, Err: err}
	}
	return entries, nil
}

// recognize runs one recognizer call under the lock, retrying transient errors.
func (a *Adapter) recognize(ctx context.Context, req Request) (Recognition, error) {
	var rec Recognition
	err := retry.Do(ctx, a.policy(), func(ctx context.Context) error {
		return a.withLock(ctx, func(ctx context.Context) error {
			var err error
			rec, err = a.recognizer.Recognize(ctx, req)
			return err
		})
	})
	return rec, err
}

// detect identifies the language from the longest segment.
func (a *Adapter) detect(ctx context.Context, stream audio.Stream, segments []vad.Segment) (string, error) {
	longest := 0
	for i, seg := range segments {
		if seg.Duration() > segments[longest].Duration() {
			longest = i
		}
	}
	clip := stream.Slice(segments[longest].Start, segments[longest].End)

	var detected string
	err := retry.Do(ctx, a.policy(), func(ctx context.Context) error {
		return a.withLock(ctx, func(ctx context.Context) error {
			if a.opts.Detector != nil {
				lang, err := a.opts.Detector.DetectLanguage(ctx, clip)
				detected = lang
				return err
			}
			rec, err := a.recognizer.Recognize(ctx, Request{Clip: clip})
			detected = rec.Language
			return err
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &services.TranscriptionError{Index: longest, Err: err}
	}
	return language.ToISO2(detected), nil
}

func (a *Adapter) withLock(ctx context.Context, fn func(context.Context) error) error {
	if a.opts.Lock == nil {
		return fn(ctx)
	}
	return a.opts.Lock.With(ctx, fn)
}

func (a *Adapter) policy() retry.Policy {
	p := a.opts.Retry
	if p.OnRetry == nil {
		logger := a.logger
		p.OnRetry = func(attempt int, delay time.Duration, err error) {
			logger.Debug("retrying recognizer call",
				logging.Int("attempt", attempt),
				logging.Duration("delay", delay),
				logging.Error(err),
			)
		}
	}
	return p
}

// firstFailure prefers the lowest-index error that is not a cancellation
// caused by another worker failing first.
func firstFailure(errs []error) (int, error) {
	fallback := -1
	for idx, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, context.Canceled) {
			return idx, err
		}
		if fallback < 0 {
			fallback = idx
		}
	}
	if fallback >= 0 {
		return fallback, errs[fallback]
	}
	return 0, nil
}

func displayOrUnknown(code string) string {
	if code == "" {
		return "unknown"
	}
	return code
}
