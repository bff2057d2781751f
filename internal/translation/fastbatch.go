package translation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"dualsub/internal/logging"
	"dualsub/internal/retry"
	"dualsub/internal/services"
)

// ErrUnsupportedPair reports that no model exists for a language pair.
var ErrUnsupportedPair = errors.New("unsupported language pair")

// PairTranslator translates single strings for a language pair.
type PairTranslator interface {
	// Supports reports whether a model for the pair is installed. A source of
	// "auto" asks whether any source can reach target.
	Supports(ctx context.Context, source, target string) (bool, error)
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// FastBatch is the per-string backend.
type FastBatch struct {
	pair    PairTranslator
	workers int
	retry   retry.Policy
	deps    Deps
	logger  *slog.Logger
}

func newFastBatch(deps Deps) *FastBatch {
	workers := deps.Workers
	if workers < 1 {
		workers = 1
	}
	return &FastBatch{
		pair:    deps.Pair,
		workers: workers,
		retry:   deps.Retry,
		deps:    deps,
		logger:  logging.NewComponentLogger(deps.Logger, "translation.fastbatch"),
	}
}

// Engine returns EngineFastBatch.
func (f *FastBatch) Engine() Engine { return EngineFastBatch }

// Translate translates each string independently. batchSize is ignored;
// concurrency is bounded by the configured worker count.
func (f *FastBatch) Translate(ctx context.Context, texts []string, sourceLanguage, targetLanguage string, _ int) (Result, error) {
	if len(texts) == 0 {
		return Result{Texts: []string{}}, nil
	}
	source, target := normalizePair(sourceLanguage, targetLanguage)
	logger := logging.WithContext(ctx, f.logger)

	var supported bool
	err := retry.Do(ctx, f.retry, func(ctx context.Context) error {
		var err error
		supported, err = f.pair.Supports(ctx, source, target)
		return err
	})
	switch {
	case err != nil && errors.Is(err, ErrUnsupportedPair):
		supported = false
	case err != nil:
		return Result{}, f.fail(ctx, logger, "check language pair", err)
	}
	if !supported {
		return f.fallback(logger, texts, source, target, "no installed model for "+source+"->"+target), nil
	}

	out := make([]string, len(texts))
	errs := make([]error, len(texts))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(f.workers, len(texts)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				text, err := f.translateOne(runCtx, texts[idx], source, target)
				if err != nil {
					errs[idx] = err
					cancel()
					continue
				}
				out[idx] = text
			}
		}()
	}
feed:
	for idx := range texts {
		select {
		case jobs <- idx:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	var firstErr error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, ErrUnsupportedPair) {
			return f.fallback(logger, texts, source, target, err.Error()), nil
		}
		if firstErr == nil || errors.Is(firstErr, context.Canceled) {
			firstErr = err
		}
	}
	if firstErr != nil {
		return Result{}, f.fail(ctx, logger, "translate text", firstErr)
	}
	return Result{Texts: out}, nil
}

func (f *FastBatch) translateOne(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	var translated string
	err := retry.Do(ctx, f.retry, func(ctx context.Context) error {
		return withLock(ctx, f.deps.Lock, func(ctx context.Context) error {
			var err error
			translated, err = f.pair.Translate(ctx, text, source, target)
			return err
		})
	})
	return translated, err
}

func (f *FastBatch) fallback(logger *slog.Logger, texts []string, source, target, reason string) Result {
	attrs := logging.DecisionAttrs("translation_fallback", "identity_passthrough", reason)
	attrs = append(attrs,
		logging.String("source_language", source),
		logging.String("target_language", target),
		logging.Int("texts", len(texts)),
		logging.String(logging.FieldImpact, "translated subtitles contain source-language text"),
		logging.String(logging.FieldErrorHint, "install the argos package for this pair or use --engine highquality"),
	)
	logging.WarnWithContext(logger, "translation pair unsupported; passing text through untranslated", "translation_fallback", attrs...)
	return Result{Texts: identity(texts), Fallback: true, FallbackReason: reason}
}

func (f *FastBatch) fail(ctx context.Context, logger *slog.Logger, reason string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	attrs := []logging.Attr{logging.String("reason", reason), logging.Error(err)}
	if hint := services.Hint(err); hint != "" {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
	}
	logging.ErrorWithContext(logger, "fastbatch translation failed", "translation_failed", attrs...)
	return &services.TranslationError{Engine: string(EngineFastBatch), Reason: reason, Err: err}
}
