package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"dualsub/internal/accel"
	"dualsub/internal/language"
	"dualsub/internal/retry"
	"dualsub/internal/services"
)

// Engine names a translation backend.
type Engine string

const (
	EngineFastBatch   Engine = "fastbatch"
	EngineHighQuality Engine = "highquality"
)

// DefaultBatchSize is used when a caller passes a non-positive batch size.
const DefaultBatchSize = 32

// ParseEngine accepts fastbatch or highquality (case-insensitive). An empty
// value selects fastbatch.
func ParseEngine(value string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(value))) {
	case "", EngineFastBatch:
		return EngineFastBatch, nil
	case EngineHighQuality:
		return EngineHighQuality, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "translate", "engine", fmt.Sprintf("unknown engine %q (want fastbatch or highquality)", value), nil)
	}
}

func (e Engine) String() string { return string(e) }

// Result carries translations index-aligned with the input texts.
type Result struct {
	Texts []string
	// Fallback is set when the texts are an identity passthrough because
	// the language pair is not supported.
	Fallback       bool
	FallbackReason string
}

// Backend translates a list of strings. len(Result.Texts) always equals
// len(texts) on success.
type Backend interface {
	Translate(ctx context.Context, texts []string, sourceLanguage, targetLanguage string, batchSize int) (Result, error)
	Engine() Engine
}

// Deps are the collaborators a backend needs. FastBatch uses Pair;
// HighQuality uses Model and Resources.
type Deps struct {
	Pair      PairTranslator
	Model     BatchModel
	Resources ResourceChecker

	Workers  int
	BeamSize int
	Retry    retry.Policy
	Lock     *accel.Lock
	Logger   *slog.Logger
}

// New builds the backend for engine.
func New(engine Engine, deps Deps) (Backend, error) {
	switch engine {
	case EngineFastBatch:
		if deps.Pair == nil {
			return nil, services.Wrap(services.ErrConfiguration, "translate", "fastbatch", "pair translator not configured", nil)
		}
		return newFastBatch(deps), nil
	case EngineHighQuality:
		if deps.Model == nil {
			return nil, services.Wrap(services.ErrConfiguration, "translate", "highquality", "batch model not configured", nil)
		}
		return newHighQuality(deps), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "translate", "engine", fmt.Sprintf("unknown engine %q", engine), nil)
	}
}

func withLock(ctx context.Context, lock *accel.Lock, fn func(context.Context) error) error {
	if lock == nil {
		return fn(ctx)
	}
	return lock.With(ctx, fn)
}

func identity(texts []string) []string {
	out := make([]string, len(texts))
	copy(out, texts)
	return out
}

// normalizePair reduces both codes to their primary subtag. An empty source
// becomes auto.
func normalizePair(source, target string) (string, string) {
	source = language.Base(source)
	if source == "" {
		source = language.Auto
	}
	return source, language.Base(target)
}
