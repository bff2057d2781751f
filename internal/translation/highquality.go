package translation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"dualsub/internal/language"
	"dualsub/internal/logging"
	"dualsub/internal/retry"
	"dualsub/internal/services"
)

// ResourceChecker verifies that language resources needed by the
// high-quality model are installed.
type ResourceChecker interface {
	Check(lang string) error
}

// TokenizerDir is an NLTK punkt directory (nltk_data/tokenizers/punkt). A
// language is installed when <dir>/<name>.pickle or <dir>/PY3/<name>.pickle
// exists, name being punkt's model name for it.
type TokenizerDir string

// Check returns a *services.MissingResourceError when the tokenizer for
// lang is absent. Languages punkt has no model for are always missing.
func (d TokenizerDir) Check(lang string) error {
	code := language.Base(lang)
	name := PunktName(code)
	if name == "" {
		return &services.MissingResourceError{Resource: "tokenizer", Language: lang}
	}
	for _, path := range []string{
		filepath.Join(string(d), name+".pickle"),
		filepath.Join(string(d), "PY3", name+".pickle"),
	} {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return nil
		}
	}
	return &services.MissingResourceError{Resource: "tokenizer", Language: code}
}

// punkt names Slovenian by its older English name.
var punktAliases = map[string]string{"slovenian": "slovene"}

// PunktName maps a language code to punkt's model name: the lowercase English
// language name ("en" and "en-US" give "english", "nb" gives "norwegian").
// It returns "" for auto and empty codes.
func PunktName(code string) string {
	code = language.Base(code)
	if code == "" || code == language.Auto {
		return ""
	}
	name := strings.ToLower(language.DisplayName(code))
	if head, _, ok := strings.Cut(name, " "); ok {
		name = head
	}
	if alias, ok := punktAliases[name]; ok {
		return alias
	}
	return name
}

// BatchModel translates a batch of strings in one model call.
type BatchModel interface {
	TranslateBatch(ctx context.Context, texts []string, source, target string, beamSize int) ([]string, error)
}

// HighQuality is the length-sorted batched backend.
type HighQuality struct {
	model     BatchModel
	resources ResourceChecker
	deps      Deps
	beamSize  int
	logger    *slog.Logger
}

func newHighQuality(deps Deps) *HighQuality {
	beam := deps.BeamSize
	if beam < 1 {
		beam = 5
	}
	return &HighQuality{
		model:     deps.Model,
		resources: deps.Resources,
		deps:      deps,
		beamSize:  beam,
		logger:    logging.NewComponentLogger(deps.Logger, "translation.highquality"),
	}
}

// Engine returns EngineHighQuality.
func (h *HighQuality) Engine() Engine { return EngineHighQuality }

// Translate checks resources, then translates every non-empty string in
// length-ordered batches. Any batch failure fails the whole call.
func (h *HighQuality) Translate(ctx context.Context, texts []string, sourceLanguage, targetLanguage string, batchSize int) (Result, error) {
	source, target := normalizePair(sourceLanguage, targetLanguage)
	if err := h.checkResources(source, target); err != nil {
		return Result{}, err
	}
	if len(texts) == 0 {
		return Result{Texts: []string{}}, nil
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	logger := logging.WithContext(ctx, h.logger)

	order := make([]int, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) != "" {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return utf8.RuneCountInString(texts[order[a]]) < utf8.RuneCountInString(texts[order[b]])
	})

	out := identity(texts)
	batches := (len(order) + batchSize - 1) / batchSize
	for b := 0; b < batches; b++ {
		lo := b * batchSize
		hi := min(lo+batchSize, len(order))
		batch := make([]string, hi-lo)
		for j, idx := range order[lo:hi] {
			batch[j] = texts[idx]
		}

		translated, err := h.translateBatch(ctx, batch, source, target)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			logging.ErrorWithContext(logger, "highquality batch failed", "translation_failed",
				logging.Int("batch", b+1),
				logging.Int("batches", batches),
				logging.Error(err),
			)
			return Result{}, &services.TranslationError{
				Engine: string(EngineHighQuality),
				Reason: fmt.Sprintf("batch %d/%d", b+1, batches),
				Err:    err,
			}
		}
		for j, idx := range order[lo:hi] {
			out[idx] = translated[j]
		}
		logger.Debug("batch translated",
			logging.Int("batch", b+1),
			logging.Int("batches", batches),
			logging.Int("size", len(batch)),
		)
	}
	return Result{Texts: out}, nil
}

func (h *HighQuality) checkResources(source, target string) error {
	if h.resources == nil {
		return nil
	}
	if source != language.Auto {
		if err := h.resources.Check(source); err != nil {
			return err
		}
	}
	return h.resources.Check(target)
}

func (h *HighQuality) translateBatch(ctx context.Context, batch []string, source, target string) ([]string, error) {
	var translated []string
	err := retry.Do(ctx, h.deps.Retry, func(ctx context.Context) error {
		return withLock(ctx, h.deps.Lock, func(ctx context.Context) error {
			out, err := h.model.TranslateBatch(ctx, batch, source, target, h.beamSize)
			if err != nil {
				return err
			}
			if len(out) != len(batch) {
				return services.Wrap(services.ErrExternalTool, "translate", "highquality",
					fmt.Sprintf("batch count mismatch: sent %d, got %d", len(batch), len(out)), nil)
			}
			translated = out
			return nil
		})
	})
	return translated, err
}
