package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"dualsub/internal/accel"
	"dualsub/internal/audio"
	"dualsub/internal/fileutil"
	"dualsub/internal/history"
	"dualsub/internal/language"
	"dualsub/internal/logging"
	"dualsub/internal/models"
	"dualsub/internal/services"
	"dualsub/internal/subtitles"
	"dualsub/internal/textutil"
	"dualsub/internal/transcription"
	"dualsub/internal/translation"
	"dualsub/internal/vad"
)

// AudioSource decodes the audio track of a video. *audio.Extractor
// satisfies it.
type AudioSource interface {
	Load(ctx context.Context, source, workDir string) (audio.Stream, error)
}

// Recorder persists run outcomes. *history.Store satisfies it.
type Recorder interface {
	Start(ctx context.Context, run history.Run) error
	Finish(ctx context.Context, run history.Run) error
}

// Options wires an Orchestrator.
type Options struct {
	Config      Config
	Audio       AudioSource
	Recognizers *models.Cache[transcription.Recognizer]
	Backends    *models.Cache[translation.Backend]
	// Detector is optional; see transcription.Options.
	Detector transcription.LanguageDetector
	Lock     *accel.Lock
	// History is optional. Recording failures are logged and never fail a run.
	History Recorder
	WorkDir string
	Logger  *slog.Logger
}

// Request names one video to process.
type Request struct {
	Source string
	// OutputDir defaults to the directory containing Source.
	OutputDir string
	// BaseName defaults to Source's file name without its extension.
	BaseName string
}

// Result summarizes a successful run.
type Result struct {
	RunID          string
	OriginalPath   string
	TranslatedPath string
	// DetectedLanguage is the first per-entry detection, if any.
	DetectedLanguage string
	// TranslationSource is the source code handed to the translation backend.
	TranslationSource string
	Segments          int
	Speech            time.Duration
	Cues              int
	Fallback          bool
	FallbackReason    string
	Elapsed           time.Duration
}

// Orchestrator runs the extract to write stage sequence.
type Orchestrator struct {
	cfg         Config
	audio       AudioSource
	recognizers *models.Cache[transcription.Recognizer]
	backends    *models.Cache[translation.Backend]
	detector    transcription.LanguageDetector
	lock        *accel.Lock
	history     Recorder
	workDir     string
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// New validates opts and returns an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Audio == nil || opts.Recognizers == nil || opts.Backends == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "audio source, recognizer cache and backend cache are required", nil)
	}
	return &Orchestrator{
		cfg:         opts.Config,
		audio:       opts.Audio,
		recognizers: opts.Recognizers,
		backends:    opts.Backends,
		detector:    opts.Detector,
		lock:        opts.Lock,
		history:     opts.History,
		workDir:     opts.WorkDir,
		logger:      logging.NewComponentLogger(opts.Logger, "pipeline"),
		now:         time.Now,
		newID:       uuid.NewString,
	}, nil
}

// Config returns the configuration the orchestrator was built with.
func (o *Orchestrator) Config() Config { return o.cfg }

// OutputPaths returns the original and translated document paths for req.
func (o *Orchestrator) OutputPaths(req Request) (string, string) {
	dir := strings.TrimSpace(req.OutputDir)
	if dir == "" {
		dir = filepath.Dir(req.Source)
	}
	base := textutil.SanitizeFileName(req.BaseName)
	if base == "" {
		name := filepath.Base(req.Source)
		base = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return filepath.Join(dir, base+".orig.srt"), filepath.Join(dir, base+"."+o.cfg.TargetLanguage+".srt")
}

// run carries the state each stage hands to the next.
type run struct {
	req        Request
	stream     audio.Stream
	segments   []vad.Segment
	entries    []transcription.Entry
	original   subtitles.Document
	translated subtitles.Document
	result     Result
}

// Run processes one video. On failure it returns a *StageError and no
// output files exist for the run.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Source) == "" {
		return Result{}, &StageError{Stage: StageExtract, Err: services.Wrap(services.ErrValidation, "pipeline", "run", "source path required", nil)}
	}
	started := o.now()
	runID := o.newID()
	ctx = services.WithRunID(ctx, runID)
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	state := &run{req: req}
	state.result.RunID = runID
	state.result.OriginalPath, state.result.TranslatedPath = o.OutputPaths(req)

	logger := logging.WithContext(ctx, o.logger)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("source_file", req.Source),
		logging.String("source_language", o.cfg.sourceLanguage()),
		logging.String("target_language", o.cfg.TargetLanguage),
		logging.String("engine", o.cfg.Engine.String()),
	)
	o.recordStart(ctx, req, state.result, started)

	steps := []struct {
		name string
		fn   func(context.Context, *run) error
	}{
		{StageExtract, o.extract},
		{StageSegment, o.segment},
		{StageTranscribe, o.transcribe},
		{StageTranslate, o.translate},
		{StageAssemble, o.assemble},
		{StageWrite, o.write},
	}
	for _, step := range steps {
		if err := o.runStage(ctx, step.name, state, step.fn); err != nil {
			state.result.Elapsed = o.now().Sub(started)
			o.recordFinish(ctx, state.result, step.name, err)
			return Result{}, err
		}
	}

	state.result.Elapsed = o.now().Sub(started)
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("original_srt", state.result.OriginalPath),
		logging.String("translated_srt", state.result.TranslatedPath),
		logging.Int("cues", state.result.Cues),
		logging.Bool("fallback", state.result.Fallback),
		logging.Duration("elapsed", state.result.Elapsed),
	)
	o.recordFinish(ctx, state.result, StageWrite, nil)
	return state.result, nil
}

func (o *Orchestrator) runStage(ctx context.Context, name string, state *run, fn func(context.Context, *run) error) error {
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, o.logger)
	stageStart := o.now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	err := stageCtx.Err()
	if err == nil {
		err = fn(stageCtx, state)
	}
	if err != nil {
		stageErr := newStageError(name, err)
		attrs := []logging.Attr{
			logging.String("error_kind", stageErr.Kind),
			logging.Error(err),
		}
		if hint := services.Hint(err); hint != "" {
			attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
		}
		if errors.Is(err, services.ErrAssemblyInvariant) {
			attrs = append(attrs, logging.Alert("assembly_invariant"))
		}
		if stageErr.Kind == KindCanceled {
			logger.Warn("stage interrupted", logging.Args(append(attrs, logging.String(logging.FieldEventType, "stage_canceled"))...)...)
		} else {
			logging.ErrorWithContext(logger, "stage failed", "stage_failure", attrs...)
		}
		return stageErr
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", o.now().Sub(stageStart)),
	)
	return nil
}

func (o *Orchestrator) extract(ctx context.Context, state *run) error {
	info, err := os.Stat(state.req.Source)
	if err != nil {
		return &services.IOError{Op: "stat", Path: state.req.Source, Err: err}
	}
	if info.IsDir() {
		return &services.IOError{Op: "stat", Path: state.req.Source, Err: fmt.Errorf("is a directory")}
	}
	stream, err := o.audio.Load(ctx, state.req.Source, o.workDir)
	if err != nil {
		return err
	}
	if err := stream.Validate(); err != nil {
		return err
	}
	state.stream = stream
	logging.WithContext(ctx, o.logger).Debug("audio decoded",
		logging.Int("sample_rate", stream.SampleRate),
		logging.Seconds("audio_seconds", stream.Duration()),
	)
	return nil
}

func (o *Orchestrator) segment(ctx context.Context, state *run) error {
	segments, err := vad.New(o.cfg.VAD).Segment(state.stream)
	if err != nil {
		return err
	}
	state.segments = segments
	state.result.Segments = len(segments)
	state.result.Speech = vad.TotalSpeech(segments)
	logger := logging.WithContext(ctx, o.logger)
	if len(segments) == 0 {
		logging.WarnWithContext(logger, "no speech detected", "no_speech",
			logging.String(logging.FieldImpact, "subtitle files will contain no cues"),
			logging.String(logging.FieldErrorHint, "lower vad_threshold or disable VAD with --no-vad"),
		)
		return nil
	}
	logger.Info("speech segmented",
		logging.Int("segments", len(segments)),
		logging.Seconds("speech_seconds", state.result.Speech),
		logging.Bool("vad_enabled", o.cfg.VAD.Enabled),
	)
	return nil
}

func (o *Orchestrator) transcriptionKey() models.Key {
	return models.Key{Engine: o.cfg.Model, Source: o.cfg.sourceLanguage(), Device: o.cfg.Device}
}

func (o *Orchestrator) transcribe(ctx context.Context, state *run) error {
	if len(state.segments) == 0 {
		state.entries = []transcription.Entry{}
		return nil
	}
	key := o.transcriptionKey()
	recognizer, err := o.recognizers.Get(ctx, key)
	if err != nil {
		return modelUnavailable(key, err)
	}
	adapter := transcription.NewAdapter(recognizer, transcription.Options{
		Workers:  o.cfg.workers(),
		Retry:    o.cfg.Retry,
		Lock:     o.lock,
		Detector: o.detector,
		Logger:   logging.WithContext(ctx, o.logger),
	})
	entries, err := adapter.Transcribe(ctx, state.stream, state.segments, o.cfg.sourceLanguage(), o.cfg.BeamSize)
	if err != nil {
		return err
	}
	state.entries = entries
	state.result.DetectedLanguage = detectedLanguage(entries)
	logging.WithContext(ctx, o.logger).Info("speech transcribed",
		logging.Int("entries", len(entries)),
		logging.String("detected_language", state.result.DetectedLanguage),
	)
	return nil
}

// TranslationSource picks the source code handed to the translation
// backend: the configured code, or for auto the base subtag of the first
// detected language.
func TranslationSource(configured string, entries []transcription.Entry) string {
	if configured != "" && language.Base(configured) != language.Auto {
		return language.Base(configured)
	}
	if detected := detectedLanguage(entries); detected != "" {
		return language.Base(detected)
	}
	return language.Auto
}

func detectedLanguage(entries []transcription.Entry) string {
	for _, entry := range entries {
		if code := strings.TrimSpace(entry.DetectedLanguage); code != "" {
			return code
		}
	}
	return ""
}

func (o *Orchestrator) translate(ctx context.Context, state *run) error {
	source := TranslationSource(o.cfg.SourceLanguage, state.entries)
	target := language.Base(o.cfg.TargetLanguage)
	state.result.TranslationSource = source
	logger := logging.WithContext(ctx, o.logger)
	if len(state.entries) == 0 {
		logger.Debug("nothing to translate")
		return nil
	}

	key := models.Key{Engine: o.cfg.Engine.String(), Source: source, Target: target, Device: o.cfg.Device}
	backend, err := o.backends.Get(ctx, key)
	if err != nil {
		return modelUnavailable(key, err)
	}
	texts := transcription.Texts(state.entries)
	res, err := backend.Translate(ctx, texts, source, target, o.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(res.Texts) != len(texts) {
		return &services.TranslationError{
			Engine: backend.Engine().String(),
			Reason: fmt.Sprintf("returned %d texts for %d inputs", len(res.Texts), len(texts)),
		}
	}
	state.entries = transcription.WithTranslations(state.entries, res.Texts)
	state.result.Fallback = res.Fallback
	state.result.FallbackReason = res.FallbackReason
	logger.Info("text translated",
		logging.String("engine", backend.Engine().String()),
		logging.String("source_language", source),
		logging.String("target_language", target),
		logging.Int("texts", len(texts)),
		logging.Bool("fallback", res.Fallback),
	)
	return nil
}

func (o *Orchestrator) assemble(ctx context.Context, state *run) error {
	original, err := subtitles.Assemble(state.entries, subtitles.Original, o.cfg.Assembly)
	if err != nil {
		return err
	}
	translated, err := subtitles.Assemble(state.entries, subtitles.Translated, o.cfg.Assembly)
	if err != nil {
		return err
	}
	if !o.cfg.Assembly.DropEmpty {
		if err := subtitles.CheckParity(original, translated); err != nil {
			return &services.AssemblyInvariantError{Index: -1, Reason: err.Error()}
		}
	}
	state.original = original
	state.translated = translated
	state.result.Cues = original.Len()
	if issues := subtitles.Validate(original); len(issues) > 0 {
		logging.WithContext(ctx, o.logger).Warn("original document has format issues",
			logging.String(logging.FieldEventType, "srt_validation"),
			logging.Any("issues", issues),
		)
	}
	return nil
}

func (o *Orchestrator) write(ctx context.Context, state *run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(state.result.OriginalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &services.IOError{Op: "mkdir", Path: dir, Err: err}
	}
	pending := []fileutil.Pending{
		{Path: state.result.OriginalPath, Data: state.original.Bytes()},
		{Path: state.result.TranslatedPath, Data: state.translated.Bytes()},
	}
	if err := fileutil.WriteAllAtomic(pending); err != nil {
		return &services.IOError{Op: "write", Path: dir, Err: err}
	}
	return nil
}

func (o *Orchestrator) recordStart(ctx context.Context, req Request, result Result, started time.Time) {
	if o.history == nil {
		return
	}
	err := o.history.Start(ctx, history.Run{
		ID:             result.RunID,
		SourcePath:     req.Source,
		OutputDir:      filepath.Dir(result.OriginalPath),
		SourceLanguage: o.cfg.sourceLanguage(),
		TargetLanguage: o.cfg.TargetLanguage,
		Engine:         o.cfg.Engine.String(),
		Stage:          StageExtract,
		StartedAt:      started,
	})
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "history record failed", "history_error",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will be missing from dualsub history"),
		)
	}
}

func (o *Orchestrator) recordFinish(ctx context.Context, result Result, stage string, runErr error) {
	if o.history == nil {
		return
	}
	finished := o.now()
	entry := history.Run{
		ID:               result.RunID,
		DetectedLanguage: result.DetectedLanguage,
		Status:           history.StatusSucceeded,
		Stage:            stage,
		Segments:         result.Segments,
		Cues:             result.Cues,
		Fallback:         result.Fallback,
		FinishedAt:       &finished,
	}
	if runErr != nil {
		entry.Status = history.StatusFailed
		entry.ErrorMessage = runErr.Error()
		if stageErr, ok := runErr.(*StageError); ok {
			entry.ErrorKind = stageErr.Kind
		}
	} else {
		entry.OriginalPath = result.OriginalPath
		entry.TranslatedPath = result.TranslatedPath
	}
	// The run context may already be canceled; the ledger write must still land.
	if err := o.history.Finish(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "history update failed", "history_error",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run outcome missing from dualsub history"),
		)
	}
}
