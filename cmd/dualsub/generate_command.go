package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dualsub/internal/config"
	"dualsub/internal/logging"
	"dualsub/internal/pipeline"
	"dualsub/internal/preflight"
	"dualsub/internal/services"
)

type generateFlags struct {
	to           string
	from         string
	engine       string
	vadMS        int
	vadThreshold float64
	noVAD        bool
	beamSize     int
	batchSize    int
	output       string
	jobs         int
	skipChecks   bool
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate <video>...",
		Short: "Write <base>.orig.srt and <base>.<to>.srt for each video",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyGenerateFlags(cmd, cfg, flags); err != nil {
				return err
			}
			pc, err := cfg.PipelineConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !flags.skipChecks {
				if err := requirePreflight(cmd, cfg); err != nil {
					return err
				}
			}

			logger, err := ctx.newLogger(cmd, cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			var recorder pipeline.Recorder
			store, err := ctx.openHistory(cfg)
			if err != nil {
				logging.WarnWithContext(logger, "history unavailable", "history_error",
					logging.Error(err),
					logging.String(logging.FieldImpact, "runs will not be recorded"),
				)
			} else if store != nil {
				defer closeQuietly(store)
				recorder = store
			}

			orch, err := buildOrchestrator(cfg, pc, recorder, logger)
			if err != nil {
				return err
			}

			reqs := make([]pipeline.Request, 0, len(args))
			for _, arg := range args {
				source, err := config.ExpandPath(arg)
				if err != nil {
					return fmt.Errorf("resolve %q: %w", arg, err)
				}
				reqs = append(reqs, pipeline.Request{Source: source, OutputDir: flags.output})
			}

			runCtx := services.WithRequestID(cmd.Context(), uuid.NewString())
			outcomes := orch.RunMany(runCtx, reqs, flags.jobs)
			return reportOutcomes(out, outcomes)
		},
	}

	cmd.Flags().StringVar(&flags.to, "to", "", "Target language code (overrides pipeline.target_language)")
	cmd.Flags().StringVar(&flags.from, "from", "", "Source language code or auto (overrides pipeline.source_language)")
	cmd.Flags().StringVar(&flags.engine, "engine", "", "Translation engine: fastbatch or highquality")
	cmd.Flags().IntVar(&flags.vadMS, "vad-ms", 0, "Minimum silence in milliseconds that splits speech")
	cmd.Flags().Float64Var(&flags.vadThreshold, "vad-threshold", 0, "Speech probability threshold (0.1-1.0)")
	cmd.Flags().BoolVar(&flags.noVAD, "no-vad", false, "Disable voice activity detection and transcribe the whole track")
	cmd.Flags().IntVar(&flags.beamSize, "beam-size", 0, "Beam size for transcription and highquality translation")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "Batch size for highquality translation")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output directory (defaults to each video's directory)")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 1, "Videos processed in parallel")
	cmd.Flags().BoolVar(&flags.skipChecks, "skip-checks", false, "Skip preflight checks")
	return cmd
}

// applyGenerateFlags layers explicitly set flags over the loaded config and
// revalidates it.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config, flags *generateFlags) error {
	changed := cmd.Flags().Changed
	if changed("to") {
		cfg.Pipeline.TargetLanguage = strings.TrimSpace(flags.to)
	}
	if changed("from") {
		cfg.Pipeline.SourceLanguage = strings.ToLower(strings.TrimSpace(flags.from))
	}
	if changed("engine") {
		cfg.Pipeline.TranslationEngine = strings.ToLower(strings.TrimSpace(flags.engine))
	}
	if changed("vad-ms") {
		cfg.Pipeline.VADMinSilenceMS = flags.vadMS
	}
	if changed("vad-threshold") {
		if flags.vadThreshold < 0.1 || flags.vadThreshold > 1.0 {
			return fmt.Errorf("--vad-threshold must be between 0.1 and 1.0, got %g", flags.vadThreshold)
		}
		cfg.Pipeline.VADThreshold = flags.vadThreshold
	}
	if flags.noVAD {
		cfg.Pipeline.VADEnabled = false
	}
	if changed("beam-size") {
		cfg.Pipeline.BeamSize = flags.beamSize
	}
	if changed("batch-size") {
		cfg.Pipeline.TranslationBatchSize = flags.batchSize
	}
	if flags.jobs < 1 {
		return errors.New("--jobs must be at least 1")
	}
	if strings.TrimSpace(flags.output) != "" {
		expanded, err := config.ExpandPath(flags.output)
		if err != nil {
			return fmt.Errorf("resolve --output: %w", err)
		}
		flags.output = expanded
	}
	return cfg.Validate()
}

func requirePreflight(cmd *cobra.Command, cfg *config.Config) error {
	failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg))
	if len(failed) == 0 {
		return nil
	}
	colorize := shouldColorize(cmd.ErrOrStderr())
	for _, r := range failed {
		fmt.Fprintln(cmd.ErrOrStderr(), renderStatusLine(r.Name, statusError, r.Detail, colorize))
	}
	return fmt.Errorf("%d preflight check(s) failed; run `dualsub status` for details or pass --skip-checks", len(failed))
}

func reportOutcomes(out io.Writer, outcomes []pipeline.Outcome) error {
	var failures int
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failures++
			fmt.Fprintf(out, "FAILED %s: %v\n", outcome.Request.Source, outcome.Err)
			continue
		}
		res := outcome.Result
		note := ""
		if res.Fallback {
			note = " (translation skipped: " + res.FallbackReason + ")"
		}
		fmt.Fprintf(out, "%s -> %s, %s [%d cues, %s]%s\n",
			outcome.Request.Source, res.OriginalPath, res.TranslatedPath,
			res.Cues, res.Elapsed.Round(time.Millisecond), note)
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d video(s) failed", failures, len(outcomes))
	}
	return nil
}
