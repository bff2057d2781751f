package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dualsub/internal/config"
	"dualsub/internal/language"
	"dualsub/internal/preflight"
)

type statusReport struct {
	ConfigPath   string             `json:"config_path"`
	ConfigExists bool               `json:"config_exists"`
	Source       string             `json:"source_language"`
	Target       string             `json:"target_language"`
	Engine       string             `json:"translation_engine"`
	Backend      string             `json:"transcription_backend"`
	Checks       []preflight.Result `json:"checks"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and dependency readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := statusReport{
				ConfigPath:   ctx.configPath,
				ConfigExists: ctx.configSeen,
				Source:       cfg.Pipeline.SourceLanguage,
				Target:       cfg.Pipeline.TargetLanguage,
				Engine:       cfg.Pipeline.TranslationEngine,
				Backend:      cfg.Transcription.Backend,
				Checks:       preflight.RunAll(cmd.Context(), cfg),
			}
			if asJSON {
				return writeJSON(cmd, report)
			}
			renderStatus(cmd, cfg, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func renderStatus(cmd *cobra.Command, cfg *config.Config, report statusReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Configuration", colorize) {
		fmt.Fprintln(out, line)
	}
	configDetail := report.ConfigPath
	configKind := statusOK
	if !report.ConfigExists {
		configDetail += " (not found, using defaults)"
		configKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Config", configKind, configDetail, colorize))
	fmt.Fprintln(out, renderStatusLine("Languages", statusInfo, languagePair(report.Source, report.Target), colorize))
	fmt.Fprintln(out, renderStatusLine("Transcription", statusInfo,
		fmt.Sprintf("%s (%s on %s)", report.Backend, cfg.Transcription.Model, cfg.Transcription.Device), colorize))
	fmt.Fprintln(out, renderStatusLine("Translation", statusInfo, report.Engine, colorize))
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(report.Checks))
	for i, r := range report.Checks {
		state := statusKindLabel(resultKind(r))
		if colorize {
			state = statusKindColor(resultKind(r)) + state + ansiReset
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), r.Name, state, r.Detail})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Check", "State", "Detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
	if failed := preflight.Failed(report.Checks); len(failed) > 0 {
		fmt.Fprintf(out, "%d required check(s) failing; dualsub generate will refuse to start.\n", len(failed))
	}
}

func languagePair(source, target string) string {
	if target == "" {
		target = "(unset: pass --to)"
	} else {
		target = fmt.Sprintf("%s [%s]", language.DisplayName(target), target)
	}
	if source == language.Auto {
		return "auto-detect -> " + target
	}
	return fmt.Sprintf("%s [%s] -> %s", language.DisplayName(source), source, target)
}
