package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dualsub/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent subtitle runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer closeQuietly(store)

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Video", "Languages", "Engine", "Status", "Cues", "Duration", "Detail"},
				historyRows(runs),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Totals: %d succeeded, %d failed, %d running\n",
				stats[history.StatusSucceeded], stats[history.StatusFailed], stats[history.StatusRunning])
			return nil
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")

	historyCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded run",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer closeQuietly(store)
			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
			return nil
		},
	})
	return historyCmd
}

func (c *commandContext) requireHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := c.openHistory(cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("run history is disabled (set history.enabled = true)")
	}
	return store, nil
}

func historyRows(runs []history.Run) [][]string {
	const stampLayout = "2006-01-02 15:04"
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		languages := run.SourceLanguage
		if run.DetectedLanguage != "" && run.DetectedLanguage != run.SourceLanguage {
			languages += " (" + run.DetectedLanguage + ")"
		}
		languages += " -> " + run.TargetLanguage

		status := string(run.Status)
		detail := ""
		switch run.Status {
		case history.StatusFailed:
			status += " @ " + run.Stage
			detail = run.ErrorKind
			if detail == "" {
				detail = run.ErrorMessage
			}
		case history.StatusSucceeded:
			if run.Fallback {
				detail = "translation fallback"
			}
		}

		duration := "-"
		if run.FinishedAt != nil {
			duration = run.Duration().Round(time.Second).String()
		}
		rows = append(rows, []string{
			run.StartedAt.Local().Format(stampLayout),
			filepath.Base(run.SourcePath),
			languages,
			run.Engine,
			status,
			strconv.Itoa(run.Cues),
			duration,
			detail,
		})
	}
	return rows
}
