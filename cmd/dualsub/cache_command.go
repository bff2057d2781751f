package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dualsub/internal/models"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage downloaded model caches",
	}
	cacheCmd.AddCommand(newCacheCleanCommand(ctx))
	return cacheCmd
}

func newCacheCleanCommand(ctx *commandContext) *cobra.Command {
	var whisper, translation, all bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove whisper and translation model caches",
		Long: "Remove cached model weights. With no selector flag both caches are removed.\n" +
			"Models are downloaded again on the next run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !whisper && !translation {
				all = true
			}
			var dirs []string
			if whisper || all {
				dirs = append(dirs, cfg.Cache.WhisperDir)
			}
			if translation || all {
				dirs = append(dirs, cfg.Cache.TranslationDirs...)
			}
			if len(dirs) == 0 {
				return errors.New("no cache directories configured")
			}

			removals, err := models.CleanCaches(dirs)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, r := range removals {
				if r.Removed {
					fmt.Fprintln(out, renderStatusLine("Removed", statusOK, r.Path, colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Absent", statusInfo, r.Path, colorize))
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&whisper, "whisper", false, "Remove the whisper model cache")
	cmd.Flags().BoolVar(&translation, "translation", false, "Remove the translation model caches")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every model cache")
	return cmd
}
