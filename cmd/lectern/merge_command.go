package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lectern/internal/deps"
	"lectern/internal/orchestrator"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Merge any split video/audio fragments in the output directory",
		Long: "Runs one maintenance pass over the output directory: pairs up split\n" +
			"fragments, merges each pair into its canonical file, and deletes the\n" +
			"fragments once the merge is verified. Needs no credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			status := deps.CheckMergeTool(runCtx, cfg.Merge.Binary)
			if !status.Available {
				return fmt.Errorf("cannot merge without %s: %s", status.Name, status.Detail)
			}

			reconciler, err := ctx.buildReconciler(cfg, logger)
			if err != nil {
				return err
			}

			// The pass deletes fragments after verified merges, so it needs
			// the same exclusive claim on the output directory as a download
			// run.
			lock, err := orchestrator.AcquireRunLock(cfg.Paths.OutputDir)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			result, err := reconciler.Run(runCtx)
			if err != nil {
				return err
			}

			renderMergeSummary(cmd.OutOrStdout(), cfg.Paths.OutputDir, result)
			// Per-group failures leave their fragments in place for a retry
			// and do not fail the maintenance pass.
			return nil
		},
	}
}
