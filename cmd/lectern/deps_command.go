package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lectern/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Show the status of required external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries([]deps.Requirement{
				deps.DownloaderRequirement(cfg.Downloader.Binary),
			})
			statuses = append(statuses, deps.CheckMergeTool(cmd.Context(), cfg.Merge.Binary))

			renderDepsTable(cmd.OutOrStdout(), statuses)

			for _, status := range statuses {
				if !status.Available && !status.Optional {
					return fmt.Errorf("missing required tool: %s", status.Name)
				}
			}
			return nil
		},
	}
}
