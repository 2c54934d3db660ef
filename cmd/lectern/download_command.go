package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"lectern/internal/config"
	"lectern/internal/deps"
	"lectern/internal/orchestrator"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var (
		videoNum   int
		startNum   int
		endNum     int
		force      bool
		headless   bool
		allowSplit bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a recording or a range of recordings",
		Long: "Downloads recordings by number, skipping ones already on disk, and\n" +
			"merges split video/audio fragments as it goes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := resolveRange(videoNum, startNum, endNum, cmd.Flags().Changed("start"))
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if headless {
				cfg.Session.Headless = true
			}

			if err := cfg.RequireCredentials(); err != nil {
				if cfg.Session.Headless {
					return err
				}
				if promptErr := promptCredentials(cmd, cfg); promptErr != nil {
					return err
				}
				if err := cfg.RequireCredentials(); err != nil {
					return err
				}
			}

			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// The merge tool requirement fails here, before any network work.
			params := orchestrator.Params{
				Config:     cfg,
				Force:      force,
				AllowSplit: allowSplit,
				Logger:     logger,
			}
			mergeStatus := deps.CheckMergeTool(runCtx, cfg.Merge.Binary)
			if mergeStatus.Available {
				reconciler, err := ctx.buildReconciler(cfg, logger)
				if err != nil {
					return err
				}
				params.Reconciler = reconciler
			} else if !allowSplit {
				fmt.Fprintf(cmd.ErrOrStderr(),
					"%s is required to merge video and audio streams (%s).\n"+
						"Install it, or re-run with --allow-split to keep separate files.\n",
					mergeStatus.Name, mergeStatus.Detail)
			}

			provider, err := ctx.buildProvider(cfg, logger)
			if err != nil {
				return err
			}
			params.Provider = provider

			downloader, err := ctx.buildDownloader(cfg)
			if err != nil {
				return err
			}
			params.Downloader = downloader

			cache, err := ctx.openSourceCache(cfg, logger)
			if err != nil {
				return err
			}
			if cache != nil {
				defer cache.Close()
				params.Cache = cache
			}

			orch, err := orchestrator.New(params)
			if err != nil {
				return err
			}

			report, err := orch.Run(runCtx, start, end)
			if err != nil {
				return err
			}

			renderRunSummary(cmd.OutOrStdout(), cfg.Paths.OutputDir, report)
			if !report.OK() {
				return fmt.Errorf("%d recording(s) failed", len(report.Failed))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&videoNum, "video", "v", 0, "Download a single recording by number")
	cmd.Flags().IntVarP(&startNum, "start", "s", 0, "First recording number (use with --end)")
	cmd.Flags().IntVarP(&endNum, "end", "e", 0, "Last recording number (use with --start)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Re-download even when the recording already exists")
	cmd.Flags().BoolVar(&headless, "headless", false, "Never prompt on stdin; fail when input would be needed")
	cmd.Flags().BoolVar(&allowSplit, "allow-split", false, "Tolerate a missing merge tool and keep split files")

	return cmd
}

// resolveRange maps the flag combinations to an inclusive range: --video
// selects one item, --start/--end a span.
func resolveRange(videoNum, startNum, endNum int, startSet bool) (int, int, error) {
	if videoNum != 0 {
		if startSet {
			return 0, 0, fmt.Errorf("--video and --start are mutually exclusive")
		}
		if videoNum < 1 {
			return 0, 0, fmt.Errorf("recording numbers must be positive")
		}
		return videoNum, videoNum, nil
	}
	if !startSet {
		return 0, 0, fmt.Errorf("either --video or --start/--end is required")
	}
	if endNum == 0 {
		return 0, 0, fmt.Errorf("--end is required when using --start")
	}
	if startNum < 1 {
		return 0, 0, fmt.Errorf("recording numbers must be positive")
	}
	if startNum > endNum {
		return 0, 0, fmt.Errorf("--start must be less than or equal to --end")
	}
	return startNum, endNum, nil
}

// promptCredentials fills missing credentials interactively. Values entered
// here live only for this run; nothing is written back to the config file.
func promptCredentials(cmd *cobra.Command, cfg *config.Config) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	if strings.TrimSpace(cfg.Session.Email) == "" {
		fmt.Fprint(out, "Platform email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		cfg.Session.Email = strings.TrimSpace(line)
	}
	if strings.TrimSpace(cfg.Session.Password) == "" {
		fmt.Fprint(out, "Platform password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		cfg.Session.Password = strings.TrimSpace(line)
	}
	return nil
}
