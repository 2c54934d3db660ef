package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/reconcile"
	"lectern/internal/services/ffmpeg"
	"lectern/internal/services/ytdlp"
	"lectern/internal/session"
	"lectern/internal/sourcecache"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) buildLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		LogFile: filepath.Join(cfg.Paths.LogDir, "lectern.log"),
	})
}

func (c *commandContext) buildProvider(cfg *config.Config, logger *slog.Logger) (session.Provider, error) {
	return session.NewWebProvider(
		cfg.Session.BaseURL,
		cfg.Session.LoginURL,
		cfg.Session.Email,
		cfg.Session.Password,
		time.Duration(cfg.Session.RequestTimeout)*time.Second,
		logger,
	)
}

func (c *commandContext) buildDownloader(cfg *config.Config) (*ytdlp.Client, error) {
	return ytdlp.New(cfg.Downloader.Binary, cfg.Downloader.Timeout, cfg.Downloader.Retries)
}

func (c *commandContext) buildReconciler(cfg *config.Config, logger *slog.Logger) (*reconcile.Reconciler, error) {
	merger, err := ffmpeg.New(cfg.Merge.Binary, cfg.Merge.Timeout, cfg.Merge.AudioBitrate)
	if err != nil {
		return nil, err
	}
	return reconcile.New(cfg.Paths.OutputDir, cfg.Merge.MinOutputBytes, merger, logger), nil
}

// openSourceCache returns nil when caching is disabled; the orchestrator
// treats a nil cache as inert.
func (c *commandContext) openSourceCache(cfg *config.Config, logger *slog.Logger) (*sourcecache.Cache, error) {
	if !cfg.SourceCache.Enabled {
		return nil, nil
	}
	ttl := time.Duration(cfg.SourceCache.TTLHours) * time.Hour
	return sourcecache.Open(cfg.SourceCachePath(), ttl, logger)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
