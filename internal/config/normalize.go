package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSession(); err != nil {
		return err
	}
	c.normalizeDownloader()
	c.normalizeMerge()
	c.normalizeSourceCache()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSession() error {
	if c.Session.Email == "" {
		if value, ok := os.LookupEnv("LECTERN_EMAIL"); ok {
			c.Session.Email = value
		}
	}
	if c.Session.Password == "" {
		if value, ok := os.LookupEnv("LECTERN_PASSWORD"); ok {
			c.Session.Password = value
		}
	}
	c.Session.Email = strings.TrimSpace(c.Session.Email)
	c.Session.BaseURL = strings.TrimRight(strings.TrimSpace(c.Session.BaseURL), "/")
	if c.Session.BaseURL == "" {
		c.Session.BaseURL = defaultBaseURL
	}
	c.Session.LoginURL = strings.TrimSpace(c.Session.LoginURL)
	if c.Session.LoginURL == "" {
		derived, err := deriveLoginURL(c.Session.BaseURL)
		if err != nil {
			return err
		}
		c.Session.LoginURL = derived
	}
	if c.Session.RequestTimeout <= 0 {
		c.Session.RequestTimeout = defaultRequestTimeout
	}
	return nil
}

// deriveLoginURL points at /login on the base URL's host when no explicit
// login URL is configured.
func deriveLoginURL(baseURL string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("session.base_url: %w", err)
	}
	parsed.Path = "/login"
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}

func (c *Config) normalizeDownloader() {
	c.Downloader.Binary = strings.TrimSpace(c.Downloader.Binary)
	if c.Downloader.Binary == "" {
		c.Downloader.Binary = defaultDownloaderBinary
	}
	if c.Downloader.Timeout <= 0 {
		c.Downloader.Timeout = defaultDownloaderTimeout
	}
	if c.Downloader.Retries < 0 {
		c.Downloader.Retries = defaultDownloaderRetries
	}
}

func (c *Config) normalizeMerge() {
	c.Merge.Binary = strings.TrimSpace(c.Merge.Binary)
	if c.Merge.Binary == "" {
		c.Merge.Binary = defaultMergeBinary
	}
	if c.Merge.Timeout <= 0 {
		c.Merge.Timeout = defaultMergeTimeout
	}
	c.Merge.AudioBitrate = strings.TrimSpace(c.Merge.AudioBitrate)
	if c.Merge.AudioBitrate == "" {
		c.Merge.AudioBitrate = defaultAudioBitrate
	}
	if c.Merge.MinOutputBytes <= 0 {
		c.Merge.MinOutputBytes = defaultMinOutputBytes
	}
}

func (c *Config) normalizeSourceCache() {
	if c.SourceCache.TTLHours <= 0 {
		c.SourceCache.TTLHours = defaultSourceCacheTTL
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
