package config

const (
	defaultOutputDir         = "~/lectern/recordings"
	defaultLogDir            = "~/.local/share/lectern/logs"
	defaultBaseURL           = "https://www.codecademy.com/bootcamps/fullstack-8/recordings"
	defaultLoginURL          = "https://www.codecademy.com/login"
	defaultRequestTimeout    = 60
	defaultDownloaderBinary  = "yt-dlp"
	defaultDownloaderTimeout = 3600
	defaultDownloaderRetries = 3
	defaultMergeBinary       = "ffmpeg"
	defaultMergeTimeout      = 900
	defaultAudioBitrate      = "192k"
	defaultMinOutputBytes    = 1_000_000
	defaultSourceCacheTTL    = 6
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Session: Session{
			BaseURL:        defaultBaseURL,
			LoginURL:       defaultLoginURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Downloader: Downloader{
			Binary:  defaultDownloaderBinary,
			Timeout: defaultDownloaderTimeout,
			Retries: defaultDownloaderRetries,
		},
		Merge: Merge{
			Binary:         defaultMergeBinary,
			Timeout:        defaultMergeTimeout,
			AudioBitrate:   defaultAudioBitrate,
			MinOutputBytes: defaultMinOutputBytes,
		},
		SourceCache: SourceCache{
			Enabled:  true,
			TTLHours: defaultSourceCacheTTL,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
