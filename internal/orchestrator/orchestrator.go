package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"lectern/internal/config"
	"lectern/internal/fileutil"
	"lectern/internal/logging"
	"lectern/internal/media"
	"lectern/internal/reconcile"
	"lectern/internal/services"
	"lectern/internal/services/ytdlp"
	"lectern/internal/session"
	"lectern/internal/sourcecache"
)

// Downloader fetches one recording; satisfied by *ytdlp.Client.
type Downloader interface {
	Download(ctx context.Context, req ytdlp.Request, onOutput func(string)) error
}

// Reconciler performs merge passes; satisfied by *reconcile.Reconciler.
type Reconciler interface {
	Run(ctx context.Context, numbers ...int) (reconcile.Result, error)
}

// Params collects the orchestrator's collaborators and run policy.
type Params struct {
	Config     *config.Config
	Provider   session.Provider
	Downloader Downloader
	// Reconciler may be nil when the merge tool is unavailable; AllowSplit
	// must then be set or construction fails.
	Reconciler Reconciler
	// Cache is optional; nil disables source caching.
	Cache *sourcecache.Cache
	// Force re-downloads recordings whose canonical file already exists.
	Force bool
	// AllowSplit tolerates runs without a merge tool, leaving split
	// fragments on disk.
	AllowSplit bool
	Logger     *slog.Logger
}

// Orchestrator coordinates resolution, download, and merge for a range of
// recordings.
type Orchestrator struct {
	cfg        *config.Config
	provider   session.Provider
	downloader Downloader
	reconciler Reconciler
	cache      *sourcecache.Cache
	force      bool
	allowSplit bool
	logger     *slog.Logger
}

// LockFileName is the lock file claiming an output directory for a single
// run.
const LockFileName = ".lectern.lock"

// AcquireRunLock claims outputDir for exclusive use. The merge executor
// deletes fragments only after a verified merge, which assumes no other
// process is writing the directory; every pass that touches fragments must
// hold this lock. Callers release it with Unlock.
func AcquireRunLock(outputDir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(outputDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrEnvironment, "orchestrator", "lock", "acquire run lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrEnvironment, "orchestrator", "lock",
			"another lectern run holds the output directory", nil)
	}
	return lock, nil
}

// New validates params and builds an orchestrator. A missing merge tool is
// an environment failure unless split output is explicitly tolerated; the
// check happens here so no network work starts on a doomed run.
func New(params Params) (*Orchestrator, error) {
	if params.Config == nil {
		return nil, services.Wrap(services.ErrConfiguration, "orchestrator", "new", "config required", nil)
	}
	if params.Provider == nil {
		return nil, services.Wrap(services.ErrConfiguration, "orchestrator", "new", "session provider required", nil)
	}
	if params.Downloader == nil {
		return nil, services.Wrap(services.ErrConfiguration, "orchestrator", "new", "downloader required", nil)
	}
	if params.Reconciler == nil && !params.AllowSplit {
		return nil, services.Wrap(services.ErrEnvironment, "orchestrator", "new",
			"merge tool unavailable; install it or tolerate split output", nil)
	}

	logger := params.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Orchestrator{
		cfg:        params.Config,
		provider:   params.Provider,
		downloader: params.Downloader,
		reconciler: params.Reconciler,
		cache:      params.Cache,
		force:      params.Force,
		allowSplit: params.AllowSplit,
		logger:     logging.NewComponentLogger(logger, "orchestrator"),
	}, nil
}

// Run downloads recordings start through end inclusive and returns the run
// report. Per-item failures are recorded and the run continues; the error
// return is reserved for conditions that abort the whole run.
func (o *Orchestrator) Run(ctx context.Context, start, end int) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	logger := o.logger.With(logging.String(logging.FieldRunID, report.RunID))

	if start < 1 || end < start {
		return report, services.Wrap(services.ErrConfiguration, "orchestrator", "run",
			fmt.Sprintf("invalid range %d..%d", start, end), nil)
	}

	if err := o.cfg.EnsureDirectories(); err != nil {
		return report, services.Wrap(services.ErrEnvironment, "orchestrator", "run", "ensure directories", err)
	}

	lock, err := AcquireRunLock(o.cfg.Paths.OutputDir)
	if err != nil {
		return report, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	if err := o.provider.Login(ctx); err != nil {
		return report, err
	}
	cookieFile := o.cfg.CookieFilePath()
	if err := o.provider.ExportCookies(cookieFile); err != nil {
		return report, err
	}

	total := end - start + 1
	logger.Info("starting run",
		logging.Int("start", start),
		logging.Int("end", end),
		logging.Int("total", total),
		logging.Bool("force", o.force))

	for num := start; num <= end; num++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if !o.force && o.alreadyDownloaded(num) {
			logger.Info("already downloaded, skipping", logging.Recording(num))
			report.Skipped = append(report.Skipped, num)
			continue
		}

		source, err := o.resolve(ctx, num, logger)
		if err != nil {
			if services.Fatal(err) {
				return report, err
			}
			logger.Warn("resolution failed", logging.Recording(num), logging.Error(err))
			report.fail(num, "no usable media source")
			continue
		}

		if err := o.download(ctx, num, source, cookieFile, logger); err != nil {
			if services.Fatal(err) {
				return report, err
			}
			logger.Warn("download failed", logging.Recording(num), logging.Error(err))
			// A cached locator may be the reason; make the next run
			// re-resolve from scratch.
			_ = o.cache.Invalidate(ctx, num)
			report.fail(num, "downloader reported failure")
			continue
		}

		report.Succeeded = append(report.Succeeded, num)
		o.reconcileScoped(ctx, num, logger)
	}

	o.reconcileFinal(ctx, &report, logger)

	logger.Info("run finished",
		logging.Int("succeeded", len(report.Succeeded)),
		logging.Int("skipped", len(report.Skipped)),
		logging.Int("failed", len(report.Failed)),
		logging.Int("unmerged", len(report.Unmerged)))

	return report, nil
}

// alreadyDownloaded reports whether any canonical container for the
// recording exists.
func (o *Orchestrator) alreadyDownloaded(num int) bool {
	base := fmt.Sprintf("%s%02d", media.Prefix, num)
	for _, ext := range media.CanonicalExtensions {
		if fileutil.Exists(filepath.Join(o.cfg.Paths.OutputDir, base+ext)) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) resolve(ctx context.Context, num int, logger *slog.Logger) (session.Source, error) {
	if source, ok := o.cache.Lookup(ctx, num); ok {
		logger.Debug("using cached source", logging.Recording(num))
		return source, nil
	}

	source, err := o.provider.ResolveMediaSource(ctx, num)
	if err != nil {
		return session.Source{}, err
	}
	if err := o.cache.Store(ctx, num, source); err != nil {
		logger.Warn("failed to cache resolved source", logging.Recording(num), logging.Error(err))
	}
	return source, nil
}

func (o *Orchestrator) download(ctx context.Context, num int, source session.Source, cookieFile string, logger *slog.Logger) error {
	req := ytdlp.Request{
		Locator:    source.Locator,
		CookieFile: cookieFile,
		OutputDir:  o.cfg.Paths.OutputDir,
		Number:     num,
	}
	if source.NeedsReferer {
		req.Referer = source.Referer
	}

	logger.Info("downloading", logging.Recording(num))
	onOutput := func(line string) {
		logger.Debug("downloader output", logging.Recording(num), logging.String("line", line))
	}
	if err := o.downloader.Download(ctx, req, onOutput); err != nil {
		return services.Wrap(services.ErrDownload, "orchestrator", "download",
			fmt.Sprintf("recording %d", num), err)
	}
	return nil
}

// reconcileScoped merges the just-downloaded recording right away so an
// interrupted run still leaves completed items in canonical form. Failures
// here are recorded by the final pass, not the per-item report.
func (o *Orchestrator) reconcileScoped(ctx context.Context, num int, logger *slog.Logger) {
	if o.reconciler == nil {
		return
	}
	if _, err := o.reconciler.Run(ctx, num); err != nil {
		logger.Warn("incremental merge pass failed", logging.Recording(num), logging.Error(err))
	}
}

// reconcileFinal sweeps the whole output directory and records recordings
// left split.
func (o *Orchestrator) reconcileFinal(ctx context.Context, report *Report, logger *slog.Logger) {
	if o.reconciler == nil {
		if o.allowSplit {
			report.Unmerged = o.splitLeftovers(report)
		}
		return
	}

	result, err := o.reconciler.Run(ctx)
	if err != nil {
		logger.Warn("final merge pass failed", logging.Error(err))
		return
	}
	report.Unmerged = append(report.Unmerged, result.Failed...)
	for _, unpaired := range result.Unpaired {
		if unpaired.Reason == reconcile.ReasonVideoMissing || unpaired.Reason == reconcile.ReasonAudioMissing {
			report.Unmerged = append(report.Unmerged, unpaired.Number)
		}
	}
}

// splitLeftovers lists this run's successful downloads that have no
// canonical file, which without a merge tool means they are still split.
func (o *Orchestrator) splitLeftovers(report *Report) []int {
	var nums []int
	for _, num := range report.Succeeded {
		if !o.alreadyDownloaded(num) {
			nums = append(nums, num)
		}
	}
	return nums
}
