package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"lectern/internal/fileutil"
	"lectern/internal/logging"
	"lectern/internal/media"
	"lectern/internal/services"
	"lectern/internal/services/ffmpeg"
)

// Merger is the merge-tool dependency; satisfied by *ffmpeg.Client.
type Merger interface {
	Merge(ctx context.Context, req ffmpeg.MergeRequest, onOutput func(string)) error
}

// Unpaired records a group skipped during a pass and why.
type Unpaired struct {
	Number int
	Reason Reason
}

// Result summarizes one reconciliation pass.
type Result struct {
	Merged   []int
	Failed   []int
	Unpaired []Unpaired
}

// MergedCount returns how many recordings were reconciled.
func (r Result) MergedCount() int { return len(r.Merged) }

// Reconciler pairs and merges fragments in one output directory.
type Reconciler struct {
	dir     string
	minSize int64
	merger  Merger
	logger  *slog.Logger
}

// New constructs a reconciler. minSize is the sanity floor for merge
// outputs; anything at or below it is treated as corrupt.
func New(dir string, minSize int64, merger Merger, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		dir:     dir,
		minSize: minSize,
		merger:  merger,
		logger:  logging.NewComponentLogger(logger, "reconcile"),
	}
}

// Run performs one reconciliation pass. With numbers given, the pass is
// scoped to just those recordings; otherwise the whole directory is
// considered. The returned error covers only the pass itself (an unreadable
// directory); per-group merge failures land in the Result with their
// fragments preserved for a future retry.
func (r *Reconciler) Run(ctx context.Context, numbers ...int) (Result, error) {
	var only map[int]struct{}
	if len(numbers) > 0 {
		only = make(map[int]struct{}, len(numbers))
		for _, num := range numbers {
			only[num] = struct{}{}
		}
	}

	var result Result

	groups, err := scanGroups(r.dir, only)
	if err != nil {
		return result, services.Wrap(services.ErrEnvironment, "reconcile", "scan", r.dir, err)
	}

	for _, num := range sortedNumbers(groups) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		group := groups[num]

		video, audio, err := selectPair(group)
		if err != nil {
			var notMergeable *NotMergeableError
			if errors.As(err, &notMergeable) {
				r.logger.Info("fragments not mergeable",
					logging.Recording(num),
					logging.String("reason", string(notMergeable.Reason)))
				result.Unpaired = append(result.Unpaired, Unpaired{Number: num, Reason: notMergeable.Reason})
				continue
			}
			return result, err
		}

		if r.mergePair(ctx, num, video, audio) {
			result.Merged = append(result.Merged, num)
		} else {
			result.Failed = append(result.Failed, num)
		}
	}

	r.cleanTempFiles()

	return result, nil
}

// mergePair drives one merge and owns every filesystem consequence. The
// fragment deletions here are the only point where fragments are removed,
// and they happen strictly after the output passed validation.
func (r *Reconciler) mergePair(ctx context.Context, num int, video, audio media.Fragment) bool {
	outputPath := filepath.Join(r.dir, media.CanonicalName(num))

	r.logger.Info("merging fragments",
		logging.Recording(num),
		logging.String("video", video.Name()),
		logging.String("audio", audio.Name()))

	req := ffmpeg.MergeRequest{
		VideoPath:  video.Path,
		AudioPath:  audio.Path,
		OutputPath: outputPath,
	}
	onOutput := func(line string) {
		r.logger.Debug("merge tool output", logging.Recording(num), logging.String("line", line))
	}

	if err := r.merger.Merge(ctx, req, onOutput); err != nil {
		// Keep the fragments; discard an output too small to be anything
		// but a truncated partial.
		if size, ok := fileutil.FileSize(outputPath); ok && size <= r.minSize {
			_ = os.Remove(outputPath)
		}
		r.logger.Warn("merge failed, fragments preserved",
			logging.Recording(num),
			logging.Error(err))
		return false
	}

	size, ok := fileutil.FileSize(outputPath)
	if !ok || size <= r.minSize {
		_ = fileutil.RemoveIfExists(outputPath)
		r.logger.Warn("merge produced invalid output, fragments preserved",
			logging.Recording(num),
			logging.Int64("size", size),
			logging.Int64("min_size", r.minSize))
		return false
	}

	for _, fragment := range []media.Fragment{video, audio} {
		if err := os.Remove(fragment.Path); err != nil {
			r.logger.Warn("failed to remove merged fragment",
				logging.Recording(num),
				logging.String("fragment", fragment.Name()),
				logging.Error(err))
		}
	}

	r.logger.Info("merged recording",
		logging.Recording(num),
		logging.String("output", filepath.Base(outputPath)),
		logging.Int64("size", size))
	return true
}

// cleanTempFiles removes downloader temp files left by a prior interrupted
// run; they carry no value once scanned.
func (r *Reconciler) cleanTempFiles() {
	matches, err := filepath.Glob(filepath.Join(r.dir, "*"+media.TempSuffix))
	if err != nil {
		return
	}
	for _, match := range matches {
		if err := os.Remove(match); err == nil {
			r.logger.Debug("removed stale temp file", logging.String("file", filepath.Base(match)))
		}
	}
}
