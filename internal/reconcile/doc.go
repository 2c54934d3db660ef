// Package reconcile turns downloaded fragment pairs into canonical merged
// recordings.
//
// A pass scans the output directory into fragment groups, evicts numbers
// that already have a canonical file, selects the best video and audio
// candidate per group, and drives the merge tool. Fragments are deleted only
// after the merge output has been verified, so a failed or interrupted pass
// leaves the directory retryable, and re-running a completed pass is a
// no-op.
package reconcile
