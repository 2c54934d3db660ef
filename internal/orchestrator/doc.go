// Package orchestrator drives a download run end to end.
//
// A run walks the requested recording range in order: skip items whose
// canonical file already exists, resolve a media source through the session
// provider (consulting the resolved-source cache first), hand the source to
// the downloader, and reconcile fragments incrementally after each success
// and once more at the end. One item failing never stops the run; only
// environment and configuration problems abort it. A file lock on the log
// directory keeps concurrent runs off the same output tree.
package orchestrator
