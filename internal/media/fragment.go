package media

import "path/filepath"

// Fragment is a single-stream media file on disk belonging to one recording.
// Fragments are created by the downloader and only ever deleted by the merge
// executor after a verified merge; they are never mutated in place.
type Fragment struct {
	Path   string
	Number int
	Suffix string
	Ext    string
	// InProgress is set when a sibling marker file exists, meaning the
	// fragment write has not finished.
	InProgress bool
}

// Name returns the fragment's base filename.
func (f Fragment) Name() string {
	return filepath.Base(f.Path)
}

// MarkerPath returns the sibling marker path whose existence flags an
// unfinished write.
func (f Fragment) MarkerPath() string {
	return f.Path + MarkerSuffix
}

// Group is the set of all fragments sharing one recording number,
// partitioned by stream kind.
type Group struct {
	Number int
	Videos []Fragment
	Audios []Fragment
}
