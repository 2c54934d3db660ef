package media

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Prefix is the canonical recording-name prefix shared by fragments and
// merged files.
const Prefix = "Recording_"

// MarkerSuffix is appended by the downloader to files still being written.
// A fragment with this sibling marker must never be consumed.
const MarkerSuffix = ".part"

// TempSuffix marks downloader bookkeeping files. They are never fragments
// and are swept after each reconciliation pass.
const TempSuffix = ".ytdl"

// CanonicalExtensions are the container extensions a finished download may
// carry. The first entry is the merge output format.
var CanonicalExtensions = []string{".mp4", ".webm", ".mkv"}

var (
	// Recording_02.fhls-2400.mp4 — an unmerged fragment; the suffix may
	// itself contain dots and separators.
	fragmentPattern = regexp.MustCompile(`^Recording_(\d+)\.(.+)\.([A-Za-z0-9]+)$`)
	// Recording_02.mp4 — the merged canonical form.
	canonicalPattern = regexp.MustCompile(`^Recording_(\d+)\.([A-Za-z0-9]+)$`)
)

var fold = cases.Fold()

var audioExtensions = map[string]struct{}{
	"m4a":  {},
	"aac":  {},
	"mp3":  {},
	"opus": {},
	"ogg":  {},
	"wav":  {},
}

// NameKind classifies a filename within the output directory.
type NameKind int

const (
	// KindUnrelated is a file outside the recording naming scheme.
	KindUnrelated NameKind = iota
	// KindFragment is an unmerged single-stream fragment.
	KindFragment
	// KindCanonical is a merged recording.
	KindCanonical
)

// ParsedName is the typed form of a recording filename. Downstream logic
// works on this value and never re-derives state from string matching.
type ParsedName struct {
	Kind   NameKind
	Number int
	// Suffix is the free-form variant token of a fragment (track label or
	// quality indicator). Empty for canonical names.
	Suffix string
	// Ext is the file extension without the leading dot.
	Ext string
}

// ParseName classifies a bare filename. The fragment shape is tried first
// because its suffix may swallow what looks like a canonical extension.
func ParseName(name string) ParsedName {
	if m := fragmentPattern.FindStringSubmatch(name); m != nil {
		num, err := strconv.Atoi(m[1])
		if err == nil {
			return ParsedName{Kind: KindFragment, Number: num, Suffix: m[2], Ext: m[3]}
		}
	}
	if m := canonicalPattern.FindStringSubmatch(name); m != nil {
		num, err := strconv.Atoi(m[1])
		if err == nil {
			return ParsedName{Kind: KindCanonical, Number: num, Ext: m[2]}
		}
	}
	return ParsedName{Kind: KindUnrelated}
}

// CanonicalName returns the merged output filename for a recording number
// (two-digit zero-padded, mp4 container).
func CanonicalName(num int) string {
	return fmt.Sprintf("%s%02d.mp4", Prefix, num)
}

// OutputTemplate returns the downloader's output filename template for a
// recording number, leaving the extension to the tool.
func OutputTemplate(num int) string {
	return fmt.Sprintf("%s%02d.%%(ext)s", Prefix, num)
}

// IsAudioCandidate reports whether a fragment holds the audio stream: its
// variant suffix carries an audio token (case-insensitive) or its extension
// belongs to the known audio container set. Everything else is video.
func IsAudioCandidate(suffix, ext string) bool {
	if containsFolded(suffix, "audio") {
		return true
	}
	_, ok := audioExtensions[fold.String(ext)]
	return ok
}

func containsFolded(s, token string) bool {
	return strings.Contains(fold.String(s), token)
}
