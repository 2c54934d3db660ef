package reconcile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"lectern/internal/media"
)

// Reason says why a fragment group cannot be merged right now.
type Reason string

const (
	ReasonVideoMissing    Reason = "video missing"
	ReasonAudioMissing    Reason = "audio missing"
	ReasonVideoInProgress Reason = "video still downloading"
	ReasonAudioInProgress Reason = "audio still downloading"
)

// NotMergeableError reports a group that was skipped with its reason.
type NotMergeableError struct {
	Number int
	Reason Reason
}

func (e *NotMergeableError) Error() string {
	return fmt.Sprintf("recording %02d not mergeable: %s", e.Number, e.Reason)
}

var fold = cases.Fold()

// trailingQuality matches the trailing integer token of a video variant
// suffix, e.g. "-2400" in "fhls-2400".
var trailingQuality = regexp.MustCompile(`-(\d+)$`)

// selectPair picks the single best video and audio fragment of a group, or
// reports why the group is not mergeable. Candidates still being written are
// never consumed.
func selectPair(group *media.Group) (media.Fragment, media.Fragment, error) {
	if len(group.Videos) == 0 {
		return media.Fragment{}, media.Fragment{}, &NotMergeableError{Number: group.Number, Reason: ReasonVideoMissing}
	}
	if len(group.Audios) == 0 {
		return media.Fragment{}, media.Fragment{}, &NotMergeableError{Number: group.Number, Reason: ReasonAudioMissing}
	}

	video := bestCandidate(group.Videos, videoScore)
	audio := bestCandidate(group.Audios, audioScore)

	if audio.InProgress {
		return media.Fragment{}, media.Fragment{}, &NotMergeableError{Number: group.Number, Reason: ReasonAudioInProgress}
	}
	if video.InProgress {
		return media.Fragment{}, media.Fragment{}, &NotMergeableError{Number: group.Number, Reason: ReasonVideoInProgress}
	}

	return video, audio, nil
}

// bestCandidate keeps the first fragment with the highest score, so ties
// resolve to first-encountered order.
func bestCandidate(fragments []media.Fragment, score func(string) int) media.Fragment {
	best := fragments[0]
	bestScore := score(best.Suffix)
	for _, fragment := range fragments[1:] {
		if s := score(fragment.Suffix); s > bestScore {
			best = fragment
			bestScore = s
		}
	}
	return best
}

// audioScore ranks track labels: a source-language "original" variant beats
// an "english" dub, which beats anything else. Matching is case-folded.
func audioScore(suffix string) int {
	folded := fold.String(suffix)
	switch {
	case strings.Contains(folded, "original"):
		return 3
	case strings.Contains(folded, "english"):
		return 2
	default:
		return 1
	}
}

// videoScore ranks variants by the largest trailing integer token of the
// suffix; a suffix without one scores lowest. The token correlates with
// higher resolution/bitrate streams in practice but is not verified to be
// either.
func videoScore(suffix string) int {
	m := trailingQuality.FindStringSubmatch(suffix)
	if m == nil {
		return 0
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return value
}
