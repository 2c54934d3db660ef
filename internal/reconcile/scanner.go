package reconcile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lectern/internal/fileutil"
	"lectern/internal/media"
)

// scanGroups maps recording numbers to their fragment groups. Fragments are
// staged first and canonical files applied afterwards: a number can carry
// both stale fragments and a merged file after an earlier partial run, and
// the canonical file must win by evicting the staged group.
func scanGroups(dir string, only map[int]struct{}) (map[int]*media.Group, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[int]*media.Group{}, nil
		}
		return nil, fmt.Errorf("read output directory: %w", err)
	}

	groups := make(map[int]*media.Group)
	var canonical []int

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		// Marker and downloader temp files shadow a fragment's name and
		// would otherwise parse as fragments themselves.
		if strings.HasSuffix(name, media.MarkerSuffix) || strings.HasSuffix(name, media.TempSuffix) {
			continue
		}
		parsed := media.ParseName(name)
		switch parsed.Kind {
		case media.KindFragment:
			if excluded(only, parsed.Number) {
				continue
			}
			path := filepath.Join(dir, name)
			fragment := media.Fragment{
				Path:       path,
				Number:     parsed.Number,
				Suffix:     parsed.Suffix,
				Ext:        parsed.Ext,
				InProgress: fileutil.Exists(path + media.MarkerSuffix),
			}
			group := groups[parsed.Number]
			if group == nil {
				group = &media.Group{Number: parsed.Number}
				groups[parsed.Number] = group
			}
			if media.IsAudioCandidate(parsed.Suffix, parsed.Ext) {
				group.Audios = append(group.Audios, fragment)
			} else {
				group.Videos = append(group.Videos, fragment)
			}
		case media.KindCanonical:
			// Only the merge output format marks a number as reconciled.
			if parsed.Ext == "mp4" && !excluded(only, parsed.Number) {
				canonical = append(canonical, parsed.Number)
			}
		}
	}

	for _, num := range canonical {
		delete(groups, num)
	}

	return groups, nil
}

func excluded(only map[int]struct{}, num int) bool {
	if only == nil {
		return false
	}
	_, ok := only[num]
	return !ok
}

func sortedNumbers(groups map[int]*media.Group) []int {
	numbers := make([]int, 0, len(groups))
	for num := range groups {
		numbers = append(numbers, num)
	}
	sort.Ints(numbers)
	return numbers
}
