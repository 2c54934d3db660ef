package reconcile

import (
	"path/filepath"
	"testing"

	"lectern/internal/testsupport"
)

func TestScanGroupsClassifiesFragments(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_02.fhls-2400.mp4"), 64)
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_02.fhls-audio-high-Original.mp4"), 64)
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_02.track.m4a"), 64)
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), 8)
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_3.mp4"), 64)

	groups, err := scanGroups(dir, nil)
	if err != nil {
		t.Fatalf("scanGroups: %v", err)
	}

	group, ok := groups[2]
	if !ok {
		t.Fatalf("expected group for recording 2, got %v", groups)
	}
	if len(group.Videos) != 1 {
		t.Fatalf("expected 1 video fragment, got %d", len(group.Videos))
	}
	if group.Videos[0].Suffix != "fhls-2400" {
		t.Errorf("video suffix = %q, want fhls-2400", group.Videos[0].Suffix)
	}
	if len(group.Audios) != 2 {
		t.Fatalf("expected 2 audio fragments, got %d", len(group.Audios))
	}
	if len(groups) != 1 {
		t.Errorf("expected only recording 2 grouped, got %d groups", len(groups))
	}
}

func TestScanGroupsEvictsReconciledNumbers(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_07.fhls-1200.mp4"), 64)
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_07.stream-audio-Original.mp4"), 64)
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_07.mp4"), 256)
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_08.fhls-1200.mp4"), 64)
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_08.stream-audio-Original.mp4"), 64)

	groups, err := scanGroups(dir, nil)
	if err != nil {
		t.Fatalf("scanGroups: %v", err)
	}

	if _, ok := groups[7]; ok {
		t.Error("recording 7 has a merged file and must not be grouped")
	}
	if _, ok := groups[8]; !ok {
		t.Error("recording 8 has no merged file and must be grouped")
	}
}

func TestScanGroupsEvictionOrderIndependent(t *testing.T) {
	// The merged file sorts before its own fragments in directory order; the
	// eviction must still apply to fragments staged after it was seen.
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_01.mp4"), 256)
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_01.zfhls-900.mp4"), 64)

	groups, err := scanGroups(dir, nil)
	if err != nil {
		t.Fatalf("scanGroups: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected no groups, got %v", groups)
	}
}

func TestScanGroupsNonMP4CanonicalDoesNotEvict(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_04.webm"), 256)
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_04.fhls-1200.mp4"), 64)

	groups, err := scanGroups(dir, nil)
	if err != nil {
		t.Fatalf("scanGroups: %v", err)
	}
	if _, ok := groups[4]; !ok {
		t.Error("a non-mp4 sibling must not mark recording 4 as reconciled")
	}
}

func TestScanGroupsScoping(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_01.fhls-1200.mp4"), 64)
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_02.fhls-1200.mp4"), 64)

	groups, err := scanGroups(dir, map[int]struct{}{2: {}})
	if err != nil {
		t.Fatalf("scanGroups: %v", err)
	}
	if _, ok := groups[1]; ok {
		t.Error("recording 1 is outside the scope and must be ignored")
	}
	if _, ok := groups[2]; !ok {
		t.Error("recording 2 is in scope and must be grouped")
	}
}

func TestScanGroupsMarksInProgress(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_05.fhls-1200.mp4"), 64)
	testsupport.WriteFile(t, filepath.Join(dir, "Recording_05.fhls-1200.mp4.part"), 8)

	groups, err := scanGroups(dir, nil)
	if err != nil {
		t.Fatalf("scanGroups: %v", err)
	}
	group, ok := groups[5]
	if !ok || len(group.Videos) != 1 {
		t.Fatalf("expected one video fragment for recording 5, got %v", groups)
	}
	if !group.Videos[0].InProgress {
		t.Error("fragment with a sibling .part marker must be in progress")
	}
}

func TestScanGroupsMissingDirectory(t *testing.T) {
	groups, err := scanGroups(filepath.Join(t.TempDir(), "absent"), nil)
	if err != nil {
		t.Fatalf("scanGroups on missing directory: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected empty result, got %v", groups)
	}
}
