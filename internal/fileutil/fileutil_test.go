package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"lectern/internal/fileutil"
)

func TestWriteFileAtomicCreatesParentAndLeavesNoTemp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cookies.txt")
	if err := fileutil.WriteFileAtomic(path, []byte("payload"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected content: %q", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file should be gone, stat err=%v", err)
	}
}

func TestFileSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if err := os.WriteFile(path, []byte("12345"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	size, ok := fileutil.FileSize(path)
	if !ok || size != 5 {
		t.Fatalf("unexpected size: %d ok=%v", size, ok)
	}
	if _, ok := fileutil.FileSize(filepath.Join(dir, "absent")); ok {
		t.Fatal("expected ok=false for missing file")
	}
	if _, ok := fileutil.FileSize(dir); ok {
		t.Fatal("expected ok=false for directory")
	}
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if err := fileutil.RemoveIfExists(path); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := fileutil.RemoveIfExists(path); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if fileutil.Exists(path) {
		t.Fatal("file should be gone")
	}
}
