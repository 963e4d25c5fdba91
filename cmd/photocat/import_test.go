package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zenithphoto/photocat/internal/ingest"
)

func TestScanSourceToleratesCancellation(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cancel := ingest.NewCancelFlag()
	cancel.Cancel()

	// A canceled scan hands back its partial list so the batch can still
	// end in a canceled report instead of a scan error.
	candidates, err := scanSource(dir, cancel)
	if err != nil {
		t.Fatalf("canceled scan returned error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected empty partial list after immediate cancel, got %d", len(candidates))
	}
}

func TestScanSourceMissingDirectory(t *testing.T) {
	if _, err := scanSource(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("expected error for missing source directory")
	}
}
