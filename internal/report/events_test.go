package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestEventLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewEventLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	if logger.BatchID() == "" {
		t.Error("batch ID not generated")
	}

	if err := logger.LogScan("/photos/a.RAF", "raw"); err != nil {
		t.Fatalf("failed to log scan: %v", err)
	}
	if err := logger.LogHash("/photos/a.RAF", "abc123", 40*time.Millisecond); err != nil {
		t.Fatalf("failed to log hash: %v", err)
	}
	if err := logger.LogDuplicate("/photos/a.RAF", "/library/a.RAF", "hash"); err != nil {
		t.Fatalf("failed to log duplicate: %v", err)
	}
	if err := logger.LogCatalog("/photos/a.RAF", 42); err != nil {
		t.Fatalf("failed to log catalog: %v", err)
	}
	if err := logger.LogError(EventError, "/photos/b.RAF", errors.New("boom")); err != nil {
		t.Fatalf("failed to log error: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	f, err := os.Open(logger.Path())
	if err != nil {
		t.Fatalf("failed to open event log: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		events = append(events, e)
	}

	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
	for i, e := range events {
		if e.BatchID != logger.BatchID() {
			t.Errorf("event %d batch id = %q, want %q", i, e.BatchID, logger.BatchID())
		}
		if e.Timestamp.IsZero() {
			t.Errorf("event %d has no timestamp", i)
		}
	}
	if events[2].Event != EventDuplicate || events[2].Reason != "hash" {
		t.Errorf("duplicate event = %+v", events[2])
	}
	if events[3].ImageID != 42 {
		t.Errorf("catalog event image id = %d, want 42", events[3].ImageID)
	}
}

func TestEventLoggerLevelFilter(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewEventLogger(dir, LevelWarning)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	logger.LogScan("/photos/a.RAF", "raw")                      // debug, filtered
	logger.LogCatalog("/photos/a.RAF", 1)                       // info, filtered
	logger.LogDuplicate("/photos/a.RAF", "/library/a.RAF", "hash") // warning, kept
	logger.Close()

	data, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	lines := strings.Count(strings.TrimSpace(string(data)), "\n") + 1
	if strings.TrimSpace(string(data)) == "" {
		lines = 0
	}
	if lines != 1 {
		t.Errorf("log has %d lines, want 1", lines)
	}
}

func TestNullLoggerIsSafe(t *testing.T) {
	logger := NullLogger()
	if err := logger.LogScan("/x", "raw"); err != nil {
		t.Errorf("null logger errored: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("null logger close errored: %v", err)
	}
	if logger.Path() != "" || logger.BatchID() != "" {
		t.Error("null logger should have empty path and batch id")
	}
}

func TestSummaryRender(t *testing.T) {
	s := &Summary{
		BatchID:         "b-1",
		Duration:        1500 * time.Millisecond,
		CandidatesFound: 3,
		Imported:        1,
		Duplicates:      []string{"/photos/dup.RAF"},
		Failed:          []Failure{{Path: "/photos/bad.RAF", Reason: "unreadable"}},
		BytesImported:   24 << 20,
		SourcePath:      "/photos",
		DestinationPath: "/library",
		Method:          "copy",
		CatalogPath:     "/library/catalog.db",
	}

	out := s.Render()
	for _, want := range []string{
		"Imported:    1",
		"Duplicates:  1",
		"Failed:      1",
		"/photos/bad.RAF: unreadable",
		"copy",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "canceled") {
		t.Error("summary mentions cancellation for a completed batch")
	}
}
