package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventScan      EventType = "scan"
	EventPair      EventType = "pair"
	EventHash      EventType = "hash"
	EventDuplicate EventType = "duplicate"
	EventCopy      EventType = "copy"
	EventMove      EventType = "move"
	EventCatalog   EventType = "catalog"
	EventThumbnail EventType = "thumbnail"
	EventKeywords  EventType = "keywords"
	EventRollback  EventType = "rollback"
	EventError     EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in an import batch
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	BatchID   string            `json:"batch_id,omitempty"`
	SrcPath   string            `json:"src_path,omitempty"`
	DestPath  string            `json:"dest_path,omitempty"`
	ImageID   int64             `json:"image_id,omitempty"`
	Hash      string            `json:"hash,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file, one batch per file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	batchID  string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level.
// Every event it writes carries the same generated batch ID.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("import-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		batchID:  uuid.NewString(),
		minLevel: minLevel,
	}, nil
}

// BatchID returns the identifier stamped on every event of this logger.
func (l *EventLogger) BatchID() string {
	if l == nil {
		return ""
	}
	return l.batchID
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.BatchID == "" {
		event.BatchID = l.batchID
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogScan logs a discovered candidate
func (l *EventLogger) LogScan(srcPath string, assetType string) error {
	return l.Log(&Event{
		Level:   LevelDebug,
		Event:   EventScan,
		SrcPath: srcPath,
		Extra: map[string]string{
			"asset_type": assetType,
		},
	})
}

// LogHash logs a computed content hash
func (l *EventLogger) LogHash(srcPath, hash string, duration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelDebug,
		Event:    EventHash,
		SrcPath:  srcPath,
		Hash:     hash,
		Duration: duration.Milliseconds(),
	})
}

// LogDuplicate logs a detected duplicate and what it matched
func (l *EventLogger) LogDuplicate(srcPath, matchedPath, by string) error {
	return l.Log(&Event{
		Level:   LevelWarning,
		Event:   EventDuplicate,
		SrcPath: srcPath,
		Reason:  by,
		Extra: map[string]string{
			"matched_path": matchedPath,
		},
	})
}

// LogPlacement logs a copy or move of one file
func (l *EventLogger) LogPlacement(event EventType, srcPath, destPath string, duration time.Duration, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:    level,
		Event:    event,
		SrcPath:  srcPath,
		DestPath: destPath,
		Duration: duration.Milliseconds(),
		Error:    errMsg,
	})
}

// LogCatalog logs a successful catalog insertion
func (l *EventLogger) LogCatalog(srcPath string, imageID int64) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventCatalog,
		SrcPath: srcPath,
		ImageID: imageID,
	})
}

// LogThumbnail logs derivative generation for one image
func (l *EventLogger) LogThumbnail(imageID int64, srcPath string, err error) error {
	level := LevelDebug
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:   level,
		Event:   EventThumbnail,
		SrcPath: srcPath,
		ImageID: imageID,
		Error:   errMsg,
	})
}

// LogRollback logs removal of files created for a failed candidate
func (l *EventLogger) LogRollback(srcPath string, removed []string) error {
	return l.Log(&Event{
		Level:   LevelWarning,
		Event:   EventRollback,
		SrcPath: srcPath,
		Extra: map[string]string{
			"removed_count": fmt.Sprintf("%d", len(removed)),
		},
	})
}

// LogError logs a per-candidate error
func (l *EventLogger) LogError(event EventType, srcPath string, err error) error {
	return l.Log(&Event{
		Level:   LevelError,
		Event:   event,
		SrcPath: srcPath,
		Error:   err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
