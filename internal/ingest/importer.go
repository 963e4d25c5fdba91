// Package ingest implements the import pipeline: scan a directory into
// candidates, then walk them strictly in order through dedup, placement,
// cataloging, derivatives and keywords. One candidate at a time; duplicate
// bookkeeping and progress counters assume that ordering.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zenithphoto/photocat/internal/catalog"
	"github.com/zenithphoto/photocat/internal/report"
	"github.com/zenithphoto/photocat/internal/service"
	"github.com/zenithphoto/photocat/internal/util"
)

// Method controls where imported files end up.
type Method int

const (
	// MethodAdd catalogs files where they are.
	MethodAdd Method = iota
	// MethodCopy duplicates files into the destination.
	MethodCopy
	// MethodMove copies into the destination, then deletes the source.
	MethodMove
)

func (m Method) String() string {
	switch m {
	case MethodAdd:
		return "add"
	case MethodCopy:
		return "copy"
	case MethodMove:
		return "move"
	default:
		return "unknown"
	}
}

// ParseMethod maps a CLI method name to its Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "add":
		return MethodAdd, nil
	case "copy":
		return MethodCopy, nil
	case "move":
		return MethodMove, nil
	default:
		return 0, fmt.Errorf("unknown import method %q: %w", s, util.ErrInvalidConfig)
	}
}

// DuplicatePolicy decides what happens when a candidate's content hash is
// already catalogued.
type DuplicatePolicy int

const (
	// DuplicateSkip records the duplicate and moves on.
	DuplicateSkip DuplicatePolicy = iota
	// DuplicateImport catalogs it anyway as a second row.
	DuplicateImport
)

// ParseDuplicatePolicy maps a CLI policy name to its DuplicatePolicy.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "skip":
		return DuplicateSkip, nil
	case "import":
		return DuplicateImport, nil
	default:
		return 0, fmt.Errorf("unknown duplicate policy %q: %w", s, util.ErrInvalidConfig)
	}
}

// Stage names the pipeline phase a progress update belongs to.
type Stage string

const (
	StageScanning     Stage = "scanning"
	StageCopying      Stage = "copying"
	StageMoving       Stage = "moving"
	StageCataloging   Stage = "cataloging"
	StageThumbnailing Stage = "thumbnailing"
	StageKeywords     Stage = "keywords"
)

// Progress is one pipeline progress update.
type Progress struct {
	Stage     Stage
	Completed int
	Total     int
	Message   string
}

// Callbacks carries the optional observer hooks of a batch. Nil fields are
// skipped.
type Callbacks struct {
	OnProgress func(Progress)
	OnError    func(path string, err error)
}

func (cb *Callbacks) progress(p Progress) {
	if cb != nil && cb.OnProgress != nil {
		cb.OnProgress(p)
	}
}

func (cb *Callbacks) error(path string, err error) {
	if cb != nil && cb.OnError != nil {
		cb.OnError(path, err)
	}
}

// Options configures one import batch.
type Options struct {
	Method      Method
	Destination string
	Keywords    []string
	Duplicates  DuplicatePolicy
}

// Report is the outcome of one batch. Every input candidate lands in
// exactly one of Imported, Duplicates or Failed, unless cancellation
// stopped the batch before it was reached.
type Report struct {
	Imported       int
	BytesImported  int64
	Duplicates     []string
	Failed         []report.Failure
	Canceled       bool
	BatchStartedAt time.Time
}

// Importer runs import batches against one catalog.
type Importer struct {
	svc    *service.Service
	events *report.EventLogger
}

// New creates an importer. events may be nil to disable the JSONL log.
func New(svc *service.Service, events *report.EventLogger) *Importer {
	return &Importer{svc: svc, events: events}
}

// Import processes candidates strictly in order. Per-candidate failures are
// recorded and the batch continues; only setup errors (unusable
// destination) abort the whole call.
func (im *Importer) Import(candidates []*Candidate, opts Options, cb *Callbacks, cancel *CancelFlag) (*Report, error) {
	rep := &Report{BatchStartedAt: time.Now()}

	if opts.Method != MethodAdd {
		if opts.Destination == "" {
			return nil, fmt.Errorf("method %s requires a destination: %w",
				opts.Method, util.ErrInvalidConfig)
		}
		if err := os.MkdirAll(opts.Destination, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create destination %s: %w", opts.Destination, err)
		}
	}

	total := len(candidates)
	for i, c := range candidates {
		if cancel != nil && cancel.Canceled() {
			rep.Canceled = true
			util.InfoLog("import canceled after %d of %d candidates", i, total)
			break
		}
		im.importOne(c, opts, cb, rep, i, total)
	}

	return rep, nil
}

// importOne runs steps 2 through 10 for a single candidate.
func (im *Importer) importOne(c *Candidate, opts Options, cb *Callbacks, rep *Report, index, total int) {
	primary := c.PrimaryPath()
	if primary == "" {
		im.fail(rep, cb, "", errors.New("candidate has no resolvable path"))
		return
	}

	im.events.LogScan(primary, c.Type.String())

	// Content-level duplicate check
	hashStart := time.Now()
	hash, err := service.ComputeFileHash(primary)
	if err != nil {
		im.fail(rep, cb, primary, err)
		return
	}
	im.events.LogHash(primary, hash, time.Since(hashStart))

	existing, err := im.svc.FindByHash(hash)
	if err != nil {
		im.fail(rep, cb, primary, err)
		return
	}
	dupRecorded := false
	if existing != nil {
		rep.Duplicates = append(rep.Duplicates, primary)
		dupRecorded = true
		im.events.LogDuplicate(primary, existing.OriginalPath, "hash")
		cb.error(primary, fmt.Errorf("content matches %s: %w", existing.OriginalPath, util.ErrDuplicate))
		if opts.Duplicates == DuplicateSkip {
			return
		}
	}

	// Path-level duplicate check against where the file will end up,
	// before any copy: copying over an already-catalogued destination
	// and then rolling it back would destroy the catalogued file.
	expectedFinal := primary
	if opts.Method != MethodAdd {
		expectedFinal = filepath.Join(opts.Destination, filepath.Base(primary))
	}
	byPath, err := im.svc.FindByOriginalPath(expectedFinal)
	if err != nil {
		im.fail(rep, cb, primary, err)
		return
	}
	if byPath != nil {
		if !dupRecorded {
			rep.Duplicates = append(rep.Duplicates, primary)
		}
		im.events.LogDuplicate(primary, expectedFinal, "path")
		cb.error(primary, fmt.Errorf("destination already catalogued: %w", util.ErrDuplicate))
		return
	}

	// Placement
	finalPrimary, finalJpeg, created, err := im.place(c, opts, cb, index, total)
	if err != nil {
		im.rollback(primary, created)
		im.fail(rep, cb, primary, err)
		return
	}

	// Catalog insertion
	cb.progress(Progress{Stage: StageCataloging, Completed: index, Total: total, Message: finalPrimary})
	img, err := im.buildImage(finalPrimary, finalJpeg, hash, rep.BatchStartedAt)
	if err != nil {
		im.rollback(primary, created)
		im.fail(rep, cb, primary, err)
		return
	}
	if err := im.svc.CatalogImage(img, nil); err != nil {
		im.rollback(primary, created)
		im.fail(rep, cb, primary, err)
		return
	}
	im.events.LogCatalog(finalPrimary, img.ID)

	// A paired raster rides along as the sidecar of the catalog row
	if finalJpeg != "" && finalJpeg != finalPrimary {
		if err := im.svc.AttachSidecar(img.ID, finalJpeg); err != nil {
			util.WarnLog("sidecar recording failed for %s: %v", finalJpeg, err)
			cb.error(finalJpeg, err)
		}
	}

	// Derivatives are best-effort from here on
	cb.progress(Progress{Stage: StageThumbnailing, Completed: index, Total: total, Message: finalPrimary})
	renderPath := finalJpeg
	if renderPath == "" {
		renderPath = finalPrimary
	}
	if err := im.svc.GenerateDerivatives(img.ID, renderPath); err != nil {
		im.events.LogThumbnail(img.ID, renderPath, err)
		util.WarnLog("thumbnail generation failed for %s: %v", renderPath, err)
		if c.RawPath != "" {
			if err := im.svc.GenerateFallbackThumbnail(img.ID, finalPrimary); err != nil {
				util.WarnLog("fallback thumbnail failed for %s: %v", finalPrimary, err)
			}
		}
	} else {
		im.events.LogThumbnail(img.ID, renderPath, nil)
	}

	// Batch keywords
	if len(opts.Keywords) > 0 {
		cb.progress(Progress{Stage: StageKeywords, Completed: index, Total: total, Message: finalPrimary})
		if err := im.svc.UpdateKeywords(img.ID, opts.Keywords); err != nil {
			util.WarnLog("keyword assignment failed for %s: %v", finalPrimary, err)
			cb.error(finalPrimary, err)
		}
	}

	// Move deletes sources only after the catalog row is safe
	if opts.Method == MethodMove {
		for _, src := range c.sourcePaths() {
			if err := os.Remove(src); err != nil {
				util.WarnLog("failed to remove moved source %s: %v", src, err)
			}
		}
	}

	rep.Imported++
	if img.Filesize != nil {
		rep.BytesImported += *img.Filesize
	}
	cb.progress(Progress{Stage: StageCataloging, Completed: index + 1, Total: total, Message: finalPrimary})
}

// place puts the candidate's files where the method wants them. It returns
// the final primary path, the final raster path (if any), and every path it
// created for rollback on later failure.
func (im *Importer) place(c *Candidate, opts Options, cb *Callbacks, index, total int) (string, string, []string, error) {
	if opts.Method == MethodAdd {
		return c.PrimaryPath(), c.JpegPath, nil, nil
	}

	stage := StageCopying
	event := report.EventCopy
	if opts.Method == MethodMove {
		stage = StageMoving
		event = report.EventMove
	}

	var created []string
	finalPrimary := ""
	finalJpeg := ""

	for _, src := range c.sourcePaths() {
		dest := filepath.Join(opts.Destination, filepath.Base(src))
		cb.progress(Progress{Stage: stage, Completed: index, Total: total, Message: dest})

		start := time.Now()
		err := copyFile(src, dest)
		im.events.LogPlacement(event, src, dest, time.Since(start), err)
		if err != nil {
			return "", "", created, err
		}
		created = append(created, dest)

		if src == c.PrimaryPath() {
			finalPrimary = dest
		}
		if src == c.JpegPath {
			finalJpeg = dest
		}
	}

	return finalPrimary, finalJpeg, created, nil
}

// buildImage assembles the catalog row for a placed file: stat fields,
// content hash, and whatever EXIF yields. Metadata failures degrade to an
// empty row, never abort.
func (im *Importer) buildImage(path, jpegPath, hash string, batchStart time.Time) (*catalog.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	size := info.Size()
	mtime := info.ModTime().UTC()
	img := &catalog.Image{
		Filename:       filepath.Base(path),
		OriginalPath:   path,
		Filesize:       &size,
		FileHash:       &hash,
		FileModifiedAt: &mtime,
		ImportedAt:     batchStart.UTC(),
	}

	// Prefer EXIF from the primary; a paired JPEG is the fallback source
	if err := service.ExtractMetadata(path, img); err != nil {
		util.DebugLog("metadata extraction failed for %s: %v", path, err)
	}
	if img.CameraMake == nil && jpegPath != "" && jpegPath != path {
		if err := service.ExtractMetadata(jpegPath, img); err != nil {
			util.DebugLog("metadata extraction failed for %s: %v", jpegPath, err)
		}
	}

	return img, nil
}

func (im *Importer) fail(rep *Report, cb *Callbacks, path string, err error) {
	rep.Failed = append(rep.Failed, report.Failure{Path: path, Reason: err.Error()})
	im.events.LogError(report.EventError, path, err)
	cb.error(path, err)
}

// rollback removes files this candidate created. Rollback failures are
// logged, never escalated.
func (im *Importer) rollback(primary string, created []string) {
	if len(created) == 0 {
		return
	}
	for _, path := range created {
		if err := os.Remove(path); err != nil {
			util.WarnLog("rollback failed to remove %s: %v", path, err)
		}
	}
	im.events.LogRollback(primary, created)
}

// sourcePaths lists the files a candidate physically consists of.
func (c *Candidate) sourcePaths() []string {
	var paths []string
	if c.RawPath != "" {
		paths = append(paths, c.RawPath)
	}
	if c.JpegPath != "" {
		paths = append(paths, c.JpegPath)
	}
	return paths
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finish writing %s: %w", dest, err)
	}
	return nil
}
