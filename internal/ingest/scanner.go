package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zenithphoto/photocat/internal/rawdec"
	"github.com/zenithphoto/photocat/internal/util"
)

// AssetType classifies what a scan candidate is made of.
type AssetType int

const (
	JpegOnly AssetType = iota
	RawOnly
	RawWithJpeg
)

func (t AssetType) String() string {
	switch t {
	case JpegOnly:
		return "jpeg"
	case RawOnly:
		return "raw"
	case RawWithJpeg:
		return "raw+jpeg"
	default:
		return "unknown"
	}
}

// rasterExtensions are the directly decodable formats. A raster file sharing
// a stem with a RAW file in the same directory pairs into one candidate.
var rasterExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".tif":  true,
	".jxl":  true,
	".heif": true,
	".heic": true,
}

// Candidate is one logical photo discovered by a scan: a RAW file, a raster
// file, or a camera pair of both.
type Candidate struct {
	Type     AssetType
	RawPath  string
	JpegPath string
}

// PrimaryPath is the file the candidate is catalogued under: the RAW when
// present, otherwise the raster file.
func (c *Candidate) PrimaryPath() string {
	if c.RawPath != "" {
		return c.RawPath
	}
	return c.JpegPath
}

// RenderPath is the file derivatives decode from: the raster when present,
// otherwise the RAW (through its embedded JPEG).
func (c *Candidate) RenderPath() string {
	if c.JpegPath != "" {
		return c.JpegPath
	}
	return c.RawPath
}

// ScanFolder walks dir recursively and groups image files into candidates
// by lowercased filename stem within each directory. Non-image files are
// skipped. A directory's own candidates are finalized and emitted before its
// subdirectories are entered, so onCandidate (when non-nil) streams discovery
// as the walk proceeds, in the same order as the returned slice: within a
// directory by primary path, subdirectories by name. The cancel flag is
// polled between entries; candidates found before cancellation are still
// returned, alongside ErrCanceled.
func ScanFolder(dir string, onCandidate func(*Candidate), cancel *CancelFlag) ([]*Candidate, error) {
	s := &scanState{onCandidate: onCandidate, cancel: cancel}
	if err := s.scanDir(dir, true); err != nil {
		if errors.Is(err, util.ErrCanceled) {
			return s.candidates, err
		}
		return nil, err
	}
	return s.candidates, nil
}

type scanState struct {
	onCandidate func(*Candidate)
	cancel      *CancelFlag
	candidates  []*Candidate
}

// scanDir groups one directory's files, flushes the finished candidates,
// then descends into its subdirectories in name order.
func (s *scanState) scanDir(dir string, root bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if root {
			return fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		util.WarnLog("skipping %s: %v", dir, err)
		return nil
	}

	groups := make(map[string]*Candidate)
	var subdirs []string

	for _, e := range entries {
		if s.cancel != nil && s.cancel.Canceled() {
			s.flush(groups)
			return util.ErrCanceled
		}

		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			subdirs = append(subdirs, path)
			continue
		}

		ext := strings.ToLower(filepath.Ext(e.Name()))
		isRaw := rawdec.IsSupportedExtension(ext)
		if !isRaw && !rasterExtensions[ext] {
			continue
		}

		stem := strings.ToLower(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		c := groups[stem]
		if c == nil {
			c = &Candidate{}
			groups[stem] = c
		}
		if isRaw {
			c.RawPath = path
		} else {
			c.JpegPath = path
		}
	}

	s.flush(groups)

	for _, sub := range subdirs {
		if s.cancel != nil && s.cancel.Canceled() {
			return util.ErrCanceled
		}
		if err := s.scanDir(sub, false); err != nil {
			return err
		}
	}
	return nil
}

// flush classifies one directory's groups and emits them in primary path
// order. Map iteration order is random; imports must be deterministic.
func (s *scanState) flush(groups map[string]*Candidate) {
	batch := make([]*Candidate, 0, len(groups))
	for _, c := range groups {
		switch {
		case c.RawPath != "" && c.JpegPath != "":
			c.Type = RawWithJpeg
		case c.RawPath != "":
			c.Type = RawOnly
		default:
			c.Type = JpegOnly
		}
		batch = append(batch, c)
	}
	sort.Slice(batch, func(i, j int) bool {
		return batch[i].PrimaryPath() < batch[j].PrimaryPath()
	})

	for _, c := range batch {
		if s.onCandidate != nil {
			s.onCandidate(c)
		}
		s.candidates = append(s.candidates, c)
	}
}
