// Package rawdec extracts usable image data from camera RAW files without
// demosaicing. Every mainstream RAW container embeds at least one
// camera-rendered JPEG; pulling that out covers thumbnails, previews and
// EXIF for all supported formats with one code path. The EXIF field parser
// is exported for raster files too, so RAW and JPEG imports read metadata
// identically.
package rawdec

import (
	"fmt"
	"strings"
	"time"

	"github.com/zenithphoto/photocat/internal/util"
)

// SupportedExtensions lists the RAW container extensions this package can
// open, lowercased with the leading dot.
var SupportedExtensions = map[string]bool{
	".raf": true, // Fujifilm
	".cr2": true, // Canon
	".cr3": true, // Canon
	".nef": true, // Nikon
	".arw": true, // Sony
	".orf": true, // Olympus
	".dng": true, // Adobe
}

// IsSupportedExtension reports whether ext (with or without a dot, any
// case) names a RAW format this package handles.
func IsSupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	return SupportedExtensions[ext]
}

// Metadata carries the camera fields a decoder can recover from a file.
// Absent fields stay nil.
type Metadata struct {
	Make         *string
	Model        *string
	SerialNumber *string
	Lens         *string
	FocalLength  *float64
	Aperture     *float64
	ShutterSpeed *float64
	ISO          *int64
	Width        *int64
	Height       *int64
	Orientation  *int64
	CapturedAt   *time.Time
	GPSLatitude  *float64
	GPSLongitude *float64
	GPSAltitude  *float64

	// RawJSON is the full tag set as an opaque JSON bag.
	RawJSON *string
}

// Decoder is the narrow extraction contract a RAW backend must provide.
// Each call fails independently; a file whose preview extraction fails may
// still yield metadata, and vice versa.
type Decoder interface {
	// DecodeThumbnail returns JPEG bytes suitable for thumbnail rendering.
	DecodeThumbnail(path string) ([]byte, error)
	// DecodePreview returns JPEG bytes suitable for screen preview rendering.
	DecodePreview(path string) ([]byte, error)
	// ExtractMetadata reads the camera fields. A file without EXIF returns
	// (nil, nil).
	ExtractMetadata(path string) (*Metadata, error)
}

// New returns the decoder backend for path's extension.
func New(path string) (Decoder, error) {
	idx := strings.LastIndex(path, ".")
	if idx < 0 || !IsSupportedExtension(path[idx:]) {
		return nil, fmt.Errorf("no RAW decoder for %s: %w", path, util.ErrUnsupported)
	}
	return &embeddedDecoder{}, nil
}
