package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zenithphoto/photocat/internal/catalog"
	"github.com/zenithphoto/photocat/internal/rawdec"
	"github.com/zenithphoto/photocat/internal/util"
)

// ExtractMetadata reads the EXIF block of an image file and fills the
// camera fields of img in place. RAW files go through the decoder
// capability; raster files are parsed directly. A file without EXIF is not
// an error: the image is still importable, it just stays bare.
func ExtractMetadata(path string, img *catalog.Image) error {
	m, err := extractExif(path)
	if err != nil || m == nil {
		util.DebugLog("no EXIF in %s: %v", path, err)
		return nil
	}

	img.CameraMake = m.Make
	img.CameraModel = m.Model
	img.CameraSerial = m.SerialNumber
	img.LensModel = m.Lens
	img.FocalLength = m.FocalLength
	img.Aperture = m.Aperture
	img.ShutterSpeed = m.ShutterSpeed
	img.ISO = m.ISO
	img.Orientation = m.Orientation
	img.CapturedAt = m.CapturedAt
	img.GPSLatitude = m.GPSLatitude
	img.GPSLongitude = m.GPSLongitude
	img.GPSAltitude = m.GPSAltitude
	img.MetadataJSON = m.RawJSON

	return nil
}

func extractExif(path string) (*rawdec.Metadata, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if rawdec.IsSupportedExtension(ext) {
		dec, err := rawdec.New(path)
		if err != nil {
			return nil, err
		}
		return dec.ExtractMetadata(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return rawdec.ParseExif(f)
}
