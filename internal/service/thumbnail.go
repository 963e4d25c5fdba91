package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/zenithphoto/photocat/internal/rawdec"
)

const (
	thumbSizeSmall  = 256
	thumbSizeLarge  = 1024
	previewLongEdge = 2048
	jpegQuality     = 85
)

// letterboxColor fills the square canvas around non-square images.
var letterboxColor = color.NRGBA{R: 16, G: 16, B: 16, A: 255}

// DecodeImage opens any supported image for rendering. Raster formats
// decode directly; RAW formats decode through their embedded JPEG.
func DecodeImage(path string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if rawdec.IsSupportedExtension(ext) {
		dec, err := rawdec.New(path)
		if err != nil {
			return nil, err
		}
		data, err := dec.DecodePreview(path)
		if err != nil {
			return nil, err
		}
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedded JPEG of %s: %w", path, err)
		}
		return img, nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// Letterbox scales src to fit inside a size by size square and centers it
// on a dark canvas, so every thumbnail has identical dimensions.
func Letterbox(src image.Image, size int) image.Image {
	fitted := imaging.Fit(src, size, size, imaging.Lanczos)
	canvas := imaging.New(size, size, letterboxColor)
	return imaging.PasteCenter(canvas, fitted)
}

// RenderThumbnails produces the 256 and 1024 pixel letterboxed JPEGs for a
// decoded image.
func RenderThumbnails(src image.Image) (thumb256, thumb1024 []byte, err error) {
	thumb256, err = encodeJPEG(Letterbox(src, thumbSizeSmall))
	if err != nil {
		return nil, nil, err
	}
	thumb1024, err = encodeJPEG(Letterbox(src, thumbSizeLarge))
	if err != nil {
		return nil, nil, err
	}
	return thumb256, thumb1024, nil
}

// RenderPreview produces the screen preview: aspect preserved, long edge
// capped at 2048, no letterboxing.
func RenderPreview(src image.Image) ([]byte, error) {
	bounds := src.Bounds()
	if bounds.Dx() > previewLongEdge || bounds.Dy() > previewLongEdge {
		src = imaging.Fit(src, previewLongEdge, previewLongEdge, imaging.Lanczos)
	}
	return encodeJPEG(src)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
