package rawdec

import (
	"bytes"
	"fmt"
	"os"

	"github.com/zenithphoto/photocat/internal/util"
)

// embeddedDecoder works on any RAW container by scanning for embedded JPEG
// streams rather than parsing the maker's TIFF structure. RAW files top out
// around 100MB, so reading the whole file is acceptable.
type embeddedDecoder struct{}

var (
	jpegSOI = []byte{0xFF, 0xD8, 0xFF}
	jpegEOI = []byte{0xFF, 0xD9}
	exifTag = []byte("Exif\x00\x00")
)

// DecodeThumbnail returns the largest camera-rendered JPEG in the file.
// Cameras embed several renditions; the largest downsizes cleanest.
func (d *embeddedDecoder) DecodeThumbnail(path string) ([]byte, error) {
	return d.embeddedJPEG(path)
}

// DecodePreview returns the same embedded rendition as DecodeThumbnail;
// the caller resizes to its target dimensions.
func (d *embeddedDecoder) DecodePreview(path string) ([]byte, error) {
	return d.embeddedJPEG(path)
}

// ExtractMetadata carves the APP1 Exif segment out of the embedded JPEG
// and parses it. An embedded JPEG without EXIF yields (nil, nil).
func (d *embeddedDecoder) ExtractMetadata(path string) (*Metadata, error) {
	jpeg, err := d.embeddedJPEG(path)
	if err != nil {
		return nil, err
	}
	segment := exifSegment(jpeg)
	if segment == nil {
		return nil, nil
	}
	return ParseExif(bytes.NewReader(segment))
}

func (d *embeddedDecoder) embeddedJPEG(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read RAW file %s: %w", path, err)
	}

	jpeg := largestJPEG(data)
	if jpeg == nil {
		return nil, fmt.Errorf("no embedded JPEG in %s: %w", path, util.ErrUnsupported)
	}
	return jpeg, nil
}

// largestJPEG returns the longest SOI..EOI run in data, or nil. Cameras
// embed several renditions (thumbnail, preview, full-size); the largest is
// always the most useful.
func largestJPEG(data []byte) []byte {
	var best []byte

	offset := 0
	for {
		start := bytes.Index(data[offset:], jpegSOI)
		if start < 0 {
			break
		}
		start += offset

		end := bytes.Index(data[start:], jpegEOI)
		if end < 0 {
			break
		}
		end += start + len(jpegEOI)

		if end-start > len(best) {
			best = data[start:end]
		}
		offset = start + len(jpegSOI)
	}

	return best
}

// exifSegment carves the payload of the first APP1 Exif segment out of a
// JPEG stream, without the "Exif\0\0" prefix. Returns nil when absent.
func exifSegment(jpeg []byte) []byte {
	// Skip SOI, then walk marker segments
	pos := 2
	for pos+4 <= len(jpeg) {
		if jpeg[pos] != 0xFF {
			return nil
		}
		marker := jpeg[pos+1]

		// Standalone markers carry no length
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD9) {
			pos += 2
			continue
		}
		// Entropy-coded data starts at SOS; no Exif past this point
		if marker == 0xDA {
			return nil
		}

		length := int(jpeg[pos+2])<<8 | int(jpeg[pos+3])
		if length < 2 || pos+2+length > len(jpeg) {
			return nil
		}

		if marker == 0xE1 {
			payload := jpeg[pos+4 : pos+2+length]
			if bytes.HasPrefix(payload, exifTag) {
				return payload[len(exifTag):]
			}
		}

		pos += 2 + length
	}
	return nil
}
