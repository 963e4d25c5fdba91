package rawdec

import (
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// ParseExif reads an EXIF block from r, which may be a whole JPEG stream or
// a bare TIFF payload, and maps the tags this catalog cares about. Raster
// imports feed it the opened file; the embedded backend feeds it the carved
// APP1 payload of a RAW container.
func ParseExif(r io.Reader) (*Metadata, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return nil, err
	}

	m := &Metadata{
		Make:         exifString(x, exif.Make),
		Model:        exifString(x, exif.Model),
		SerialNumber: exifString(x, exif.FieldName("BodySerialNumber")),
		Lens:         exifString(x, exif.LensModel),
		FocalLength:  exifRational(x, exif.FocalLength),
		Aperture:     exifRational(x, exif.FNumber),
		ShutterSpeed: exifRational(x, exif.ExposureTime),
		ISO:          exifInt(x, exif.ISOSpeedRatings),
		Width:        exifInt(x, exif.PixelXDimension),
		Height:       exifInt(x, exif.PixelYDimension),
		Orientation:  exifInt(x, exif.Orientation),
	}

	if t, err := x.DateTime(); err == nil {
		utc := t.UTC()
		m.CapturedAt = &utc
	}

	if lat, lon, err := x.LatLong(); err == nil {
		m.GPSLatitude = &lat
		m.GPSLongitude = &lon
	}
	m.GPSAltitude = exifAltitude(x)

	// Everything else rides along as an opaque JSON bag
	if data, err := x.MarshalJSON(); err == nil {
		bag := string(data)
		m.RawJSON = &bag
	}

	return m, nil
}

func exifString(x *exif.Exif, field exif.FieldName) *string {
	tag, err := x.Get(field)
	if err != nil {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func exifInt(x *exif.Exif, field exif.FieldName) *int64 {
	tag, err := x.Get(field)
	if err != nil {
		return nil
	}
	v, err := tag.Int64(0)
	if err != nil {
		return nil
	}
	return &v
}

func exifRational(x *exif.Exif, field exif.FieldName) *float64 {
	tag, err := x.Get(field)
	if err != nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return nil
	}
	v := float64(num) / float64(den)
	return &v
}

// exifAltitude reads GPSAltitude, negated when GPSAltitudeRef marks below
// sea level.
func exifAltitude(x *exif.Exif) *float64 {
	alt := exifRational(x, exif.GPSAltitude)
	if alt == nil {
		return nil
	}

	if ref, err := x.Get(exif.GPSAltitudeRef); err == nil {
		if v, err := ref.Int64(0); err == nil && v == 1 {
			neg := -*alt
			return &neg
		}
	}
	return alt
}
