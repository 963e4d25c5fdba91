// Package service implements catalog operations above the storage layer:
// content hashing, metadata extraction, derivative rendering, and the
// compound mutations that must land atomically.
package service

import (
	"bytes"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/zenithphoto/photocat/internal/catalog"
	"github.com/zenithphoto/photocat/internal/rawdec"
	"github.com/zenithphoto/photocat/internal/util"
)

// Service bundles the operations the CLI and the import pipeline share.
type Service struct {
	db *catalog.DB
}

// New wraps an open catalog.
func New(db *catalog.DB) *Service {
	return &Service{db: db}
}

// DB exposes the underlying catalog for read-only queries.
func (s *Service) DB() *catalog.DB {
	return s.db
}

// FindByHash returns the image whose content hash matches, or nil.
func (s *Service) FindByHash(hash string) (*catalog.Image, error) {
	return catalog.GetImageByHash(s.db.Handle(), hash)
}

// FindByOriginalPath returns the image catalogued under path, or nil.
func (s *Service) FindByOriginalPath(path string) (*catalog.Image, error) {
	return catalog.GetImageByOriginalPath(s.db.Handle(), path)
}

// ImportImage catalogs a new image with its keywords in one transaction.
// A hash match against an existing image fails with ErrDuplicate before
// anything is written.
func (s *Service) ImportImage(img *catalog.Image, keywords []string) error {
	if img.FileHash != nil {
		existing, err := catalog.GetImageByHash(s.db.Handle(), *img.FileHash)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("content already catalogued as %s: %w",
				existing.OriginalPath, util.ErrDuplicate)
		}
	}
	return s.CatalogImage(img, keywords)
}

// CatalogImage inserts the image row, its folder and its keywords in one
// transaction, without any duplicate checking. Import policy decides
// whether a known-duplicate still gets catalogued.
func (s *Service) CatalogImage(img *catalog.Image, keywords []string) error {
	return s.db.Transaction(func(tx *sql.Tx) error {
		folderID, err := catalog.EnsureFolder(tx, filepath.Dir(img.OriginalPath))
		if err != nil {
			return err
		}
		img.FolderID = folderID

		if err := catalog.InsertImage(tx, img); err != nil {
			return err
		}
		if len(keywords) > 0 {
			return catalog.ReplaceImageKeywords(tx, img.ID, keywords)
		}
		return nil
	})
}

// AttachSidecar records a companion raster file on an existing image row,
// hashed so later syncs can tell whether the sidecar changed on disk.
func (s *Service) AttachSidecar(imageID int64, path string) error {
	hash, err := ComputeFileHash(path)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *sql.Tx) error {
		return catalog.UpdateImageSidecarPath(tx, imageID, &path, &hash)
	})
}

// UpdateKeywords replaces an image's keyword set atomically.
func (s *Service) UpdateKeywords(imageID int64, keywords []string) error {
	return s.db.Transaction(func(tx *sql.Tx) error {
		return catalog.ReplaceImageKeywords(tx, imageID, keywords)
	})
}

// AddKeyword attaches one keyword to an image.
func (s *Service) AddKeyword(imageID int64, keyword string) error {
	return s.db.Transaction(func(tx *sql.Tx) error {
		id, err := catalog.EnsureKeyword(tx, keyword)
		if err != nil {
			return err
		}
		return catalog.AssignKeyword(tx, imageID, id)
	})
}

// RemoveKeyword detaches one keyword from an image.
func (s *Service) RemoveKeyword(imageID int64, keyword string) error {
	return s.db.Transaction(func(tx *sql.Tx) error {
		id, err := catalog.EnsureKeyword(tx, keyword)
		if err != nil {
			return err
		}
		return catalog.UnassignKeyword(tx, imageID, id)
	})
}

// ApplyEdits replaces an image's develop settings and appends the new state
// to its history, atomically.
func (s *Service) ApplyEdits(edit *catalog.Edit) error {
	snapshot, err := editSnapshot(edit)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *sql.Tx) error {
		if err := catalog.UpsertEdit(tx, edit); err != nil {
			return err
		}
		_, err := catalog.AppendEditHistory(tx, edit.ImageID, snapshot)
		return err
	})
}

// editSnapshot serializes the set sliders and adjustment blobs of an edit
// for the append-only history.
func editSnapshot(e *catalog.Edit) (string, error) {
	m := map[string]any{}
	sliders := map[string]*float64{
		"exposure":    e.Exposure,
		"contrast":    e.Contrast,
		"highlights":  e.Highlights,
		"shadows":     e.Shadows,
		"whites":      e.Whites,
		"blacks":      e.Blacks,
		"vibrance":    e.Vibrance,
		"saturation":  e.Saturation,
		"temperature": e.Temperature,
		"tint":        e.Tint,
		"texture":     e.Texture,
		"clarity":     e.Clarity,
		"dehaze":      e.Dehaze,
	}
	for name, v := range sliders {
		if v != nil {
			m[name] = *v
		}
	}
	blobs := map[string]*string{
		"parametric_curve": e.ParametricCurveJSON,
		"color_grading":    e.ColorGradingJSON,
		"crop":             e.CropJSON,
		"masking":          e.MaskingJSON,
	}
	for name, v := range blobs {
		if v != nil {
			m[name] = *v
		}
	}
	return catalog.ToJSON(m)
}

// GenerateDerivatives renders and stores both thumbnails and the screen
// preview for an image, reading pixels from renderPath. For a RAW asset
// with a paired camera JPEG the pair is the better render source.
func (s *Service) GenerateDerivatives(imageID int64, renderPath string) error {
	src, err := DecodeImage(renderPath)
	if err != nil {
		return err
	}

	thumb256, thumb1024, err := RenderThumbnails(src)
	if err != nil {
		return err
	}
	preview, err := RenderPreview(src)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *sql.Tx) error {
		if err := catalog.UpsertThumbnails(tx, imageID, thumb256, thumb1024); err != nil {
			return err
		}
		return catalog.UpsertPreview(tx, imageID, preview)
	})
}

// GenerateFallbackThumbnail renders only the small thumbnail from a RAW
// file's embedded JPEG, for files whose full derivative pass failed.
func (s *Service) GenerateFallbackThumbnail(imageID int64, rawPath string) error {
	dec, err := rawdec.New(rawPath)
	if err != nil {
		return err
	}
	data, err := dec.DecodeThumbnail(rawPath)
	if err != nil {
		return err
	}
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode embedded JPEG of %s: %w", rawPath, err)
	}

	thumb256, err := encodeJPEG(Letterbox(src, thumbSizeSmall))
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *sql.Tx) error {
		return catalog.UpsertThumbnails(tx, imageID, thumb256, nil)
	})
}

// RemoveImage drops an image from the catalog. Derivatives, keywords,
// edits and collection memberships cascade with the row. The file on disk
// is left alone.
func (s *Service) RemoveImage(imageID int64) error {
	return s.db.Transaction(func(tx *sql.Tx) error {
		return catalog.DeleteImage(tx, imageID)
	})
}

// RebuildSearchIndex rebuilds the full-text tables from current rows.
func (s *Service) RebuildSearchIndex() error {
	return s.db.RebuildFTS()
}

// ImageDetails bundles an image row with its keyword set and develop
// settings, for detail views.
type ImageDetails struct {
	Image    *catalog.Image
	Keywords []string
	Edit     *catalog.Edit
}

// LoadImageDetails reads an image with its keywords and current edit.
func (s *Service) LoadImageDetails(imageID int64) (*ImageDetails, error) {
	h := s.db.Handle()

	img, err := catalog.GetImage(h, imageID)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("image %d: %w", imageID, util.ErrNotFound)
	}

	keywords, err := catalog.GetImageKeywords(h, imageID)
	if err != nil {
		return nil, err
	}
	edit, err := catalog.GetEdit(h, imageID)
	if err != nil {
		return nil, err
	}

	return &ImageDetails{Image: img, Keywords: keywords, Edit: edit}, nil
}

// Counts summarizes the catalog for status output.
type Counts struct {
	Images      int
	Folders     int
	Keywords    int
	Collections int
	TotalBytes  int64
}

// CatalogCounts gathers row counts across the main tables.
func (s *Service) CatalogCounts() (*Counts, error) {
	h := s.db.Handle()
	var (
		c   Counts
		err error
	)
	if c.Images, err = catalog.CountImages(h); err != nil {
		return nil, err
	}
	if c.Folders, err = catalog.CountFolders(h); err != nil {
		return nil, err
	}
	keywords, err := catalog.ListKeywords(h)
	if err != nil {
		return nil, err
	}
	c.Keywords = len(keywords)
	collections, err := catalog.ListCollections(h)
	if err != nil {
		return nil, err
	}
	c.Collections = len(collections)

	if err := s.db.Handle().QueryRow(
		"SELECT COALESCE(SUM(filesize), 0) FROM images",
	).Scan(&c.TotalBytes); err != nil {
		return nil, fmt.Errorf("failed to sum image sizes: %w", err)
	}
	return &c, nil
}
