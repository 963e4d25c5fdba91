package catalog

import (
	"database/sql"
	"fmt"
)

// UpsertThumbnails stores the 256 and 1024 pixel JPEG thumbnails for an
// image, replacing any previous pair.
func UpsertThumbnails(h Handle, imageID int64, thumb256, thumb1024 []byte) error {
	_, err := h.Exec(`
		INSERT INTO thumbnails (image_id, thumb_256, thumb_1024, updated_at)
		VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(image_id) DO UPDATE SET
			thumb_256 = excluded.thumb_256,
			thumb_1024 = excluded.thumb_1024,
			updated_at = excluded.updated_at`,
		imageID, thumb256, thumb1024,
	)
	if err != nil {
		return fmt.Errorf("failed to store thumbnails for image %d: %w", imageID, err)
	}
	return nil
}

// GetThumbnail returns the requested thumbnail size (256 or 1024) for an
// image, or nil when not yet generated.
func GetThumbnail(h Handle, imageID int64, size int) ([]byte, error) {
	var column string
	switch size {
	case 256:
		column = "thumb_256"
	case 1024:
		column = "thumb_1024"
	default:
		return nil, fmt.Errorf("unsupported thumbnail size %d", size)
	}

	var blob []byte
	err := h.QueryRow(
		fmt.Sprintf("SELECT %s FROM thumbnails WHERE image_id = ?", column), imageID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read thumbnail for image %d: %w", imageID, err)
	}
	return blob, nil
}

// UpsertPreview stores the large screen preview JPEG for an image.
func UpsertPreview(h Handle, imageID int64, preview []byte) error {
	_, err := h.Exec(`
		INSERT INTO previews (image_id, preview_blob, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(image_id) DO UPDATE SET
			preview_blob = excluded.preview_blob,
			updated_at = excluded.updated_at`,
		imageID, preview,
	)
	if err != nil {
		return fmt.Errorf("failed to store preview for image %d: %w", imageID, err)
	}
	return nil
}

// GetPreview returns the screen preview for an image, or nil when not yet
// generated.
func GetPreview(h Handle, imageID int64) ([]byte, error) {
	var blob []byte
	err := h.QueryRow(
		"SELECT preview_blob FROM previews WHERE image_id = ?", imageID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preview for image %d: %w", imageID, err)
	}
	return blob, nil
}

// DeleteDerivatives drops all cached renders for an image.
func DeleteDerivatives(h Handle, imageID int64) error {
	if _, err := h.Exec("DELETE FROM thumbnails WHERE image_id = ?", imageID); err != nil {
		return fmt.Errorf("failed to delete thumbnails for image %d: %w", imageID, err)
	}
	if _, err := h.Exec("DELETE FROM previews WHERE image_id = ?", imageID); err != nil {
		return fmt.Errorf("failed to delete preview for image %d: %w", imageID, err)
	}
	return nil
}
