package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/zenithphoto/photocat/internal/util"
)

// Image is one catalogued photo. Pointer fields map to nullable columns.
type Image struct {
	ID             int64
	FolderID       int64
	Filename       string
	OriginalPath   string
	SidecarPath    *string
	SidecarHash    *string
	Filesize       *int64
	FileHash       *string
	FileModifiedAt *time.Time
	ImportedAt     time.Time
	CapturedAt     *time.Time
	CameraMake     *string
	CameraModel    *string
	CameraSerial   *string
	LensModel      *string
	FocalLength    *float64
	Aperture       *float64
	ShutterSpeed   *float64
	ISO            *int64
	Orientation    *int64
	GPSLatitude    *float64
	GPSLongitude   *float64
	GPSAltitude    *float64
	Rating         *int64
	Flag           *string
	ColorLabel     *string
	MetadataJSON   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const imageColumns = `
	id, folder_id, filename, original_path, sidecar_path, sidecar_hash, filesize,
	file_hash, file_modified_at, imported_at, captured_at, camera_make, camera_model,
	camera_serial, lens_model, focal_length, aperture, shutter_speed, iso, orientation,
	gps_latitude, gps_longitude, gps_altitude, rating, flag, color_label, metadata_json,
	created_at, updated_at`

// InsertImage inserts an image row and fills in the generated ID.
// ImportedAt defaults to the current time when unset so that batch imports
// can stamp every row with the moment the batch started. CreatedAt and
// UpdatedAt come from the database defaults.
func InsertImage(h Handle, img *Image) error {
	if img.ImportedAt.IsZero() {
		img.ImportedAt = time.Now().UTC()
	}
	res, err := h.Exec(`
		INSERT INTO images (
			folder_id, filename, original_path, sidecar_path, sidecar_hash, filesize,
			file_hash, file_modified_at, imported_at, captured_at, camera_make,
			camera_model, camera_serial, lens_model, focal_length, aperture,
			shutter_speed, iso, orientation, gps_latitude, gps_longitude, gps_altitude,
			rating, flag, color_label, metadata_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		img.FolderID, img.Filename, img.OriginalPath, nullStr(img.SidecarPath),
		nullStr(img.SidecarHash), nullInt(img.Filesize), nullStr(img.FileHash),
		FormatTimeOpt(img.FileModifiedAt), FormatTime(img.ImportedAt),
		FormatTimeOpt(img.CapturedAt),
		nullStr(img.CameraMake), nullStr(img.CameraModel), nullStr(img.CameraSerial),
		nullStr(img.LensModel), nullFloat(img.FocalLength), nullFloat(img.Aperture),
		nullFloat(img.ShutterSpeed), nullInt(img.ISO), nullInt(img.Orientation),
		nullFloat(img.GPSLatitude), nullFloat(img.GPSLongitude), nullFloat(img.GPSAltitude),
		nullInt(img.Rating), nullStr(img.Flag), nullStr(img.ColorLabel),
		nullStr(img.MetadataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert image %s: %w", img.OriginalPath, err)
	}
	img.ID, err = lastInsertID(res)
	return err
}

// GetImage retrieves an image by ID. Returns nil when absent.
func GetImage(h Handle, id int64) (*Image, error) {
	return getImageWhere(h, "id = ?", id)
}

// GetImageByHash retrieves an image by its content hash. Returns nil when
// absent. Hash collisions resolve to the oldest row.
func GetImageByHash(h Handle, hash string) (*Image, error) {
	return getImageWhere(h, "file_hash = ? ORDER BY id LIMIT 1", hash)
}

// GetImageByOriginalPath retrieves an image by the path it was catalogued
// under. Returns nil when absent.
func GetImageByOriginalPath(h Handle, path string) (*Image, error) {
	return getImageWhere(h, "original_path = ?", path)
}

func getImageWhere(h Handle, where string, args ...any) (*Image, error) {
	img, err := scanImage(h.QueryRow(
		"SELECT"+imageColumns+" FROM images WHERE "+where, args...,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return img, err
}

// ListImagesByFolder returns all images in a folder, filename order.
func ListImagesByFolder(h Handle, folderID int64) ([]*Image, error) {
	return queryImages(h,
		"SELECT"+imageColumns+" FROM images WHERE folder_id = ? ORDER BY filename", folderID)
}

// ListRecentImages returns the most recently imported images, newest first.
func ListRecentImages(h Handle, limit int) ([]*Image, error) {
	return queryImages(h,
		"SELECT"+imageColumns+" FROM images ORDER BY imported_at DESC, id DESC LIMIT ?", limit)
}

// ListImagesByRating returns all images rated at least min stars.
func ListImagesByRating(h Handle, min int) ([]*Image, error) {
	return queryImages(h,
		"SELECT"+imageColumns+" FROM images WHERE rating >= ? ORDER BY rating DESC, id", min)
}

// ListAllImages returns every catalogued image in id order.
func ListAllImages(h Handle) ([]*Image, error) {
	return queryImages(h, "SELECT"+imageColumns+" FROM images ORDER BY id")
}

// ListImagesRecursively returns images in folderPath and every folder
// beneath it, path order.
func ListImagesRecursively(h Handle, folderPath string) ([]*Image, error) {
	return queryImages(h, `
		SELECT`+imageColumns+` FROM images
		WHERE folder_id IN (
			SELECT id FROM folders WHERE path = ? OR path LIKE ? || '/%'
		)
		ORDER BY original_path`, folderPath, folderPath)
}

// ListImagesByKeyword returns all images carrying a keyword.
func ListImagesByKeyword(h Handle, keyword string) ([]*Image, error) {
	return queryImages(h, `
		SELECT`+imageColumns+` FROM images
		WHERE id IN (
			SELECT ik.image_id FROM image_keywords ik
			JOIN keywords k ON k.id = ik.keyword_id
			WHERE k.keyword = ?
		)
		ORDER BY id`, keyword)
}

func queryImages(h Handle, query string, args ...any) ([]*Image, error) {
	rows, err := h.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// UpdateImageRating sets the star rating (0 to 5).
func UpdateImageRating(h Handle, imageID int64, rating int) error {
	if rating < 0 || rating > 5 {
		return fmt.Errorf("rating %d out of range 0-5: %w", rating, util.ErrInvalidConfig)
	}
	return updateImageColumn(h, imageID, "rating", rating)
}

// UpdateImageFlag sets the pick flag. Values are lowercased; empty and
// "none" clear the flag.
func UpdateImageFlag(h Handle, imageID int64, flag string) error {
	return updateImageColumn(h, imageID, "flag", normalizeEnum(flag))
}

// UpdateImageColorLabel sets the color label. Values are lowercased; empty
// and "none" clear the label.
func UpdateImageColorLabel(h Handle, imageID int64, label string) error {
	return updateImageColumn(h, imageID, "color_label", normalizeEnum(label))
}

// UpdateImageSidecarPath records where the XMP sidecar lives, with its hash.
func UpdateImageSidecarPath(h Handle, imageID int64, path, hash *string) error {
	res, err := h.Exec(
		"UPDATE images SET sidecar_path = ?, sidecar_hash = ? WHERE id = ?",
		nullStr(path), nullStr(hash), imageID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sidecar for image %d: %w", imageID, err)
	}
	return requireRow(res, imageID)
}

// UpdateImageMetadataJSON replaces the opaque metadata bag.
func UpdateImageMetadataJSON(h Handle, imageID int64, metadataJSON *string) error {
	res, err := h.Exec(
		"UPDATE images SET metadata_json = ? WHERE id = ?",
		nullStr(metadataJSON), imageID,
	)
	if err != nil {
		return fmt.Errorf("failed to update metadata for image %d: %w", imageID, err)
	}
	return requireRow(res, imageID)
}

func updateImageColumn(h Handle, imageID int64, column string, value any) error {
	res, err := h.Exec(
		fmt.Sprintf("UPDATE images SET %s = ? WHERE id = ?", column), value, imageID,
	)
	if err != nil {
		return fmt.Errorf("failed to update image %d %s: %w", imageID, column, err)
	}
	return requireRow(res, imageID)
}

func requireRow(res sql.Result, imageID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("image %d: %w", imageID, util.ErrNotFound)
	}
	return nil
}

// DeleteImage removes an image row. Keywords, edits, derivatives and
// collection memberships cascade with it.
func DeleteImage(h Handle, imageID int64) error {
	res, err := h.Exec("DELETE FROM images WHERE id = ?", imageID)
	if err != nil {
		return fmt.Errorf("failed to delete image %d: %w", imageID, err)
	}
	return requireRow(res, imageID)
}

// CountImages returns the number of catalogued images.
func CountImages(h Handle) (int, error) {
	var count int
	if err := h.QueryRow("SELECT COUNT(*) FROM images").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return count, nil
}

// CameraCount pairs a camera model with how many images it shot.
type CameraCount struct {
	Make  *string
	Model *string
	Count int
}

// CountByCamera breaks image counts down by camera make and model, most
// used first. Images without EXIF group under the NULL camera.
func CountByCamera(h Handle) ([]CameraCount, error) {
	rows, err := h.Query(`
		SELECT camera_make, camera_model, COUNT(*) AS n FROM images
		GROUP BY camera_make, camera_model
		ORDER BY n DESC, camera_make, camera_model
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count images by camera: %w", err)
	}
	defer rows.Close()

	var counts []CameraCount
	for rows.Next() {
		var (
			c     CameraCount
			mk    sql.NullString
			model sql.NullString
		)
		if err := rows.Scan(&mk, &model, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan camera count: %w", err)
		}
		c.Make = strPtr(mk)
		c.Model = strPtr(model)
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// LastImportTimestamp returns when the newest image was imported, or nil
// for an empty catalog.
func LastImportTimestamp(h Handle) (*time.Time, error) {
	var raw sql.NullString
	err := h.QueryRow("SELECT MAX(imported_at) FROM images").Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read last import timestamp: %w", err)
	}
	return ParseTimeOpt(raw, "images.imported_at")
}

// normalizeEnum folds a user-supplied flag or label value to its stored
// form: lowercase, with "" and "none" mapping to NULL.
func normalizeEnum(v string) any {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || v == "none" {
		return nil
	}
	return v
}

func scanImage(sc rowScanner) (*Image, error) {
	var (
		img         Image
		sidecarPath sql.NullString
		sidecarHash sql.NullString
		filesize    sql.NullInt64
		fileHash    sql.NullString
		modifiedRaw sql.NullString
		importedRaw string
		capturedRaw sql.NullString
		cameraMake  sql.NullString
		cameraModel sql.NullString
		serial      sql.NullString
		lensModel   sql.NullString
		focalLength sql.NullFloat64
		aperture    sql.NullFloat64
		shutter     sql.NullFloat64
		iso         sql.NullInt64
		orientation sql.NullInt64
		gpsLat      sql.NullFloat64
		gpsLon      sql.NullFloat64
		gpsAlt      sql.NullFloat64
		rating      sql.NullInt64
		flag        sql.NullString
		colorLabel  sql.NullString
		metadata    sql.NullString
		createdRaw  string
		updatedRaw  string
	)

	err := sc.Scan(
		&img.ID, &img.FolderID, &img.Filename, &img.OriginalPath, &sidecarPath,
		&sidecarHash, &filesize, &fileHash, &modifiedRaw, &importedRaw, &capturedRaw,
		&cameraMake, &cameraModel, &serial, &lensModel, &focalLength, &aperture,
		&shutter, &iso, &orientation, &gpsLat, &gpsLon, &gpsAlt, &rating, &flag,
		&colorLabel, &metadata, &createdRaw, &updatedRaw,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan image: %w", err)
	}

	img.SidecarPath = strPtr(sidecarPath)
	img.SidecarHash = strPtr(sidecarHash)
	img.Filesize = intPtr(filesize)
	img.FileHash = strPtr(fileHash)
	img.CameraMake = strPtr(cameraMake)
	img.CameraModel = strPtr(cameraModel)
	img.CameraSerial = strPtr(serial)
	img.LensModel = strPtr(lensModel)
	img.FocalLength = floatPtr(focalLength)
	img.Aperture = floatPtr(aperture)
	img.ShutterSpeed = floatPtr(shutter)
	img.ISO = intPtr(iso)
	img.Orientation = intPtr(orientation)
	img.GPSLatitude = floatPtr(gpsLat)
	img.GPSLongitude = floatPtr(gpsLon)
	img.GPSAltitude = floatPtr(gpsAlt)
	img.Rating = intPtr(rating)
	img.Flag = strPtr(flag)
	img.ColorLabel = strPtr(colorLabel)
	img.MetadataJSON = strPtr(metadata)

	if img.FileModifiedAt, err = ParseTimeOpt(modifiedRaw, "images.file_modified_at"); err != nil {
		return nil, err
	}
	if img.ImportedAt, err = ParseTime(importedRaw, "images.imported_at"); err != nil {
		return nil, err
	}
	if img.CapturedAt, err = ParseTimeOpt(capturedRaw, "images.captured_at"); err != nil {
		return nil, err
	}
	if img.CreatedAt, err = ParseTime(createdRaw, "images.created_at"); err != nil {
		return nil, err
	}
	if img.UpdatedAt, err = ParseTime(updatedRaw, "images.updated_at"); err != nil {
		return nil, err
	}

	return &img, nil
}
