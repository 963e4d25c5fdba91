package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// Edit is the current develop settings of one image. Each slider is nil
// until touched; JSON columns carry the structured adjustments opaquely.
type Edit struct {
	ID                  int64
	ImageID             int64
	Exposure            *float64
	Contrast            *float64
	Highlights          *float64
	Shadows             *float64
	Whites              *float64
	Blacks              *float64
	Vibrance            *float64
	Saturation          *float64
	Temperature         *float64
	Tint                *float64
	Texture             *float64
	Clarity             *float64
	Dehaze              *float64
	ParametricCurveJSON *string
	ColorGradingJSON    *string
	CropJSON            *string
	MaskingJSON         *string
	UpdatedAt           *time.Time
}

// HistoryEntry is one append-only snapshot of an image's edit state.
type HistoryEntry struct {
	ID        int64
	ImageID   int64
	EditsJSON string
	CreatedAt time.Time
}

const editColumns = `
	id, image_id, exposure, contrast, highlights, shadows, whites, blacks,
	vibrance, saturation, temperature, tint, texture, clarity, dehaze,
	parametric_curve_json, color_grading_json, crop_json, masking_json, updated_at`

// UpsertEdit writes the current develop settings for an image, replacing
// any previous row. One image has at most one current edit.
func UpsertEdit(h Handle, e *Edit) error {
	res, err := h.Exec(`
		INSERT INTO edits (
			image_id, exposure, contrast, highlights, shadows, whites, blacks,
			vibrance, saturation, temperature, tint, texture, clarity, dehaze,
			parametric_curve_json, color_grading_json, crop_json, masking_json, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(image_id) DO UPDATE SET
			exposure = excluded.exposure,
			contrast = excluded.contrast,
			highlights = excluded.highlights,
			shadows = excluded.shadows,
			whites = excluded.whites,
			blacks = excluded.blacks,
			vibrance = excluded.vibrance,
			saturation = excluded.saturation,
			temperature = excluded.temperature,
			tint = excluded.tint,
			texture = excluded.texture,
			clarity = excluded.clarity,
			dehaze = excluded.dehaze,
			parametric_curve_json = excluded.parametric_curve_json,
			color_grading_json = excluded.color_grading_json,
			crop_json = excluded.crop_json,
			masking_json = excluded.masking_json,
			updated_at = excluded.updated_at`,
		e.ImageID, nullFloat(e.Exposure), nullFloat(e.Contrast), nullFloat(e.Highlights),
		nullFloat(e.Shadows), nullFloat(e.Whites), nullFloat(e.Blacks), nullFloat(e.Vibrance),
		nullFloat(e.Saturation), nullFloat(e.Temperature), nullFloat(e.Tint),
		nullFloat(e.Texture), nullFloat(e.Clarity), nullFloat(e.Dehaze),
		nullStr(e.ParametricCurveJSON), nullStr(e.ColorGradingJSON), nullStr(e.CropJSON),
		nullStr(e.MaskingJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert edit for image %d: %w", e.ImageID, err)
	}

	if e.ID == 0 {
		id, err := lastInsertID(res)
		if err == nil && id != 0 {
			e.ID = id
		} else if err := h.QueryRow(
			"SELECT id FROM edits WHERE image_id = ?", e.ImageID,
		).Scan(&e.ID); err != nil {
			return fmt.Errorf("failed to get edit ID for image %d: %w", e.ImageID, err)
		}
	}
	return nil
}

// GetEdit retrieves the current develop settings for an image. Returns nil
// when the image has never been edited.
func GetEdit(h Handle, imageID int64) (*Edit, error) {
	e, err := scanEdit(h.QueryRow(
		"SELECT"+editColumns+" FROM edits WHERE image_id = ?", imageID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// DeleteEdit resets an image to its unedited state.
func DeleteEdit(h Handle, imageID int64) error {
	if _, err := h.Exec("DELETE FROM edits WHERE image_id = ?", imageID); err != nil {
		return fmt.Errorf("failed to delete edit for image %d: %w", imageID, err)
	}
	return nil
}

// AppendEditHistory records an edit snapshot. History rows are never
// updated or reordered.
func AppendEditHistory(h Handle, imageID int64, editsJSON string) (int64, error) {
	res, err := h.Exec(
		"INSERT INTO edit_history (image_id, edits_json) VALUES (?, ?)",
		imageID, editsJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append edit history for image %d: %w", imageID, err)
	}
	return lastInsertID(res)
}

// GetEditHistory returns an image's edit snapshots, oldest first.
func GetEditHistory(h Handle, imageID int64) ([]*HistoryEntry, error) {
	rows, err := h.Query(
		"SELECT id, image_id, edits_json, created_at FROM edit_history WHERE image_id = ? ORDER BY id",
		imageID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query edit history for image %d: %w", imageID, err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		var (
			entry      HistoryEntry
			createdRaw string
		)
		if err := rows.Scan(&entry.ID, &entry.ImageID, &entry.EditsJSON, &createdRaw); err != nil {
			return nil, fmt.Errorf("failed to scan edit history entry: %w", err)
		}
		if entry.CreatedAt, err = ParseTime(createdRaw, "edit_history.created_at"); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func scanEdit(sc rowScanner) (*Edit, error) {
	var (
		e          Edit
		exposure   sql.NullFloat64
		contrast   sql.NullFloat64
		highlights sql.NullFloat64
		shadows    sql.NullFloat64
		whites     sql.NullFloat64
		blacks     sql.NullFloat64
		vibrance   sql.NullFloat64
		saturation sql.NullFloat64
		temp       sql.NullFloat64
		tint       sql.NullFloat64
		texture    sql.NullFloat64
		clarity    sql.NullFloat64
		dehaze     sql.NullFloat64
		curve      sql.NullString
		grading    sql.NullString
		crop       sql.NullString
		masking    sql.NullString
		updatedRaw sql.NullString
	)

	err := sc.Scan(
		&e.ID, &e.ImageID, &exposure, &contrast, &highlights, &shadows, &whites,
		&blacks, &vibrance, &saturation, &temp, &tint, &texture, &clarity, &dehaze,
		&curve, &grading, &crop, &masking, &updatedRaw,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan edit: %w", err)
	}

	e.Exposure = floatPtr(exposure)
	e.Contrast = floatPtr(contrast)
	e.Highlights = floatPtr(highlights)
	e.Shadows = floatPtr(shadows)
	e.Whites = floatPtr(whites)
	e.Blacks = floatPtr(blacks)
	e.Vibrance = floatPtr(vibrance)
	e.Saturation = floatPtr(saturation)
	e.Temperature = floatPtr(temp)
	e.Tint = floatPtr(tint)
	e.Texture = floatPtr(texture)
	e.Clarity = floatPtr(clarity)
	e.Dehaze = floatPtr(dehaze)
	e.ParametricCurveJSON = strPtr(curve)
	e.ColorGradingJSON = strPtr(grading)
	e.CropJSON = strPtr(crop)
	e.MaskingJSON = strPtr(masking)

	if e.UpdatedAt, err = ParseTimeOpt(updatedRaw, "edits.updated_at"); err != nil {
		return nil, err
	}
	return &e, nil
}
