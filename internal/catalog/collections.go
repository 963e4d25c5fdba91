package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/zenithphoto/photocat/internal/util"
)

// Collection is a named, ordered set of images. Collections nest through
// ParentID; deleting a parent orphans children rather than cascading.
type Collection struct {
	ID        int64
	Name      string
	ParentID  *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InsertCollection inserts a collection and fills in the generated ID.
func InsertCollection(h Handle, c *Collection) error {
	res, err := h.Exec(
		"INSERT INTO collections (name, parent_id) VALUES (?, ?)",
		c.Name, nullInt(c.ParentID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert collection %s: %w", c.Name, err)
	}
	c.ID, err = lastInsertID(res)
	return err
}

// GetCollection retrieves a collection by ID. Returns nil when absent.
func GetCollection(h Handle, id int64) (*Collection, error) {
	c, err := scanCollection(h.QueryRow(
		"SELECT id, name, parent_id, created_at, updated_at FROM collections WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// ListCollections returns all collections ordered by name.
func ListCollections(h Handle) ([]*Collection, error) {
	rows, err := h.Query(
		"SELECT id, name, parent_id, created_at, updated_at FROM collections ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()

	var collections []*Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// RenameCollection changes a collection's name.
func RenameCollection(h Handle, id int64, name string) error {
	res, err := h.Exec(
		"UPDATE collections SET name = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now') WHERE id = ?",
		name, id,
	)
	if err != nil {
		return fmt.Errorf("failed to rename collection %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rename result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("collection %d: %w", id, util.ErrNotFound)
	}
	return nil
}

// DeleteCollection removes a collection. Memberships cascade; child
// collections survive with a NULL parent.
func DeleteCollection(h Handle, id int64) error {
	res, err := h.Exec("DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete collection %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("collection %d: %w", id, util.ErrNotFound)
	}
	return nil
}

// AddImageToCollection appends an image at the end of a collection's order.
// Re-adding an existing member moves it to the end.
func AddImageToCollection(h Handle, collectionID, imageID int64) error {
	_, err := h.Exec(`
		INSERT OR REPLACE INTO collection_images (collection_id, image_id, position)
		VALUES (?, ?, (
			SELECT COALESCE(MAX(position), 0) + 1
			FROM collection_images WHERE collection_id = ?
		))`,
		collectionID, imageID, collectionID,
	)
	if err != nil {
		return fmt.Errorf("failed to add image %d to collection %d: %w", imageID, collectionID, err)
	}
	return nil
}

// RemoveImageFromCollection drops an image from a collection. Positions of
// the remaining members keep their relative order; gaps are fine.
func RemoveImageFromCollection(h Handle, collectionID, imageID int64) error {
	_, err := h.Exec(
		"DELETE FROM collection_images WHERE collection_id = ? AND image_id = ?",
		collectionID, imageID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove image %d from collection %d: %w", imageID, collectionID, err)
	}
	return nil
}

// ListCollectionImages returns a collection's images in position order.
func ListCollectionImages(h Handle, collectionID int64) ([]*Image, error) {
	return queryImages(h, `
		SELECT`+imageColumns+` FROM images
		WHERE id IN (SELECT image_id FROM collection_images WHERE collection_id = ?)
		ORDER BY (
			SELECT position FROM collection_images
			WHERE collection_id = ? AND image_id = images.id
		)`,
		collectionID, collectionID)
}

// CountCollectionImages returns a collection's member count.
func CountCollectionImages(h Handle, collectionID int64) (int, error) {
	var count int
	err := h.QueryRow(
		"SELECT COUNT(*) FROM collection_images WHERE collection_id = ?", collectionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count collection %d images: %w", collectionID, err)
	}
	return count, nil
}

func scanCollection(sc rowScanner) (*Collection, error) {
	var (
		c          Collection
		parentID   sql.NullInt64
		createdRaw string
		updatedRaw string
	)
	if err := sc.Scan(&c.ID, &c.Name, &parentID, &createdRaw, &updatedRaw); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan collection: %w", err)
	}

	c.ParentID = intPtr(parentID)

	var err error
	if c.CreatedAt, err = ParseTime(createdRaw, "collections.created_at"); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = ParseTime(updatedRaw, "collections.updated_at"); err != nil {
		return nil, err
	}
	return &c, nil
}
