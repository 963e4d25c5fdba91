package catalog

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/zenithphoto/photocat/internal/util"
)

// Folder is one physical directory tracked by the catalog. Paths are
// cleaned on insert and matched byte-for-byte after that.
type Folder struct {
	ID        int64
	Path      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InsertFolder inserts a folder row and fills in the generated ID.
func InsertFolder(h Handle, f *Folder) error {
	res, err := h.Exec("INSERT INTO folders (path) VALUES (?)", f.Path)
	if err != nil {
		return fmt.Errorf("failed to insert folder %s: %w", f.Path, err)
	}
	f.ID, err = lastInsertID(res)
	return err
}

// EnsureFolder returns the folder ID for path, creating the row when absent.
func EnsureFolder(h Handle, path string) (int64, error) {
	path = filepath.Clean(path)

	var id int64
	err := h.QueryRow("SELECT id FROM folders WHERE path = ?", path).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up folder %s: %w", path, err)
	}

	f := &Folder{Path: path}
	if err := InsertFolder(h, f); err != nil {
		return 0, err
	}
	return f.ID, nil
}

// GetFolder retrieves a folder by ID.
func GetFolder(h Handle, id int64) (*Folder, error) {
	return scanFolder(h.QueryRow(
		"SELECT id, path, created_at, updated_at FROM folders WHERE id = ?", id,
	))
}

// GetFolderByPath retrieves a folder by its exact path.
func GetFolderByPath(h Handle, path string) (*Folder, error) {
	return scanFolder(h.QueryRow(
		"SELECT id, path, created_at, updated_at FROM folders WHERE path = ?", path,
	))
}

// ListFolders returns all folders ordered by path.
func ListFolders(h Handle) ([]*Folder, error) {
	rows, err := h.Query("SELECT id, path, created_at, updated_at FROM folders ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	var folders []*Folder
	for rows.Next() {
		f, err := scanFolderRow(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// DeleteFolder removes a folder. Images in it cascade away.
func DeleteFolder(h Handle, id int64) error {
	res, err := h.Exec("DELETE FROM folders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete folder %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("folder %d: %w", id, util.ErrNotFound)
	}
	return nil
}

// CountFolders returns the number of tracked folders.
func CountFolders(h Handle) (int, error) {
	var count int
	if err := h.QueryRow("SELECT COUNT(*) FROM folders").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count folders: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row *sql.Row) (*Folder, error) {
	f, err := scanFolderRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

func scanFolderRow(sc rowScanner) (*Folder, error) {
	var (
		f          Folder
		createdRaw string
		updatedRaw string
	)
	if err := sc.Scan(&f.ID, &f.Path, &createdRaw, &updatedRaw); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan folder: %w", err)
	}

	var err error
	if f.CreatedAt, err = ParseTime(createdRaw, "folders.created_at"); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = ParseTime(updatedRaw, "folders.updated_at"); err != nil {
		return nil, err
	}
	return &f, nil
}
