package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/zenithphoto/photocat/internal/util"
)

// Metadata is the single catalog_metadata row (id = 1).
type Metadata struct {
	SchemaVersion int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastOpened    *time.Time
}

// GetMetadata reads the catalog metadata row.
func GetMetadata(h Handle) (*Metadata, error) {
	var (
		m          Metadata
		createdRaw string
		updatedRaw string
		openedRaw  sql.NullString
	)
	err := h.QueryRow(`
		SELECT schema_version, created_at, updated_at, last_opened
		FROM catalog_metadata WHERE id = 1
	`).Scan(&m.SchemaVersion, &createdRaw, &updatedRaw, &openedRaw)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("catalog metadata row missing: %w", util.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog metadata: %w", err)
	}

	if m.CreatedAt, err = ParseTime(createdRaw, "catalog_metadata.created_at"); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = ParseTime(updatedRaw, "catalog_metadata.updated_at"); err != nil {
		return nil, err
	}
	if m.LastOpened, err = ParseTimeOpt(openedRaw, "catalog_metadata.last_opened"); err != nil {
		return nil, err
	}

	return &m, nil
}

// TouchLastOpened stamps the catalog as opened now.
func TouchLastOpened(h Handle) error {
	_, err := h.Exec(
		"UPDATE catalog_metadata SET last_opened = strftime('%Y-%m-%dT%H:%M:%fZ','now') WHERE id = 1",
	)
	if err != nil {
		return fmt.Errorf("failed to update last_opened: %w", err)
	}
	return nil
}
