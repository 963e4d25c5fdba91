package catalog

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zenithphoto/photocat/internal/util"
)

// Migration is one forward schema step. One step always executes inside one
// transaction together with the version bump, so a failed step leaves the
// catalog at its last good version.
type Migration struct {
	From int
	To   int
	SQL  string
}

// TargetSchemaVersion is the schema version this build reads and writes.
const TargetSchemaVersion = 4

// Migrations is the ordered forward migration list. The runner walks it by
// matching From against the current version until no forward step remains.
var Migrations = []Migration{
	{
		From: 1,
		To:   2,
		SQL: `
			ALTER TABLE images ADD COLUMN camera_serial TEXT;
			ALTER TABLE images ADD COLUMN temp_tag TEXT;
			UPDATE images SET temp_tag = 'legacy-import' WHERE imported_at IS NOT NULL;
		`,
	},
	{
		From: 2,
		To:   3,
		SQL:  ftsSchema + ftsPopulate,
	},
	// Column drop via table rebuild: removes temp_tag, keeps camera_serial.
	{
		From: 3,
		To:   4,
		SQL: `
			CREATE TABLE images_new (
				id INTEGER PRIMARY KEY,
				folder_id INTEGER NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
				filename TEXT NOT NULL,
				original_path TEXT NOT NULL UNIQUE,
				sidecar_path TEXT,
				sidecar_hash TEXT,
				filesize INTEGER,
				file_hash TEXT,
				file_modified_at TEXT,
				imported_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
				captured_at TEXT,
				camera_make TEXT,
				camera_model TEXT,
				lens_model TEXT,
				focal_length REAL,
				aperture REAL,
				shutter_speed REAL,
				iso INTEGER,
				orientation INTEGER,
				gps_latitude REAL,
				gps_longitude REAL,
				gps_altitude REAL,
				rating INTEGER CHECK (rating BETWEEN 0 AND 5),
				flag TEXT CHECK (flag IN ('picked','rejected') OR flag IS NULL),
				color_label TEXT CHECK (
					color_label IN ('red','yellow','green','blue','purple','orange','teal')
					OR color_label IS NULL
				),
				metadata_json TEXT CHECK (metadata_json IS NULL OR json_valid(metadata_json)),
				camera_serial TEXT,
				created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
				updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
			);
			INSERT INTO images_new (
				id, folder_id, filename, original_path, sidecar_path, sidecar_hash, filesize,
				file_hash, file_modified_at, imported_at, captured_at, camera_make, camera_model,
				lens_model, focal_length, aperture, shutter_speed, iso, orientation, gps_latitude,
				gps_longitude, gps_altitude, rating, flag, color_label, metadata_json,
				camera_serial, created_at, updated_at
			)
			SELECT
				id, folder_id, filename, original_path, sidecar_path, sidecar_hash, filesize,
				file_hash, file_modified_at, imported_at, captured_at, camera_make, camera_model,
				lens_model, focal_length, aperture, shutter_speed, iso, orientation, gps_latitude,
				gps_longitude, gps_altitude, rating, flag, color_label, metadata_json,
				camera_serial, created_at, updated_at
			FROM images;
			DROP TABLE images;
			ALTER TABLE images_new RENAME TO images;
			CREATE INDEX IF NOT EXISTS idx_images_folder_id ON images(folder_id);
			CREATE INDEX IF NOT EXISTS idx_images_captured_at ON images(captured_at);
			CREATE INDEX IF NOT EXISTS idx_images_file_hash ON images(file_hash);
			CREATE TRIGGER IF NOT EXISTS images_touch_updated_at
			AFTER UPDATE ON images
			FOR EACH ROW
			BEGIN
				UPDATE images
				SET updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
				WHERE id = NEW.id;
			END;
		`,
	},
}

// initializeSchema brings an arbitrary on-disk file to the target schema
// version: legacy upgrade first, then base install, then the migration list.
func (c *DB) initializeSchema() error {
	legacy, err := c.isLegacySchema()
	if err != nil {
		return err
	}
	if legacy {
		if err := c.migrateLegacySchema(); err != nil {
			return fmt.Errorf("legacy catalog migration failed: %w", err)
		}
	}

	hasMetadata, err := tableExists(c.db, "catalog_metadata")
	if err != nil {
		return err
	}
	if !hasMetadata {
		if _, err := c.db.Exec(baseSchema); err != nil {
			return fmt.Errorf("failed to apply base catalog schema: %w", err)
		}
	}

	version, err := c.SchemaVersion()
	if err != nil {
		return err
	}
	if version == 0 {
		// Baseline row for a fresh catalog; never overwrites versioned ones.
		if err := c.setSchemaVersion(c.db, 1); err != nil {
			return err
		}
		version = 1
	}

	if version > TargetSchemaVersion {
		return fmt.Errorf("catalog schema version %d is newer than supported %d: %w",
			version, TargetSchemaVersion, util.ErrCatalogNewer)
	}

	if err := c.runMigrations(Migrations); err != nil {
		return err
	}

	if _, err := c.db.Exec(
		"UPDATE catalog_metadata SET last_opened = strftime('%Y-%m-%dT%H:%M:%fZ','now') WHERE id = 1",
	); err != nil {
		return fmt.Errorf("failed to record last_opened: %w", err)
	}

	return c.ensureSearchTables()
}

// runMigrations repeatedly applies the step whose From matches the current
// version. Each step commits its DDL and the version bump atomically.
func (c *DB) runMigrations(migrations []Migration) error {
	version, err := c.SchemaVersion()
	if err != nil {
		return err
	}

	target := version
	if len(migrations) > 0 {
		target = migrations[len(migrations)-1].To
	}

	if version > target {
		return fmt.Errorf("catalog schema version %d is newer than supported %d: %w",
			version, target, util.ErrCatalogNewer)
	}

	progressed := true
	for progressed && version < target {
		progressed = false
		for _, m := range migrations {
			if m.From != version {
				continue
			}
			if err := c.applyMigration(m); err != nil {
				return err
			}
			version = m.To
			progressed = true
			break
		}
	}

	if version != target {
		return fmt.Errorf("missing migration path from %d to %d: %w",
			version, target, util.ErrMigrationGap)
	}

	return nil
}

// applyMigration runs one step. Enforcement of foreign keys is lifted for
// the step: a table rebuild ends in DROP TABLE, which under enforcement
// runs an implicit DELETE that cascades into every child table and wipes
// keywords, edits, derivatives and collection memberships. The rebuilt
// references are verified with foreign_key_check before the step commits.
func (c *DB) applyMigration(m Migration) error {
	return c.withForeignKeysSuspended(func() error {
		return c.Transaction(func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.SQL); err != nil {
				return fmt.Errorf("failed to apply migration %d -> %d: %w", m.From, m.To, err)
			}
			if _, err := tx.Exec(
				"UPDATE catalog_metadata SET schema_version = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now') WHERE id = 1",
				m.To,
			); err != nil {
				return fmt.Errorf("failed to persist schema version %d: %w", m.To, err)
			}
			if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.To)); err != nil {
				return fmt.Errorf("failed to mirror user_version %d: %w", m.To, err)
			}
			return checkForeignKeys(tx, m.From, m.To)
		})
	})
}

// withForeignKeysSuspended toggles foreign key enforcement off on the
// single pooled connection for the duration of fn. PRAGMA foreign_keys is
// a no-op inside a transaction, so schema surgery that drops or renames
// tables has to flip it outside the transaction boundary.
func (c *DB) withForeignKeysSuspended(fn func() error) error {
	if _, err := c.db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("failed to suspend foreign key enforcement: %w", err)
	}
	defer func() {
		if _, err := c.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			util.WarnLog("failed to restore foreign key enforcement: %v", err)
		}
	}()
	return fn()
}

// checkForeignKeys fails a step that left dangling references behind.
func checkForeignKeys(tx *sql.Tx, from, to int) error {
	rows, err := tx.Query("PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("failed to verify references after migration %d -> %d: %w", from, to, err)
	}
	defer rows.Close()

	if rows.Next() {
		var (
			table  string
			rowid  any
			parent string
			fkid   any
		)
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return fmt.Errorf("failed to scan foreign_key_check row: %w", err)
		}
		return fmt.Errorf("migration %d -> %d left dangling references in %s (parent %s)",
			from, to, table, parent)
	}
	return rows.Err()
}

// SchemaVersion returns the current schema version, or 0 when the catalog
// has no metadata row yet.
func (c *DB) SchemaVersion() (int, error) {
	exists, err := tableExists(c.db, "catalog_metadata")
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = c.db.QueryRow("SELECT schema_version FROM catalog_metadata WHERE id = 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (c *DB) setSchemaVersion(h Handle, version int) error {
	if _, err := h.Exec(
		`INSERT INTO catalog_metadata (id, schema_version, created_at, updated_at, last_opened)
		 VALUES (1, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'), strftime('%Y-%m-%dT%H:%M:%fZ','now'), NULL)
		 ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')`,
		version,
	); err != nil {
		return fmt.Errorf("failed to set schema version %d: %w", version, err)
	}
	if _, err := h.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("failed to mirror user_version %d: %w", version, err)
	}
	return nil
}

func tableExists(h Handle, name string) (bool, error) {
	var count int
	err := h.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check for table %s: %w", name, err)
	}
	return count > 0, nil
}

func tableHasColumn(h Handle, table, column string) (bool, error) {
	rows, err := h.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			typ       string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("failed to scan table_info row: %w", err)
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// isLegacySchema detects a pre-versioning catalog by structure: no metadata
// table, and an images table with the old single-path shape. Best-effort by
// design; an unrelated database without an images table falls through to a
// fresh install instead.
func (c *DB) isLegacySchema() (bool, error) {
	hasMetadata, err := tableExists(c.db, "catalog_metadata")
	if err != nil || hasMetadata {
		return false, err
	}

	hasImages, err := tableExists(c.db, "images")
	if err != nil || !hasImages {
		return false, err
	}

	hasFilePath, err := tableHasColumn(c.db, "images", "file_path")
	if err != nil {
		return false, err
	}
	hasFolderID, err := tableHasColumn(c.db, "images", "folder_id")
	if err != nil {
		return false, err
	}

	return hasFilePath || !hasFolderID, nil
}

// migrateLegacySchema rebuilds a legacy catalog inside one transaction:
// rename the old tables aside, install the base schema, re-insert the rows
// into the new shape, then drop the renamed tables. Failure anywhere rolls
// the whole thing back, leaving the original file untouched. Foreign key
// enforcement is suspended for the same reason as in applyMigration: the
// legacy table drops must not fire cascades or reference errors.
func (c *DB) migrateLegacySchema() error {
	return c.withForeignKeysSuspended(func() error {
		return c.migrateLegacySchemaTx()
	})
}

func (c *DB) migrateLegacySchemaTx() error {
	return c.Transaction(func(tx *sql.Tx) error {
		renames := [][2]string{
			{"images", "legacy_images"},
			{"keywords", "legacy_keywords"},
			{"image_keywords", "legacy_image_keywords"},
			{"edits", "legacy_edits"},
			{"settings", "legacy_settings"},
		}
		for _, r := range renames {
			if err := renameTableIfExists(tx, r[0], r[1]); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(baseSchema); err != nil {
			return fmt.Errorf("failed to install schema during legacy migration: %w", err)
		}

		if err := migrateLegacyKeywords(tx); err != nil {
			return err
		}
		if err := migrateLegacyImages(tx); err != nil {
			return err
		}
		if err := migrateLegacyImageKeywords(tx); err != nil {
			return err
		}
		if err := migrateLegacyEdits(tx); err != nil {
			return err
		}

		_, err := tx.Exec(`
			DROP TABLE IF EXISTS legacy_images;
			DROP TABLE IF EXISTS legacy_keywords;
			DROP TABLE IF EXISTS legacy_image_keywords;
			DROP TABLE IF EXISTS legacy_edits;
			DROP TABLE IF EXISTS legacy_settings;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop legacy tables: %w", err)
		}
		return nil
	})
}

func renameTableIfExists(h Handle, from, to string) error {
	exists, err := tableExists(h, from)
	if err != nil || !exists {
		return err
	}
	if _, err := h.Exec(fmt.Sprintf("ALTER TABLE %s RENAME TO %s", from, to)); err != nil {
		return fmt.Errorf("failed to rename table %s to %s: %w", from, to, err)
	}
	return nil
}

func migrateLegacyKeywords(h Handle) error {
	exists, err := tableExists(h, "legacy_keywords")
	if err != nil || !exists {
		return err
	}
	if _, err := h.Exec(
		"INSERT OR IGNORE INTO keywords (id, keyword) SELECT id, keyword FROM legacy_keywords",
	); err != nil {
		return fmt.Errorf("failed to migrate legacy keywords: %w", err)
	}
	return nil
}

// migrateLegacyImages re-inserts old rows into the new shape, splitting the
// single path column into a folder reference plus filename and defaulting
// every column the legacy layout never had.
func migrateLegacyImages(h Handle) error {
	exists, err := tableExists(h, "legacy_images")
	if err != nil || !exists {
		return err
	}

	rows, err := h.Query(`
		SELECT id, file_path, rating, capture_time_utc, camera_make, camera_model,
		       aperture, shutter, iso, focal_length
		FROM legacy_images
	`)
	if err != nil {
		return fmt.Errorf("failed to read legacy images: %w", err)
	}
	defer rows.Close()

	type legacyImage struct {
		id          int64
		filePath    string
		rating      sql.NullInt64
		captureRaw  sql.NullString
		cameraMake  sql.NullString
		cameraModel sql.NullString
		aperture    sql.NullFloat64
		shutter     sql.NullFloat64
		iso         sql.NullInt64
		focalLength sql.NullFloat64
	}

	var legacy []legacyImage
	for rows.Next() {
		var li legacyImage
		if err := rows.Scan(&li.id, &li.filePath, &li.rating, &li.captureRaw,
			&li.cameraMake, &li.cameraModel, &li.aperture, &li.shutter,
			&li.iso, &li.focalLength); err != nil {
			return fmt.Errorf("failed to scan legacy image: %w", err)
		}
		legacy = append(legacy, li)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	now := FormatTime(time.Now())
	for _, li := range legacy {
		folderPath := filepath.Dir(li.filePath)
		if folderPath == "" {
			folderPath = "."
		}
		folderID, err := ensureLegacyFolder(h, folderPath, now)
		if err != nil {
			return err
		}

		filename := filepath.Base(li.filePath)

		// Legacy capture times were already RFC3339; unparseable values
		// become NULL rather than failing the whole migration.
		var capturedAt any
		if li.captureRaw.Valid {
			if t, err := time.Parse(time.RFC3339, li.captureRaw.String); err == nil {
				capturedAt = FormatTime(t)
			}
		}

		if _, err := h.Exec(`
			INSERT INTO images (
				id, folder_id, filename, original_path, imported_at, captured_at,
				camera_make, camera_model, focal_length, aperture, shutter_speed, iso,
				rating, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			li.id, folderID, filename, li.filePath, now, capturedAt,
			li.cameraMake, li.cameraModel, li.focalLength, li.aperture, li.shutter, li.iso,
			li.rating, now, now,
		); err != nil {
			return fmt.Errorf("failed to migrate legacy image %s: %w", li.filePath, err)
		}
	}

	return nil
}

func ensureLegacyFolder(h Handle, path, now string) (int64, error) {
	var id int64
	err := h.QueryRow("SELECT id FROM folders WHERE path = ?", path).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up folder %s: %w", path, err)
	}

	res, err := h.Exec(
		"INSERT INTO folders (path, created_at, updated_at) VALUES (?, ?, ?)",
		path, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return lastInsertID(res)
}

func migrateLegacyImageKeywords(h Handle) error {
	exists, err := tableExists(h, "legacy_image_keywords")
	if err != nil || !exists {
		return err
	}
	if _, err := h.Exec(`
		INSERT OR IGNORE INTO image_keywords (image_id, keyword_id, assigned_at)
		SELECT image_id, keyword_id, strftime('%Y-%m-%dT%H:%M:%fZ','now')
		FROM legacy_image_keywords
	`); err != nil {
		return fmt.Errorf("failed to migrate legacy image keywords: %w", err)
	}
	return nil
}

func migrateLegacyEdits(h Handle) error {
	exists, err := tableExists(h, "legacy_edits")
	if err != nil || !exists {
		return err
	}
	if _, err := h.Exec(`
		INSERT INTO edits (image_id, exposure, contrast, highlights, shadows, temperature, tint, updated_at)
		SELECT image_id, exposure, contrast, highlights, shadows, temperature, tint, updated_at
		FROM legacy_edits
	`); err != nil {
		return fmt.Errorf("failed to migrate legacy edits: %w", err)
	}
	return nil
}
