package catalog

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/zenithphoto/photocat/internal/util"
)

func openTestCatalog(t *testing.T) *DB {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpenFreshCatalog(t *testing.T) {
	c := openTestCatalog(t)

	version, err := c.SchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != TargetSchemaVersion {
		t.Errorf("expected schema version %d, got %d", TargetSchemaVersion, version)
	}

	tables := []string{
		"catalog_metadata", "folders", "images", "keywords", "image_keywords",
		"collections", "collection_images", "edits", "edit_history",
		"thumbnails", "previews", "fts_images", "fts_keywords", "fts_folders",
	}
	for _, table := range tables {
		exists, err := tableExists(c.Handle(), table)
		if err != nil {
			t.Fatalf("failed to check table %s: %v", table, err)
		}
		if !exists {
			t.Errorf("expected table %s to exist", table)
		}
	}

	// camera_serial arrives via migration, temp_tag must be gone again
	hasSerial, err := tableHasColumn(c.Handle(), "images", "camera_serial")
	if err != nil {
		t.Fatalf("failed to inspect images: %v", err)
	}
	if !hasSerial {
		t.Error("expected images.camera_serial column")
	}
	hasTemp, err := tableHasColumn(c.Handle(), "images", "temp_tag")
	if err != nil {
		t.Fatalf("failed to inspect images: %v", err)
	}
	if hasTemp {
		t.Error("expected images.temp_tag to be dropped")
	}

	meta, err := GetMetadata(c.Handle())
	if err != nil {
		t.Fatalf("failed to read metadata: %v", err)
	}
	if meta.SchemaVersion != TargetSchemaVersion {
		t.Errorf("metadata schema version = %d, want %d", meta.SchemaVersion, TargetSchemaVersion)
	}
	if meta.LastOpened == nil {
		t.Error("expected last_opened to be stamped on open")
	}
}

func TestReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	c, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	if _, err := EnsureFolder(c.Handle(), "/photos/2026"); err != nil {
		t.Fatalf("failed to create folder: %v", err)
	}
	c.Close()

	c, err = Open(path)
	if err != nil {
		t.Fatalf("failed to reopen catalog: %v", err)
	}
	defer c.Close()

	version, err := c.SchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != TargetSchemaVersion {
		t.Errorf("expected schema version %d after reopen, got %d", TargetSchemaVersion, version)
	}

	f, err := GetFolderByPath(c.Handle(), "/photos/2026")
	if err != nil {
		t.Fatalf("failed to get folder: %v", err)
	}
	if f == nil {
		t.Error("expected folder to survive reopen")
	}
}

func TestMigrationListIsContiguous(t *testing.T) {
	if len(Migrations) == 0 {
		t.Fatal("migration list is empty")
	}

	expected := 1
	for _, m := range Migrations {
		if m.From != expected {
			t.Errorf("migration from %d, expected from %d", m.From, expected)
		}
		if m.To != m.From+1 {
			t.Errorf("migration %d -> %d skips versions", m.From, m.To)
		}
		expected = m.To
	}

	if last := Migrations[len(Migrations)-1].To; last != TargetSchemaVersion {
		t.Errorf("migration list ends at %d, target is %d", last, TargetSchemaVersion)
	}
}

func TestFailedMigrationRollsBack(t *testing.T) {
	c := openTestCatalog(t)

	bad := []Migration{{
		From: TargetSchemaVersion,
		To:   TargetSchemaVersion + 1,
		SQL:  "CREATE TABLE half_applied (id INTEGER); THIS IS NOT SQL;",
	}}

	if err := c.runMigrations(bad); err == nil {
		t.Fatal("expected failing migration to error")
	}

	version, err := c.SchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != TargetSchemaVersion {
		t.Errorf("version moved to %d despite rollback, want %d", version, TargetSchemaVersion)
	}

	exists, err := tableExists(c.Handle(), "half_applied")
	if err != nil {
		t.Fatalf("failed to check table: %v", err)
	}
	if exists {
		t.Error("partial migration DDL survived rollback")
	}
}

func TestMigrationGapDetected(t *testing.T) {
	c := openTestCatalog(t)

	gapped := []Migration{{
		From: TargetSchemaVersion + 3,
		To:   TargetSchemaVersion + 4,
		SQL:  "SELECT 1",
	}}

	err := c.runMigrations(gapped)
	if !errors.Is(err, util.ErrMigrationGap) {
		t.Fatalf("expected ErrMigrationGap, got %v", err)
	}
}

func TestNewerCatalogRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	c, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	if err := c.setSchemaVersion(c.Handle(), TargetSchemaVersion+10); err != nil {
		t.Fatalf("failed to bump version: %v", err)
	}
	c.Close()

	if _, err := Open(path); !errors.Is(err, util.ErrCatalogNewer) {
		t.Fatalf("expected ErrCatalogNewer, got %v", err)
	}
}

func TestLegacyCatalogUpgrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// Build a pre-versioning catalog by hand: single path column, no
	// folders table, no metadata row.
	raw, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("failed to open raw database: %v", err)
	}
	_, err = raw.Exec(`
		CREATE TABLE images (
			id INTEGER PRIMARY KEY,
			file_path TEXT NOT NULL UNIQUE,
			rating INTEGER,
			capture_time_utc TEXT,
			camera_make TEXT,
			camera_model TEXT,
			aperture REAL,
			shutter REAL,
			iso INTEGER,
			focal_length REAL
		);
		CREATE TABLE keywords (id INTEGER PRIMARY KEY, keyword TEXT NOT NULL UNIQUE);
		CREATE TABLE image_keywords (image_id INTEGER, keyword_id INTEGER);
		CREATE TABLE edits (
			image_id INTEGER PRIMARY KEY,
			exposure REAL, contrast REAL, highlights REAL, shadows REAL,
			temperature REAL, tint REAL, updated_at TEXT
		);
		INSERT INTO images (id, file_path, rating, capture_time_utc, camera_make, camera_model, aperture, shutter, iso, focal_length)
		VALUES (7, '/photos/2019/trip/DSC_0042.NEF', 4, '2019-06-01T10:30:00Z', 'Nikon', 'D750', 2.8, 0.004, 200, 50.0);
		INSERT INTO keywords (id, keyword) VALUES (1, 'travel');
		INSERT INTO image_keywords (image_id, keyword_id) VALUES (7, 1);
		INSERT INTO edits (image_id, exposure, contrast) VALUES (7, 0.5, 10.0);
	`)
	if err != nil {
		t.Fatalf("failed to build legacy database: %v", err)
	}
	raw.Close()

	c, err := Open(path)
	if err != nil {
		t.Fatalf("failed to upgrade legacy catalog: %v", err)
	}
	defer c.Close()

	version, err := c.SchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != TargetSchemaVersion {
		t.Errorf("expected schema version %d after upgrade, got %d", TargetSchemaVersion, version)
	}

	img, err := GetImage(c.Handle(), 7)
	if err != nil {
		t.Fatalf("failed to get migrated image: %v", err)
	}
	if img == nil {
		t.Fatal("migrated image missing")
	}
	if img.Filename != "DSC_0042.NEF" {
		t.Errorf("filename = %q, want DSC_0042.NEF", img.Filename)
	}
	if img.OriginalPath != "/photos/2019/trip/DSC_0042.NEF" {
		t.Errorf("original path = %q", img.OriginalPath)
	}
	if img.Rating == nil || *img.Rating != 4 {
		t.Errorf("rating = %v, want 4", img.Rating)
	}
	if img.CapturedAt == nil {
		t.Error("captured_at lost in migration")
	}

	folder, err := GetFolder(c.Handle(), img.FolderID)
	if err != nil {
		t.Fatalf("failed to get folder: %v", err)
	}
	if folder == nil || folder.Path != "/photos/2019/trip" {
		t.Errorf("folder = %+v, want path /photos/2019/trip", folder)
	}

	keywords, err := GetImageKeywords(c.Handle(), 7)
	if err != nil {
		t.Fatalf("failed to get keywords: %v", err)
	}
	if len(keywords) != 1 || keywords[0] != "travel" {
		t.Errorf("keywords = %v, want [travel]", keywords)
	}

	edit, err := GetEdit(c.Handle(), 7)
	if err != nil {
		t.Fatalf("failed to get edit: %v", err)
	}
	if edit == nil || edit.Exposure == nil || *edit.Exposure != 0.5 {
		t.Errorf("edit = %+v, want exposure 0.5", edit)
	}

	for _, table := range []string{"legacy_images", "legacy_keywords", "legacy_image_keywords", "legacy_edits"} {
		exists, err := tableExists(c.Handle(), table)
		if err != nil {
			t.Fatalf("failed to check table %s: %v", table, err)
		}
		if exists {
			t.Errorf("table %s left behind after migration", table)
		}
	}
}

func TestRebuildMigrationKeepsChildRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v3.db")

	// Build a version 3 catalog by hand: base schema plus every step up
	// to the table rebuild, with one image and a full set of child rows.
	// The rebuild drops and recreates images; none of the dependent rows
	// may go with it.
	raw, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("failed to open raw database: %v", err)
	}
	if _, err := raw.Exec(baseSchema); err != nil {
		t.Fatalf("failed to install base schema: %v", err)
	}
	for _, m := range Migrations {
		if m.To > 3 {
			break
		}
		if _, err := raw.Exec(m.SQL); err != nil {
			t.Fatalf("failed to apply step %d -> %d: %v", m.From, m.To, err)
		}
	}
	_, err = raw.Exec(`
		INSERT INTO catalog_metadata (id, schema_version) VALUES (1, 3);
		PRAGMA user_version = 3;
		INSERT INTO folders (id, path) VALUES (1, '/photos/2020');
		INSERT INTO images (id, folder_id, filename, original_path)
		VALUES (9, 1, 'DSCF0100.RAF', '/photos/2020/DSCF0100.RAF');
		INSERT INTO keywords (id, keyword) VALUES (1, 'sunset');
		INSERT INTO image_keywords (image_id, keyword_id) VALUES (9, 1);
		INSERT INTO edits (image_id, exposure) VALUES (9, 1.25);
		INSERT INTO edit_history (image_id, edits_json) VALUES (9, '{"exposure":1.25}');
		INSERT INTO thumbnails (image_id, thumb_256) VALUES (9, X'FFD8FFD9');
		INSERT INTO previews (image_id, preview_blob) VALUES (9, X'FFD8FFD9');
		INSERT INTO collections (id, name) VALUES (1, 'Best of 2020');
		INSERT INTO collection_images (collection_id, image_id, position) VALUES (1, 9, 1);
	`)
	if err != nil {
		t.Fatalf("failed to populate catalog: %v", err)
	}
	raw.Close()

	c, err := Open(path)
	if err != nil {
		t.Fatalf("failed to upgrade catalog: %v", err)
	}
	defer c.Close()

	version, err := c.SchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != TargetSchemaVersion {
		t.Errorf("expected schema version %d after upgrade, got %d", TargetSchemaVersion, version)
	}

	keywords, err := GetImageKeywords(c.Handle(), 9)
	if err != nil {
		t.Fatalf("failed to get keywords: %v", err)
	}
	if len(keywords) != 1 || keywords[0] != "sunset" {
		t.Errorf("keywords = %v after upgrade, want [sunset]", keywords)
	}

	edit, err := GetEdit(c.Handle(), 9)
	if err != nil {
		t.Fatalf("failed to get edit: %v", err)
	}
	if edit == nil || edit.Exposure == nil || *edit.Exposure != 1.25 {
		t.Errorf("edit = %+v after upgrade, want exposure 1.25", edit)
	}

	for _, table := range []string{"edit_history", "thumbnails", "previews", "collection_images"} {
		var n int
		if err := c.Handle().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("failed to count %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("%s has %d rows after upgrade, want 1", table, n)
		}
	}
}

func TestIntegrityCheck(t *testing.T) {
	c := openTestCatalog(t)
	if err := c.CheckIntegrity(); err != nil {
		t.Fatalf("integrity check failed on fresh catalog: %v", err)
	}
}
