package catalog

// Base catalog schema (version 1). Later shapes are produced by the
// migration list in migrate.go, never by editing this DDL.
const baseSchema = `
CREATE TABLE IF NOT EXISTS catalog_metadata (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  schema_version INTEGER NOT NULL,
  created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
  updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
  last_opened TEXT
);

CREATE TABLE IF NOT EXISTS folders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  path TEXT NOT NULL UNIQUE,
  created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
  updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS images (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
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
  created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
  updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_images_folder_id ON images(folder_id);
CREATE INDEX IF NOT EXISTS idx_images_captured_at ON images(captured_at);
CREATE INDEX IF NOT EXISTS idx_images_file_hash ON images(file_hash);

CREATE TABLE IF NOT EXISTS keywords (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  keyword TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS image_keywords (
  image_id INTEGER NOT NULL REFERENCES images(id) ON DELETE CASCADE,
  keyword_id INTEGER NOT NULL REFERENCES keywords(id) ON DELETE CASCADE,
  assigned_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
  PRIMARY KEY (image_id, keyword_id)
);

CREATE TABLE IF NOT EXISTS collections (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  parent_id INTEGER REFERENCES collections(id) ON DELETE SET NULL,
  created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
  updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS collection_images (
  collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
  image_id INTEGER NOT NULL REFERENCES images(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  added_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
  PRIMARY KEY (collection_id, image_id)
);

CREATE TABLE IF NOT EXISTS edits (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  image_id INTEGER NOT NULL UNIQUE REFERENCES images(id) ON DELETE CASCADE,
  exposure REAL,
  contrast REAL,
  highlights REAL,
  shadows REAL,
  whites REAL,
  blacks REAL,
  vibrance REAL,
  saturation REAL,
  temperature REAL,
  tint REAL,
  texture REAL,
  clarity REAL,
  dehaze REAL,
  parametric_curve_json TEXT CHECK (parametric_curve_json IS NULL OR json_valid(parametric_curve_json)),
  color_grading_json TEXT CHECK (color_grading_json IS NULL OR json_valid(color_grading_json)),
  crop_json TEXT CHECK (crop_json IS NULL OR json_valid(crop_json)),
  masking_json TEXT CHECK (masking_json IS NULL OR json_valid(masking_json)),
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS edit_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  image_id INTEGER NOT NULL REFERENCES images(id) ON DELETE CASCADE,
  edits_json TEXT NOT NULL CHECK (json_valid(edits_json)),
  created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_edit_history_image_id ON edit_history(image_id);

CREATE TABLE IF NOT EXISTS thumbnails (
  image_id INTEGER PRIMARY KEY REFERENCES images(id) ON DELETE CASCADE,
  thumb_256 BLOB,
  thumb_1024 BLOB,
  updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS previews (
  image_id INTEGER PRIMARY KEY REFERENCES images(id) ON DELETE CASCADE,
  preview_blob BLOB,
  updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
`
