package catalog

import (
	"database/sql"
	"fmt"
	"strings"
)

// The search tables are contentless FTS5 shadows of their source tables,
// keyed by rowid. They are never updated in place: RebuildFTS drops and
// repopulates them, so a crash mid-rebuild costs the index, not the data.
const ftsSchema = `
CREATE VIRTUAL TABLE fts_images USING fts5(
	filename, original_path, keywords, content='', tokenize='unicode61'
);
CREATE VIRTUAL TABLE fts_keywords USING fts5(
	keyword, content='', tokenize='unicode61'
);
CREATE VIRTUAL TABLE fts_folders USING fts5(
	path, content='', tokenize='unicode61'
);
`

const ftsPopulate = `
INSERT INTO fts_images (rowid, filename, original_path, keywords)
SELECT i.id, i.filename, i.original_path,
       COALESCE((
           SELECT group_concat(k.keyword, ' ')
           FROM image_keywords ik JOIN keywords k ON k.id = ik.keyword_id
           WHERE ik.image_id = i.id
       ), '')
FROM images i;
INSERT INTO fts_keywords (rowid, keyword) SELECT id, keyword FROM keywords;
INSERT INTO fts_folders (rowid, path) SELECT id, path FROM folders;
`

// RebuildFTS rebuilds every search table from the source rows in one
// transaction. Call it after a batch of imports or keyword changes.
func (c *DB) RebuildFTS() error {
	return c.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			DROP TABLE IF EXISTS fts_images;
			DROP TABLE IF EXISTS fts_keywords;
			DROP TABLE IF EXISTS fts_folders;
		` + ftsSchema + ftsPopulate)
		if err != nil {
			return fmt.Errorf("failed to rebuild search tables: %w", err)
		}
		return nil
	})
}

// ensureSearchTables builds the search tables on first open of a catalog
// that predates them or lost them mid-rebuild.
func (c *DB) ensureSearchTables() error {
	exists, err := tableExists(c.db, "fts_images")
	if err != nil || exists {
		return err
	}
	return c.RebuildFTS()
}

// SearchImages runs a full-text query over filenames, paths and keywords,
// returning matching images in relevance order.
func SearchImages(h Handle, query string, limit int) ([]*Image, error) {
	rows, err := h.Query(`
		SELECT`+imageColumns+` FROM images
		JOIN (
			SELECT rowid AS image_rowid, rank FROM fts_images WHERE fts_images MATCH ?
		) m ON m.image_rowid = images.id
		ORDER BY m.rank
		LIMIT ?`,
		ftsQuery(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search images for %q: %w", query, err)
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

// SearchKeywords runs a full-text query over the keyword vocabulary.
func SearchKeywords(h Handle, query string, limit int) ([]Keyword, error) {
	rows, err := h.Query(`
		SELECT k.id, k.keyword FROM keywords k
		WHERE k.id IN (SELECT rowid FROM fts_keywords WHERE fts_keywords MATCH ?)
		ORDER BY k.keyword
		LIMIT ?`,
		ftsQuery(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search keywords for %q: %w", query, err)
	}
	defer rows.Close()

	var keywords []Keyword
	for rows.Next() {
		var kw Keyword
		if err := rows.Scan(&kw.ID, &kw.Keyword); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

// SearchFolders runs a full-text query over folder paths.
func SearchFolders(h Handle, query string, limit int) ([]*Folder, error) {
	rows, err := h.Query(`
		SELECT id, path, created_at, updated_at FROM folders
		WHERE id IN (SELECT rowid FROM fts_folders WHERE fts_folders MATCH ?)
		ORDER BY path
		LIMIT ?`,
		ftsQuery(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search folders for %q: %w", query, err)
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

// ftsQuery turns raw user input into a prefix-match FTS5 query, quoting
// each term so punctuation cannot change the query structure.
func ftsQuery(input string) string {
	terms := strings.Fields(input)
	if len(terms) == 0 {
		return `""`
	}
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, `""`)
		quoted = append(quoted, `"`+t+`"*`)
	}
	return strings.Join(quoted, " ")
}
