package catalog

import (
	"database/sql"
	"fmt"
)

// Keyword is one tag in the flat keyword vocabulary.
type Keyword struct {
	ID      int64
	Keyword string
}

// EnsureKeyword returns the keyword ID, creating the row when absent.
func EnsureKeyword(h Handle, keyword string) (int64, error) {
	var id int64
	err := h.QueryRow("SELECT id FROM keywords WHERE keyword = ?", keyword).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up keyword %s: %w", keyword, err)
	}

	res, err := h.Exec("INSERT INTO keywords (keyword) VALUES (?)", keyword)
	if err != nil {
		return 0, fmt.Errorf("failed to insert keyword %s: %w", keyword, err)
	}
	return lastInsertID(res)
}

// AssignKeyword attaches a keyword to an image. Assigning twice is a no-op.
func AssignKeyword(h Handle, imageID, keywordID int64) error {
	_, err := h.Exec(
		"INSERT OR IGNORE INTO image_keywords (image_id, keyword_id) VALUES (?, ?)",
		imageID, keywordID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign keyword %d to image %d: %w", keywordID, imageID, err)
	}
	return nil
}

// UnassignKeyword detaches a keyword from an image.
func UnassignKeyword(h Handle, imageID, keywordID int64) error {
	_, err := h.Exec(
		"DELETE FROM image_keywords WHERE image_id = ? AND keyword_id = ?",
		imageID, keywordID,
	)
	if err != nil {
		return fmt.Errorf("failed to unassign keyword %d from image %d: %w", keywordID, imageID, err)
	}
	return nil
}

// ReplaceImageKeywords reconciles an image's keyword set against desired:
// missing assignments are added, extra ones removed, kept ones untouched so
// their assignment timestamps survive. Call it inside a transaction.
func ReplaceImageKeywords(h Handle, imageID int64, desired []string) error {
	current, err := GetImageKeywords(h, imageID)
	if err != nil {
		return err
	}

	want := make(map[string]bool, len(desired))
	for _, kw := range desired {
		want[kw] = true
	}
	have := make(map[string]bool, len(current))
	for _, kw := range current {
		have[kw] = true
	}

	for _, kw := range current {
		if want[kw] {
			continue
		}
		id, err := EnsureKeyword(h, kw)
		if err != nil {
			return err
		}
		if err := UnassignKeyword(h, imageID, id); err != nil {
			return err
		}
	}

	for _, kw := range desired {
		if have[kw] {
			continue
		}
		id, err := EnsureKeyword(h, kw)
		if err != nil {
			return err
		}
		if err := AssignKeyword(h, imageID, id); err != nil {
			return err
		}
	}
	return nil
}

// GetImageKeywords returns the keywords of an image in alphabetical order.
func GetImageKeywords(h Handle, imageID int64) ([]string, error) {
	rows, err := h.Query(`
		SELECT k.keyword FROM keywords k
		JOIN image_keywords ik ON ik.keyword_id = k.id
		WHERE ik.image_id = ?
		ORDER BY k.keyword
	`, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords for image %d: %w", imageID, err)
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

// ListKeywords returns the full vocabulary with usage counts, most used
// first.
func ListKeywords(h Handle) ([]KeywordCount, error) {
	rows, err := h.Query(`
		SELECT k.id, k.keyword, COUNT(ik.image_id)
		FROM keywords k
		LEFT JOIN image_keywords ik ON ik.keyword_id = k.id
		GROUP BY k.id
		ORDER BY COUNT(ik.image_id) DESC, k.keyword
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	defer rows.Close()

	var counts []KeywordCount
	for rows.Next() {
		var kc KeywordCount
		if err := rows.Scan(&kc.ID, &kc.Keyword, &kc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan keyword count: %w", err)
		}
		counts = append(counts, kc)
	}
	return counts, rows.Err()
}

// KeywordCount pairs a keyword with how many images carry it.
type KeywordCount struct {
	ID      int64
	Keyword string
	Count   int
}

// PruneUnusedKeywords deletes vocabulary entries no image references.
func PruneUnusedKeywords(h Handle) (int64, error) {
	res, err := h.Exec(`
		DELETE FROM keywords
		WHERE id NOT IN (SELECT DISTINCT keyword_id FROM image_keywords)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prune keywords: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read prune result: %w", err)
	}
	return n, nil
}
