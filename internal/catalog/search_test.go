package catalog

import (
	"testing"
)

func TestSearchImagesAfterRebuild(t *testing.T) {
	c := openTestCatalog(t)
	iceland := insertTestImage(t, c, "/photos/test/iceland_glacier.RAF")
	beach := insertTestImage(t, c, "/photos/test/beach_sunset.RAF")

	if err := ReplaceImageKeywords(c.Handle(), iceland.ID, []string{"glacier", "winter"}); err != nil {
		t.Fatalf("failed to set keywords: %v", err)
	}
	if err := ReplaceImageKeywords(c.Handle(), beach.ID, []string{"sunset", "ocean"}); err != nil {
		t.Fatalf("failed to set keywords: %v", err)
	}

	if err := c.RebuildFTS(); err != nil {
		t.Fatalf("failed to rebuild search tables: %v", err)
	}

	// Matches by filename
	results, err := SearchImages(c.Handle(), "iceland", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != iceland.ID {
		t.Errorf("search iceland = %v, want image %d", memberIDs(results), iceland.ID)
	}

	// Matches by keyword
	results, err = SearchImages(c.Handle(), "ocean", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != beach.ID {
		t.Errorf("search ocean = %v, want image %d", memberIDs(results), beach.ID)
	}

	// Prefix match
	results, err = SearchImages(c.Handle(), "glac", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != iceland.ID {
		t.Errorf("prefix search glac = %v, want image %d", memberIDs(results), iceland.ID)
	}

	// No match
	results, err = SearchImages(c.Handle(), "volcano", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("search volcano = %v, want none", memberIDs(results))
	}
}

func TestSearchReflectsOnlyRebuiltState(t *testing.T) {
	c := openTestCatalog(t)
	img := insertTestImage(t, c, "/photos/test/harbor_morning.RAF")

	if err := c.RebuildFTS(); err != nil {
		t.Fatalf("failed to rebuild search tables: %v", err)
	}

	results, err := SearchImages(c.Handle(), "harbor", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	// A keyword added after the rebuild is invisible until the next one
	if err := ReplaceImageKeywords(c.Handle(), img.ID, []string{"fog"}); err != nil {
		t.Fatalf("failed to set keywords: %v", err)
	}
	results, err = SearchImages(c.Handle(), "fog", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 0 {
		t.Error("stale index returned fresh keyword before rebuild")
	}

	if err := c.RebuildFTS(); err != nil {
		t.Fatalf("failed to rebuild search tables: %v", err)
	}
	results, err = SearchImages(c.Handle(), "fog", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Error("rebuilt index missing fresh keyword")
	}
}

func TestSearchKeywordsAndFolders(t *testing.T) {
	c := openTestCatalog(t)
	img := insertTestImage(t, c, "/photos/test/mountain_ridge.RAF")

	if err := ReplaceImageKeywords(c.Handle(), img.ID, []string{"mountains", "alpine"}); err != nil {
		t.Fatalf("failed to set keywords: %v", err)
	}
	if err := c.RebuildFTS(); err != nil {
		t.Fatalf("failed to rebuild search tables: %v", err)
	}

	keywords, err := SearchKeywords(c.Handle(), "moun", 10)
	if err != nil {
		t.Fatalf("keyword search failed: %v", err)
	}
	if len(keywords) != 1 || keywords[0].Keyword != "mountains" {
		t.Errorf("keyword search = %v, want mountains", keywords)
	}

	folders, err := SearchFolders(c.Handle(), "test", 10)
	if err != nil {
		t.Fatalf("folder search failed: %v", err)
	}
	if len(folders) != 1 || folders[0].Path != "/photos/test" {
		t.Errorf("folder search = %v", folders)
	}
}

func TestFTSQueryQuoting(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"sunset", `"sunset"*`},
		{"sunset beach", `"sunset"* "beach"*`},
		{`she said "hi"`, `"she"* "said"* """hi"""*`},
		{"", `""`},
		{"   ", `""`},
	}
	for _, tc := range cases {
		if got := ftsQuery(tc.input); got != tc.want {
			t.Errorf("ftsQuery(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
