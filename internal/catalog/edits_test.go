package catalog

import (
	"testing"
)

func TestEditUpsertReplacesCurrent(t *testing.T) {
	c := openTestCatalog(t)
	img := insertTestImage(t, c, "/photos/test/DSCF4001.RAF")

	first := &Edit{ImageID: img.ID, Exposure: floatp(0.3), Contrast: floatp(12)}
	if err := UpsertEdit(c.Handle(), first); err != nil {
		t.Fatalf("failed to upsert edit: %v", err)
	}
	if first.ID == 0 {
		t.Error("edit ID not populated")
	}

	second := &Edit{ImageID: img.ID, Exposure: floatp(-0.5), CropJSON: strp(`{"angle":1.5}`)}
	if err := UpsertEdit(c.Handle(), second); err != nil {
		t.Fatalf("failed to upsert second edit: %v", err)
	}

	got, err := GetEdit(c.Handle(), img.ID)
	if err != nil {
		t.Fatalf("failed to get edit: %v", err)
	}
	if got.Exposure == nil || *got.Exposure != -0.5 {
		t.Errorf("exposure = %v, want -0.5", got.Exposure)
	}
	if got.Contrast != nil {
		t.Errorf("contrast = %v, should be cleared by full replace", *got.Contrast)
	}
	if got.CropJSON == nil || *got.CropJSON != `{"angle":1.5}` {
		t.Errorf("crop json = %v", got.CropJSON)
	}

	var count int
	if err := c.Handle().QueryRow(
		"SELECT COUNT(*) FROM edits WHERE image_id = ?", img.ID,
	).Scan(&count); err != nil {
		t.Fatalf("failed to count edits: %v", err)
	}
	if count != 1 {
		t.Errorf("image has %d edit rows, want 1", count)
	}
}

func TestInvalidEditJSONRejected(t *testing.T) {
	c := openTestCatalog(t)
	img := insertTestImage(t, c, "/photos/test/DSCF4002.RAF")

	bad := &Edit{ImageID: img.ID, MaskingJSON: strp("{not json")}
	if err := UpsertEdit(c.Handle(), bad); err == nil {
		t.Error("expected invalid JSON column to be rejected")
	}
}

func TestEditHistoryAppendOnly(t *testing.T) {
	c := openTestCatalog(t)
	img := insertTestImage(t, c, "/photos/test/DSCF4003.RAF")

	snapshots := []string{
		`{"exposure":0.1}`,
		`{"exposure":0.2}`,
		`{"exposure":0.2,"contrast":5}`,
	}
	for _, s := range snapshots {
		if _, err := AppendEditHistory(c.Handle(), img.ID, s); err != nil {
			t.Fatalf("failed to append history: %v", err)
		}
	}

	entries, err := GetEditHistory(c.Handle(), img.ID)
	if err != nil {
		t.Fatalf("failed to get history: %v", err)
	}
	if len(entries) != len(snapshots) {
		t.Fatalf("expected %d entries, got %d", len(snapshots), len(entries))
	}
	for i, entry := range entries {
		if entry.EditsJSON != snapshots[i] {
			t.Errorf("entry %d = %q, want %q", i, entry.EditsJSON, snapshots[i])
		}
	}
}

func TestDeleteEditResetsImage(t *testing.T) {
	c := openTestCatalog(t)
	img := insertTestImage(t, c, "/photos/test/DSCF4004.RAF")

	e := &Edit{ImageID: img.ID, Vibrance: floatp(20)}
	if err := UpsertEdit(c.Handle(), e); err != nil {
		t.Fatalf("failed to upsert edit: %v", err)
	}
	if err := DeleteEdit(c.Handle(), img.ID); err != nil {
		t.Fatalf("failed to delete edit: %v", err)
	}

	got, err := GetEdit(c.Handle(), img.ID)
	if err != nil {
		t.Fatalf("failed to get edit: %v", err)
	}
	if got != nil {
		t.Errorf("edit = %+v, want nil after delete", got)
	}
}

func TestDerivativeRoundTrip(t *testing.T) {
	c := openTestCatalog(t)
	img := insertTestImage(t, c, "/photos/test/DSCF4005.RAF")

	thumb256 := []byte{0xFF, 0xD8, 0x01}
	thumb1024 := []byte{0xFF, 0xD8, 0x02}
	preview := []byte{0xFF, 0xD8, 0x03}

	if err := UpsertThumbnails(c.Handle(), img.ID, thumb256, thumb1024); err != nil {
		t.Fatalf("failed to store thumbnails: %v", err)
	}
	if err := UpsertPreview(c.Handle(), img.ID, preview); err != nil {
		t.Fatalf("failed to store preview: %v", err)
	}

	got, err := GetThumbnail(c.Handle(), img.ID, 256)
	if err != nil {
		t.Fatalf("failed to read thumbnail: %v", err)
	}
	if string(got) != string(thumb256) {
		t.Errorf("thumb 256 = %v, want %v", got, thumb256)
	}

	got, err = GetThumbnail(c.Handle(), img.ID, 1024)
	if err != nil {
		t.Fatalf("failed to read thumbnail: %v", err)
	}
	if string(got) != string(thumb1024) {
		t.Errorf("thumb 1024 = %v, want %v", got, thumb1024)
	}

	if _, err := GetThumbnail(c.Handle(), img.ID, 512); err == nil {
		t.Error("expected unsupported size to error")
	}

	got, err = GetPreview(c.Handle(), img.ID)
	if err != nil {
		t.Fatalf("failed to read preview: %v", err)
	}
	if string(got) != string(preview) {
		t.Errorf("preview = %v, want %v", got, preview)
	}

	if err := DeleteDerivatives(c.Handle(), img.ID); err != nil {
		t.Fatalf("failed to delete derivatives: %v", err)
	}
	got, err = GetPreview(c.Handle(), img.ID)
	if err != nil {
		t.Fatalf("failed to read preview: %v", err)
	}
	if got != nil {
		t.Error("preview survived delete")
	}
}
