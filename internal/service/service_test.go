package service

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/zenithphoto/photocat/internal/catalog"
	"github.com/zenithphoto/photocat/internal/util"
)

func openTestService(t *testing.T) *Service {
	t.Helper()
	db, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

// writeTestJPEG renders a solid-color JPEG of the given size to dir.
func writeTestJPEG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := imaging.New(width, height, letterboxColor)
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path, imaging.JPEGQuality(90)); err != nil {
		t.Fatalf("failed to write test JPEG: %v", err)
	}
	return path
}

func strp(s string) *string { return &s }
func floatp(f float64) *float64 { return &f }

func TestComputeFileHashDeterministic(t *testing.T) {
	dir := t.TempDir()

	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	c := filepath.Join(dir, "c.bin")
	if err := os.WriteFile(a, []byte("identical content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("identical content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c, []byte("different content"), 0o644); err != nil {
		t.Fatal(err)
	}

	hashA, err := ComputeFileHash(a)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	hashB, err := ComputeFileHash(b)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	hashC, err := ComputeFileHash(c)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}

	if hashA != hashB {
		t.Errorf("identical content hashed differently: %s vs %s", hashA, hashB)
	}
	if hashA == hashC {
		t.Error("different content produced the same hash")
	}
	if len(hashA) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(hashA))
	}
}

func TestComputeHashMatchesStreaming(t *testing.T) {
	payload := bytes.Repeat([]byte{0x5A}, hashChunkSize*3+17)

	path := filepath.Join(t.TempDir(), "payload.bin")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	fromFile, err := ComputeFileHash(path)
	if err != nil {
		t.Fatalf("failed to hash file: %v", err)
	}
	fromReader, err := computeHash(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("failed to hash reader: %v", err)
	}
	if fromFile != fromReader {
		t.Errorf("file and stream hashes differ: %s vs %s", fromFile, fromReader)
	}
}

func TestImportImageRejectsDuplicateHash(t *testing.T) {
	s := openTestService(t)

	first := &catalog.Image{
		Filename:     "DSCF0001.RAF",
		OriginalPath: "/photos/2026/DSCF0001.RAF",
		FileHash:     strp("deadbeef"),
	}
	if err := s.ImportImage(first, []string{"iceland"}); err != nil {
		t.Fatalf("failed to import: %v", err)
	}
	if first.ID == 0 {
		t.Error("image ID not populated")
	}

	dup := &catalog.Image{
		Filename:     "copy.RAF",
		OriginalPath: "/backup/copy.RAF",
		FileHash:     strp("deadbeef"),
	}
	err := s.ImportImage(dup, nil)
	if !errors.Is(err, util.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// The duplicate attempt must not have written anything
	count, err := catalog.CountImages(s.DB().Handle())
	if err != nil {
		t.Fatalf("failed to count images: %v", err)
	}
	if count != 1 {
		t.Errorf("catalog has %d images after duplicate import, want 1", count)
	}

	keywords, err := catalog.GetImageKeywords(s.DB().Handle(), first.ID)
	if err != nil {
		t.Fatalf("failed to get keywords: %v", err)
	}
	if len(keywords) != 1 || keywords[0] != "iceland" {
		t.Errorf("keywords = %v, want [iceland]", keywords)
	}
}

func TestImportImageCreatesFolder(t *testing.T) {
	s := openTestService(t)

	img := &catalog.Image{
		Filename:     "DSCF0002.RAF",
		OriginalPath: "/photos/2026/iceland/DSCF0002.RAF",
	}
	if err := s.ImportImage(img, nil); err != nil {
		t.Fatalf("failed to import: %v", err)
	}

	folder, err := catalog.GetFolder(s.DB().Handle(), img.FolderID)
	if err != nil {
		t.Fatalf("failed to get folder: %v", err)
	}
	if folder == nil || folder.Path != "/photos/2026/iceland" {
		t.Errorf("folder = %+v, want /photos/2026/iceland", folder)
	}
}

func TestApplyEditsAppendsHistory(t *testing.T) {
	s := openTestService(t)

	img := &catalog.Image{Filename: "x.RAF", OriginalPath: "/p/x.RAF"}
	if err := s.ImportImage(img, nil); err != nil {
		t.Fatalf("failed to import: %v", err)
	}

	for _, exposure := range []float64{0.3, 0.5} {
		edit := &catalog.Edit{ImageID: img.ID, Exposure: floatp(exposure)}
		if err := s.ApplyEdits(edit); err != nil {
			t.Fatalf("failed to apply edits: %v", err)
		}
	}

	current, err := catalog.GetEdit(s.DB().Handle(), img.ID)
	if err != nil {
		t.Fatalf("failed to get edit: %v", err)
	}
	if current.Exposure == nil || *current.Exposure != 0.5 {
		t.Errorf("current exposure = %v, want 0.5", current.Exposure)
	}

	history, err := catalog.GetEditHistory(s.DB().Handle(), img.ID)
	if err != nil {
		t.Fatalf("failed to get history: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history has %d entries, want 2", len(history))
	}
}

func TestGenerateDerivatives(t *testing.T) {
	s := openTestService(t)
	dir := t.TempDir()
	path := writeTestJPEG(t, dir, "wide.jpg", 800, 400)

	img := &catalog.Image{Filename: "wide.jpg", OriginalPath: path}
	if err := s.ImportImage(img, nil); err != nil {
		t.Fatalf("failed to import: %v", err)
	}

	if err := s.GenerateDerivatives(img.ID, path); err != nil {
		t.Fatalf("failed to generate derivatives: %v", err)
	}

	for _, size := range []int{256, 1024} {
		blob, err := catalog.GetThumbnail(s.DB().Handle(), img.ID, size)
		if err != nil {
			t.Fatalf("failed to read thumbnail %d: %v", size, err)
		}
		if len(blob) == 0 {
			t.Fatalf("thumbnail %d empty", size)
		}
		decoded, err := imaging.Decode(bytes.NewReader(blob))
		if err != nil {
			t.Fatalf("thumbnail %d is not a valid image: %v", size, err)
		}
		if decoded.Bounds().Dx() != size || decoded.Bounds().Dy() != size {
			t.Errorf("thumbnail %d is %dx%d, want square %d",
				size, decoded.Bounds().Dx(), decoded.Bounds().Dy(), size)
		}
	}

	preview, err := catalog.GetPreview(s.DB().Handle(), img.ID)
	if err != nil {
		t.Fatalf("failed to read preview: %v", err)
	}
	decoded, err := imaging.Decode(bytes.NewReader(preview))
	if err != nil {
		t.Fatalf("preview is not a valid image: %v", err)
	}
	// Source is smaller than the preview cap, so dimensions are unchanged
	if decoded.Bounds().Dx() != 800 || decoded.Bounds().Dy() != 400 {
		t.Errorf("preview is %dx%d, want 800x400",
			decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
}

func TestRenderPreviewCapsLongEdge(t *testing.T) {
	src := imaging.New(4000, 1000, letterboxColor)

	blob, err := RenderPreview(src)
	if err != nil {
		t.Fatalf("failed to render preview: %v", err)
	}
	decoded, err := imaging.Decode(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("preview is not a valid image: %v", err)
	}
	if decoded.Bounds().Dx() != 2048 {
		t.Errorf("long edge = %d, want 2048", decoded.Bounds().Dx())
	}
	if decoded.Bounds().Dy() != 512 {
		t.Errorf("short edge = %d, want 512", decoded.Bounds().Dy())
	}
}

func TestExtractMetadataWithoutExif(t *testing.T) {
	dir := t.TempDir()
	path := writeTestJPEG(t, dir, "bare.jpg", 100, 100)

	img := &catalog.Image{Filename: "bare.jpg", OriginalPath: path}
	if err := ExtractMetadata(path, img); err != nil {
		t.Fatalf("metadata extraction errored on bare JPEG: %v", err)
	}
	if img.CameraMake != nil || img.CapturedAt != nil {
		t.Error("expected no camera fields from a JPEG without EXIF")
	}
}

func TestRemoveImage(t *testing.T) {
	s := openTestService(t)

	img := &catalog.Image{Filename: "gone.jpg", OriginalPath: "/p/gone.jpg"}
	if err := s.ImportImage(img, []string{"temp"}); err != nil {
		t.Fatalf("failed to import: %v", err)
	}
	if err := s.RemoveImage(img.ID); err != nil {
		t.Fatalf("failed to remove image: %v", err)
	}

	got, err := catalog.GetImage(s.DB().Handle(), img.ID)
	if err != nil {
		t.Fatalf("failed to get image: %v", err)
	}
	if got != nil {
		t.Error("image still present after remove")
	}

	if err := s.RemoveImage(img.ID); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestLoadImageDetails(t *testing.T) {
	svc := openTestService(t)

	img := &catalog.Image{
		Filename:     "DSCF3001.RAF",
		OriginalPath: "/photos/details/DSCF3001.RAF",
		FileHash:     strp("hash-details"),
	}
	if err := svc.ImportImage(img, []string{"iceland", "glacier"}); err != nil {
		t.Fatalf("failed to import: %v", err)
	}

	exposure := 0.7
	if err := svc.ApplyEdits(&catalog.Edit{ImageID: img.ID, Exposure: &exposure}); err != nil {
		t.Fatalf("failed to apply edits: %v", err)
	}

	d, err := svc.LoadImageDetails(img.ID)
	if err != nil {
		t.Fatalf("failed to load details: %v", err)
	}
	if d.Image.OriginalPath != img.OriginalPath {
		t.Errorf("path = %q", d.Image.OriginalPath)
	}
	if len(d.Keywords) != 2 {
		t.Errorf("keywords = %v", d.Keywords)
	}
	if d.Edit == nil || d.Edit.Exposure == nil || *d.Edit.Exposure != 0.7 {
		t.Errorf("edit = %+v", d.Edit)
	}

	if _, err := svc.LoadImageDetails(img.ID + 99); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
