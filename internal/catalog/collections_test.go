package catalog

import (
	"testing"
)

func TestCollectionAppendOrder(t *testing.T) {
	c := openTestCatalog(t)
	first := insertTestImage(t, c, "/photos/test/DSCF3001.RAF")
	second := insertTestImage(t, c, "/photos/test/DSCF3002.RAF")
	third := insertTestImage(t, c, "/photos/test/DSCF3003.RAF")

	col := &Collection{Name: "portfolio"}
	if err := InsertCollection(c.Handle(), col); err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}

	for _, img := range []*Image{first, second, third} {
		if err := AddImageToCollection(c.Handle(), col.ID, img.ID); err != nil {
			t.Fatalf("failed to add image %d: %v", img.ID, err)
		}
	}

	members, err := ListCollectionImages(c.Handle(), col.ID)
	if err != nil {
		t.Fatalf("failed to list collection: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	for i, want := range []int64{first.ID, second.ID, third.ID} {
		if members[i].ID != want {
			t.Errorf("position %d = image %d, want %d", i, members[i].ID, want)
		}
	}

	// Re-adding an existing member moves it to the end
	if err := AddImageToCollection(c.Handle(), col.ID, first.ID); err != nil {
		t.Fatalf("failed to re-add image: %v", err)
	}
	members, err = ListCollectionImages(c.Handle(), col.ID)
	if err != nil {
		t.Fatalf("failed to list collection: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("re-add duplicated membership: %d members", len(members))
	}
	if members[2].ID != first.ID {
		t.Errorf("re-added image at position %d, want last", indexOf(members, first.ID))
	}
}

func indexOf(images []*Image, id int64) int {
	for i, img := range images {
		if img.ID == id {
			return i
		}
	}
	return -1
}

func TestRemoveImageKeepsOrder(t *testing.T) {
	c := openTestCatalog(t)
	a := insertTestImage(t, c, "/photos/test/DSCF3004.RAF")
	b := insertTestImage(t, c, "/photos/test/DSCF3005.RAF")
	d := insertTestImage(t, c, "/photos/test/DSCF3006.RAF")

	col := &Collection{Name: "picks"}
	if err := InsertCollection(c.Handle(), col); err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}
	for _, img := range []*Image{a, b, d} {
		if err := AddImageToCollection(c.Handle(), col.ID, img.ID); err != nil {
			t.Fatalf("failed to add image: %v", err)
		}
	}

	if err := RemoveImageFromCollection(c.Handle(), col.ID, b.ID); err != nil {
		t.Fatalf("failed to remove image: %v", err)
	}

	members, err := ListCollectionImages(c.Handle(), col.ID)
	if err != nil {
		t.Fatalf("failed to list collection: %v", err)
	}
	if len(members) != 2 || members[0].ID != a.ID || members[1].ID != d.ID {
		t.Errorf("members after remove = %v", memberIDs(members))
	}

	// New appends land after the gap, never inside it
	if err := AddImageToCollection(c.Handle(), col.ID, b.ID); err != nil {
		t.Fatalf("failed to re-add image: %v", err)
	}
	members, err = ListCollectionImages(c.Handle(), col.ID)
	if err != nil {
		t.Fatalf("failed to list collection: %v", err)
	}
	if members[2].ID != b.ID {
		t.Errorf("re-added image not appended at end: %v", memberIDs(members))
	}
}

func memberIDs(images []*Image) []int64 {
	ids := make([]int64, 0, len(images))
	for _, img := range images {
		ids = append(ids, img.ID)
	}
	return ids
}

func TestNestedCollections(t *testing.T) {
	c := openTestCatalog(t)

	parent := &Collection{Name: "2026"}
	if err := InsertCollection(c.Handle(), parent); err != nil {
		t.Fatalf("failed to create parent: %v", err)
	}
	child := &Collection{Name: "iceland", ParentID: &parent.ID}
	if err := InsertCollection(c.Handle(), child); err != nil {
		t.Fatalf("failed to create child: %v", err)
	}

	if err := DeleteCollection(c.Handle(), parent.ID); err != nil {
		t.Fatalf("failed to delete parent: %v", err)
	}

	got, err := GetCollection(c.Handle(), child.ID)
	if err != nil {
		t.Fatalf("failed to get child: %v", err)
	}
	if got == nil {
		t.Fatal("child deleted with parent")
	}
	if got.ParentID != nil {
		t.Errorf("child parent = %v, want nil after parent delete", *got.ParentID)
	}
}

func TestRenameCollection(t *testing.T) {
	c := openTestCatalog(t)

	col := &Collection{Name: "untitled"}
	if err := InsertCollection(c.Handle(), col); err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}
	if err := RenameCollection(c.Handle(), col.ID, "best of 2026"); err != nil {
		t.Fatalf("failed to rename: %v", err)
	}

	got, err := GetCollection(c.Handle(), col.ID)
	if err != nil {
		t.Fatalf("failed to get collection: %v", err)
	}
	if got.Name != "best of 2026" {
		t.Errorf("name = %q, want best of 2026", got.Name)
	}
}
