package fsx

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomicReplacesContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "info")

	if err := WriteFileAtomic(path, []byte("first\n")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second\n")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "second\n" {
		t.Fatalf("contents = %q, want %q", got, "second\n")
	}
}

func TestListPartIDsEmptyDir(t *testing.T) {
	dir := t.TempDir()
	ids, err := ListPartIDs(dir, "orders")
	if err != nil {
		t.Fatalf("ListPartIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("ids = %v, want empty", ids)
	}
}

func TestListPartIDsFindsAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"orders_info_queue_2",
		"orders_info_queue_0",
		"orders_info_queue_10",
		"other_info_queue_5",
		"orders_queue_3",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	ids, err := ListPartIDs(dir, "orders")
	if err != nil {
		t.Fatalf("ListPartIDs: %v", err)
	}
	want := []int{0, 2, 10}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestMaxPartIDNoParts(t *testing.T) {
	dir := t.TempDir()
	_, ok, err := MaxPartID(dir, "orders")
	if err != nil {
		t.Fatalf("MaxPartID: %v", err)
	}
	if ok {
		t.Fatal("ok = true for empty dir, want false")
	}
}

func TestMaxPartIDReturnsHighest(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []int{0, 4, 1} {
		path := PartInfoPath(dir, "orders", id)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	id, ok, err := MaxPartID(dir, "orders")
	if err != nil {
		t.Fatalf("MaxPartID: %v", err)
	}
	if !ok || id != 4 {
		t.Fatalf("MaxPartID = (%d, %v), want (4, true)", id, ok)
	}
}
