package part

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aalhour/filequeue/internal/errs"
)

func TestInfoEncodeParseRoundTrip(t *testing.T) {
	info := Info{Name: "orders", ID: 3, CountPushed: 42, RightEdge: 9001}
	line := info.Encode()

	got, err := ParseInfo(line)
	if err != nil {
		t.Fatalf("ParseInfo: %v", err)
	}
	if got != info {
		t.Fatalf("got %+v, want %+v", got, info)
	}
}

func TestParseInfoDetectsCorruption(t *testing.T) {
	info := Info{Name: "orders", ID: 3, CountPushed: 42, RightEdge: 9001}
	line := info.Encode()
	corrupted := bytes.Replace(line, []byte("orders"), []byte("ordera"), 1)

	if _, err := ParseInfo(corrupted); !errors.Is(err, errs.InvalidChecksum) {
		t.Fatalf("ParseInfo error = %v, want errs.InvalidChecksum", err)
	}
}

func TestWriteReadInfoRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders_info_queue_0")
	info := Info{Name: "orders", ID: 0, CountPushed: 5, RightEdge: 512}

	if err := WriteInfo(path, info); err != nil {
		t.Fatalf("WriteInfo: %v", err)
	}
	got, err := ReadInfo(path)
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	if got != info {
		t.Fatalf("got %+v, want %+v", got, info)
	}
}

func TestReadInfoMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadInfo(filepath.Join(dir, "missing"))
	if !errors.Is(err, errs.NotFound) {
		t.Fatalf("err = %v, want errs.NotFound", err)
	}
}

func TestDataFileAppendAndRead(t *testing.T) {
	dir := t.TempDir()

	w, err := CreateOrOpenForAppend(dir, "orders", 0)
	if err != nil {
		t.Fatalf("CreateOrOpenForAppend: %v", err)
	}
	if _, err := w.Append([]byte("hello ")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := w.Append([]byte("world")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	size, err := w.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != int64(len("hello world")) {
		t.Fatalf("Size = %d, want %d", size, len("hello world"))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenForRead(dir, "orders", 0)
	if err != nil {
		t.Fatalf("OpenForRead: %v", err)
	}
	defer r.Close()

	buf := make([]byte, 5)
	if _, err := r.ReadAt(buf, 6); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf) != "world" {
		t.Fatalf("ReadAt = %q, want %q", buf, "world")
	}
}

func TestOpenForReadMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenForRead(dir, "orders", 99)
	if !errors.Is(err, errs.NotFound) {
		t.Fatalf("err = %v, want errs.NotFound", err)
	}
}

func TestDataFilePathHelpersStable(t *testing.T) {
	dir := t.TempDir()
	w, err := CreateOrOpenForAppend(dir, "orders", 7)
	if err != nil {
		t.Fatalf("CreateOrOpenForAppend: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(w.Path()); err != nil {
		t.Fatalf("data file not created at expected path: %v", err)
	}
}
