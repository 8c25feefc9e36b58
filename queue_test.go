package filequeue

import (
	"errors"
	"testing"

	"github.com/aalhour/filequeue/internal/compression"
)

func TestOpenPushGetInfoRoundTrip(t *testing.T) {
	dir := t.TempDir()

	q, err := Open(dir, "orders", ReadWrite, DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer q.Close()

	if err := q.Push([]byte("hello"), 0); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := q.Push([]byte("world"), 0); err != nil {
		t.Fatalf("Push: %v", err)
	}

	info, err := q.GetInfoQueue()
	if err != nil {
		t.Fatalf("GetInfoQueue: %v", err)
	}
	if info.CountPushed != 2 {
		t.Fatalf("CountPushed = %d, want 2", info.CountPushed)
	}
}

func TestPushRejectedInReadMode(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir, "orders", ReadWrite, DefaultOptions())
	if err != nil {
		t.Fatalf("Open writer: %v", err)
	}
	if err := w.Push([]byte("seed"), 0); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close writer: %v", err)
	}

	r, err := Open(dir, "orders", Read, DefaultOptions())
	if err != nil {
		t.Fatalf("Open reader: %v", err)
	}
	defer r.Close()

	if err := r.Push([]byte("nope"), 0); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Push in Read mode = %v, want ErrNotReady", err)
	}
}

func TestSecondReadWriteOpenRejected(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir, "orders", ReadWrite, DefaultOptions())
	if err != nil {
		t.Fatalf("Open first: %v", err)
	}
	defer first.Close()

	_, err = Open(dir, "orders", ReadWrite, DefaultOptions())
	if !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("second Open = %v, want ErrAlreadyOpen", err)
	}
}

func TestReopenAfterCloseSucceeds(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir, "orders", ReadWrite, DefaultOptions())
	if err != nil {
		t.Fatalf("Open first: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(dir, "orders", ReadWrite, DefaultOptions())
	if err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
	defer second.Close()
}

func TestRotationOnCountCeiling(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.MaxRecordsPerPart = 2

	q, err := Open(dir, "orders", ReadWrite, opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer q.Close()

	for i := 0; i < 5; i++ {
		if err := q.Push([]byte("x"), 0); err != nil {
			t.Fatalf("Push %d: %v", i, err)
		}
	}

	info, err := q.GetInfoQueue()
	if err != nil {
		t.Fatalf("GetInfoQueue: %v", err)
	}
	// 5 records at a ceiling of 2 per part rotates after every 2nd push:
	// parts 0,1 fill to 2 each, part 2 holds the remaining 1.
	if info.ID != 2 {
		t.Fatalf("current part = %d, want 2", info.ID)
	}
	if info.CountPushed != 1 {
		t.Fatalf("CountPushed in current part = %d, want 1", info.CountPushed)
	}
}

func TestPushBatchAppendsAllInOrder(t *testing.T) {
	dir := t.TempDir()

	q, err := Open(dir, "orders", ReadWrite, DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer q.Close()

	payloads := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	if err := q.PushBatch(payloads, 0); err != nil {
		t.Fatalf("PushBatch: %v", err)
	}

	info, err := q.GetInfoQueue()
	if err != nil {
		t.Fatalf("GetInfoQueue: %v", err)
	}
	if info.CountPushed != 3 {
		t.Fatalf("CountPushed = %d, want 3", info.CountPushed)
	}
}

func TestPushWithCompressionRoundTripsThroughConsumer(t *testing.T) {
	dir := t.TempDir()

	q, err := Open(dir, "orders", ReadWrite, DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	payload := []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility, " +
		"the quick brown fox jumps over the lazy dog, repeated for compressibility")
	msgType := MsgType(compression.KindString, compression.Zstd)
	if err := q.Push(payload, msgType); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c, err := OpenConsumer(dir, "orders", "reader1", ReadWrite, DefaultOptions())
	if err != nil {
		t.Fatalf("OpenConsumer: %v", err)
	}
	defer c.Close()

	ok, err := c.PopHeader()
	if err != nil {
		t.Fatalf("PopHeader: %v", err)
	}
	if !ok {
		t.Fatal("PopHeader = false, want true")
	}

	got, err := c.PopBody()
	if err != nil {
		t.Fatalf("PopBody: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("PopBody = %q, want %q", got, payload)
	}
}
