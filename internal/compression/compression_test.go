package compression

import (
	"bytes"
	"testing"
)

func TestNoneRoundTrip(t *testing.T) {
	data := []byte("hello world, this is test data for no compression")

	compressed, err := Compress(None, data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if !bytes.Equal(compressed, data) {
		t.Error("None should return data unchanged")
	}

	decompressed, err := Decompress(None, compressed)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Error("decompressed data should match original")
	}
}

func TestSnappyRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("hello world "), 100)

	compressed, err := Compress(Snappy, data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if len(compressed) >= len(data) {
		t.Logf("compressed size %d >= original %d (can happen on small/random data)", len(compressed), len(data))
	}

	decompressed, err := Decompress(Snappy, compressed)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Error("decompressed data should match original")
	}
}

func TestLZ4RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("lz4 round trip test "), 200)

	compressed, err := Compress(LZ4, data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	decompressed, err := Decompress(LZ4, compressed)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Error("decompressed data should match original")
	}
}

func TestZstdRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("zstd round trip test "), 300)

	compressed, err := Compress(Zstd, data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	decompressed, err := Decompress(Zstd, compressed)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Error("decompressed data should match original")
	}
}

func TestUnknownCodecRejected(t *testing.T) {
	if _, err := Compress(Codec(0x7), []byte("x")); err == nil {
		t.Error("expected error for unknown codec")
	}
	if _, err := Decompress(Codec(0x7), []byte("x")); err == nil {
		t.Error("expected error for unknown codec")
	}
}

func TestEmptyPayload(t *testing.T) {
	for _, c := range []Codec{None, Snappy, LZ4, Zstd} {
		compressed, err := Compress(c, nil)
		if err != nil {
			t.Fatalf("%s: Compress(nil) failed: %v", c, err)
		}
		decompressed, err := Decompress(c, compressed)
		if err != nil {
			t.Fatalf("%s: Decompress failed: %v", c, err)
		}
		if len(decompressed) != 0 {
			t.Errorf("%s: expected empty result, got %d bytes", c, len(decompressed))
		}
	}
}
