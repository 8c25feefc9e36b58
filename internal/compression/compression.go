// Package compression provides the optional payload compression codecs
// selected by a record's msg_type high nibble.
//
// Reference: aalhour/rockyardkv internal/compression (SST block compression),
// adapted from per-block compression to per-payload compression with a
// smaller codec set.
package compression

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Kind identifies the logical shape of a record's payload (opaque string,
// serialized object, ...). It occupies the low nibble of a record's
// msg_type byte and is passed through to the reader uninterpreted.
type Kind uint8

const (
	// KindString is an opaque byte/string payload.
	KindString Kind = 0x0

	// KindObject is a structured (e.g. serialized) payload.
	KindObject Kind = 0x1
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindObject:
		return "Object"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Codec identifies how a record's payload bytes are compressed on disk.
// It occupies the high nibble of a record's msg_type byte.
type Codec uint8

const (
	// None stores the payload uncompressed.
	None Codec = 0x0

	// Snappy compresses the payload with Google Snappy.
	Snappy Codec = 0x1

	// LZ4 compresses the payload with the LZ4 frame format.
	LZ4 Codec = 0x2

	// Zstd compresses the payload with Zstandard.
	Zstd Codec = 0x3
)

// String returns the human-readable name of the codec.
func (c Codec) String() string {
	switch c {
	case None:
		return "None"
	case Snappy:
		return "Snappy"
	case LZ4:
		return "LZ4"
	case Zstd:
		return "Zstd"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// IsKnown reports whether c is one of the codecs this package implements.
func IsKnown(c Codec) bool {
	switch c {
	case None, Snappy, LZ4, Zstd:
		return true
	default:
		return false
	}
}

// Compress compresses data with the given codec.
func Compress(c Codec, data []byte) ([]byte, error) {
	switch c {
	case None:
		return data, nil
	case Snappy:
		return snappy.Encode(nil, data), nil
	case LZ4:
		return compressLZ4(data)
	case Zstd:
		return compressZstd(data)
	default:
		return nil, fmt.Errorf("compression: unsupported codec %s", c)
	}
}

// Decompress decompresses data that was compressed with the given codec.
// The on-disk record header carries only the compressed length (see
// record.Header.MsgLength), so every codec here must be self-describing
// about its own uncompressed size rather than needing it supplied.
func Decompress(c Codec, data []byte) ([]byte, error) {
	switch c {
	case None:
		return data, nil
	case Snappy:
		return snappy.Decode(nil, data)
	case LZ4:
		return decompressLZ4(data)
	case Zstd:
		return decompressZstd(data)
	default:
		return nil, fmt.Errorf("compression: unsupported codec %s", c)
	}
}

// compressLZ4 uses the LZ4 frame format (not the raw block format), which
// self-describes its uncompressed size; the raw block API would require
// storing that size somewhere, and this module's fixed 29-byte header has
// no spare field for it.
func compressLZ4(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 frame write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 frame close: %w", err)
	}
	return buf.Bytes(), nil
}

func compressZstd(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, nil), nil
}

func decompressLZ4(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lz4 frame read: %w", err)
	}
	return out, nil
}

func decompressZstd(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	defer decoder.Close()
	return decoder.DecodeAll(data, nil)
}
