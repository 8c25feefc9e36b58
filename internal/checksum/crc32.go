// Package checksum provides the integrity primitives used by the record
// codec and the part auditor.
//
// Two independent checksum schemes are used for two independent purposes:
//   - Value/Extend wrap the standard library's CRC-32 (IEEE polynomial,
//     unmasked) for per-record and per-info-line integrity, matching the
//     wire format's invariant that crc covers the header with the crc
//     field itself zeroed, followed by the payload.
//   - PartDigest computes a whole-file xxh3-128 digest for the read-only
//     audit tool, independent of and in addition to the per-record CRCs.
//
// Reference: aalhour/rockyardkv internal/checksum (crc32c.go, xxh3.go),
// adapted from the masked Castagnoli scheme used for RocksDB's WAL/SST
// blocks to the unmasked IEEE scheme this queue's wire format requires.
// The teacher's xxh3.go hand-rolls the XXH3 algorithm from scratch even
// though zeebo/xxh3 sits in its own go.mod; this package instead calls
// the real library directly for the audit digest.
package checksum

import (
	"hash/crc32"
)

// ieeeTable is the standard CRC-32 IEEE polynomial table.
var ieeeTable = crc32.MakeTable(crc32.IEEE)

// Value computes the CRC-32 IEEE checksum of data.
func Value(data []byte) uint32 {
	return crc32.Checksum(data, ieeeTable)
}

// Extend extends an existing CRC-32 IEEE checksum with more data, as if
// the two byte ranges had been checksummed together in one call.
func Extend(crc uint32, data []byte) uint32 {
	return crc32.Update(crc, ieeeTable, data)
}
