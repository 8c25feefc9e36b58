// Package part implements the segment ("part") file pair a queue rotates
// through: an append-only binary data file and its textual info sidecar.
//
// Reference: aalhour/rockyardkv internal/options (file.go) for the general
// shape of a small line-oriented text-file codec with atomic rewrite, and
// internal/manifest/version_edit.go for the idea of a sidecar file whose
// job is to describe what's durable in the companion data file — this
// module's info file plays the MANIFEST's role in miniature, one line
// instead of a versioned edit log, since a part never needs to replay a
// history of changes, only its current count_pushed/right_edge totals.
package part

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aalhour/filequeue/internal/checksum"
	"github.com/aalhour/filequeue/internal/errs"
	"github.com/aalhour/filequeue/internal/fsx"
)

// Info is the parsed content of a part's info sidecar file:
// "name;id;count_pushed;right_edge;crc\n".
type Info struct {
	Name        string
	ID          int
	CountPushed uint32
	RightEdge   uint64
}

// fields renders the first four semicolon-delimited fields, the portion
// the trailing CRC is computed over.
func (i Info) fields() string {
	return fmt.Sprintf("%s;%d;%d;%d", i.Name, i.ID, i.CountPushed, i.RightEdge)
}

// Encode renders the full info line, including its trailing CRC-32 field
// and terminating newline.
func (i Info) Encode() []byte {
	fields := i.fields()
	crc := checksum.Value([]byte(fields))
	return []byte(fmt.Sprintf("%s;%d\n", fields, crc))
}

// WriteInfo atomically (over)writes a part's info file.
func WriteInfo(path string, info Info) error {
	return fsx.WriteFileAtomic(path, info.Encode())
}

// ReadInfo reads and parses a part's info file, verifying its trailing
// CRC-32 field against the first four fields. A missing file returns
// errs.NotFound; a present file whose CRC does not match returns
// errs.InvalidChecksum.
func ReadInfo(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, errs.NotFound
		}
		return Info{}, fmt.Errorf("%w: %v", errs.FailOpen, err)
	}
	return ParseInfo(data)
}

// ParseInfo parses and CRC-verifies one info line (with or without a
// trailing newline).
func ParseInfo(data []byte) (Info, error) {
	line := strings.TrimRight(string(data), "\n")
	parts := strings.Split(line, ";")
	if len(parts) != 5 {
		return Info{}, fmt.Errorf("%w: malformed info line %q", errs.InvalidChecksum, line)
	}

	id, err1 := strconv.Atoi(parts[1])
	countPushed, err2 := strconv.ParseUint(parts[2], 10, 32)
	rightEdge, err3 := strconv.ParseUint(parts[3], 10, 64)
	storedCRC, err4 := strconv.ParseUint(parts[4], 10, 32)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return Info{}, fmt.Errorf("%w: malformed info line %q", errs.InvalidChecksum, line)
	}

	info := Info{
		Name:        parts[0],
		ID:          id,
		CountPushed: uint32(countPushed),
		RightEdge:   rightEdge,
	}

	gotCRC := checksum.Value([]byte(info.fields()))
	if gotCRC != uint32(storedCRC) {
		return Info{}, errs.InvalidChecksum
	}
	return info, nil
}
