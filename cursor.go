package filequeue

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aalhour/filequeue/internal/errs"
	"github.com/aalhour/filequeue/internal/fsx"
)

func readFileOrEmpty(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", errs.FailOpen, err)
	}
	return data, nil
}

// cursorState is one consumer's persisted read position, one line in its
// info-pop file: "queue;consumer;pos_record;count_popped;part_id\n".
type cursorState struct {
	Queue       string
	Consumer    string
	PosRecord   uint64
	CountPopped uint64
	PartID      int
}

func (c cursorState) fields() string {
	return fmt.Sprintf("%s;%s;%d;%d;%d", c.Queue, c.Consumer, c.PosRecord, c.CountPopped, c.PartID)
}

// encode renders the cursor line exactly as spec.md §3.1 defines it:
// "<queue_name>;<consumer_name>;<pos_record>;<count_popped>;<part_id>\n",
// five fields, no checksum. Unlike the queue/part info files (see
// internal/part.Info), this sidecar format carries no CRC of its own —
// a conformant peer implementation must be able to read and write it.
func (c cursorState) encode() []byte {
	return []byte(c.fields() + "\n")
}

func writeCursor(baseDir string, c cursorState) error {
	path := fsx.ConsumerInfoPath(baseDir, c.Queue, c.Consumer)
	return fsx.WriteFileAtomic(path, c.encode())
}

// CursorSnapshot is a consumer's persisted read position, as reported by
// ReadConsumerCursor for diagnostic tools that want to inspect a cursor
// without opening a full Consumer handle.
type CursorSnapshot struct {
	PartID      int
	PosRecord   uint64
	CountPopped uint64
}

// ReadConsumerCursor reads a consumer's info-pop file directly, without
// acquiring any lock or opening a Queue handle. found is false if the
// consumer has never committed a cursor.
func ReadConsumerCursor(baseDir, queueName, consumerName string) (snap CursorSnapshot, found bool, err error) {
	cur, found, err := readCursor(baseDir, queueName, consumerName)
	if err != nil || !found {
		return CursorSnapshot{}, found, err
	}
	return CursorSnapshot{PartID: cur.PartID, PosRecord: cur.PosRecord, CountPopped: cur.CountPopped}, true, nil
}

// readCursor parses a consumer's info-pop file. A missing file is not an
// error: the caller bootstraps a fresh cursor at (part 0, offset 0, 0
// popped).
func readCursor(baseDir, queueName, consumerName string) (cursorState, bool, error) {
	path := fsx.ConsumerInfoPath(baseDir, queueName, consumerName)
	data, err := readFileOrEmpty(path)
	if err != nil {
		return cursorState{}, false, err
	}
	if len(data) == 0 {
		return cursorState{}, false, nil
	}

	line := strings.TrimRight(string(data), "\n")
	parts := strings.Split(line, ";")
	if len(parts) != 5 {
		return cursorState{}, false, fmt.Errorf("%w: malformed cursor line %q", errs.FailRead, line)
	}

	posRecord, err1 := strconv.ParseUint(parts[2], 10, 64)
	countPopped, err2 := strconv.ParseUint(parts[3], 10, 64)
	partID, err3 := strconv.Atoi(parts[4])
	if err1 != nil || err2 != nil || err3 != nil {
		return cursorState{}, false, fmt.Errorf("%w: malformed cursor line %q", errs.FailRead, line)
	}

	c := cursorState{
		Queue:       parts[0],
		Consumer:    parts[1],
		PosRecord:   posRecord,
		CountPopped: countPopped,
		PartID:      partID,
	}
	return c, true, nil
}
