package filequeue

import (
	"errors"
	"fmt"

	"github.com/aalhour/filequeue/internal/compression"
	"github.com/aalhour/filequeue/internal/errs"
	"github.com/aalhour/filequeue/internal/fsx"
	"github.com/aalhour/filequeue/internal/lock"
	"github.com/aalhour/filequeue/internal/logging"
	"github.com/aalhour/filequeue/internal/part"
	"github.com/aalhour/filequeue/internal/record"
	"github.com/aalhour/filequeue/internal/testutil"
)

// Queue is the append/rotate side of a named stream: the producer's
// handle. A Queue owns at most one ReadWrite handle at a time, enforced
// by a PID lock; any number of Read handles (including the ones each
// Consumer opens on itself) may coexist.
//
// Reference: aalhour/rockyardkv db/db.go's DB as the top-level owning
// handle wired to its wal.Writer — this plays the analogous role for the
// queue's own append path, generalized from a keyed WAL to a queue of
// framed records and from block fragmentation to whole-record rotation.
type Queue struct {
	baseDir string
	name    string
	mode    Mode
	opts    Options
	logger  logging.Logger

	lk *lock.Lock

	currentPartID int
	countPushed   uint32
	rightEdge     uint64
	dataFile      *part.DataFile

	ready bool
}

// Open opens (or, in ReadWrite mode, creates) the queue named name under
// baseDir. In ReadWrite mode this acquires the queue's exclusion lock,
// failing with ErrAlreadyOpen if a live process already holds it, and
// opens the highest-numbered part for append, creating part 0 if the
// queue is brand new.
func Open(baseDir, name string, mode Mode, opts Options) (*Queue, error) {
	q := &Queue{
		baseDir: baseDir,
		name:    name,
		mode:    mode,
		opts:    opts,
		logger:  opts.logger(),
		ready:   true,
	}

	if mode != ReadWrite {
		return q, nil
	}

	lk, err := lock.Acquire(fsx.QueueLockPath(baseDir, name))
	if err != nil {
		if errors.Is(err, lock.ErrHeldByLiveProcess) {
			return nil, ErrAlreadyOpen
		}
		return nil, fmt.Errorf("%w: %v", ErrFailOpen, err)
	}
	q.lk = lk

	id, found, err := fsx.MaxPartID(baseDir, name)
	if err != nil {
		_ = lk.Release()
		return nil, fmt.Errorf("%w: %v", ErrFailOpen, err)
	}
	if !found {
		id = 0
	}

	df, err := part.CreateOrOpenForAppend(baseDir, name, id)
	if err != nil {
		_ = lk.Release()
		return nil, err
	}
	q.dataFile = df
	q.currentPartID = id

	info, err := part.ReadInfo(fsx.PartInfoPath(baseDir, name, id))
	switch {
	case errors.Is(err, errs.NotFound):
		info = part.Info{Name: name, ID: id, CountPushed: 0, RightEdge: 0}
		if err := part.WriteInfo(fsx.PartInfoPath(baseDir, name, id), info); err != nil {
			_ = df.Close()
			_ = lk.Release()
			return nil, fmt.Errorf("%w: %v", ErrFailWrite, err)
		}
	case err != nil:
		_ = df.Close()
		_ = lk.Release()
		return nil, err
	}
	q.countPushed = info.CountPushed
	q.rightEdge = info.RightEdge

	if err := part.WriteInfo(fsx.QueueInfoPath(baseDir, name), info); err != nil {
		_ = df.Close()
		_ = lk.Release()
		return nil, fmt.Errorf("%w: %v", ErrFailWrite, err)
	}

	q.logger.Infof("%sopened queue %q at part %d (count_pushed=%d, right_edge=%d)",
		logging.NSWriter, name, id, q.countPushed, q.rightEdge)

	return q, nil
}

// GetInfoQueue re-reads the queue-level info file fresh from disk. It is
// how a Consumer learns the writer has advanced after observing
// count_popped == count_pushed on its current part — per spec.md §5, the
// writer's push only establishes a happens-before for a consumer after
// this re-read.
func (q *Queue) GetInfoQueue() (part.Info, error) {
	return part.ReadInfo(fsx.QueueInfoPath(q.baseDir, q.name))
}

// GetInfoOfPart loads a specific part's info. If createIfMissing is true
// and the part is absent, an empty info is created and persisted for it.
// Every caller in this package passes false; rotate writes the new part's
// info file directly.
func (q *Queue) GetInfoOfPart(id int, createIfMissing bool) (part.Info, error) {
	path := fsx.PartInfoPath(q.baseDir, q.name, id)
	info, err := part.ReadInfo(path)
	if errors.Is(err, errs.NotFound) && createIfMissing {
		info = part.Info{Name: q.name, ID: id, CountPushed: 0, RightEdge: 0}
		if werr := part.WriteInfo(path, info); werr != nil {
			return part.Info{}, fmt.Errorf("%w: %v", ErrFailWrite, werr)
		}
		return info, nil
	}
	return info, err
}

// Push appends one record to the queue's active part, then rotates to a
// new part if the post-push part has reached the configured count or byte
// ceiling. Push fails with ErrNotReady if the queue was opened in
// Read mode or a prior operation already flipped the handle to not-ready.
func (q *Queue) Push(payload []byte, msgType byte) error {
	return q.push(payload, msgType)
}

// PushBatch appends payloads in order, sharing compression codec and
// message kind, and rewrites the queue-info file once after the whole
// batch rather than after every record (each part's own info file is
// still rewritten after every record). If an append fails partway
// through, records already appended remain durable — PushBatch does not
// roll them back — and the error reports how many succeeded via the
// wrapped count in the returned error message.
func (q *Queue) PushBatch(payloads [][]byte, msgType byte) error {
	if q.mode != ReadWrite {
		return ErrNotReady
	}
	if !q.ready {
		return ErrNotReady
	}

	for i, payload := range payloads {
		if err := q.appendOne(payload, msgType); err != nil {
			return fmt.Errorf("push batch: %d of %d records appended before failure: %w", i, len(payloads), err)
		}
		if err := q.maybeRotate(); err != nil {
			return fmt.Errorf("push batch: %d of %d records appended before failure: %w", i+1, len(payloads), err)
		}
	}
	return q.writeQueueInfo()
}

func (q *Queue) push(payload []byte, msgType byte) error {
	if q.mode != ReadWrite {
		return ErrNotReady
	}
	if !q.ready {
		return ErrNotReady
	}

	if err := q.appendOne(payload, msgType); err != nil {
		return err
	}
	if err := q.maybeRotate(); err != nil {
		return err
	}
	return q.writeQueueInfo()
}

func (q *Queue) appendOne(payload []byte, msgType byte) error {
	startPos := q.rightEdge
	nextCount := q.countPushed + 1

	codec := compression.Codec(msgType >> 4)
	onDisk, err := compression.Compress(codec, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailWrite, err)
	}

	buf, err := record.Encode(msgType, startPos, nextCount, onDisk)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailWrite, err)
	}

	if _, err := q.dataFile.Append(buf); err != nil {
		q.ready = false
		return err
	}

	q.countPushed = nextCount
	q.rightEdge += uint64(len(buf))

	if err := part.WriteInfo(fsx.PartInfoPath(q.baseDir, q.name, q.currentPartID),
		part.Info{Name: q.name, ID: q.currentPartID, CountPushed: q.countPushed, RightEdge: q.rightEdge}); err != nil {
		q.ready = false
		return fmt.Errorf("%w: %v", ErrFailWrite, err)
	}
	return nil
}

func (q *Queue) maybeRotate() error {
	exceedsCount := q.opts.MaxRecordsPerPart > 0 && q.countPushed >= q.opts.MaxRecordsPerPart
	exceedsBytes := q.opts.MaxPartBytes > 0 && q.rightEdge >= q.opts.MaxPartBytes
	if !exceedsCount && !exceedsBytes {
		return nil
	}
	return q.rotate()
}

// rotate creates part currentPartID+1 and makes it the active part.
// Per spec.md invariant 6, the queue-info file is rewritten only after
// the new part exists and is durable — writeQueueInfo is always called
// by the caller (push/PushBatch) after rotate returns, never before.
func (q *Queue) rotate() error {
	testutil.MaybeKill(testutil.KPRotateStart0)

	if err := q.dataFile.Sync(); err != nil {
		q.ready = false
		return err
	}

	newID := q.currentPartID + 1
	testutil.MaybeKill(testutil.KPRotateNewPart0)

	newDataFile, err := part.CreateOrOpenForAppend(q.baseDir, q.name, newID)
	if err != nil {
		q.ready = false
		return err
	}

	newInfo := part.Info{Name: q.name, ID: newID, CountPushed: 0, RightEdge: 0}
	if err := part.WriteInfo(fsx.PartInfoPath(q.baseDir, q.name, newID), newInfo); err != nil {
		_ = newDataFile.Close()
		q.ready = false
		return fmt.Errorf("%w: %v", ErrFailWrite, err)
	}

	if err := q.dataFile.Close(); err != nil {
		q.logger.Warnf("%sfailed to close part %d data file after rotation: %v", logging.NSWriter, q.currentPartID, err)
	}

	q.logger.Infof("%srotated queue %q from part %d to part %d", logging.NSWriter, q.name, q.currentPartID, newID)

	q.currentPartID = newID
	q.countPushed = 0
	q.rightEdge = 0
	q.dataFile = newDataFile
	return nil
}

func (q *Queue) writeQueueInfo() error {
	testutil.MaybeKill(testutil.KPQueueInfoWrite0)
	info := part.Info{Name: q.name, ID: q.currentPartID, CountPushed: q.countPushed, RightEdge: q.rightEdge}
	if err := part.WriteInfo(fsx.QueueInfoPath(q.baseDir, q.name), info); err != nil {
		q.ready = false
		return fmt.Errorf("%w: %v", ErrFailWrite, err)
	}
	testutil.MaybeKill(testutil.KPQueueInfoWrite1)
	return nil
}

// MsgType packs a logical kind and compression codec into the byte stored
// in a record's header, for callers that want payload compression; pass
// the result as Push's msgType argument.
func MsgType(kind compression.Kind, codec compression.Codec) byte {
	return record.NewMsgType(kind, codec)
}

// Close releases the queue's exclusion lock (ReadWrite mode only) and
// closes its open part data file. Read-mode queues hold neither and Close
// is a no-op for them.
func (q *Queue) Close() error {
	var firstErr error
	if q.dataFile != nil {
		if err := q.dataFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if q.lk != nil {
		if err := q.lk.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
