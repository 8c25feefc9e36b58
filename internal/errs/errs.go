// Package errs defines the closed error taxonomy shared by every component
// of the queue (record, part, writer, consumer, lock). It exists as its
// own package, separate from the root filequeue package, purely to avoid
// an import cycle: internal packages need to return these sentinels, and
// the root package re-exports them under public names for the embedding
// host contract.
//
// Reference: aalhour/rockyardkv/db/db.go's package-scoped var block of
// plain errors.New sentinels, checked by callers with errors.Is — this
// module has no custom error-wrapping framework beyond that.
package errs

import "errors"

var (
	// NotReady is a terminal classification for a handle: once set, every
	// subsequent public operation on that handle returns NotReady.
	NotReady = errors.New("filequeue: handle is not ready")

	// AlreadyOpen is returned when a second live process attempts to open
	// a writer or ReadWrite consumer already held by a live process.
	AlreadyOpen = errors.New("filequeue: already open by a live process")

	// FailOpen is returned when opening a file (data, info, or lock) fails
	// for a reason other than NotFound.
	FailOpen = errors.New("filequeue: failed to open file")

	// FailRead is returned on a short or failed read that is not
	// attributable to a race with the writer at the tail.
	FailRead = errors.New("filequeue: failed to read")

	// FailWrite is returned when a write (append, info rewrite, or cursor
	// commit) fails.
	FailWrite = errors.New("filequeue: failed to write")

	// FailReadTailMessage is returned when a body read comes up short, or
	// fails CRC, exactly at the point where count_popped == count_pushed:
	// a transient race with the writer, not corruption.
	FailReadTailMessage = errors.New("filequeue: short read at tail (transient)")

	// NotReadHeader is returned on a short header read that is not at the
	// tail; callers sync+seek and retry once before treating it as fatal.
	NotReadHeader = errors.New("filequeue: could not read header")

	// InvalidHeader names the condition of a header whose magic marker
	// does not match, or whose start_pos is out of range; the consumer
	// handles it with marker-scan recovery rather than returning it.
	InvalidHeader = errors.New("filequeue: invalid header")

	// InvalidChecksum is returned when a record's or an info line's CRC
	// does not match its recomputed value.
	InvalidChecksum = errors.New("filequeue: invalid checksum")

	// NeedResync names the condition of a header whose count_pushed
	// exceeds the consumer's last-known count_pushed: the consumer's view
	// is stale, so it re-reads the part info and reports "nothing yet"
	// rather than returning this error.
	NeedResync = errors.New("filequeue: needs resync with queue-info")

	// NotFound is returned when a requested part's info file is absent.
	NotFound = errors.New("filequeue: not found")
)
