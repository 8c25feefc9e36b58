package filequeue

import "github.com/aalhour/filequeue/internal/errs"

// The closed error taxonomy returned by Queue and Consumer operations.
// Every sentinel here is an alias of the shared internal/errs value, so
// internal packages (record, part, lock) can return these same errors
// without importing this package — and errors.Is works identically
// whether the caller compares against the filequeue or internal/errs
// value.
var (
	// ErrNotReady is a terminal classification for a handle: once set,
	// every subsequent operation on that handle returns ErrNotReady.
	ErrNotReady = errs.NotReady

	// ErrAlreadyOpen is returned when a second live process attempts to
	// open a writer or ReadWrite consumer already held by a live process.
	ErrAlreadyOpen = errs.AlreadyOpen

	// ErrFailOpen is returned when opening a file fails.
	ErrFailOpen = errs.FailOpen

	// ErrFailRead is returned on a read failure not attributable to a
	// race with the writer at the tail.
	ErrFailRead = errs.FailRead

	// ErrFailWrite is returned when an append, info rewrite, or cursor
	// commit fails.
	ErrFailWrite = errs.FailWrite

	// ErrFailReadTailMessage is returned on a transient short/bad read
	// exactly at the tail of what's been pushed so far.
	ErrFailReadTailMessage = errs.FailReadTailMessage

	// ErrNotReadHeader is returned on a short header read away from the
	// tail, after the sync+retry has also failed.
	ErrNotReadHeader = errs.NotReadHeader

	// ErrInvalidHeader names the condition of a header whose magic marker
	// or start_pos is invalid. PopHeader handles it internally with
	// marker-scan recovery and returns false, not this error, when no
	// marker is found.
	ErrInvalidHeader = errs.InvalidHeader

	// ErrInvalidChecksum is returned when a record's or info line's CRC
	// does not match.
	ErrInvalidChecksum = errs.InvalidChecksum

	// ErrNeedResync names the condition of a header whose count_pushed
	// outruns the consumer's last-known part info. PopHeader handles it
	// internally by re-reading the part info and returning false, not
	// this error.
	ErrNeedResync = errs.NeedResync

	// ErrNotFound is returned when a requested part's info file is absent.
	ErrNotFound = errs.NotFound
)
