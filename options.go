package filequeue

import "github.com/aalhour/filequeue/internal/logging"

// Mode selects whether a Queue or Consumer may append/commit, or may only
// observe what's already on disk.
type Mode int

const (
	// Read opens a handle without taking a lock. A Queue opened in Read
	// mode rejects Push and PushBatch with ErrNotReady. A Consumer opened
	// in Read mode still writes its cursor file on Commit, on Next(true)
	// and when it advances to a new part.
	Read Mode = iota

	// ReadWrite opens a handle that takes an exclusion lock and may
	// append (Queue) or commit its cursor (Consumer).
	ReadWrite
)

// Options configures rotation policy and logging for a Queue. The zero
// value is not valid; use DefaultOptions and override fields as needed.
type Options struct {
	// MaxRecordsPerPart is the count-based rotation ceiling: a part rolls
	// over once its count_pushed would exceed this value. Resolves this
	// module's rotation-policy open question in favor of both a count and
	// a size ceiling, whichever trips first (see MaxPartBytes).
	MaxRecordsPerPart uint32

	// MaxPartBytes is the size-based rotation ceiling: a part rolls over
	// after the push that brings its right_edge to or past this value, so
	// the last record of a part may end beyond it.
	MaxPartBytes uint64

	// Logger receives structured log messages. Defaults to a WARN-level
	// logger writing to stderr if nil or a typed-nil (see
	// internal/logging.OrDefault).
	Logger logging.Logger
}

// DefaultOptions returns the queue's default rotation policy: 10,000
// records or 64 MiB per part, whichever comes first.
func DefaultOptions() Options {
	return Options{
		MaxRecordsPerPart: 10_000,
		MaxPartBytes:      64 << 20,
	}
}

func (o Options) logger() logging.Logger {
	return logging.OrDefault(o.Logger)
}
