//go:build crashtest

// Package testutil provides whitebox crash-test hooks for the write path.
//
// A kill point is a named location in production code that calls MaybeKill.
// Setting FILEQUEUE_KILL_POINT (or calling SetKillPoint) to that name makes
// the process exit(0) the next time it passes through that location —
// simulating a crash mid-append, mid-rotate, or mid-commit so recovery
// tests can observe a torn write and exercise the consumer's corruption
// recovery path against it.
//
// Reference: aalhour/rockyardkv internal/testutil's kill point mechanism
// (itself modeled on RocksDB's TEST_KILL_RANDOM), trimmed to the handful
// of kill points this queue's write path actually defines: one per
// internal/part append/sync, queue.go rotate/queue-info write, and
// consumer.go cursor commit.
//
// Build with kill points enabled:
//
//	go build -tags crashtest ./...
package testutil

import (
	"os"
	"sync/atomic"
)

// KillPointEnvVar is the environment variable used to set the kill point
// target at process startup.
const KillPointEnvVar = "FILEQUEUE_KILL_POINT"

var killTarget atomic.Value // stores string

func init() {
	if target := os.Getenv(KillPointEnvVar); target != "" {
		killTarget.Store(target)
	}
}

// SetKillPoint arms the named kill point: the next matching MaybeKill call
// exits the process.
func SetKillPoint(name string) {
	killTarget.Store(name)
}

// ClearKillPoint disarms whatever kill point is currently set.
func ClearKillPoint() {
	killTarget.Store("")
}

// MaybeKill exits the process if name matches the currently armed kill
// point. This is the entry point called from production code.
func MaybeKill(name string) {
	target, _ := killTarget.Load().(string)
	if target != "" && target == name {
		os.Exit(0)
	}
}

// Kill point names, one per call site exercised by this queue's write path.
const (
	KPWriterAppend0   = "Writer.Append:0"   // during record append, before the write returns
	KPWriterSync0     = "Writer.Sync:0"     // before data file sync
	KPWriterSync1     = "Writer.Sync:1"     // after data file sync
	KPQueueInfoWrite0 = "QueueInfo.Write:0" // before queue-info rewrite
	KPQueueInfoWrite1 = "QueueInfo.Write:1" // after queue-info rewrite
	KPRotateStart0    = "Rotate.Start:0"    // at rotation start, before the new part is created
	KPRotateNewPart0  = "Rotate.NewPart:0"  // during new part creation
	KPConsumerCommit0 = "Consumer.Commit:0" // before consumer info-pop commit
	KPConsumerCommit1 = "Consumer.Commit:1" // after consumer info-pop commit
)
