//go:build !crashtest

// Package testutil provides whitebox crash-test hooks for the write path.
//
// This file provides no-op implementations for production builds: without
// the "crashtest" tag, every MaybeKill call site compiles to nothing the
// optimizer can't inline away.
package testutil

// KillPointEnvVar is the environment variable used to set the kill point
// target. In production builds it is defined but never read.
const KillPointEnvVar = "FILEQUEUE_KILL_POINT"

// SetKillPoint is a no-op in production builds.
func SetKillPoint(_ string) {}

// ClearKillPoint is a no-op in production builds.
func ClearKillPoint() {}

// MaybeKill is a no-op in production builds.
func MaybeKill(_ string) {}

// Kill point name constants, defined for API compatibility with the
// crashtest build.
const (
	KPWriterAppend0   = "Writer.Append:0"
	KPWriterSync0     = "Writer.Sync:0"
	KPWriterSync1     = "Writer.Sync:1"
	KPQueueInfoWrite0 = "QueueInfo.Write:0"
	KPQueueInfoWrite1 = "QueueInfo.Write:1"
	KPRotateStart0    = "Rotate.Start:0"
	KPRotateNewPart0  = "Rotate.NewPart:0"
	KPConsumerCommit0 = "Consumer.Commit:0"
	KPConsumerCommit1 = "Consumer.Commit:1"
)
