//go:build crashtest

package testutil

import (
	"os"
	"os/exec"
	"testing"
)

// TestKillPoint_MismatchDoesNotExit asserts survival: a mismatched or
// cleared kill point must never call os.Exit, in-process.
func TestKillPoint_MismatchDoesNotExit(t *testing.T) {
	ClearKillPoint()
	MaybeKill("some.point:0")

	SetKillPoint("test.point:0")
	MaybeKill("other.point:0")

	ClearKillPoint()
	MaybeKill("test.point:0")
}

func TestKillPoint_Constants(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"KPWriterAppend0", KPWriterAppend0, "Writer.Append:0"},
		{"KPWriterSync0", KPWriterSync0, "Writer.Sync:0"},
		{"KPWriterSync1", KPWriterSync1, "Writer.Sync:1"},
		{"KPQueueInfoWrite0", KPQueueInfoWrite0, "QueueInfo.Write:0"},
		{"KPQueueInfoWrite1", KPQueueInfoWrite1, "QueueInfo.Write:1"},
		{"KPRotateStart0", KPRotateStart0, "Rotate.Start:0"},
		{"KPRotateNewPart0", KPRotateNewPart0, "Rotate.NewPart:0"},
		{"KPConsumerCommit0", KPConsumerCommit0, "Consumer.Commit:0"},
		{"KPConsumerCommit1", KPConsumerCommit1, "Consumer.Commit:1"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s = %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

// TestKillPoint_ExitsAtTarget verifies that MaybeKill exits the process
// when the target matches. This runs a subprocess to avoid killing the test.
func TestKillPoint_ExitsAtTarget(t *testing.T) {
	if os.Getenv("BE_CRASHER") == "1" {
		SetKillPoint("crash.now:0")
		MaybeKill("crash.now:0")
		// If we get here, the kill point didn't work.
		os.Exit(1)
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestKillPoint_ExitsAtTarget$")
	cmd.Env = append(os.Environ(), "BE_CRASHER=1")

	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); ok {
		t.Errorf("subprocess exited with code %d, want 0", exitErr.ExitCode())
	} else if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestKillPoint_EnvVarSetsTarget verifies that FILEQUEUE_KILL_POINT arms a
// kill point at process startup, without any explicit SetKillPoint call.
func TestKillPoint_EnvVarSetsTarget(t *testing.T) {
	if os.Getenv("CHECK_ENV_VAR") == "1" {
		MaybeKill("env.test:0")
		// If the env var wasn't parsed on init, MaybeKill was a no-op.
		os.Exit(1)
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestKillPoint_EnvVarSetsTarget$")
	cmd.Env = append(os.Environ(),
		"CHECK_ENV_VAR=1",
		KillPointEnvVar+"=env.test:0",
	)

	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); ok {
		t.Errorf("subprocess exited with code %d, want 0 (env var kill point did not fire)", exitErr.ExitCode())
	} else if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
