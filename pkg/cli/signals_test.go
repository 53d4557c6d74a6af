package cli

import (
	"syscall"
	"testing"
	"time"
)

func TestSetupSignalHandler_CancelsOnSIGTERM(t *testing.T) {
	ctx := SetupSignalHandler()

	select {
	case <-ctx.Done():
		t.Fatal("Expected context to be alive before any signal")
	default:
	}

	// The handler is installed before we signal ourselves, so the
	// process is not terminated.
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("Failed to send SIGTERM: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Expected context to be cancelled after SIGTERM")
	}
}
