package signals

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func waitDone(t *testing.T, ctx context.Context, what string) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for ctx.Done() after %s", what)
	}
}

// TestNotifySIGTERM ensures SIGTERM cancels the returned context.
func TestNotifySIGTERM(t *testing.T) {
	ctx, stop := Notify(context.Background())
	defer stop()

	time.AfterFunc(50*time.Millisecond, func() {
		_ = syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
	})
	waitDone(t, ctx, "SIGTERM")
}

// TestNotifySIGINT ensures SIGINT cancels the returned context.
func TestNotifySIGINT(t *testing.T) {
	ctx, stop := Notify(context.Background())
	defer stop()

	time.AfterFunc(50*time.Millisecond, func() {
		_ = syscall.Kill(syscall.Getpid(), syscall.SIGINT)
	})
	waitDone(t, ctx, "SIGINT")
}

// TestNotifyParentCancel ensures the derived context follows its parent.
func TestNotifyParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := Notify(parent)
	defer stop()

	cancel()
	waitDone(t, ctx, "parent cancel")
}
