package track

import (
	"errors"
	"testing"
	"time"

	"github.com/depfresh/depfresh/client"
)

var errBoom = errors.New("connection reset")

func TestSuppressionWindow(t *testing.T) {
	tr := New(3, 50*time.Millisecond)

	for range 2 {
		tr.RecordFailure("left-pad", errBoom)
	}
	if tr.Suppressed("left-pad", time.Now()) {
		t.Error("2 of 3 attempts must not suppress")
	}

	tr.RecordFailure("left-pad", errBoom)
	if !tr.Suppressed("left-pad", time.Now()) {
		t.Error("3 consecutive failures must suppress inside the window")
	}

	time.Sleep(60 * time.Millisecond)
	if tr.Suppressed("left-pad", time.Now()) {
		t.Error("suppression must lift once the window elapses")
	}

	// The next failure re-trips the window with a single attempt added.
	tr.RecordFailure("left-pad", errBoom)
	if !tr.Suppressed("left-pad", time.Now()) {
		t.Error("a failure after the window must re-trip suppression")
	}
	info, _ := tr.Lookup("left-pad")
	if info.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", info.Attempts)
	}
}

func TestNotFoundIsTerminalWithoutAttempts(t *testing.T) {
	tr := New(3, time.Minute)
	tr.RecordFailure("does-not-exist-xyz", client.ErrNotFound)

	info, ok := tr.Lookup("does-not-exist-xyz")
	if !ok {
		t.Fatal("expected a record")
	}
	if !info.Terminal {
		t.Error("not-found must be terminal")
	}
	if info.Attempts != 0 {
		t.Errorf("Attempts = %d, want 0 for terminal not-found", info.Attempts)
	}
	if tr.Suppressed("does-not-exist-xyz", time.Now()) {
		t.Error("terminal records are not window-suppressed; callers check Terminal")
	}
}

func TestSuccessClearsRecord(t *testing.T) {
	tr := New(3, time.Minute)
	tr.RecordFailure("react", errBoom)
	tr.RecordFailure("react", errBoom)
	tr.RecordSuccess("react")

	if _, ok := tr.Lookup("react"); ok {
		t.Error("success must clear the failure record")
	}
}

func TestClear(t *testing.T) {
	tr := New(3, time.Minute)
	tr.RecordFailure("gone", client.ErrNotFound)
	tr.Clear("gone")

	if _, ok := tr.Lookup("gone"); ok {
		t.Error("Clear must drop terminal records too")
	}
}

func TestKindRecorded(t *testing.T) {
	tr := New(3, time.Minute)
	tr.RecordFailure("slow", client.ErrRateLimited)

	info, _ := tr.Lookup("slow")
	if info.Kind != client.KindRateLimited {
		t.Errorf("Kind = %v, want KindRateLimited", info.Kind)
	}
}
