package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

type recordingPipeline struct {
	mu      sync.Mutex
	checked []string
	forgot  []string
}

func (p *recordingPipeline) CheckFile(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checked = append(p.checked, path)
	return nil
}

func (p *recordingPipeline) ForgetFile(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forgot = append(p.forgot, path)
}

func (p *recordingPipeline) snapshot() (checked, forgot []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.checked...), append([]string(nil), p.forgot...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWatcherChecksManifestWrites(t *testing.T) {
	dir := t.TempDir()
	pipeline := &recordingPipeline{}
	logger := log.New(io.Discard)

	w, err := New(pipeline, logger, dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	path := filepath.Join(dir, "package.json")
	if err := os.WriteFile(path, []byte(`{"dependencies":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		checked, _ := pipeline.snapshot()
		return len(checked) > 0
	})
	checked, _ := pipeline.snapshot()
	if checked[0] != path {
		t.Errorf("checked %q, want %q", checked[0], path)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	pipeline := &recordingPipeline{}
	logger := log.New(io.Discard)

	w, err := New(pipeline, logger, dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)
	checked, forgot := pipeline.snapshot()
	if len(checked) != 0 || len(forgot) != 0 {
		t.Errorf("pipeline saw events for unrelated file: checked=%v forgot=%v", checked, forgot)
	}
}

func TestWatcherForgetsRemovedManifests(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	pipeline := &recordingPipeline{}
	logger := log.New(io.Discard)

	w, err := New(pipeline, logger, dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		_, forgot := pipeline.snapshot()
		return len(forgot) > 0
	})
	_, forgot := pipeline.snapshot()
	if forgot[0] != path {
		t.Errorf("forgot %q, want %q", forgot[0], path)
	}
}
