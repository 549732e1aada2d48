package edition

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

type countingReloader struct {
	n atomic.Int32
}

func (c *countingReloader) Reload(context.Context) error {
	c.n.Add(1)
	return nil
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
	t.Fatal("condition not met before deadline")
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edition.xml")
	if err := os.WriteFile(path, []byte("<TEI/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &countingReloader{}
	w, err := NewWatcher(path, r, 100*time.Millisecond, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Start(context.Background())
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("<TEI><text/></TEI>"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, func() bool { return r.n.Load() >= 1 })
	time.Sleep(200 * time.Millisecond)
	if got := r.n.Load(); got != 1 {
		t.Errorf("expected one reload for a burst of writes, got %d", got)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edition.xml")
	if err := os.WriteFile(path, []byte("<TEI/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &countingReloader{}
	w, err := NewWatcher(path, r, 20*time.Millisecond, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Start(context.Background())
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.xml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if got := r.n.Load(); got != 0 {
		t.Errorf("expected no reload, got %d", got)
	}
}

func TestWatcher_ReloadsService(t *testing.T) {
	svc, path := newService(t)
	w, err := NewWatcher(path, svc, 20*time.Millisecond, discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Start(context.Background())
	defer w.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return svc.Snapshot().Generation == 2 })
}
