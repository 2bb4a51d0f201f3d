package index

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_ExternalEditResyncs(t *testing.T) {
	db := testDB(t)
	path := filepath.Join(t.TempDir(), "ecolog_data.json")
	store := seedStore(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := Sync(ctx, db, store, quietLogger()); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		_ = Watch(ctx, db, store, path, quietLogger(), func(string) { calls.Add(1) })
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)

	edited := `{"notebooks":[{"id":"n9","name":"Insects","image":"","entries":[{"id":"x","title":"Monarch","tags":[]}]}],"discoveries":[]}`
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		res, _ := db.Search("Monarch", 10)
		return len(res) == 1
	}, "external edit not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "callback not invoked")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "ecolog_data.json")
	store := seedStore(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, _ = Sync(ctx, db, store, quietLogger())

	var calls atomic.Int32
	go Watch(ctx, db, store, path, quietLogger(), func(string) { calls.Add(1) })
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("unrelated"), 0o644)
	time.Sleep(500 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("callback fired %d times for unrelated file", calls.Load())
	}
}
