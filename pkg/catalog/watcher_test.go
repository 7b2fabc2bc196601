package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(validCatalogYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cat := NewDefaultCatalog()
	w, err := NewWatcher(cat, WatcherConfig{Path: path, DebounceInterval: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}

	reloaded := make(chan int, 4)
	w.OnReload(func(count int, err error) {
		if err == nil {
			reloaded <- count
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte(validCatalogYAML+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case count := <-reloaded:
		if count != 2 {
			t.Errorf("reload count = %d, want 2", count)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	if cat.Len() != 2 {
		t.Errorf("catalog Len() = %d after reload, want 2", cat.Len())
	}

	cancel()
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}
}

func TestWatcher_InvalidFileKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(validCatalogYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cat := NewDefaultCatalog()
	w, err := NewWatcher(cat, WatcherConfig{Path: path, DebounceInterval: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	defer func() { _ = w.Stop() }()

	failed := make(chan struct{}, 4)
	w.OnReload(func(_ int, err error) {
		if err != nil {
			failed <- struct{}{}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx) }()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("metrics: ["), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-failed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for failed reload")
	}

	if cat.Len() != 18 {
		t.Errorf("catalog Len() = %d, want previous 18", cat.Len())
	}
	if _, lastErr := w.Reloads(); lastErr == nil {
		t.Error("Reloads() last error = nil, want error")
	}
}

func TestDebouncer_CoalescesTriggers(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var calls int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { atomic.AddInt32(&calls, 1) })
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var calls int32
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	d.Stop()

	time.Sleep(80 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("callback ran %d times after Stop, want 0", got)
	}
}
