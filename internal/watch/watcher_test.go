package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	ran := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := New(path, 100*time.Millisecond, func(context.Context) error {
		ran <- struct{}{}
		return nil
	}, nil)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected a run after writes")
	}
	select {
	case <-ran:
		t.Fatalf("expected burst of writes to trigger a single run")
	case <-time.After(400 * time.Millisecond):
	}
	if w.Runs() != 1 {
		t.Fatalf("expected 1 run, got %d", w.Runs())
	}

	cancel()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("watch loop did not stop")
	}
}

func TestWatcherSurvivesFailedRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	ran := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := New(path, 20*time.Millisecond, func(context.Context) error {
		ran <- struct{}{}
		return errors.New("bad data")
	}, nil)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := os.WriteFile(path, []byte("again"), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case <-ran:
		case <-time.After(5 * time.Second):
			t.Fatalf("run %d did not happen", i+1)
		}
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "data.csv"), 0, func(context.Context) error { return nil }, nil)
	if err := w.Start(context.Background()); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
