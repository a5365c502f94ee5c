package audio_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"voice-chat/internal/domain"
	"voice-chat/internal/infra/audio"
)

type collector struct {
	mu   sync.Mutex
	recs []*domain.Recording
	fail map[string]bool
	got  chan struct{}
}

func newCollector() *collector {
	return &collector{fail: map[string]bool{}, got: make(chan struct{}, 16)}
}

func (c *collector) handle(_ context.Context, rec *domain.Recording) error {
	c.mu.Lock()
	c.recs = append(c.recs, rec)
	c.mu.Unlock()
	c.got <- struct{}{}
	if c.fail[filepath.Base(rec.Path)] {
		return errors.New("rejected")
	}
	return nil
}

func (c *collector) wait(t *testing.T, n int) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-c.got:
		case <-timeout:
			t.Fatalf("timed out after %d of %d recordings", i, n)
		}
	}
}

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("file %s never appeared", path)
}

func TestDropFolder_ExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	existing := audio.EncodeWAV(make([]int16, 1600), 16000)
	if err := os.WriteFile(filepath.Join(dir, "first.wav"), existing, 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newCollector()
	folder := audio.NewDropFolder(dir, logger, audio.WithDebounce(50*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- folder.Run(ctx, c.handle) }()

	c.wait(t, 1)

	if err := os.WriteFile(filepath.Join(dir, "second.wav"), []byte("RIFF....WAVE"), 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	c.wait(t, 1)

	waitForFile(t, filepath.Join(dir, "first.wav.processed"))
	waitForFile(t, filepath.Join(dir, "second.wav.processed"))

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.recs) != 2 {
		t.Fatalf("recordings: got %d, want 2", len(c.recs))
	}
	if c.recs[0].Duration != 100*time.Millisecond {
		t.Errorf("duration of first: got %v", c.recs[0].Duration)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("non-wav file should be left alone")
	}
}

func TestDropFolder_FailedFileRenamed(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := os.WriteFile(filepath.Join(dir, "bad.wav"), []byte("RIFF"), 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newCollector()
	c.fail["bad.wav"] = true

	go audio.NewDropFolder(dir, logger, audio.WithDebounce(20*time.Millisecond)).Run(ctx, c.handle)

	c.wait(t, 1)
	waitForFile(t, filepath.Join(dir, "bad.wav.failed"))
}
