package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"voice-chat/internal/domain"
)

const (
	processedSuffix = ".processed"
	failedSuffix    = ".failed"
	defaultDebounce = 250 * time.Millisecond
)

// Handler consumes one recording picked up from the drop folder.
type Handler func(ctx context.Context, rec *domain.Recording) error

// DropFolder turns WAV files written into a directory into recordings.
// Handled files are renamed with a .processed suffix, rejected ones with .failed.
type DropFolder struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger

	pending map[string]time.Time
}

type DropFolderOption func(*DropFolder)

// WithDebounce sets how long a file must stay unchanged before it is read.
func WithDebounce(d time.Duration) DropFolderOption {
	return func(f *DropFolder) {
		if d > 0 {
			f.debounce = d
		}
	}
}

func NewDropFolder(dir string, logger *slog.Logger, opts ...DropFolderOption) *DropFolder {
	f := &DropFolder{
		dir:      dir,
		debounce: defaultDebounce,
		logger:   logger,
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *DropFolder) Name() string {
	return "file"
}

// Run watches the directory until ctx is done. Files already present are handled first.
func (f *DropFolder) Run(ctx context.Context, handle Handler) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.dir); err != nil {
		return fmt.Errorf("watching %s: %w", f.dir, err)
	}

	if err := f.scan(); err != nil {
		return err
	}

	f.logger.Info("watching drop folder", "dir", f.dir)

	ticker := time.NewTicker(max(f.debounce/2, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && isRecording(event.Name) {
				f.pending[event.Name] = time.Now()
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				delete(f.pending, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("drop folder watcher", "error", err)

		case <-ticker.C:
			f.flush(ctx, handle)
		}
	}
}

func (f *DropFolder) scan() error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isRecording(entry.Name()) {
			continue
		}
		// zero time: due on the first tick
		f.pending[filepath.Join(f.dir, entry.Name())] = time.Time{}
	}
	return nil
}

func (f *DropFolder) flush(ctx context.Context, handle Handler) {
	now := time.Now()

	var due []string
	for path, changed := range f.pending {
		if now.Sub(changed) >= f.debounce {
			due = append(due, path)
		}
	}
	sort.Strings(due)

	for _, path := range due {
		delete(f.pending, path)
		if ctx.Err() != nil {
			return
		}
		f.process(ctx, path, handle)
	}
}

func (f *DropFolder) process(ctx context.Context, path string, handle Handler) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Warn("reading dropped file", "path", path, "error", err)
		}
		return
	}

	rec := &domain.Recording{Data: data, Path: path}
	if d, ok := WAVDuration(data); ok {
		rec.Duration = d
	}

	suffix := processedSuffix
	if err := handle(ctx, rec); err != nil {
		f.logger.Warn("dropped file not handled", "path", path, "error", err)
		suffix = failedSuffix
	}

	if err := os.Rename(path, path+suffix); err != nil {
		f.logger.Warn("renaming dropped file", "path", path, "error", err)
	}
}

func isRecording(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".wav")
}
