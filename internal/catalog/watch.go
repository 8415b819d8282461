package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mark3labs/promptr/internal/logger"
)

const debounceInterval = 100 * time.Millisecond

// Watch reloads mem from path whenever the file changes, until ctx is done.
// The parent directory is watched so editors that save by rename are seen.
// A file that fails to load or validate leaves the previous records in place.
// onReload, if non-nil, is called after every reload attempt.
func Watch(ctx context.Context, path string, mem *Memory, onReload func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving catalog path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("Watching catalog %s for changes", abs)

	// Bursts of events from one save collapse into a single reload.
	timer := time.NewTimer(debounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounceInterval)

		case <-timer.C:
			err := reload(abs, mem)
			if onReload != nil {
				onReload(err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Catalog watcher error: %v", err)
		}
	}
}

func reload(path string, mem *Memory) error {
	doc, err := LoadFile(path)
	if err != nil {
		logger.Warn("Catalog reload skipped: %v", err)
		return err
	}
	records, err := doc.Records()
	if err != nil {
		logger.Warn("Catalog reload skipped, invalid catalog: %v", err)
		return err
	}
	mem.Replace(records)
	logger.Info("Catalog reloaded: %d prompt(s)", len(records))
	return nil
}
