package convert

import (
	"context"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"cratesync/crate"
	"cratesync/logger"
	"cratesync/model"
)

// WatchOptions controls the watch loop.
type WatchOptions struct {
	// Interval is the polling interval; also the floor applied when the
	// native watcher falls back to polling. Defaults to 30s.
	Interval time.Duration
	// Native switches from mtime polling to fsnotify events.
	Native bool
	// OnSummary, when set, is invoked with the summary of every conversion
	// the loop performs.
	OnSummary func(*model.ConversionSummary)
}

// debounceDelay batches bursts of filesystem events (Serato rewrites crates
// in several steps) into a single reconversion.
const debounceDelay = 2 * time.Second

// Watch converts the crate tree whenever it changes, until ctx is done.
// Conversion errors are logged and retried on the next change rather than
// ending the loop; only watcher setup failures are returned.
func (c *Converter) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Native {
		return c.watchNative(ctx, opts)
	}
	return c.watchPolling(ctx, opts)
}

// watchPolling compares mtime snapshots on a timer and reconverts on any
// difference. The first pass always converts.
func (c *Converter) watchPolling(ctx context.Context, opts WatchOptions) error {
	var last map[string]time.Time
	converted := false
	for {
		snapshot, err := c.Snapshot()
		if err != nil {
			logger.Warn("crate snapshot failed", logger.ErrorField(err))
		} else {
			if !converted || !maps.Equal(snapshot, last) {
				if c.runConversion(opts) {
					converted = true
				}
			}
			last = snapshot
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(opts.Interval):
		}
	}
}

// watchNative uses fsnotify instead of polling. fsnotify does not watch
// recursively, so every directory under the crate root is added explicitly
// and newly created directories are added as they appear.
func (c *Converter) watchNative(ctx context.Context, opts WatchOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchesRecursive(watcher, c.CrateRoot); err != nil {
		return err
	}

	c.runConversion(opts)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-watcher.Events:
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.Warn("watch new directory failed",
							logger.String("dir", event.Name), logger.ErrorField(err))
					}
					debounce = time.After(debounceDelay)
					continue
				}
			}
			if strings.HasSuffix(event.Name, crate.Extension) {
				debounce = time.After(debounceDelay)
			}
		case err := <-watcher.Errors:
			logger.Warn("filesystem watcher error", logger.ErrorField(err))
		case <-debounce:
			debounce = nil
			c.runConversion(opts)
		}
	}
}

func (c *Converter) runConversion(opts WatchOptions) bool {
	summary, err := c.ConvertOnce(true)
	if err != nil {
		logger.Error("conversion failed", logger.ErrorField(err))
		return false
	}
	logger.Info("wrote rekordbox xml",
		logger.String("output", summary.Output),
		logger.Int("playlists", summary.PlaylistCount()),
		logger.Int("tracks", summary.TrackCount))
	LogSummary(summary)
	if opts.OnSummary != nil {
		opts.OnSummary(summary)
	}
	return true
}

func addWatchesRecursive(watcher *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch crate root %s: %w", root, err)
	}
	return nil
}
