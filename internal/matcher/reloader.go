package matcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/spigell/unifit/internal/logger"
	"github.com/spigell/unifit/internal/utils"
)

// DefaultDebounce is how long the reloader waits for writes to settle.
const DefaultDebounce = 2 * time.Second

// Reloader rebuilds the snapshot from its sources and publishes it.
type Reloader struct {
	store    *Store
	sources  Sources
	logger   *zap.Logger
	debounce time.Duration

	// OnSwap, when set, is called after a new snapshot is published.
	OnSwap func(*Snapshot)
}

// NewReloader returns a reloader publishing into store.
func NewReloader(store *Store, sources Sources, l *zap.Logger) *Reloader {
	return &Reloader{
		store:    store,
		sources:  sources,
		logger:   logger.WithFields(l),
		debounce: DefaultDebounce,
	}
}

// SetDebounce changes the settle delay used by Watch.
func (r *Reloader) SetDebounce(d time.Duration) {
	r.debounce = d
}

// Reload loads the sources and swaps the result in. On error the current
// snapshot stays published.
func (r *Reloader) Reload(ctx context.Context) (*Snapshot, error) {
	snap, err := LoadSnapshot(ctx, r.sources)
	if err != nil {
		r.logger.Warn("catalog reload failed; keeping current snapshot", zap.Error(err))
		return nil, err
	}

	prev := r.store.Swap(snap)
	fields := []zap.Field{
		zap.String("version", snap.Version.String()),
		zap.Int("institutions", snap.Catalog.Len()),
		zap.Int("dropped_rows", snap.CatalogStats.Dropped),
		zap.Int("program_rows", snap.Programs.Len()),
	}
	if prev != nil {
		fields = append(fields, zap.String("previous_version", prev.Version.String()))
	}
	r.logger.Info("catalog snapshot published", fields...)

	if r.OnSwap != nil {
		r.OnSwap(snap)
	}
	return snap, nil
}

// Watch reloads whenever a source file changes until ctx is done. The
// parent directories are watched so that files replaced by rename are
// picked up.
func (r *Reloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range r.sources.Paths() {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	r.logger.Info("watching catalog sources", zap.Strings("paths", r.sources.Paths()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", zap.Error(err))
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			r.logger.Debug("catalog source changed", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))

			if err := utils.WaitFor(ctx, r.debounce); err != nil {
				return nil
			}
			drain(watcher.Events)

			_, _ = r.Reload(ctx)
		}
	}
}

func drain(events <-chan fsnotify.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
