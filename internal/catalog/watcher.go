package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/clsdenji/Spark/internal/logger"
)

const reloadDebounce = 500 * time.Millisecond

// Reloader keeps a Catalog in sync with the spots file. It reloads on
// file change events, on a periodic safety ticker, and on manual
// trigger. A failed reload keeps the previous catalog contents.
type Reloader struct {
	loader        *Loader
	mapper        *Mapper
	catalog       *Catalog
	logger        logger.Logger
	interval      time.Duration
	filePath      string
	watcher       *fsnotify.Watcher
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewReloader creates a new catalog reloader
func NewReloader(
	spotsFile string,
	cat *Catalog,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Reloader {
	return &Reloader{
		loader:        NewLoader(spotsFile),
		mapper:        NewMapper(),
		catalog:       cat,
		logger:        log,
		interval:      interval,
		filePath:      spotsFile,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start performs an initial load and begins watching for changes
func (r *Reloader) Start(ctx context.Context) error {
	// Load immediately on start
	if err := r.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	// Watch the parent directory rather than the file itself: editors
	// and config tooling often replace the file via rename, which
	// drops a direct watch.
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(r.filePath)); err != nil {
		if cerr := fsWatcher.Close(); cerr != nil {
			r.logger.Warn("failed to close file watcher", logger.Error(cerr))
		}
		return fmt.Errorf("failed to watch spots directory: %w", err)
	}
	r.watcher = fsWatcher

	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		defer func() {
			if err := r.watcher.Close(); err != nil {
				r.logger.Warn("failed to close file watcher", logger.Error(err))
			}
		}()

		var debounceTimer *time.Timer
		base := filepath.Base(r.filePath)

		for {
			select {
			case event, ok := <-r.watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				r.logger.Info("spots file changed",
					logger.String("file", event.Name),
					logger.String("operation", event.Op.String()))

				// Editors fire several events per save; coalesce them
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(reloadDebounce, func() {
					if err := r.Reload(ctx); err != nil {
						r.logger.Error("failed to reload spots",
							logger.Error(err))
					}
				})

			case err, ok := <-r.watcher.Errors:
				if !ok {
					return
				}
				r.logger.Error("file watcher error", logger.Error(err))

			case <-ticker.C:
				if err := r.Reload(ctx); err != nil {
					r.logger.Error("failed to reload spots",
						logger.Error(err))
				}

			case <-r.manualTrigger:
				r.logger.Info("manual reload triggered")
				if err := r.Reload(ctx); err != nil {
					r.logger.Error("failed to reload spots",
						logger.Error(err))
				}

			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (r *Reloader) Stop() {
	close(r.stopCh)
}

// Reload loads the spots file and swaps the catalog contents
func (r *Reloader) Reload(_ context.Context) error {
	r.logger.Info("reloading parking spots", logger.String("file", r.filePath))

	config, err := r.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load spots: %w", err)
	}

	spots, err := r.mapper.MapSpots(config)
	if err != nil {
		return fmt.Errorf("failed to map spots: %w", err)
	}

	r.catalog.Update(spots)

	r.logger.Info("parking spots loaded",
		logger.Int("count", len(spots)))

	return nil
}
