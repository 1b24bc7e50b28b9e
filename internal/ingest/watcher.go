package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/quote-optimizer/internal/pipeline"
)

// WatchConfig configures StartWatcher.
type WatchConfig struct {
	// Roots are watched recursively.
	Roots []string
	// InitialScan emits existing files as the first batch.
	InitialScan bool
	// Debounce coalesces bursts of events into one batch. Default 2s.
	Debounce time.Duration
	// SkipHidden ignores dot files and directories.
	SkipHidden bool
}

// StartWatcher watches the roots for new or changed quote files and emits
// them in debounced batches. Both channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan []string, <-chan error, error) {
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("ingest.watch.create_failed", "error", err)
		return nil, nil, err
	}

	pending := map[string]struct{}{}
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if cfg.SkipHidden && path != root && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && AllowedExt(filepath.Ext(path)) {
				pending[path] = struct{}{}
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			logger.Error("ingest.watch.add_failed", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	batches := make(chan []string, 16)
	errs := make(chan error, 1)
	go func() {
		defer close(batches)
		defer close(errs)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("ingest.watch.close_failed", "error", err)
			}
		}()

		timer := time.NewTimer(cfg.Debounce)
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op.Has(fsnotify.Create) {
					// directories created after start are watched too; files fail Add and are ignored
					_ = w.Add(e.Name)
				}
				if cfg.SkipHidden && IsHidden(e.Name) {
					continue
				}
				if AllowedExt(filepath.Ext(e.Name)) && e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					pending[e.Name] = struct{}{}
					timer.Reset(cfg.Debounce)
				}
			case <-timer.C:
				if len(pending) == 0 {
					continue
				}
				batch := make([]string, 0, len(pending))
				for p := range pending {
					batch = append(batch, p)
				}
				sort.Strings(batch)
				clear(pending)
				select {
				case batches <- batch:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "error", err)
				select {
				case errs <- err:
				default:
				}
			}
		}
	}()
	return batches, errs, nil
}

// ReadFiles reads a watcher batch. Files that cannot be read are logged and
// skipped. Ids are base names, or full paths when two base names collide.
func ReadFiles(paths []string, logger *slog.Logger) []pipeline.DocumentInput {
	if logger == nil {
		logger = slog.Default()
	}
	docs := make([]pipeline.DocumentInput, 0, len(paths))
	ids := map[string]bool{}
	for _, p := range paths {
		in, err := ReadFile(p)
		if err != nil {
			logger.Warn("ingest.read.failed", "path", p, "error", err)
			continue
		}
		if ids[in.ID] {
			in.ID = filepath.ToSlash(p)
		}
		ids[in.ID] = true
		docs = append(docs, in)
	}
	return docs
}
