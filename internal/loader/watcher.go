package loader

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher imports documents dropped into a directory while the service runs.
type Watcher struct {
	loader  *Loader
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

func NewWatcher(l *Loader, logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{loader: l, watcher: w, logger: logger}, nil
}

// Watch monitors dir until ctx is canceled, importing every JSON file that is
// created or rewritten there. Import failures are logged and watching
// continues.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".json" {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				if _, err := w.loader.ImportFile(ctx, event.Name); err != nil {
					w.logger.Warn("import dropped file", slog.String("file", event.Name), slog.Any("err", err))
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Error("watcher error", slog.Any("err", err))
			}
		}
	}()

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
