// Package loader imports document files into the store. File names follow the
// legacy artifact convention `example-data-{pos|com}-{id}-{version}.json`,
// which is how earlier data sets encoded identity and version on disk.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/garnizeh/positionfaq/internal/store"
)

var fileNameRe = regexp.MustCompile(`^example-data-(pos|com)-(\d+)-(\d+)\.json$`)

// FileInfo is the identity a seed file encodes in its name.
type FileInfo struct {
	Type    string
	ID      int64
	Version int64
}

// ParseFileName extracts document type, id, and version from a seed file name.
func ParseFileName(name string) (FileInfo, error) {
	m := fileNameRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return FileInfo{}, fmt.Errorf("invalid file name format: %s", filepath.Base(name))
	}
	id, _ := strconv.ParseInt(m[2], 10, 64)
	version, _ := strconv.ParseInt(m[3], 10, 64)
	return FileInfo{Type: m[1], ID: id, Version: version}, nil
}

type Loader struct {
	store  *store.Store
	logger *slog.Logger
}

func New(s *store.Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: s, logger: logger}
}

// LoadDir imports every recognizable JSON file in dir, oldest version first so
// store-assigned version numbers follow the on-disk ordering. Files whose
// version is already covered by the store are skipped, as are unreadable or
// unrecognizable ones; neither aborts the run. Returns how many documents
// were imported.
func (l *Loader) LoadDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read seed dir %s: %w", dir, err)
	}

	files := make([]FileInfo, 0, len(entries))
	names := map[FileInfo]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := ParseFileName(e.Name())
		if err != nil {
			l.logger.Warn("skipping unrecognized seed file", slog.String("name", e.Name()))
			continue
		}
		files = append(files, info)
		names[info] = filepath.Join(dir, e.Name())
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Type != files[j].Type {
			return files[i].Type < files[j].Type
		}
		if files[i].ID != files[j].ID {
			return files[i].ID < files[j].ID
		}
		return files[i].Version < files[j].Version
	})

	imported := 0
	for _, info := range files {
		ok, err := l.importFile(ctx, info, names[info])
		if err != nil {
			l.logger.Warn("seed import failed", slog.String("file", names[info]), slog.Any("err", err))
			continue
		}
		if ok {
			imported++
		}
	}
	return imported, nil
}

// ImportFile loads one document file into the store. It reports false when
// the store already holds that version.
func (l *Loader) ImportFile(ctx context.Context, path string) (bool, error) {
	info, err := ParseFileName(path)
	if err != nil {
		return false, err
	}
	return l.importFile(ctx, info, path)
}

func (l *Loader) importFile(ctx context.Context, info FileInfo, path string) (bool, error) {
	latest, err := l.store.GetLatest(ctx, info.Type, info.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	if latest != nil && latest.Version >= info.Version {
		return false, nil
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	id, version, err := l.store.Save(ctx, info.Type, body, info.ID)
	if err != nil {
		return false, err
	}
	l.logger.Info("imported document",
		slog.String("type", info.Type), slog.Int64("id", id), slog.Int64("version", version),
		slog.String("file", filepath.Base(path)))
	return true, nil
}
