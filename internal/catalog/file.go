package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"inventory-voice-assistant/internal/logging"
)

// File is a catalog backed by a YAML document. It serves reads from memory
// and can reload itself when the document changes on disk.
type File struct {
	*Memory
	path string
	log  zerolog.Logger
}

// OpenFile loads the YAML catalog at path.
func OpenFile(path string) (*File, error) {
	snap, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}
	return &File{
		Memory: NewMemory(snap),
		path:   path,
		log:    logging.Component("catalog-file"),
	}, nil
}

// Reload re-reads the document. On failure the previous snapshot is kept.
func (f *File) Reload() error {
	snap, err := readSnapshot(f.path)
	if err != nil {
		return err
	}
	f.Replace(snap)
	return nil
}

// Watch reloads the catalog whenever the file is written or recreated, until
// ctx is done. The returned channel receives one value per successful reload
// and is closed when watching stops.
func (f *File) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of writing it.
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", f.path, err)
	}

	target := filepath.Clean(f.path)
	reloaded := make(chan struct{}, 1)

	go func() {
		defer close(reloaded)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := f.Reload(); err != nil {
					f.log.Warn().Err(err).Str("path", f.path).Msg("catalog reload failed, keeping previous snapshot")
					continue
				}
				f.log.Info().Str("path", f.path).Msg("catalog reloaded")
				select {
				case reloaded <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.log.Warn().Err(err).Msg("catalog watcher error")
			}
		}
	}()

	return reloaded, nil
}

// CreateMaintainer adds the maintainer and writes the document back.
func (f *File) CreateMaintainer(ctx context.Context, m Maintainer) (string, error) {
	id, err := f.Memory.CreateMaintainer(ctx, m)
	if err != nil {
		return "", err
	}
	return id, f.persist()
}

// CreateLocation adds the location and writes the document back.
func (f *File) CreateLocation(ctx context.Context, l Location) (string, error) {
	id, err := f.Memory.CreateLocation(ctx, l)
	if err != nil {
		return "", err
	}
	return id, f.persist()
}

func (f *File) persist() error {
	f.mu.RLock()
	b, err := yaml.Marshal(f.snap)
	f.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func readSnapshot(path string) (Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read catalog file: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	return snap, nil
}
