package controller

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/intreg/internal/log"
	"github.com/zjrosen/intreg/internal/registry/domain"
	"github.com/zjrosen/intreg/internal/watcher"
)

// whitelistFile is the on-disk format:
//
//	modules:
//	  - "0x1111111111111111111111111111111111111111"
type whitelistFile struct {
	Modules []string `yaml:"modules"`
}

// FileWhitelist is a Controller backed by a YAML file. The file is read on
// construction and again whenever Watch observes a change. A reload that
// fails to parse keeps the previous module set.
type FileWhitelist struct {
	path    string
	current *Static

	mu      sync.Mutex
	watcher *watcher.Watcher
	done    chan struct{}
	reloads chan struct{}
}

// LoadFileWhitelist reads path and returns a controller recognizing its modules.
func LoadFileWhitelist(path string) (*FileWhitelist, error) {
	modules, err := readWhitelist(path)
	if err != nil {
		return nil, err
	}
	log.Info(log.CatController, "whitelist loaded", "path", path, "modules", len(modules))
	return &FileWhitelist{
		path:    path,
		current: NewStatic(modules...),
		reloads: make(chan struct{}, 1),
	}, nil
}

var _ domain.Controller = (*FileWhitelist)(nil)

// IsModule reports whether module is listed in the most recently loaded file.
func (w *FileWhitelist) IsModule(ctx context.Context, module domain.Address) (bool, error) {
	w.mu.Lock()
	current := w.current
	w.mu.Unlock()
	return current.IsModule(ctx, module)
}

// Reload re-reads the file and swaps in the new module set.
func (w *FileWhitelist) Reload() error {
	modules, err := readWhitelist(w.path)
	if err != nil {
		log.ErrorErr(log.CatController, "whitelist reload failed", err, "path", w.path)
		return err
	}

	w.mu.Lock()
	w.current = NewStatic(modules...)
	w.mu.Unlock()

	log.Info(log.CatController, "whitelist reloaded", "path", w.path, "modules", len(modules))

	select {
	case w.reloads <- struct{}{}:
	default:
	}
	return nil
}

// Reloaded signals after each successful reload triggered by Watch.
func (w *FileWhitelist) Reloaded() <-chan struct{} {
	return w.reloads
}

// Watch starts reloading the file whenever it changes on disk.
// Call Close to stop watching.
func (w *FileWhitelist) Watch(cfg watcher.Config) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return nil
	}

	cfg.Path = w.path
	fw, err := watcher.New(cfg)
	if err != nil {
		return err
	}
	onChange, err := fw.Start()
	if err != nil {
		_ = fw.Stop()
		return err
	}

	w.watcher = fw
	w.done = make(chan struct{})
	done := w.done
	go func() {
		for {
			select {
			case <-done:
				return
			case _, ok := <-onChange:
				if !ok {
					return
				}
				_ = w.Reload()
			}
		}
	}()
	return nil
}

// Close stops watching. It is safe to call on a whitelist that never watched.
func (w *FileWhitelist) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	close(w.done)
	err := w.watcher.Stop()
	w.watcher = nil
	return err
}

func readWhitelist(path string) ([]domain.Address, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: whitelist path comes from config
	if err != nil {
		return nil, fmt.Errorf("reading whitelist: %w", err)
	}

	var f whitelistFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing whitelist %s: %w", path, err)
	}

	modules := make([]domain.Address, 0, len(f.Modules))
	for i, raw := range f.Modules {
		m, err := domain.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("whitelist %s entry %d: %w", path, i, err)
		}
		modules = append(modules, m)
	}
	return modules, nil
}
