package dialog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Catalog holds every user-visible message text and template, keyed by
// name. It is seeded with compiled-in defaults and can be overridden by
// YAML files in a directory, optionally hot-reloaded.
type Catalog struct {
	dir      string
	defaults map[string]string

	mu       sync.RWMutex
	messages map[string]string
}

// NewCatalog creates a catalog seeded with defaults. dir may be empty,
// in which case LoadAll and WatchAndReload are no-ops.
func NewCatalog(dir string, defaults map[string]string) *Catalog {
	messages := make(map[string]string, len(defaults))
	for k, v := range defaults {
		messages[k] = v
	}
	return &Catalog{
		dir:      dir,
		defaults: defaults,
		messages: messages,
	}
}

// Get returns the message text for key, or an empty string when unknown.
func (c *Catalog) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messages[key]
}

// Render returns the message for key evaluated as a template against
// data. A render failure falls back to the raw text so the user still
// receives a response.
func (c *Catalog) Render(key string, data any) string {
	text := c.Get(key)
	rendered, err := Render(text, data)
	if err != nil {
		slog.Warn("message template render failed",
			slog.String("key", key), slog.String("error", err.Error()))
		return text
	}
	return rendered
}

// LoadAll overlays all .yaml and .yml files from the configured directory
// onto the compiled-in defaults. Each file is a flat map of key to text.
func (c *Catalog) LoadAll() error {
	if c.dir == "" {
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("read message dir %q: %w", c.dir, err)
	}

	merged := make(map[string]string, len(c.defaults))
	for k, v := range c.defaults {
		merged[k] = v
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(c.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load %q: %w", path, err)
		}
		overrides := make(map[string]string)
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return fmt.Errorf("parse %q: %w", path, err)
		}
		for k, v := range overrides {
			merged[k] = v
		}
	}

	c.mu.Lock()
	c.messages = merged
	c.mu.Unlock()

	return nil
}

// WatchAndReload starts watching the message directory for changes and
// reloads. This blocks until the done channel is closed.
func (c *Catalog) WatchAndReload(done <-chan struct{}) error {
	if c.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", c.dir, err)
	}

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				ext := filepath.Ext(event.Name)
				if ext == ".yaml" || ext == ".yml" {
					if err := c.LoadAll(); err != nil {
						slog.Warn("reloading messages", slog.String("error", err.Error()))
					}
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
