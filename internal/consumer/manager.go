package consumer

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrConsumerNotFound is returned when a requested consumer cannot be found.
var ErrConsumerNotFound = errors.New("consumer not found")

// Manager discovers consumers below a directory.
type Manager struct {
	dir       string
	consumers map[string]*Consumer
	mu        sync.RWMutex
}

// NewManager creates a Manager for dir.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:       dir,
		consumers: make(map[string]*Consumer),
	}
}

// Discover scans dir for subdirectories holding a consumer.json manifest.
// A missing directory yields no consumers. Unreadable or invalid manifests are skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.consumers = make(map[string]*Consumer)

	info, err := os.Stat(m.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(m.dir, entry.Name())
		data, err := os.ReadFile(filepath.Join(path, ManifestFile))
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			continue
		}
		if manifest.Name == "" || manifest.Executable == "" {
			continue
		}

		m.consumers[manifest.Name] = &Consumer{
			Manifest:   manifest,
			Path:       path,
			Executable: filepath.Join(path, manifest.Executable),
		}
	}

	return nil
}

// Get returns a consumer by name.
func (m *Manager) Get(name string) (*Consumer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.consumers[name]
	if !ok {
		return nil, ErrConsumerNotFound
	}
	return c, nil
}

// List returns all discovered consumers ordered by name.
func (m *Manager) List() []*Consumer {
	m.mu.RLock()
	out := make([]*Consumer, 0, len(m.consumers))
	for _, c := range m.consumers {
		out = append(out, c)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Manifest.Name < out[j].Manifest.Name })
	return out
}

// Dir returns the consumer directory path.
func (m *Manager) Dir() string {
	return m.dir
}
