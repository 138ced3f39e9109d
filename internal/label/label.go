// Package label maps gesture label ids to names and back.
package label

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/ayusman/mudra/internal/export"
	"github.com/ayusman/mudra/internal/store"
)

// Unknown is the name reported for an id with no binding.
const Unknown = "unlabeled"

// Entry is one id/name binding.
type Entry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Source lists persisted labels. *store.LabelRepository implements it.
type Source interface {
	List() ([]*store.Label, error)
}

// Mapper is a bidirectional id/name lookup safe for concurrent use.
type Mapper struct {
	mu     sync.RWMutex
	byID   map[int]string
	byName map[string]int
}

// NewMapper creates a Mapper holding entries.
func NewMapper(entries ...Entry) *Mapper {
	m := &Mapper{
		byID:   make(map[int]string),
		byName: make(map[string]int),
	}
	for _, e := range entries {
		m.Add(e.ID, e.Name)
	}
	return m
}

// Load replaces the mapper contents with the labels from src.
func (m *Mapper) Load(src Source) error {
	labels, err := src.List()
	if err != nil {
		return fmt.Errorf("failed to list labels: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.byID = make(map[int]string, len(labels))
	m.byName = make(map[string]int, len(labels))
	for _, l := range labels {
		m.byID[l.ID] = l.Name
		m.byName[l.Name] = l.ID
	}
	return nil
}

// Add binds id and name, replacing any previous binding of either.
func (m *Mapper) Add(id int, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.byID[id]; ok {
		delete(m.byName, old)
	}
	if old, ok := m.byName[name]; ok {
		delete(m.byID, old)
	}
	m.byID[id] = name
	m.byName[name] = id
}

// Remove drops the binding of id.
func (m *Mapper) Remove(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name, ok := m.byID[id]; ok {
		delete(m.byName, name)
		delete(m.byID, id)
	}
}

// Name returns the name bound to id.
func (m *Mapper) Name(id int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.byID[id]
	return name, ok
}

// NameOr returns the name bound to id, or Unknown.
func (m *Mapper) NameOr(id int) string {
	if name, ok := m.Name(id); ok {
		return name
	}
	return Unknown
}

// ID returns the id bound to name.
func (m *Mapper) ID(name string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[name]
	return id, ok
}

// Len returns the number of bindings.
func (m *Mapper) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// Entries returns all bindings ordered by id.
func (m *Mapper) Entries() []Entry {
	m.mu.RLock()
	out := make([]Entry, 0, len(m.byID))
	for id, name := range m.byID {
		out = append(out, Entry{ID: id, Name: name})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Parse reads "<id> <name>" lines. Blank lines and lines starting with '#'
// are skipped. The name is the rest of the line after the id.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		i := strings.IndexFunc(line, unicode.IsSpace)
		if i < 0 {
			return nil, fmt.Errorf("line %d: expected \"<id> <name>\"", lineNo)
		}
		idField, name := line[:i], strings.TrimSpace(line[i:])

		id, err := strconv.Atoi(idField)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid id %q: %w", lineNo, idField, err)
		}
		if err := export.CheckName(name); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		entries = append(entries, Entry{ID: id, Name: name})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ParseFile reads a label file from disk.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}
