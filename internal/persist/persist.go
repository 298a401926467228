// Package persist provides the string key/value store the spatial state
// and layout catalog are persisted through. Values are opaque strings;
// callers JSON-encode their structured data into a single slot per key.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Well-known keys.
const (
	KeyUserLayouts      = "user-layouts"       // JSON array of layout definitions
	KeySpaceState       = "space-state"        // JSON map of space key -> state
	KeyLegacyWorkspaces = "workspace-layouts"  // legacy workspace index -> layout id (read-only)
	KeyLastSelected     = "last-selected"      // global fallback layout id
)

// KV is the persistence collaborator. Both operations are synchronous.
// A missing key reads as the empty string, not an error.
type KV interface {
	GetString(key string) (string, error)
	SetString(key, value string) error
}

// FileKV stores all keys in a single JSON document on disk. The whole
// document is read and rewritten on every access; state is small and
// only one daemon instance runs per session, so last-writer-wins is fine.
type FileKV struct {
	mu   sync.Mutex
	path string
}

// NewFileKV creates a file-backed store at path. The file is created on
// first write.
func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

func (f *FileKV) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if doc == nil {
		doc = make(map[string]string)
	}
	return doc, nil
}

func (f *FileKV) save(doc map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state file: %w", err)
	}
	if err := os.WriteFile(f.path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// GetString returns the value for key, or "" when the key or the whole
// file does not exist yet.
func (f *FileKV) GetString(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return "", err
	}
	return doc[key], nil
}

// SetString writes the value for key. An empty value deletes the key so
// the on-disk document never accumulates dead slots.
func (f *FileKV) SetString(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	if value == "" {
		delete(doc, key)
	} else {
		doc[key] = value
	}
	return f.save(doc)
}

// MemKV is an in-memory KV for tests.
type MemKV struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemKV returns an empty in-memory store.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string]string)}
}

func (m *MemKV) GetString(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *MemKV) SetString(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == "" {
		delete(m.data, key)
	} else {
		m.data[key] = value
	}
	return nil
}
