// Package filekv provides a storage.KV backed by a single JSON file on the
// local device. It is the standalone editor's persistence, playing the role
// browser local storage played for the original tool.
package filekv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/qalinsara/rechnung/internal/storage"
)

// Ensure FileKV implements storage.KV
var _ storage.KV = (*FileKV)(nil)

// FileKV keeps all entries in one JSON object on disk. Every Set rewrites
// the whole file; the single-editor model makes that cheap enough.
type FileKV struct {
	path string

	mu      sync.Mutex
	entries map[string]string
}

// New creates a FileKV at the given path, creating parent directories and
// loading any existing entries. A corrupt file is treated as empty.
func New(path string) (*FileKV, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	kv := &FileKV{path: path, entries: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return kv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	// Corrupt records substitute fresh defaults rather than failing startup.
	if err := json.Unmarshal(data, &kv.entries); err != nil {
		kv.entries = make(map[string]string)
	}
	return kv, nil
}

// Get returns the stored value for key, or storage.ErrNotFound.
func (kv *FileKV) Get(ctx context.Context, key string) ([]byte, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	value, ok := kv.entries[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return []byte(value), nil
}

// Set stores value under key and rewrites the backing file.
func (kv *FileKV) Set(ctx context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.entries[key] = value
	return kv.flush()
}

// flush writes all entries atomically via a temp file rename.
func (kv *FileKV) flush() error {
	data, err := json.MarshalIndent(kv.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}
	tmp := kv.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := os.Rename(tmp, kv.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}
