package internal

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// FileStore keeps each value in its own file and tracks them in a YAML
// index
type FileStore struct {
	dir   string
	quota int
	mu    sync.Mutex
}

// StoreIndexEntry is one key in the index
type StoreIndexEntry struct {
	Key       string    `yaml:"key"`
	File      string    `yaml:"file"`
	Size      int       `yaml:"size"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// StoreIndex is the YAML index of a FileStore
type StoreIndex struct {
	Entries  []StoreIndexEntry `yaml:"entries"`
	Metadata StoreMetadata     `yaml:"metadata"`
}

// StoreMetadata describes the index itself
type StoreMetadata struct {
	StoreVersion string    `yaml:"store_version"`
	CreatedAt    time.Time `yaml:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string, quota int) *FileStore {
	return &FileStore{dir: dir, quota: quota}
}

// Dir returns the store directory
func (fs *FileStore) Dir() string {
	return fs.dir
}

// EnsureDir ensures the store directory exists
func (fs *FileStore) EnsureDir() error {
	return os.MkdirAll(fs.dir, 0755)
}

// IndexPath returns the path to the index YAML file
func (fs *FileStore) IndexPath() string {
	return filepath.Join(fs.dir, "index.yaml")
}

func (fs *FileStore) valuePath(key string) string {
	return filepath.Join(fs.dir, valueFileName(key))
}

func valueFileName(key string) string {
	sum := sha1.Sum([]byte(key))
	return fmt.Sprintf("value_%s.json", hex.EncodeToString(sum[:8]))
}

// LoadIndex loads the index, returning an empty one if none exists
func (fs *FileStore) LoadIndex() (*StoreIndex, error) {
	data, err := os.ReadFile(fs.IndexPath())
	if errors.Is(err, os.ErrNotExist) {
		now := time.Now()
		return &StoreIndex{Metadata: StoreMetadata{StoreVersion: "1.0", CreatedAt: now, UpdatedAt: now}}, nil
	}
	if err != nil {
		return nil, err
	}

	var index StoreIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}
	return &index, nil
}

func (fs *FileStore) saveIndex(index *StoreIndex) error {
	if err := fs.EnsureDir(); err != nil {
		return err
	}
	index.Metadata.UpdatedAt = time.Now()
	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return os.WriteFile(fs.IndexPath(), data, 0644)
}

// Get returns the value stored at key
func (fs *FileStore) Get(key string) (string, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.valuePath(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Path: fs.valuePath(key), Op: "get", Err: err}
	}
	return string(data), true, nil
}

// Set writes value at key and updates the index
func (fs *FileStore) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	index, err := fs.LoadIndex()
	if err != nil {
		return &StorageError{Path: fs.IndexPath(), Op: "set", Err: err}
	}

	if fs.quota > 0 {
		used := 0
		for _, e := range index.Entries {
			if e.Key != key {
				used += len(e.Key) + e.Size
			}
		}
		if used+len(key)+len(value) > fs.quota {
			return &StorageError{Path: key, Op: "set", Err: ErrQuotaExceeded}
		}
	}

	if err := fs.EnsureDir(); err != nil {
		return &StorageError{Path: fs.dir, Op: "set", Err: err}
	}
	path := fs.valuePath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0644); err != nil {
		return &StorageError{Path: path, Op: "set", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &StorageError{Path: path, Op: "set", Err: err}
	}

	entry := StoreIndexEntry{Key: key, File: filepath.Base(path), Size: len(value), UpdatedAt: time.Now()}
	found := false
	for i, e := range index.Entries {
		if e.Key == key {
			index.Entries[i] = entry
			found = true
			break
		}
	}
	if !found {
		index.Entries = append(index.Entries, entry)
	}

	if err := fs.saveIndex(index); err != nil {
		return &StorageError{Path: fs.IndexPath(), Op: "set", Err: err}
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (fs *FileStore) Remove(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.valuePath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &StorageError{Path: fs.valuePath(key), Op: "remove", Err: err}
	}

	index, err := fs.LoadIndex()
	if err != nil {
		return &StorageError{Path: fs.IndexPath(), Op: "remove", Err: err}
	}
	kept := index.Entries[:0]
	for _, e := range index.Entries {
		if e.Key != key {
			kept = append(kept, e)
		}
	}
	index.Entries = kept
	if err := fs.saveIndex(index); err != nil {
		return &StorageError{Path: fs.IndexPath(), Op: "remove", Err: err}
	}
	return nil
}

// Keys lists indexed keys starting with prefix
func (fs *FileStore) Keys(prefix string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	index, err := fs.LoadIndex()
	if err != nil {
		return nil, &StorageError{Path: fs.IndexPath(), Op: "keys", Err: err}
	}
	var keys []string
	for _, e := range index.Entries {
		if strings.HasPrefix(e.Key, prefix) {
			keys = append(keys, e.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes every value and the index
func (fs *FileStore) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	index, err := fs.LoadIndex()
	if err == nil {
		for _, e := range index.Entries {
			_ = os.Remove(filepath.Join(fs.dir, e.File))
		}
	}
	if err := os.Remove(fs.IndexPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close is a no-op for the file store
func (fs *FileStore) Close() error {
	return nil
}
