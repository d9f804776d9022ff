package vstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/aweris/vstore/internal/compression"
)

// BackingTypeFile tags entries held by FileStorage.
const BackingTypeFile = "file"

// defaultCacheSize bounds the read-through payload cache unless overridden.
const defaultCacheSize = 128

// FileStorage persists the namespace on a filesystem: index paths are
// directories, object paths are files. Payloads pass through a Codec and,
// optionally, zstd compression on their way to disk. Any afero.Fs works as
// the underlying filesystem; tests use afero.NewMemMapFs.
type FileStorage struct {
	mu    sync.RWMutex
	fsys  afero.Fs
	root  string
	codec Codec
	comp  *compression.Compressor
	cache *payloadCache
}

// NewFileStorage opens a storage rooted at dir on fsys, creating the root
// directory when missing.
func NewFileStorage(fsys afero.Fs, dir string, opts ...FileOption) (*FileStorage, error) {
	cfg := fileConfig{codec: JSONCodec{}, cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", dir, err)
	}
	comp, err := compression.New(cfg.compressionLevel)
	if err != nil {
		return nil, fmt.Errorf("configure compression: %w", err)
	}

	return &FileStorage{
		fsys:  fsys,
		root:  dir,
		codec: cfg.codec,
		comp:  comp,
		cache: newPayloadCache(cfg.cacheSize),
	}, nil
}

func (s *FileStorage) fullPath(p Path) string {
	parts := make([]string, 0, len(p.segments)+1)
	parts = append(parts, s.root)
	parts = append(parts, p.segments...)
	return filepath.Join(parts...)
}

// Lookup stats the backing file or directory. For an index path the
// metadata carries the freshest modification time among the directory and
// its immediate children.
func (s *FileStorage) Lookup(_ context.Context, p Path) (*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := s.fsys.Stat(s.fullPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() != p.IsIndex() {
		return nil, nil
	}

	if !p.IsIndex() {
		return &Metadata{Category: CategoryFile, BackingType: BackingTypeFile, LastModified: info.ModTime()}, nil
	}

	last := info.ModTime()
	entries, err := afero.ReadDir(s.fsys, s.fullPath(p))
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", p, err)
	}
	for _, entry := range entries {
		last = LaterModified(last, entry.ModTime())
	}
	return &Metadata{Category: CategoryIndex, BackingType: BackingTypeFile, LastModified: last}, nil
}

// Load reads the directory listing for an index path or the decoded
// payload for an object path.
func (s *FileStorage) Load(_ context.Context, p Path) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p.IsIndex() {
		entries, err := afero.ReadDir(s.fsys, s.fullPath(p))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("read dir %s: %w", p, err)
		}
		idx := NewIndex()
		for _, entry := range entries {
			if entry.IsDir() {
				idx.AddIndex(entry.Name())
			} else {
				idx.AddObject(entry.Name())
			}
		}
		return idx, nil
	}

	if payload, ok := s.cache.get(p.key()); ok {
		return payload, nil
	}

	raw, err := afero.ReadFile(s.fsys, s.fullPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	raw, err = s.comp.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", p, err)
	}
	payload, err := s.codec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", p, err)
	}
	s.cache.add(p.key(), payload)
	return payload, nil
}

// Store encodes data and writes it at the object path p, creating parent
// directories as needed.
func (s *FileStorage) Store(_ context.Context, p Path, data any) error {
	if p.IsIndex() {
		return &IllegalOperationError{Op: "store", Path: p, Reason: "cannot store at an index path"}
	}
	if data == nil {
		return &IllegalOperationError{Op: "store", Path: p, Reason: "cannot store nil data"}
	}

	raw, err := s.codec.Encode(data)
	if err != nil {
		return fmt.Errorf("store %s: %w", p, err)
	}
	raw = s.comp.Compress(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	full := s.fullPath(p)
	if err := s.fsys.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", p, err)
	}
	if err := afero.WriteFile(s.fsys, full, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	// The cache holds decoded payloads; a cold Load repopulates it so that
	// cached and freshly decoded reads agree on their types.
	s.cache.remove(p.key())
	return nil
}

// Remove deletes the file or directory tree at p. Directories lose their
// sub-directories first, then their files. Removing an absent entry is a
// no-op; the root directory itself survives, emptied.
func (s *FileStorage) Remove(_ context.Context, p Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeLocked(p)
}

func (s *FileStorage) removeLocked(p Path) error {
	full := s.fullPath(p)

	if !p.IsIndex() {
		s.cache.remove(p.key())
		if err := s.fsys.Remove(full); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
		return nil
	}

	entries, err := afero.ReadDir(s.fsys, full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read dir %s: %w", p, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		child, err := p.Child(entry.Name(), true)
		if err != nil {
			continue
		}
		if err := s.removeLocked(child); err != nil {
			return err
		}
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		child, err := p.Child(entry.Name(), false)
		if err != nil {
			continue
		}
		if err := s.removeLocked(child); err != nil {
			return err
		}
	}
	if p.IsRoot() {
		return nil
	}
	if err := s.fsys.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}

// payloadCache is a bounded cache of decoded payloads keyed by path. When
// full, an arbitrary entry is evicted.
type payloadCache struct {
	maxSize int
	mu      sync.RWMutex
	items   map[string]any
}

func newPayloadCache(maxSize int) *payloadCache {
	return &payloadCache{maxSize: maxSize, items: make(map[string]any)}
}

func (c *payloadCache) get(key string) (any, bool) {
	if c.maxSize <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	payload, ok := c.items[key]
	return payload, ok
}

func (c *payloadCache) add(key string, payload any) {
	if c.maxSize <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) >= c.maxSize {
		for k := range c.items {
			delete(c.items, k)
			break
		}
	}
	c.items[key] = payload
}

func (c *payloadCache) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}
