// Package blob provides the content-addressable blob cache.
//
// Payload bytes are stored once per distinct content, keyed by the
// hex SHA-256 of the bytes, in a fanned-out directory tree. A small
// gob-encoded sidecar holds the mime/content-type metadata. Writes
// are atomic (write-to-temp, rename), so a crash never leaves a
// partially written blob addressable.
package blob

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// Cache errors.
var (
	// ErrNotFound is returned when no blob exists for a hash.
	ErrNotFound = errors.New("blob not found")
	// ErrCorrupt is returned when a blob's metadata sidecar cannot
	// be decoded.
	ErrCorrupt = errors.New("blob metadata corrupted")
)

// Meta holds the stored metadata of a blob.
type Meta struct {
	MimeType    string // e.g. "text/plain"
	ContentType string // e.g. "Text"
}

// Cache is a content-addressed store rooted at a directory.
type Cache struct {
	root string
}

// Open creates or opens a blob cache rooted at dir.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{root: dir}, nil
}

// Put stores data under its content hash and returns the hash.
//
// Idempotent: identical bytes always produce the same hash, and a
// repeated Put of already-stored content is a no-op beyond hashing.
// The blob and its metadata are durably on disk before Put returns.
func (c *Cache) Put(data []byte, meta Meta) (string, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	// Deduplicate only when both the blob and its sidecar survived; a
	// crash between the two writes is repaired by the next Put.
	path := c.blobPath(hash)
	if _, err := os.Stat(path); err == nil {
		if _, err := os.Stat(c.metaPath(hash)); err == nil {
			return hash, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write blob %s: %w", hash, err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(meta); err != nil {
		return "", fmt.Errorf("encode blob meta: %w", err)
	}
	if err := atomic.WriteFile(c.metaPath(hash), &buf); err != nil {
		return "", fmt.Errorf("write blob meta %s: %w", hash, err)
	}

	return hash, nil
}

// GetStream returns the blob's bytes as an incrementally readable
// stream. The caller must close it. Returns ErrNotFound for an
// unknown hash.
func (c *Cache) GetStream(hash string) (io.ReadCloser, error) {
	f, err := os.Open(c.blobPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s: %w", hash, ErrNotFound)
		}
		return nil, fmt.Errorf("open blob %s: %w", hash, err)
	}
	return f, nil
}

// GetMeta returns the stored metadata for a hash. Returns ErrNotFound
// for an unknown hash and ErrCorrupt if the sidecar cannot be decoded.
func (c *Cache) GetMeta(hash string) (Meta, error) {
	f, err := os.Open(c.metaPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, fmt.Errorf("blob meta %s: %w", hash, ErrNotFound)
		}
		return Meta{}, fmt.Errorf("open blob meta %s: %w", hash, err)
	}
	defer func() { _ = f.Close() }()

	var meta Meta
	if err := gob.NewDecoder(f).Decode(&meta); err != nil {
		return Meta{}, fmt.Errorf("%w: %s", ErrCorrupt, hash)
	}
	return meta, nil
}

// blobPath fans hashes out over two directory levels to keep any one
// directory small.
func (c *Cache) blobPath(hash string) string {
	if len(hash) < 4 {
		return filepath.Join(c.root, "short", hash)
	}
	return filepath.Join(c.root, hash[:2], hash[2:4], hash[4:])
}

func (c *Cache) metaPath(hash string) string {
	return c.blobPath(hash) + ".meta"
}
