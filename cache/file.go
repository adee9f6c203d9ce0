package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/goliatone/go-streamone/core"
)

// FileCache stores one file per key under a base directory. Entries expire
// once their modification time is older than the expiration.
type FileCache struct {
	dir        string
	expiration time.Duration
	opts       options
}

type fileCacheEntry struct {
	Value []byte `json:"value"`
}

// NewFileCache creates dir when missing. A non positive expiration keeps
// files until they are overwritten.
func NewFileCache(dir string, expiration time.Duration, opts ...Option) (*FileCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache: file cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create file cache directory: %w", err)
	}
	return &FileCache{
		dir:        dir,
		expiration: expiration,
		opts:       resolveOptions(opts),
	}, nil
}

func (c *FileCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	filename := c.filename(key)
	if _, ok := c.fresh(ctx, key, filename); !ok {
		return nil, false
	}
	contents, err := os.ReadFile(filename)
	if err != nil {
		c.opts.warn(ctx, "file", "read", key, err)
		return nil, false
	}
	var entry fileCacheEntry
	if err := json.Unmarshal(contents, &entry); err != nil {
		c.opts.warn(ctx, "file", "decode", key, err)
		return nil, false
	}
	return entry.Value, true
}

func (c *FileCache) Age(ctx context.Context, key string) time.Duration {
	if c == nil {
		return core.MissingAge
	}
	info, ok := c.fresh(ctx, key, c.filename(key))
	if !ok {
		return core.MissingAge
	}
	age := c.opts.now().Sub(info.ModTime())
	if age < 0 {
		return 0
	}
	return age
}

// Set writes to a temporary file first so readers never see a partial entry.
func (c *FileCache) Set(ctx context.Context, key string, value []byte) {
	if c == nil {
		return
	}
	contents, err := json.Marshal(fileCacheEntry{Value: value})
	if err != nil {
		c.opts.warn(ctx, "file", "encode", key, err)
		return
	}
	tmp, err := os.CreateTemp(c.dir, ".s1-*")
	if err != nil {
		c.opts.warn(ctx, "file", "create", key, err)
		return
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		c.opts.warn(ctx, "file", "write", key, err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		c.opts.warn(ctx, "file", "close", key, err)
		return
	}
	if err := os.Rename(tmpName, c.filename(key)); err != nil {
		os.Remove(tmpName)
		c.opts.warn(ctx, "file", "rename", key, err)
	}
}

// fresh stats the file and removes it when expired.
func (c *FileCache) fresh(ctx context.Context, key string, filename string) (fs.FileInfo, bool) {
	info, err := os.Stat(filename)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.opts.warn(ctx, "file", "stat", key, err)
		}
		return nil, false
	}
	if c.expiration > 0 && info.ModTime().Add(c.expiration).Before(c.opts.now()) {
		if err := os.Remove(filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.opts.warn(ctx, "file", "remove", key, err)
		}
		return nil, false
	}
	return info, true
}

// filename hashes the key, since request cache keys contain path separators.
func (c *FileCache) filename(key string) string {
	sum := sha1.Sum([]byte(c.opts.key(key)))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:]))
}
