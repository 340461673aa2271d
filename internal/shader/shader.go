// Package shader loads WGSL compute sources by name.
package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Ext is appended to a shader name to find its file.
const Ext = ".wgsl"

var ErrNotFound = errors.New("shader: source not found")

//go:embed wgsl/*.wgsl
var builtin embed.FS

// Source resolves a shader name such as "scattering" to WGSL text.
type Source interface {
	Load(name string) (string, error)
}

// FS reads <name>.wgsl from a filesystem.
type FS struct {
	fsys fs.FS
}

// Embedded returns the sources compiled into the binary.
func Embedded() FS {
	sub, err := fs.Sub(builtin, "wgsl")
	if err != nil {
		panic(err)
	}
	return FS{fsys: sub}
}

// Dir returns a source that reads from a directory on disk.
func Dir(path string) FS {
	return FS{fsys: os.DirFS(path)}
}

func (s FS) Load(name string) (string, error) {
	data, err := fs.ReadFile(s.fsys, filepath.ToSlash(name)+Ext)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read shader %s: %w", name, err)
	}
	return string(data), nil
}

// Chain tries each source in order and returns the first hit.
type Chain []Source

func (c Chain) Load(name string) (string, error) {
	for _, s := range c {
		src, err := s.Load(name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return src, err
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Cache remembers sources by name so each file is read once.
type Cache struct {
	next Source

	mu      sync.Mutex
	sources map[string]string
}

func NewCache(next Source) *Cache {
	return &Cache{next: next, sources: make(map[string]string)}
}

func (c *Cache) Load(name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if src, exists := c.sources[name]; exists {
		return src, nil
	}

	src, err := c.next.Load(name)
	if err != nil {
		return "", err
	}
	c.sources[name] = src
	return src, nil
}

// Unload forgets every cached source.
func (c *Cache) Unload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = make(map[string]string)
}

// Default returns the embedded sources, overridden by dir when it is set.
func Default(dir string) Source {
	if dir == "" {
		return NewCache(Embedded())
	}
	return NewCache(Chain{Dir(dir), Embedded()})
}
