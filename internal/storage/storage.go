package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pfrederiksen/census-dict/internal/variable"
)

// IndexKey is the cache key of the variables index page
const IndexKey = "varindex"

// StdoutPath selects standard output as the dictionary destination
const StdoutPath = "-"

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// PageCache stores raw page markup keyed by variable code
type PageCache struct {
	dir string
	// TTL is how long a cached page stays fresh; zero keeps pages forever
	TTL time.Duration
}

// ExpandHome expands a leading ~/ to the user's home directory
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// NewPageCache creates a page cache rooted at dir, creating it if needed
func NewPageCache(dir string) (*PageCache, error) {
	dir, err := ExpandHome(dir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	return &PageCache{dir: dir}, nil
}

// Dir returns the cache directory
func (c *PageCache) Dir() string {
	return c.dir
}

func (c *PageCache) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid cache key: %q", key)
	}
	return filepath.Join(c.dir, key+".html"), nil
}

// Get returns the cached markup for key. The boolean is false when nothing
// is cached or the cached page is older than TTL.
func (c *PageCache) Get(key string) (string, bool, error) {
	path, err := c.path(key)
	if err != nil {
		return "", false, err
	}

	if c.TTL > 0 {
		info, err := os.Stat(path)
		if err == nil && time.Since(info.ModTime()) > c.TTL {
			return "", false, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading cached page: %w", err)
	}
	return string(data), true, nil
}

// Put stores markup under key
func (c *PageCache) Put(key, markup string) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(markup), 0644); err != nil {
		return fmt.Errorf("writing cached page: %w", err)
	}
	return nil
}

// WriteDictionary encodes dict as indented JSON
func WriteDictionary(w io.Writer, dict *variable.Dictionary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(dict); err != nil {
		return fmt.Errorf("encoding dictionary: %w", err)
	}
	return nil
}

// SaveDictionary writes dict to path, or to stdout when path is "-".
// The file is written to a temporary name first and renamed into place.
func SaveDictionary(path string, dict *variable.Dictionary) error {
	if path == StdoutPath {
		return WriteDictionary(os.Stdout, dict)
	}

	path, err := ExpandHome(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".census-dict-*.json")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if err := WriteDictionary(tmp, dict); err != nil {
		tmp.Close() // nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing dictionary: %w", err)
	}
	return nil
}

// LoadDictionary reads a dictionary previously written by SaveDictionary
func LoadDictionary(path string) (*variable.Dictionary, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}

	var dict variable.Dictionary
	if err := json.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}
	return &dict, nil
}
