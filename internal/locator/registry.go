package locator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Registry is the immutable element map of one page object.
type Registry struct {
	page    string
	source  string
	entries map[string]Descriptor
}

// ElementFileName derives the element file for a page type name:
// FacebookLoginPage becomes facebooklogin_page.json.
func ElementFileName(pageName string) string {
	base := strings.ReplaceAll(strings.ToLower(pageName), "page", "")
	return base + "_page.json"
}

// Load reads the element file of pageName from dir.
func Load(dir, pageName string) (*Registry, error) {
	path := filepath.Join(dir, ElementFileName(pageName))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read element file for %s: %w", pageName, err)
	}
	reg, err := Parse(pageName, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	reg.source = path
	return reg, nil
}

// Parse builds a registry from element file content.
func Parse(pageName string, data []byte) (*Registry, error) {
	entries := make(map[string]Descriptor)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return &Registry{page: pageName, entries: entries}, nil
}

// New builds a registry from descriptors already in memory.
func New(pageName string, entries map[string]Descriptor) *Registry {
	copied := make(map[string]Descriptor, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return &Registry{page: pageName, entries: copied}
}

// Page returns the owning page type name.
func (r *Registry) Page() string { return r.page }

// Source returns the file the registry was loaded from, if any.
func (r *Registry) Source() string { return r.source }

// Lookup returns the descriptor for key or a LookupError.
func (r *Registry) Lookup(key string) (Descriptor, error) {
	d, ok := r.entries[key]
	if !ok {
		return Descriptor{}, &LookupError{Page: r.page, Key: key}
	}
	return d, nil
}

// Keys returns the defined keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Require fails with the first key in keys that is not defined.
func (r *Registry) Require(keys ...string) error {
	for _, k := range keys {
		if _, err := r.Lookup(k); err != nil {
			return err
		}
	}
	return nil
}
