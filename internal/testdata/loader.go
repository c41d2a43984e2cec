// Package testdata reads the JSON case files that drive data-driven tests.
package testdata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Case is one flat record of a case file.
type Case map[string]interface{}

// String returns the value under key rendered as a string, or "" when absent.
func (c Case) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Fill returns a copy of c where every key of gen takes a freshly generated
// value, replacing whatever the data file set.
func (c Case) Fill(gen map[string]func() string) Case {
	out := make(Case, len(c)+len(gen))
	for k, v := range c {
		out[k] = v
	}
	for k, g := range gen {
		out[k] = g()
	}
	return out
}

// Cases groups the positive and negative records of a file.
type Cases struct {
	Positive []Case `json:"positive"`
	Negative []Case `json:"negative"`
}

// Loader reads case files from <dir>/<folder>/<file>.
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Path returns the file location; a missing .json extension is added.
func (l *Loader) Path(folder, file string) string {
	if !strings.HasSuffix(file, ".json") {
		file += ".json"
	}
	return filepath.Join(l.dir, folder, file)
}

// Read parses a case file.
func (l *Loader) Read(folder, file string) (*Cases, error) {
	path := l.Path(folder, file)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test data %s: %w", path, err)
	}
	var cases Cases
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse test data %s: %w", path, err)
	}
	return &cases, nil
}
