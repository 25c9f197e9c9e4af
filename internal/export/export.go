// Package export writes resolved metric series to tabular formats.
// Every format emits one row per point with the columns
// path, host, unix, offset, value.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Guliveer/sadfjson/internal/models"
)

// Format writes series to a stream.
type Format interface {
	Name() string
	Extensions() []string
	Write(w io.Writer, series ...models.Series) error
}

var (
	registry    = make(map[string]Format)
	extRegistry = make(map[string]Format)
)

// Register adds a format to the registry.
func Register(f Format) {
	registry[strings.ToLower(f.Name())] = f
	for _, ext := range f.Extensions() {
		extRegistry[strings.ToLower(ext)] = f
	}
}

// Lookup returns a format by name.
func Lookup(name string) (Format, bool) {
	f, ok := registry[strings.ToLower(name)]
	return f, ok
}

// LookupPath returns a format by the extension of path.
func LookupPath(path string) (Format, bool) {
	f, ok := extRegistry[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// Names returns the registered format names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Save writes series to path. An empty format name selects the format by
// the file extension.
func Save(path, format string, series ...models.Series) error {
	var (
		f  Format
		ok bool
	)
	if format != "" {
		f, ok = Lookup(format)
	} else {
		f, ok = LookupPath(path)
	}
	if !ok {
		return fmt.Errorf("unsupported export format %q for %s", format, path)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.Write(file, series...); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
