// Package fixture loads bundled photo listings that stand in for a live
// network call in tests and offline mode.
package fixture

import (
	"embed"
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
	"github.com/Sternrassler/photo-fetcher/pkg/photo"
)

// DefaultName is the fixture shipped with the module.
const DefaultName = "picsum"

const extension = ".json"

//go:embed data/*.json
var bundled embed.FS

// Loader resolves {name}.json resources from a file system.
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a loader over fsys. Names resolve at the root of fsys.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// Default returns a loader over the embedded fixtures.
func Default() *Loader {
	sub, err := fs.Sub(bundled, "data")
	if err != nil {
		// data/ is embedded at compile time.
		panic(err)
	}
	return NewLoader(sub)
}

// Load reads and decodes the fixture called name. Errors are
// KindFixtureNotFound or KindFixtureDecoding.
func (l *Loader) Load(name string) ([]photo.Photo, error) {
	data, err := l.Read(name)
	if err != nil {
		return nil, err
	}

	photos, err := photo.DecodeList(data)
	if err != nil {
		return nil, client.FixtureDecodingError(name, err)
	}
	return photos, nil
}

// Read returns the raw bytes of the fixture called name.
func (l *Loader) Read(name string) ([]byte, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || !fs.ValidPath(name+extension) {
		return nil, client.FixtureNotFound(name, nil)
	}

	data, err := fs.ReadFile(l.fsys, name+extension)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, client.FixtureNotFound(name, nil)
		}
		return nil, client.FixtureNotFound(name, err)
	}
	return data, nil
}

// Names lists the available fixtures, sorted.
func (l *Loader) Names() ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != extension {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), extension))
	}
	sort.Strings(names)
	return names, nil
}
