// SPDX-License-Identifier: MIT

package tzfinder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/text/cases"
)

// Caser is stateless and safe to use concurrently by multiple goroutines.
// https://pkg.go.dev/golang.org/x/text/cases#Fold
var caser = cases.Fold()

// Finder answers coordinate lookups against a loaded tree. It is
// read-only and safe for concurrent use.
type Finder struct {
	tree *Tree
}

// NewFinder wraps a consolidated tree.
func NewFinder(t *Tree) *Finder {
	return &Finder{tree: t}
}

// LoadFinder reads a serialized tree from r.
func LoadFinder(r io.Reader) (*Finder, error) {
	t, err := LoadTree(r)
	if err != nil {
		return nil, err
	}
	return &Finder{tree: t}, nil
}

// Tree returns the underlying tree.
func (f *Finder) Tree() *Tree { return f.tree }

func (f *Finder) descend(lng, lat float32) (TimeZoneIndex, BBox, int) {
	n := f.tree.root
	box := World
	level := 0
	for n.hi != nil {
		// Each split varies exactly one axis, so comparing both
		// coordinates against hi's south-west corner tests only the
		// split axis; the other comparison holds on both halves.
		hi, lo := box.Split(level)
		if lng >= hi.SW.Lng && lat >= hi.SW.Lat {
			n, box = n.hi, hi
		} else {
			n, box = n.lo, lo
		}
		level++
	}
	return n.index, box, level
}

// IndexAt returns the time zone indices covering the coordinate.
func (f *Finder) IndexAt(lng, lat float32) (TimeZoneIndex, error) {
	if !validCoordinate(lng, lat) {
		return 0, fmt.Errorf("%w: (%v, %v)", ErrOutOfRange, lng, lat)
	}
	index, _, _ := f.descend(lng, lat)
	return index, nil
}

// BoxAt returns the indices plus the leaf cell and its level.
func (f *Finder) BoxAt(lng, lat float32) (TimeZoneIndex, BBox, int, error) {
	if !validCoordinate(lng, lat) {
		return 0, BBox{}, 0, fmt.Errorf("%w: (%v, %v)", ErrOutOfRange, lng, lat)
	}
	index, box, level := f.descend(lng, lat)
	return index, box, level, nil
}

// IDAt returns the identifier of the time zone covering the coordinate.
// Coordinates without dataset coverage get an Etc/GMT identifier derived
// from the longitude, so the result is never empty.
func (f *Finder) IDAt(lng, lat float32) (string, error) {
	index, err := f.IndexAt(lng, lat)
	if err != nil {
		return "", err
	}
	if index.IsEmpty() {
		return EtcGMT(lng)
	}
	return f.IDOf(index.First())
}

// AllIDsAt returns every identifier covering the coordinate: one for
// most places, two in disputed areas, and an Etc/GMT fallback on the
// ocean.
func (f *Finder) AllIDsAt(lng, lat float32) ([]string, error) {
	index, err := f.IndexAt(lng, lat)
	if err != nil {
		return nil, err
	}
	if index.IsEmpty() {
		id, err := EtcGMT(lng)
		if err != nil {
			return nil, err
		}
		return []string{id}, nil
	}
	first, err := f.IDOf(index.First())
	if err != nil {
		return nil, err
	}
	ids := []string{first}
	if second := index.Second(); second != 0 {
		id, err := f.IDOf(second)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IndexOf returns the 1-based index of a time zone identifier. The
// comparison is case-insensitive.
func (f *Finder) IndexOf(id string) (uint16, error) {
	folded := caser.String(id)
	for i, candidate := range f.tree.ids {
		if candidate == id || caser.String(candidate) == folded {
			return uint16(i + 1), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownID, id)
}

// IDOf returns the identifier for a 1-based index.
func (f *Finder) IDOf(index uint16) (string, error) {
	if index == 0 || int(index) > len(f.tree.ids) {
		return "", fmt.Errorf("%w: index %d", ErrOutOfRange, index)
	}
	return f.tree.ids[index-1], nil
}

// Traverse visits the cell of every leaf matching the query. A query
// with an empty Second slot matches any leaf containing its First; a
// two-entry query matches only leaves with exactly that payload.
func (f *Finder) Traverse(query TimeZoneIndex, fn func(BBox)) {
	f.walk(f.tree.root, World, 0, query, fn)
}

func (f *Finder) walk(n *node, box BBox, level int, query TimeZoneIndex, fn func(BBox)) {
	if n.hi == nil {
		match := n.index == query
		if query.Second() == 0 {
			match = n.index.Contains(query.First())
		}
		if match {
			fn(box)
		}
		return
	}
	hi, lo := box.Split(level)
	f.walk(n.hi, hi, level+1, query, fn)
	f.walk(n.lo, lo, level+1, query, fn)
}

// DefaultDataFilename is the conventional name of the serialized tree.
const DefaultDataFilename = "TZFinder.TimeZoneData.bin"

// The process-wide finder. Configuration may be adjusted until the
// first load is triggered; afterwards the setters fail.
var std struct {
	mu      sync.Mutex
	path    string
	stream  io.ReadCloser
	started bool
	finder  *Finder
	err     error
}

// SetDataPath configures where Default loads its tree from. Fails with
// ErrAlreadyLoaded once a load has been triggered.
func SetDataPath(path string) error {
	std.mu.Lock()
	defer std.mu.Unlock()
	if std.started {
		return ErrAlreadyLoaded
	}
	std.path = path
	return nil
}

// SetDataStream configures a stream for Default to load its tree from.
// The stream is consumed and closed by the load. Fails with
// ErrAlreadyLoaded once a load has been triggered.
func SetDataStream(r io.ReadCloser) error {
	std.mu.Lock()
	defer std.mu.Unlock()
	if std.started {
		return ErrAlreadyLoaded
	}
	std.stream = r
	return nil
}

// Default returns the process-wide finder, loading it on first call.
// Concurrent first callers block until the one load completes and then
// observe the same finder. The outcome, success or failure, is final.
func Default() (*Finder, error) {
	std.mu.Lock()
	defer std.mu.Unlock()
	if !std.started {
		std.started = true
		std.finder, std.err = loadDefault()
	}
	return std.finder, std.err
}

// EnsureLoaded forces the process-wide load to complete. Idempotent.
func EnsureLoaded() error {
	_, err := Default()
	return err
}

func loadDefault() (*Finder, error) {
	if std.stream != nil {
		defer std.stream.Close()
		return LoadFinder(std.stream)
	}

	path := std.path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotReadable, err)
		}
		path = filepath.Join(filepath.Dir(exe), DefaultDataFilename)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotReadable, err)
	}
	defer f.Close()
	return LoadFinder(f)
}
