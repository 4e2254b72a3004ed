// SPDX-License-Identifier: MIT

package tzfinder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func nodesEqual(a, b *node) bool {
	if a.index != b.index {
		return false
	}
	if (a.hi == nil) != (b.hi == nil) {
		return false
	}
	if a.hi == nil {
		return true
	}
	return nodesEqual(a.hi, b.hi) && nodesEqual(a.lo, b.lo)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	f := testFinder(t)
	tree := f.Tree()

	var buf bytes.Buffer
	if err := tree.Save(&buf); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadTree(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := loaded.IDs(), tree.IDs(); len(got) != len(want) {
		t.Fatalf("ids: got %d, want %d", len(got), len(want))
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("id %d: got %q, want %q", i, got[i], want[i])
			}
		}
	}

	if got, want := loaded.NodeCount(), tree.NodeCount(); got != want {
		t.Errorf("node count: got %d, want %d", got, want)
	}

	if !nodesEqual(loaded.root, tree.root) {
		t.Error("deserialized tree differs from the original")
	}

	// The loaded tree answers queries identically.
	lf := NewFinder(loaded)
	for _, p := range []Position{{7.3, 5.1}, {-35, 25}, {3.05, 3.05}, {-100, -50}} {
		want, err := f.IndexAt(p.Lng, p.Lat)
		if err != nil {
			t.Fatal(err)
		}
		got, err := lf.IndexAt(p.Lng, p.Lat)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("IndexAt(%v): got %v, want %v", p, got, want)
		}
	}
}

func TestIndexIDRoundTrip(t *testing.T) {
	f := testFinder(t)
	for i := 1; i <= len(f.Tree().IDs()); i++ {
		id, err := f.IDOf(uint16(i))
		if err != nil {
			t.Fatal(err)
		}
		index, err := f.IndexOf(id)
		if err != nil {
			t.Fatal(err)
		}
		if index != uint16(i) {
			t.Errorf("IndexOf(IDOf(%d)) = %d", i, index)
		}
	}
}

func TestSaveRejectsUnconsolidatedTree(t *testing.T) {
	tree := &Tree{
		root: &node{
			index: MakeTimeZoneIndex(1),
			hi:    &node{},
			lo:    &node{},
		},
		ids: []string{"Test/Alpha"},
	}
	err := tree.Save(&bytes.Buffer{})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for internal payload, got %v", err)
	}
}

// gzipBytes compresses a hand-built raw stream for decoder tests.
func gzipBytes(t *testing.T, raw []byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func i16(v int16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	return b[:]
}

func TestLoadTreeMalformed(t *testing.T) {
	header := func() []byte {
		// One id, "A".
		raw := []byte{1, 0, 1, 'A'}
		return raw
	}

	for _, tc := range []struct {
		name    string
		raw     []byte
		keyword string
	}{
		{
			"empty dictionary",
			[]byte{0, 0},
			"dictionary",
		},
		{
			"leaf sentinel as node",
			append(header(), i16(-1)...),
			"sentinel",
		},
		{
			"index beyond dictionary",
			append(append(header(), i16(2)...), i16(-1)...),
			"index",
		},
		{
			"truncated node",
			append(header(), i16(1)...),
			"truncated",
		},
	} {
		_, err := LoadTree(gzipBytes(t, tc.raw))
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", tc.name, err)
			continue
		}
		if !strings.Contains(err.Error(), tc.keyword) {
			t.Errorf("%s: error %q should mention %q", tc.name, err, tc.keyword)
		}
	}
}

func TestLoadTreeNotGzip(t *testing.T) {
	_, err := LoadTree(strings.NewReader("this is not gzip data"))
	if !errors.Is(err, ErrNotReadable) {
		t.Errorf("expected ErrNotReadable, got %v", err)
	}
}

func TestLoadTreeReportsOffset(t *testing.T) {
	// Bad index at a known position; the error names a byte offset.
	raw := append([]byte{1, 0, 1, 'A'}, i16(999)...)
	raw = append(raw, i16(-1)...)
	_, err := LoadTree(gzipBytes(t, raw))
	if err == nil || !strings.Contains(err.Error(), "byte") {
		t.Errorf("expected byte offset in error, got %v", err)
	}
}
