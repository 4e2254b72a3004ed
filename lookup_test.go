// SPDX-License-Identifier: MIT

package tzfinder

import (
	"bytes"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
)

func TestIndexOfCaseInsensitive(t *testing.T) {
	f := testFinder(t)

	for _, id := range []string{"Test/Alpha", "test/alpha", "TEST/ALPHA"} {
		index, err := f.IndexOf(id)
		if err != nil {
			t.Errorf("IndexOf(%q): %v", id, err)
			continue
		}
		if index != 1 {
			t.Errorf("IndexOf(%q) = %d, want 1", id, index)
		}
	}

	if _, err := f.IndexOf("Mars/Olympus_Mons"); !errors.Is(err, ErrUnknownID) {
		t.Errorf("expected ErrUnknownID, got %v", err)
	}
}

func TestIDOfBounds(t *testing.T) {
	f := testFinder(t)

	if _, err := f.IDOf(0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("IDOf(0): expected ErrOutOfRange, got %v", err)
	}
	n := uint16(len(f.Tree().IDs()))
	if _, err := f.IDOf(n + 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("IDOf(%d): expected ErrOutOfRange, got %v", n+1, err)
	}
	if id, err := f.IDOf(n); err != nil || id == "" {
		t.Errorf("IDOf(%d) = %q, %v", n, id, err)
	}
}

func TestLookupRejectsBadCoordinates(t *testing.T) {
	f := testFinder(t)

	nan := float32(math.NaN())
	for _, tc := range []struct{ lng, lat float32 }{
		{181, 0},
		{-181, 0},
		{0, 91},
		{0, -91},
		{nan, 0},
		{0, nan},
	} {
		if _, err := f.IndexAt(tc.lng, tc.lat); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("IndexAt(%v, %v): expected ErrOutOfRange, got %v", tc.lng, tc.lat, err)
		}
		if _, err := f.IDAt(tc.lng, tc.lat); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("IDAt(%v, %v): expected ErrOutOfRange, got %v", tc.lng, tc.lat, err)
		}
		if _, err := f.AllIDsAt(tc.lng, tc.lat); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("AllIDsAt(%v, %v): expected ErrOutOfRange, got %v", tc.lng, tc.lat, err)
		}
	}
}

func TestTraverseCoversZone(t *testing.T) {
	f := testFinder(t)

	index, err := f.IndexOf("Test/Bravo")
	if err != nil {
		t.Fatal(err)
	}

	var boxes []BBox
	f.Traverse(MakeTimeZoneIndex(index), func(box BBox) {
		boxes = append(boxes, box)
	})
	if len(boxes) == 0 {
		t.Fatal("Traverse emitted no boxes")
	}

	// Interior sample points of Bravo must be covered by the union.
	for _, p := range []Position{{-35, 25}, {-38, 22}, {-32, 28}} {
		covered := false
		for _, box := range boxes {
			if box.Contains(p) {
				covered = true
				break
			}
		}
		if !covered {
			t.Errorf("point %v not covered by traversed boxes", p)
		}
	}

	// No box strays far from the zone's bounds; allow one cell of slack
	// for boundary cells claimed at the maximum level.
	for _, box := range boxes {
		if box.NE.Lng < -41 || box.SW.Lng > -29 || box.NE.Lat < 19 || box.SW.Lat > 31 {
			t.Errorf("box %v far outside Test/Bravo", box)
		}
	}
}

func TestTraverseExactPayloadMatch(t *testing.T) {
	f := testFinder(t)

	alpha, err := f.IndexOf("Test/Alpha")
	if err != nil {
		t.Fatal(err)
	}
	charlie, err := f.IndexOf("Test/Charlie")
	if err != nil {
		t.Fatal(err)
	}

	var query TimeZoneIndex
	query.Add(alpha)
	query.Add(charlie)

	count := 0
	f.Traverse(query, func(box BBox) {
		count++
		// Every matched cell sits in the overlap strip.
		if box.NE.Lng < 4 || box.SW.Lng > 11 {
			t.Errorf("dual-payload box %v outside the overlap", box)
		}
	})
	if count == 0 {
		t.Error("no leaves with the exact dual payload")
	}
}

func TestDefaultFinderConcurrentLoad(t *testing.T) {
	f := testFinder(t)
	var buf bytes.Buffer
	if err := f.Tree().Save(&buf); err != nil {
		t.Fatal(err)
	}

	if err := SetDataStream(io.NopCloser(&buf)); err != nil {
		t.Fatal(err)
	}

	const goroutines = 8
	finders := make([]*Finder, goroutines)
	errs := make([]error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			finders[i], errs[i] = Default()
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
		if finders[i] != finders[0] {
			t.Fatal("concurrent callers observed different finders")
		}
	}

	if err := EnsureLoaded(); err != nil {
		t.Errorf("EnsureLoaded after load: %v", err)
	}

	// Configuration is frozen once the load has run.
	if err := SetDataPath("/tmp/other.bin"); !errors.Is(err, ErrAlreadyLoaded) {
		t.Errorf("SetDataPath after load: expected ErrAlreadyLoaded, got %v", err)
	}
	if err := SetDataStream(io.NopCloser(&bytes.Buffer{})); !errors.Is(err, ErrAlreadyLoaded) {
		t.Errorf("SetDataStream after load: expected ErrAlreadyLoaded, got %v", err)
	}
}
