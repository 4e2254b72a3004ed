// SPDX-License-Identifier: MIT

package tzfinder

import (
	"errors"
	"strings"
	"testing"
)

const testFeatureCollection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"tzid": "Test/Alpha"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [
          [[0,0],[10,0],[10,10],[0,10],[0,0]],
          [[2,2],[4,2],[4,4],[2,4],[2,2]]
        ]
      }
    },
    {
      "type": "Feature",
      "properties": {"tzid": "Test/Bravo"},
      "geometry": {
        "type": "MultiPolygon",
        "coordinates": [
          [[[20,0],[30,0],[30,10],[20,10],[20,0]]],
          [[[40,0],[50,0],[50,10],[40,10],[40,0]]]
        ]
      }
    }
  ]
}`

func TestLoadSources(t *testing.T) {
	sources, err := LoadSources(strings.NewReader(testFeatureCollection), LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if got := sources.Len(); got != 2 {
		t.Fatalf("Len: got %d, want 2", got)
	}

	alpha := sources.At(1)
	if alpha.ID != "Test/Alpha" || alpha.Index != 1 {
		t.Errorf("source 1: %q index %d", alpha.ID, alpha.Index)
	}
	if len(alpha.Included) != 1 || len(alpha.Excluded) != 1 {
		t.Errorf("alpha rings: %d included, %d excluded, want 1 and 1",
			len(alpha.Included), len(alpha.Excluded))
	}

	bravo := sources.At(2)
	if len(bravo.Included) != 2 || len(bravo.Excluded) != 0 {
		t.Errorf("bravo rings: %d included, %d excluded, want 2 and 0",
			len(bravo.Included), len(bravo.Excluded))
	}

	if got := sources.IDs(); got[0] != "Test/Alpha" || got[1] != "Test/Bravo" {
		t.Errorf("IDs: %v", got)
	}

	if got := sources.Index("Test/Bravo"); got != 2 {
		t.Errorf(`Index("Test/Bravo") = %d, want 2`, got)
	}
	if got := sources.Index("Test/Missing"); got != 0 {
		t.Errorf(`Index("Test/Missing") = %d, want 0`, got)
	}
}

func TestLoadSourcesContains(t *testing.T) {
	sources, err := LoadSources(strings.NewReader(testFeatureCollection), LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}

	alpha := sources.At(1)
	for _, tc := range []struct {
		p        Position
		expected bool
	}{
		{Position{5, 5}, true},
		{Position{3, 3}, false}, // inside the hole
		{Position{15, 5}, false},
	} {
		if got := alpha.contains(tc.p); got != tc.expected {
			t.Errorf("contains(%v) = %v, want %v", tc.p, got, tc.expected)
		}
	}

	bravo := sources.At(2)
	if !bravo.contains(Position{25, 5}) || !bravo.contains(Position{45, 5}) {
		t.Error("bravo must contain points of both polygons")
	}
}

func TestLoadSourcesUnsupportedGeometry(t *testing.T) {
	input := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"tzid":"Test/Point"},
	   "geometry":{"type":"Point","coordinates":[1,2]}}]}`
	_, err := LoadSources(strings.NewReader(input), LoadOptions{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "Test/Point") {
		t.Errorf("error should name the feature: %v", err)
	}
}

func TestLoadSourcesGarbage(t *testing.T) {
	_, err := LoadSources(strings.NewReader("not json"), LoadOptions{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
