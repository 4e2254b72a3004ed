// SPDX-License-Identifier: MIT

package tzfinder

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/unicode/norm"
)

// DefaultMinRingDistance is the vertex filter threshold in meters.
const DefaultMinRingDistance = 500.0

// LoadOptions control how boundary polygons are turned into sources.
type LoadOptions struct {
	// MinRingDistance is the minimum great-circle distance between two
	// kept ring vertices, in meters. Zero means DefaultMinRingDistance.
	MinRingDistance float64
}

func (o LoadOptions) minRingDistance() float64 {
	if o.MinRingDistance == 0 {
		return DefaultMinRingDistance
	}
	return o.MinRingDistance
}

// TimeZoneSource is one input feature: a time zone with its boundary
// polygons. Included rings are outer boundaries, excluded rings are
// holes. Sources are immutable once loaded.
type TimeZoneSource struct {
	Index    uint16 // 1-based
	ID       string
	Included []Ring
	Excluded []Ring
}

// contains reports whether p lies in one of the source's included rings
// and outside all of its excluded rings.
func (s *TimeZoneSource) contains(p Position) bool {
	in := false
	for _, ring := range s.Included {
		if pointInRing(ring, p) {
			in = true
			break
		}
	}
	if !in {
		return false
	}
	for _, ring := range s.Excluded {
		if pointInRing(ring, p) {
			return false
		}
	}
	return true
}

// Sources is the loaded input set, indexed 1-based by feature order.
type Sources struct {
	byIndex []*TimeZoneSource
	byID    map[string]uint16
}

// Len returns the number of sources.
func (s *Sources) Len() int { return len(s.byIndex) }

// At returns the source with the given 1-based index.
func (s *Sources) At(index uint16) *TimeZoneSource {
	return s.byIndex[index-1]
}

// Index returns the 1-based index of a time zone id, or 0 when the id
// is not in the set.
func (s *Sources) Index(id string) uint16 { return s.byID[id] }

// IDs returns the time zone identifiers in index order.
func (s *Sources) IDs() []string {
	ids := make([]string, len(s.byIndex))
	for i, src := range s.byIndex {
		ids[i] = src.ID
	}
	return ids
}

// geoJSON feature plumbing. Geometry coordinates are decoded lazily so a
// malformed feature reports its tzid.
type geoFeature struct {
	Properties struct {
		TzID string `json:"tzid"`
	} `json:"properties"`
	Geometry struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

// LoadSources streams a GeoJSON FeatureCollection of time zone boundary
// polygons. Features are assigned 1-based indices in traversal order.
// Geometries other than Polygon and MultiPolygon fail the load.
func LoadSources(r io.Reader, opts LoadOptions) (*Sources, error) {
	dec := json.NewDecoder(r)

	// Skip tokens until the "features" array starts.
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if key, ok := tok.(string); ok && key == "features" {
			break
		}
	}
	if tok, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	} else if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("%w: features is not an array", ErrInvalidInput)
	}

	sources := &Sources{byID: make(map[string]uint16)}
	minDist := opts.minRingDistance()
	for dec.More() {
		var f geoFeature
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		var polygons [][][][]float32
		switch f.Geometry.Type {
		case "Polygon":
			var poly [][][]float32
			if err := json.Unmarshal(f.Geometry.Coordinates, &poly); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, f.Properties.TzID, err)
			}
			polygons = append(polygons, poly)
		case "MultiPolygon":
			if err := json.Unmarshal(f.Geometry.Coordinates, &polygons); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, f.Properties.TzID, err)
			}
		default:
			return nil, fmt.Errorf("%w: %s: unsupported geometry %q",
				ErrInvalidInput, f.Properties.TzID, f.Geometry.Type)
		}

		index := uint16(len(sources.byIndex) + 1)
		src := &TimeZoneSource{
			Index: index,
			ID:    norm.NFC.String(f.Properties.TzID),
		}
		for _, poly := range polygons {
			for i, coords := range poly {
				vertices := make([]Position, 0, len(coords))
				for _, c := range coords {
					if len(c) < 2 {
						return nil, fmt.Errorf("%w: %s: short coordinate",
							ErrInvalidInput, f.Properties.TzID)
					}
					vertices = append(vertices, Position{Lng: c[0], Lat: c[1]})
				}
				ring := reduceRing(vertices, minDist)
				if ring == nil {
					continue
				}
				if i == 0 {
					src.Included = append(src.Included, ring)
				} else {
					src.Excluded = append(src.Excluded, ring)
				}
			}
		}
		sources.byIndex = append(sources.byIndex, src)
		sources.byID[src.ID] = index
	}

	return sources, nil
}

// NewSources builds a source set directly from raw polygon rings, mainly
// for tests and tools that synthesize boundaries. Each entry maps an id
// to its polygons; polygons follow GeoJSON nesting (outer ring first,
// then holes).
func NewSources(zones []SourceSpec, opts LoadOptions) *Sources {
	sources := &Sources{byID: make(map[string]uint16)}
	minDist := opts.minRingDistance()
	for _, z := range zones {
		index := uint16(len(sources.byIndex) + 1)
		src := &TimeZoneSource{Index: index, ID: norm.NFC.String(z.ID)}
		for _, poly := range z.Polygons {
			for i, vertices := range poly {
				ring := reduceRing(vertices, minDist)
				if ring == nil {
					continue
				}
				if i == 0 {
					src.Included = append(src.Included, ring)
				} else {
					src.Excluded = append(src.Excluded, ring)
				}
			}
		}
		sources.byIndex = append(sources.byIndex, src)
		sources.byID[src.ID] = index
	}
	return sources
}

// SourceSpec is one zone for NewSources.
type SourceSpec struct {
	ID       string
	Polygons [][][]Position
}
