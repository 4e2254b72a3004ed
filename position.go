// SPDX-License-Identifier: MIT

// Package tzfinder maps geographic coordinates to IANA time zone
// identifiers. An offline builder compiles the Timezone Boundary Builder
// GeoJSON release into a compact binary space-partition tree; lookups
// descend that tree in logarithmic depth without touching any polygon.
package tzfinder

import "math"

// Position is a point on Earth in degrees, longitude first like GeoJSON.
// Coordinates are 32-bit floats; equality is bitwise.
type Position struct {
	Lng float32
	Lat float32
}

// outside is the ray-cast target for point-in-ring tests. Its latitude is
// beyond the valid range, so no polygon vertex can ever coincide with it.
var outside = Position{Lng: 0, Lat: 200}

// BBox is an axis-aligned rectangle spanned by its south-west and
// north-east corners.
type BBox struct {
	SW Position
	NE Position
}

// World covers the entire valid coordinate space.
var World = BBox{
	SW: Position{Lng: -180, Lat: -90},
	NE: Position{Lng: 180, Lat: 90},
}

// Split bisects the box. Even levels split along longitude, odd levels
// along latitude; hi owns the half with the greater coordinate on the
// split axis. Alternating the axis every level makes cells at depth 5k
// line up with k-character geohashes.
func (b BBox) Split(level int) (hi, lo BBox) {
	hi, lo = b, b
	if level%2 == 0 {
		mid := (b.SW.Lng + b.NE.Lng) / 2
		hi.SW.Lng = mid
		lo.NE.Lng = mid
	} else {
		mid := (b.SW.Lat + b.NE.Lat) / 2
		hi.SW.Lat = mid
		lo.NE.Lat = mid
	}
	return hi, lo
}

// Contains reports whether p lies within the box. The boundary counts as
// inside, matching the boundary semantics of the ring predicates.
func (b BBox) Contains(p Position) bool {
	return p.Lng >= b.SW.Lng && p.Lng <= b.NE.Lng &&
		p.Lat >= b.SW.Lat && p.Lat <= b.NE.Lat
}

func (b BBox) corners() [4]Position {
	return [4]Position{
		b.SW,
		{Lng: b.SW.Lng, Lat: b.NE.Lat},
		b.NE,
		{Lng: b.NE.Lng, Lat: b.SW.Lat},
	}
}

func lerp(a, b float32, t float64) float32 {
	return float32(float64(a) + (float64(b)-float64(a))*t)
}

func validCoordinate(lng, lat float32) bool {
	if math.IsNaN(float64(lng)) || math.IsNaN(float64(lat)) {
		return false
	}
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}
