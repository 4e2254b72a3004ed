// SPDX-License-Identifier: MIT

package tzfinder

// det returns twice the signed area of the triangle (o, a, b). Positive
// when a→b turns counter-clockwise around o. Computed in float64 so that
// float32 inputs cannot lose the sign.
func det(o, a, b Position) float64 {
	ax := float64(a.Lng) - float64(o.Lng)
	ay := float64(a.Lat) - float64(o.Lat)
	bx := float64(b.Lng) - float64(o.Lng)
	by := float64(b.Lat) - float64(o.Lat)
	return ax*by - ay*bx
}

// onSegment reports whether p, already known to be collinear with the
// segment a→b, actually lies on it. Endpoints count; between the
// endpoints the check is a strict interval test on whichever axis the
// segment has extent.
func onSegment(a, b, p Position) bool {
	if p == a || p == b {
		return true
	}
	if a.Lng != b.Lng {
		return (a.Lng < p.Lng) != (b.Lng < p.Lng)
	}
	return (a.Lat < p.Lat) != (b.Lat < p.Lat)
}

// crossing decides whether the query segment q→r crosses the polygon edge
// i→j. prev and next are the ring vertices before i and after j; they
// break the ties that arise when a segment endpoint touches the edge or
// runs along it. onEdge reports that q itself lies on the edge.
func crossing(prev, i, j, next, q, r Position) (crosses, onEdge bool) {
	dq := det(q, i, j)
	dr := det(r, i, j)

	if dq == 0 && onSegment(i, j, q) {
		// q touches the edge. If r is collinear too, the query segment
		// runs along the edge; it crosses the polygon boundary only if
		// the vertices one step past each edge endpoint lie on opposite
		// sides of it.
		if dr == 0 {
			return det(prev, q, r)*det(next, q, r) < 0, true
		}
		return false, true
	}

	di := det(i, q, r)
	dj := det(j, q, r)

	if di == 0 && onSegment(q, r, i) {
		// Edge endpoint i touches the query segment. Whether the edge
		// crosses depends on which sides its neighbors fall on. The
		// endpoint j of this window is counted here; when j itself lies
		// on the segment, the next window handles it as its i.
		return det(prev, q, r)*dj < 0, false
	}

	return dq*dr < 0 && di*dj < 0, false
}

// pointInRing reports whether p lies inside the ring, by parity of the
// crossings of a ray from p to the fixed outside point. Points exactly on
// the boundary count as inside.
func pointInRing(ring Ring, p Position) bool {
	inside := false
	for e := 0; e < ring.numEdges(); e++ {
		prev, i, j, next := ring.window(e)
		crosses, onEdge := crossing(prev, i, j, next, p, outside)
		if onEdge {
			return true
		}
		if crosses {
			inside = !inside
		}
	}
	return inside
}

// boxRingRelation classifies box against ring in a single walk over the
// ring's edges. subset means the ring fully contains the box; overlapping
// means the two share any area. subset implies overlapping.
func boxRingRelation(ring Ring, box BBox) (subset, overlapping bool) {
	corners := box.corners()

	var edgeCrossing, anyOnEdge bool
	var cornerInside, cornerOnEdge [4]bool

	for e := 0; e < ring.numEdges(); e++ {
		prev, i, j, next := ring.window(e)

		for k := 0; k < 4; k++ {
			crosses, onEdge := crossing(prev, i, j, next, corners[k], corners[(k+1)%4])
			edgeCrossing = edgeCrossing || crosses
			anyOnEdge = anyOnEdge || onEdge
		}

		// Ray-cast each corner against this edge. Once a corner is found
		// on the boundary its parity is frozen: further crossings of the
		// degenerate ray would be unreliable.
		for k := 0; k < 4; k++ {
			crosses, onEdge := crossing(prev, i, j, next, corners[k], outside)
			if onEdge {
				cornerOnEdge[k] = true
			} else if !cornerOnEdge[k] && crosses {
				cornerInside[k] = !cornerInside[k]
			}
		}
	}

	allCornersInside := true
	for k := 0; k < 4; k++ {
		if !cornerOnEdge[k] && !cornerInside[k] {
			allCornersInside = false
		}
	}

	subset = allCornersInside && !edgeCrossing && !anyOnEdge

	// A ring that sits wholly inside the box crosses no box edge and
	// contains no corner; testing one ring vertex against the box catches
	// that case.
	overlapping = allCornersInside || edgeCrossing || anyOnEdge || box.Contains(ring[1])

	return subset, overlapping
}
