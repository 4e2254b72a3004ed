// SPDX-License-Identifier: MIT

package tzfinder

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// consolidateFanOut is the depth at which consolidation switches from
// the serial top-down sweep to parallel per-subtree workers. 2^8 = 256
// independent subtrees keep every core busy.
const consolidateFanOut = 8

// Consolidate resolves the tree into its final shape: candidate sets are
// pushed from internal nodes down to the leaves, zones whose exclusion
// holes swallow a cell are dropped on the way, and leaves that ended up
// with several candidates are settled by grid sampling. Internal node
// payloads are cleared; after this pass only leaves carry indices.
func (t *Tree) Consolidate(ctx context.Context, sources *Sources, progress ProgressFunc) error {
	type job struct {
		n         *node
		inherited TimeZoneIndex8
		box       BBox
		level     int
	}

	// The sweep above the fan-out depth runs serially, so every subtree
	// job starts with its complete inherited candidate set.
	var jobs []job
	var prepare func(n *node, inherited TimeZoneIndex8, box BBox, level int)
	prepare = func(n *node, inherited TimeZoneIndex8, box BBox, level int) {
		if level == consolidateFanOut {
			jobs = append(jobs, job{n: n, inherited: inherited, box: box, level: level})
			return
		}
		t.absorb(n, &inherited, sources, box)
		if n.hi != nil {
			n.index = 0
			hiBox, loBox := box.Split(level)
			prepare(n.hi, inherited, hiBox, level+1)
			prepare(n.lo, inherited, loBox, level+1)
		} else {
			t.settleLeaf(n, &inherited, sources, box)
		}
	}
	prepare(t.root, TimeZoneIndex8{}, World, 0)

	ch := make(chan job, len(jobs))
	for _, j := range jobs {
		ch <- j
	}
	close(ch)

	g, subCtx := errgroup.WithContext(ctx)
	for i := 0; i < runtime.NumCPU(); i++ {
		g.Go(func() error {
			for j := range ch {
				select {
				case <-subCtx.Done():
					return subCtx.Err()
				default:
				}
				t.consolidateNode(j.n, j.inherited, sources, j.box, j.level)
				if progress != nil {
					progress("consolidate", 1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	t.multi = nil
	return nil
}

func (t *Tree) consolidateNode(n *node, inherited TimeZoneIndex8, sources *Sources, box BBox, level int) {
	t.absorb(n, &inherited, sources, box)
	if n.hi != nil {
		n.index = 0
		hiBox, loBox := box.Split(level)
		t.consolidateNode(n.hi, inherited, sources, hiBox, level+1)
		t.consolidateNode(n.lo, inherited, sources, loBox, level+1)
		return
	}
	t.settleLeaf(n, &inherited, sources, box)
}

// absorb merges the node's own claims and its overflow claims into the
// inherited candidate set, dropping any zone whose exclusion holes fully
// contain the cell.
func (t *Tree) absorb(n *node, inherited *TimeZoneIndex8, sources *Sources, box BBox) {
	add := func(tz uint16) {
		if tz == 0 || inherited.Contains(tz) {
			return
		}
		if !excludedByAnyRing(sources.At(tz), box) {
			inherited.Add(tz)
		}
	}
	add(n.index.First())
	add(n.index.Second())
	if t.multi != nil {
		if m, ok := t.multi[n]; ok {
			for i := 0; i < 4; i++ {
				add(m.at(i))
			}
		}
	}
}

func (t *Tree) settleLeaf(n *node, inherited *TimeZoneIndex8, sources *Sources, box BBox) {
	switch inherited.Count() {
	case 0:
		n.index = 0 // ocean
	case 1:
		n.index = MakeTimeZoneIndex(inherited.At(0))
	default:
		n.index = resolveBySampling(sources, inherited, box)
	}
}

// excludedByAnyRing reports whether one of the source's exclusion holes
// fully contains the box.
func excludedByAnyRing(src *TimeZoneSource, box BBox) bool {
	for _, ring := range src.Excluded {
		if subset, _ := boxRingRelation(ring, box); subset {
			return true
		}
	}
	return false
}

// resolveBySampling settles a leaf with competing candidates. The cell is
// probed on a 5×5 grid inset 10% from the edges; each sample accumulates
// the candidates that actually contain it, and the most frequent
// accumulator wins. Ties go to the accumulator seen first, which keeps
// the result deterministic for a fixed candidate order. Two-entry
// winners are normalized to ascending order.
func resolveBySampling(sources *Sources, candidates *TimeZoneIndex8, box BBox) TimeZoneIndex {
	counts := make(map[TimeZoneIndex]int, 8)
	order := make([]TimeZoneIndex, 0, 8)

	for yi := 0; yi < 5; yi++ {
		lat := lerp(box.SW.Lat, box.NE.Lat, 0.1+float64(yi)*0.2)
		for xi := 0; xi < 5; xi++ {
			p := Position{
				Lng: lerp(box.SW.Lng, box.NE.Lng, 0.1+float64(xi)*0.2),
				Lat: lat,
			}
			var acc TimeZoneIndex
			for i := 0; i < 8; i++ {
				tz := candidates.At(i)
				if tz == 0 {
					break
				}
				if sources.At(tz).contains(p) {
					acc.Add(tz)
				}
			}
			if counts[acc] == 0 {
				order = append(order, acc)
			}
			counts[acc]++
		}
	}

	best := order[0]
	for _, acc := range order[1:] {
		if counts[acc] > counts[best] {
			best = acc
		}
	}
	return best.normalized()
}
