// SPDX-License-Identifier: MIT

package tzfinder

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxLevel is the deepest split level of the tree. At level 25 a
// cell is about 4.9 km wide at the equator, the resolution of a
// 5-character geohash.
const DefaultMaxLevel = 25

// BuildOptions control the tree construction.
type BuildOptions struct {
	// MaxLevel caps the subdivision depth. Zero means DefaultMaxLevel.
	MaxLevel int
}

func (o BuildOptions) maxLevel() int {
	if o.MaxLevel == 0 {
		return DefaultMaxLevel
	}
	return o.MaxLevel
}

// ProgressFunc receives build progress: a step name and how many work
// items just completed. May be nil.
type ProgressFunc func(step string, delta int)

// node is one cell of the partition tree. Internal nodes own exactly two
// children; hi holds the half with the greater coordinate on the split
// axis. During the build a node's index accumulates the zones whose
// boundary ring fully covers the cell; consolidation later clears it on
// internal nodes and settles it on leaves.
type node struct {
	mu     sync.Mutex
	hi, lo *node
	index  TimeZoneIndex
}

// Tree is the compiled spatial index: the partition root plus the
// dictionary of time zone identifiers referenced by leaf payloads.
type Tree struct {
	root      *node
	ids       []string
	nodeCount int64
	maxLevel  int

	// Overflow claims recorded during the build for nodes whose primary
	// index filled up. Consumed and discarded by Consolidate.
	multiMu sync.Mutex
	multi   map[*node]TimeZoneIndex2
}

// NodeCount returns the number of nodes in the tree.
func (t *Tree) NodeCount() int64 { return atomic.LoadInt64(&t.nodeCount) }

// IDs returns the time zone identifiers, index 1 first.
func (t *Tree) IDs() []string { return t.ids }

// claim records that zone idx covers the node's whole cell. When both
// slots of the node index are taken, the claim goes to the overflow
// side-table instead.
func (t *Tree) claim(n *node, idx uint16) {
	n.mu.Lock()
	ok := n.index.Add(idx)
	n.mu.Unlock()
	if ok {
		return
	}
	t.multiMu.Lock()
	m := t.multi[n]
	m.Add(idx)
	t.multi[n] = m
	t.multiMu.Unlock()
}

// ensureChildren splits the node. Children start out with the parent's
// payload, so every zone already claimed for the cell stays claimed for
// both halves. Idempotent and safe under concurrent callers.
func (t *Tree) ensureChildren(n *node) {
	n.mu.Lock()
	if n.hi == nil {
		n.hi = &node{index: n.index}
		n.lo = &node{index: n.index}
		atomic.AddInt64(&t.nodeCount, 2)
	}
	n.mu.Unlock()
}

// addRing descends the tree for one included ring of zone idx. Cells
// fully inside the ring are claimed; cells partly covered are split and
// recursed into, except at the maximum level where the partial overlap
// is accepted as a claim. Disjoint cells are left alone.
func (t *Tree) addRing(n *node, idx uint16, ring Ring, box BBox, level int) {
	subset, overlapping := boxRingRelation(ring, box)
	if subset {
		t.claim(n, idx)
		return
	}
	if !overlapping {
		return
	}
	if level == t.maxLevel {
		t.claim(n, idx)
		return
	}
	t.ensureChildren(n)
	hiBox, loBox := box.Split(level)
	t.addRing(n.hi, idx, ring, hiBox, level+1)
	t.addRing(n.lo, idx, ring, loBox, level+1)
}

type ringWork struct {
	idx  uint16
	ring Ring
}

// Build partitions the world into cells covered by the sources' included
// rings. Work is fanned out over one goroutine per CPU; one work item is
// one ring. The resulting tree still carries redundant payloads on
// internal nodes and unresolved multi-claims; Consolidate settles both.
func Build(ctx context.Context, sources *Sources, opts BuildOptions, progress ProgressFunc) (*Tree, error) {
	t := &Tree{
		root:      &node{},
		ids:       sources.IDs(),
		nodeCount: 1,
		maxLevel:  opts.maxLevel(),
		multi:     make(map[*node]TimeZoneIndex2),
	}

	ch := make(chan ringWork, 1024)
	g, subCtx := errgroup.WithContext(ctx)

	for i := 0; i < runtime.NumCPU(); i++ {
		g.Go(func() error {
			for item := range ch {
				select {
				case <-subCtx.Done():
					return subCtx.Err()
				default:
				}
				t.addRing(t.root, item.idx, item.ring, World, 0)
				if progress != nil {
					progress("build", 1)
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(ch)
		// Rings are enqueued grouped by source, so progress callbacks
		// see one zone mostly finish before the next begins.
		for i := 1; i <= sources.Len(); i++ {
			src := sources.At(uint16(i))
			for _, ring := range src.Included {
				select {
				case ch <- ringWork{idx: src.Index, ring: ring}:
				case <-subCtx.Done():
					return subCtx.Err()
				}
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}
