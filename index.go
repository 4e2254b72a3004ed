// SPDX-License-Identifier: MIT

package tzfinder

// TimeZoneIndex is the payload of a tree leaf: up to two 1-based time
// zone indices packed into 32 bits. The zero value is the empty set,
// which on a leaf means open ocean. A filled First with an empty Second
// is the common single-zone cell; both filled marks a disputed area.
type TimeZoneIndex uint32

// MakeTimeZoneIndex returns an index holding the single entry tz.
func MakeTimeZoneIndex(tz uint16) TimeZoneIndex {
	return TimeZoneIndex(tz)
}

// First returns the first entry, or 0 when the set is empty.
func (x TimeZoneIndex) First() uint16 { return uint16(x) }

// Second returns the second entry, or 0 when there is at most one.
func (x TimeZoneIndex) Second() uint16 { return uint16(x >> 16) }

// IsEmpty reports whether the set holds no entry.
func (x TimeZoneIndex) IsEmpty() bool { return x == 0 }

// Contains reports whether tz is one of the entries.
func (x TimeZoneIndex) Contains(tz uint16) bool {
	return tz != 0 && (x.First() == tz || x.Second() == tz)
}

// Add inserts tz, preserving insertion order. It returns true when tz was
// stored or already present, false when both slots are taken.
func (x *TimeZoneIndex) Add(tz uint16) bool {
	switch {
	case tz == 0 || x.Contains(tz):
		return true
	case x.First() == 0:
		*x = TimeZoneIndex(tz)
		return true
	case x.Second() == 0:
		*x |= TimeZoneIndex(tz) << 16
		return true
	}
	return false
}

// normalized returns the set with its two entries in ascending order.
// Single-entry and empty sets are returned unchanged.
func (x TimeZoneIndex) normalized() TimeZoneIndex {
	if s := x.Second(); s != 0 && x.First() > s {
		return TimeZoneIndex(s) | TimeZoneIndex(x.First())<<16
	}
	return x
}

// TimeZoneIndex2 packs up to four indices into 64 bits. It backs the
// side-table for nodes whose primary TimeZoneIndex overflowed during the
// build; it never reaches the serialized tree.
type TimeZoneIndex2 uint64

func (x TimeZoneIndex2) at(i int) uint16 {
	return uint16(x >> (16 * i))
}

// Contains reports whether tz is one of the entries.
func (x TimeZoneIndex2) Contains(tz uint16) bool {
	if tz == 0 {
		return false
	}
	for i := 0; i < 4; i++ {
		if x.at(i) == tz {
			return true
		}
	}
	return false
}

// Add inserts tz, preserving insertion order. It returns true when tz was
// stored or already present, false when all four slots are taken.
func (x *TimeZoneIndex2) Add(tz uint16) bool {
	if tz == 0 || x.Contains(tz) {
		return true
	}
	for i := 0; i < 4; i++ {
		if x.at(i) == 0 {
			*x |= TimeZoneIndex2(tz) << (16 * i)
			return true
		}
	}
	return false
}

// TimeZoneIndex8 holds up to eight indices. The consolidator threads one
// of these down the tree as the set of candidate zones inherited from
// ancestor nodes; eight slots give headroom beyond anything the builder
// admits into a single subtree.
type TimeZoneIndex8 struct {
	slots [8]uint16
}

// Count returns the number of entries.
func (x *TimeZoneIndex8) Count() int {
	n := 0
	for _, s := range x.slots {
		if s != 0 {
			n++
		}
	}
	return n
}

// At returns the i-th entry in insertion order.
func (x *TimeZoneIndex8) At(i int) uint16 { return x.slots[i] }

// Contains reports whether tz is one of the entries.
func (x *TimeZoneIndex8) Contains(tz uint16) bool {
	if tz == 0 {
		return false
	}
	for _, s := range x.slots {
		if s == tz {
			return true
		}
	}
	return false
}

// Add inserts tz, preserving insertion order. It returns true when tz was
// stored or already present, false when all eight slots are taken.
func (x *TimeZoneIndex8) Add(tz uint16) bool {
	if tz == 0 || x.Contains(tz) {
		return true
	}
	for i := range x.slots {
		if x.slots[i] == 0 {
			x.slots[i] = tz
			return true
		}
	}
	return false
}
