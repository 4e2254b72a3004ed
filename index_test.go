// SPDX-License-Identifier: MIT

package tzfinder

import "testing"

func TestTimeZoneIndexAdd(t *testing.T) {
	var x TimeZoneIndex
	if !x.IsEmpty() {
		t.Fatal("zero value must be empty")
	}

	if !x.Add(7) {
		t.Fatal("first Add failed")
	}
	if x.First() != 7 || x.Second() != 0 {
		t.Errorf("after one Add: (%d, %d)", x.First(), x.Second())
	}

	// Duplicates are absorbed silently.
	if !x.Add(7) {
		t.Error("duplicate Add must report success")
	}
	if x.Second() != 0 {
		t.Errorf("duplicate filled the second slot: (%d, %d)", x.First(), x.Second())
	}

	if !x.Add(3) {
		t.Fatal("second Add failed")
	}
	if x.First() != 7 || x.Second() != 3 {
		t.Errorf("insertion order lost: (%d, %d)", x.First(), x.Second())
	}

	// Slots are full now.
	if x.Add(9) {
		t.Error("third Add must overflow")
	}
	if !x.Add(3) {
		t.Error("Add of present entry must succeed even when full")
	}

	if !x.Contains(7) || !x.Contains(3) || x.Contains(9) || x.Contains(0) {
		t.Errorf("Contains wrong for (%d, %d)", x.First(), x.Second())
	}
}

func TestTimeZoneIndexNormalized(t *testing.T) {
	var x TimeZoneIndex
	x.Add(9)
	x.Add(2)
	n := x.normalized()
	if n.First() != 2 || n.Second() != 9 {
		t.Errorf("normalized: (%d, %d), want (2, 9)", n.First(), n.Second())
	}

	// Already ascending and single-entry sets are unchanged.
	if n.normalized() != n {
		t.Error("normalizing twice changed the value")
	}
	single := MakeTimeZoneIndex(5)
	if single.normalized() != single {
		t.Error("single entry must not change")
	}
}

func TestTimeZoneIndex2(t *testing.T) {
	var x TimeZoneIndex2
	for i, tz := range []uint16{10, 20, 30, 40} {
		if !x.Add(tz) {
			t.Fatalf("Add %d failed", i)
		}
	}
	if x.Add(50) {
		t.Error("fifth Add must overflow")
	}
	if !x.Add(20) {
		t.Error("Add of present entry must succeed")
	}
	for _, tz := range []uint16{10, 20, 30, 40} {
		if !x.Contains(tz) {
			t.Errorf("missing %d", tz)
		}
	}
	if x.Contains(50) || x.Contains(0) {
		t.Error("Contains of absent entry")
	}
}

func TestTimeZoneIndex8(t *testing.T) {
	var x TimeZoneIndex8
	if x.Count() != 0 {
		t.Fatal("zero value must be empty")
	}
	for tz := uint16(1); tz <= 8; tz++ {
		if !x.Add(tz * 11) {
			t.Fatalf("Add %d failed", tz)
		}
	}
	if x.Count() != 8 {
		t.Errorf("Count = %d, want 8", x.Count())
	}
	if x.Add(99) {
		t.Error("ninth Add must overflow")
	}
	if x.At(0) != 11 || x.At(7) != 88 {
		t.Errorf("insertion order lost: %d, %d", x.At(0), x.At(7))
	}
}
