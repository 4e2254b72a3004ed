// SPDX-License-Identifier: MIT

package tzfinder

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// maxTimeZoneCount bounds the id dictionary; indices must fit a positive
// int16 so that the bitwise-complement marker in the node encoding stays
// unambiguous.
const maxTimeZoneCount = 32767

// Save writes the tree to w: a gzip stream containing the id dictionary
// followed by the nodes in preorder. A node is one little-endian int16
// for a single payload, or the complement of the first index followed by
// the second for a dual payload. After the payload, -1 marks a leaf;
// anything else is already the first int16 of the hi child, then the
// rest of the hi subtree and the whole lo subtree.
func (t *Tree) Save(w io.Writer) error {
	if len(t.ids) == 0 || len(t.ids) > maxTimeZoneCount {
		return fmt.Errorf("%w: %d time zone ids", ErrOutOfRange, len(t.ids))
	}

	zw := gzip.NewWriter(w)
	bw := bufio.NewWriter(zw)

	var buf [binary.MaxVarintLen64]byte
	binary.LittleEndian.PutUint16(buf[:2], uint16(len(t.ids)))
	if _, err := bw.Write(buf[:2]); err != nil {
		return err
	}
	for _, id := range t.ids {
		n := binary.PutUvarint(buf[:], uint64(len(id)))
		if _, err := bw.Write(buf[:n]); err != nil {
			return err
		}
		if _, err := bw.WriteString(id); err != nil {
			return err
		}
	}

	if err := writeNode(bw, t.root); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	return zw.Close()
}

func writeInt16(bw *bufio.Writer, v int16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(v))
	_, err := bw.Write(buf[:])
	return err
}

func writeNode(bw *bufio.Writer, n *node) error {
	internal := n.hi != nil
	if internal && !n.index.IsEmpty() {
		// Consolidation clears internal payloads; hitting one here means
		// the tree was serialized before being consolidated.
		return fmt.Errorf("%w: internal node carries payload", ErrMalformed)
	}

	if second := n.index.Second(); second != 0 {
		if err := writeInt16(bw, ^int16(n.index.First())); err != nil {
			return err
		}
		if err := writeInt16(bw, int16(second)); err != nil {
			return err
		}
	} else {
		if err := writeInt16(bw, int16(n.index.First())); err != nil {
			return err
		}
	}

	if !internal {
		return writeInt16(bw, -1)
	}
	if err := writeNode(bw, n.hi); err != nil {
		return err
	}
	return writeNode(bw, n.lo)
}
