// SPDX-License-Identifier: MIT

package tzfinder

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// countingReader tracks how many decompressed bytes have been consumed,
// so decode errors can name the offset they happened at.
type countingReader struct {
	r      *bufio.Reader
	offset int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.offset += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.offset++
	}
	return b, err
}

type treeDecoder struct {
	r         *countingReader
	zoneCount int
	nodeCount int64
}

func (d *treeDecoder) readInt16() (int16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: truncated at byte %d", ErrMalformed, d.r.offset)
	}
	return int16(binary.LittleEndian.Uint16(buf[:])), nil
}

// LoadTree reads a tree in the format written by Save. The stream is
// strictly sequential: the first int16 of every hi child doubles as the
// leaf/child discriminator of its parent, so there is no way to seek.
func LoadTree(r io.Reader) (*Tree, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotReadable, err)
	}
	defer zr.Close()

	d := &treeDecoder{r: &countingReader{r: bufio.NewReader(zr)}}

	var buf [2]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrMalformed)
	}
	n := int(binary.LittleEndian.Uint16(buf[:]))
	if n == 0 {
		return nil, fmt.Errorf("%w: empty id dictionary", ErrMalformed)
	}
	d.zoneCount = n

	ids := make([]string, n)
	for i := range ids {
		length, err := binary.ReadUvarint(d.r)
		if err != nil {
			return nil, fmt.Errorf("%w: id length at byte %d", ErrMalformed, d.r.offset)
		}
		if length > 1024 {
			return nil, fmt.Errorf("%w: id length %d at byte %d", ErrMalformed, length, d.r.offset)
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(d.r, raw); err != nil {
			return nil, fmt.Errorf("%w: truncated id at byte %d", ErrMalformed, d.r.offset)
		}
		ids[i] = string(raw)
	}

	root, err := d.readNode()
	if err != nil {
		return nil, err
	}

	return &Tree{root: root, ids: ids, nodeCount: d.nodeCount}, nil
}

func (d *treeDecoder) readNode() (*node, error) {
	v, err := d.readInt16()
	if err != nil {
		return nil, err
	}
	return d.readNodeWith(v)
}

// readNodeWith decodes a node whose first int16 has already been read,
// either as the start of the stream or as the parent's discriminator.
func (d *treeDecoder) readNodeWith(v int16) (*node, error) {
	n := &node{}
	d.nodeCount++

	switch {
	case v == -1:
		return nil, fmt.Errorf("%w: leaf sentinel in node position at byte %d", ErrMalformed, d.r.offset)
	case v < 0:
		first := uint16(^v)
		second, err := d.readInt16()
		if err != nil {
			return nil, err
		}
		if second <= 0 || int(second) > d.zoneCount || int(first) > d.zoneCount || uint16(second) == first {
			return nil, fmt.Errorf("%w: index pair (%d, %d) at byte %d", ErrMalformed, first, second, d.r.offset)
		}
		n.index = MakeTimeZoneIndex(first)
		n.index.Add(uint16(second))
	default:
		if int(v) > d.zoneCount {
			return nil, fmt.Errorf("%w: index %d at byte %d", ErrMalformed, v, d.r.offset)
		}
		n.index = MakeTimeZoneIndex(uint16(v))
	}

	disc, err := d.readInt16()
	if err != nil {
		return nil, err
	}
	if disc == -1 {
		return n, nil
	}

	hi, err := d.readNodeWith(disc)
	if err != nil {
		return nil, err
	}
	lo, err := d.readNode()
	if err != nil {
		return nil, err
	}
	n.hi, n.lo = hi, lo
	return n, nil
}
