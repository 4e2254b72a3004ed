// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/klauspost/compress/zstd"
	"github.com/lanrat/extsort"
	"golang.org/x/sync/errgroup"

	"tzfinder"
)

// CellRecord is one leaf cell of one zone in the cell inventory.
type CellRecord struct {
	Zone                       uint16
	SWLng, SWLat, NELng, NELat float32
}

func (c CellRecord) ToBytes() []byte {
	buf := make([]byte, binary.MaxVarintLen16+16)
	pos := binary.PutUvarint(buf, uint64(c.Zone))
	for _, v := range []float32{c.SWLng, c.SWLat, c.NELng, c.NELat} {
		binary.LittleEndian.PutUint32(buf[pos:], math.Float32bits(v))
		pos += 4
	}
	return buf[0:pos]
}

func CellRecordFromBytes(b []byte) extsort.SortType {
	zone, pos := binary.Uvarint(b)
	var vals [4]float32
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[pos:]))
		pos += 4
	}
	return CellRecord{
		Zone:  uint16(zone),
		SWLng: vals[0], SWLat: vals[1], NELng: vals[2], NELat: vals[3],
	}
}

func CellRecordLess(a, b extsort.SortType) bool {
	aa, bb := a.(CellRecord), b.(CellRecord)
	if aa.Zone != bb.Zone {
		return aa.Zone < bb.Zone
	}
	if aa.SWLng != bb.SWLng {
		return aa.SWLng < bb.SWLng
	}
	return aa.SWLat < bb.SWLat
}

// writeCellsReport emits every leaf cell of every zone as one line
// "id swLng swLat neLng neLat", sorted by zone and position. A planet
// build at the default depth has leaf counts in the millions, so the
// sort runs externally. Two reports of consecutive releases diff
// cleanly, which is the point of the file.
func writeCellsReport(ctx context.Context, finder *tzfinder.Finder, path string) error {
	ids := finder.Tree().IDs()

	ch := make(chan extsort.SortType, 50000)
	g, subCtx := errgroup.WithContext(ctx)
	config := extsort.DefaultConfig()
	config.NumWorkers = runtime.NumCPU()
	sorter, outChan, errChan := extsort.New(ch, CellRecordFromBytes, CellRecordLess, config)
	g.Go(func() error {
		defer close(ch)
		for i := range ids {
			select {
			case <-subCtx.Done():
				return subCtx.Err()
			default:
			}
			finder.Traverse(tzfinder.MakeTimeZoneIndex(uint16(i+1)), func(box tzfinder.BBox) {
				ch <- CellRecord{
					Zone:  uint16(i + 1),
					SWLng: box.SW.Lng, SWLat: box.SW.Lat,
					NELng: box.NE.Lng, NELat: box.NE.Lat,
				}
			})
		}
		return nil
	})
	g.Go(func() error {
		sorter.Sort(ctx) // not subCtx, as per extsort docs
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	tmppath := path + ".tmp"
	tmpfile, err := os.Create(tmppath)
	if err != nil {
		return err
	}
	defer tmpfile.Close()
	zstdLevel := zstd.WithEncoderLevel(zstd.SpeedBestCompression)
	writer, err := zstd.NewWriter(tmpfile, zstdLevel)
	if err != nil {
		return err
	}
	defer writer.Close()

	for data := range outChan {
		rec := data.(CellRecord)
		fmt.Fprintf(writer, "%s %g %g %g %g\n",
			ids[rec.Zone-1], rec.SWLng, rec.SWLat, rec.NELng, rec.NELat)
	}

	if err := <-errChan; err != nil {
		return err
	}

	if err := writer.Close(); err != nil {
		return err
	}
	if err := tmpfile.Sync(); err != nil {
		return err
	}
	if err := tmpfile.Close(); err != nil {
		return err
	}
	return os.Rename(tmppath, path)
}
