// SPDX-License-Identifier: MIT

// Tool for rendering the cell coverage of one time zone to a PNG, for
// eyeballing a built index.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fogleman/gg"

	"tzfinder"
)

func main() {
	data := flag.String("data", tzfinder.DefaultDataFilename, "path to the binary index")
	zone := flag.String("zone", "Europe/Paris", "time zone id to render")
	out := flag.String("out", "coverage.png", "path to output file being written")
	width := flag.Int("width", 2048, "output image width in pixels")
	flag.Parse()

	if err := renderZone(*data, *zone, *out, *width); err != nil {
		log.Fatal(err)
	}
}

func renderZone(dataPath, zone, outPath string, width int) error {
	f, err := os.Open(dataPath)
	if err != nil {
		return err
	}
	defer f.Close()
	finder, err := tzfinder.LoadFinder(f)
	if err != nil {
		return err
	}

	index, err := finder.IndexOf(zone)
	if err != nil {
		return err
	}

	// Equirectangular canvas over the whole world; one cell box maps to
	// one axis-aligned rectangle.
	height := width / 2
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	sx := float64(width) / 360.0
	sy := float64(height) / 180.0

	count := 0
	dc.SetRGBA(0.85, 0.3, 0.1, 0.9)
	finder.Traverse(tzfinder.MakeTimeZoneIndex(index), func(box tzfinder.BBox) {
		x := (float64(box.SW.Lng) + 180) * sx
		y := (90 - float64(box.NE.Lat)) * sy
		w := float64(box.NE.Lng-box.SW.Lng) * sx
		h := float64(box.NE.Lat-box.SW.Lat) * sy
		dc.DrawRectangle(x, y, w, h)
		count++
	})
	dc.Fill()

	// Graticule every 30 degrees for orientation.
	dc.SetRGBA(0, 0, 0, 0.2)
	dc.SetLineWidth(1)
	for lng := -180; lng <= 180; lng += 30 {
		x := (float64(lng) + 180) * sx
		dc.DrawLine(x, 0, x, float64(height))
	}
	for lat := -90; lat <= 90; lat += 30 {
		y := (90 - float64(lat)) * sy
		dc.DrawLine(0, y, float64(width), y)
	}
	dc.Stroke()

	if count == 0 {
		return fmt.Errorf("no cells for zone %s", zone)
	}
	fmt.Printf("rendered %d cells of %s to %s\n", count, zone, outPath)
	return dc.SavePNG(outPath)
}
