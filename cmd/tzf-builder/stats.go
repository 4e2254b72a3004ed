// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"os"

	"tzfinder"
)

type ZoneStats struct {
	ID    string `json:"id"`
	Cells int    `json:"cells"`
}

type Stats struct {
	ZoneCount int         `json:"zone-count"`
	NodeCount int64       `json:"node-count"`
	Zones     []ZoneStats `json:"zones"`
}

// buildStats writes a JSON summary of the built tree: how many leaf
// cells each zone covers. Useful to spot zones that a bad input release
// silently shrank to nothing.
func buildStats(finder *tzfinder.Finder, statsPath string) error {
	ids := finder.Tree().IDs()
	stats := Stats{
		ZoneCount: len(ids),
		NodeCount: finder.Tree().NodeCount(),
		Zones:     make([]ZoneStats, 0, len(ids)),
	}
	for i, id := range ids {
		cells := 0
		finder.Traverse(tzfinder.MakeTimeZoneIndex(uint16(i+1)), func(tzfinder.BBox) {
			cells++
		})
		stats.Zones = append(stats.Zones, ZoneStats{ID: id, Cells: cells})
	}

	j, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	tmpStatsPath := statsPath + ".tmp"
	statsFile, err := os.Create(tmpStatsPath)
	if err != nil {
		return err
	}
	defer statsFile.Close()

	if _, err := statsFile.Write(j); err != nil {
		return err
	}
	if err := statsFile.Sync(); err != nil {
		return err
	}
	if err := statsFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpStatsPath, statsPath); err != nil {
		return err
	}

	return nil
}
