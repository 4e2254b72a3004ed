// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"sync"
	"time"

	"tzfinder"
)

// DataLoader serves the current lookup tree and swaps in a fresh one
// when the data file on disk is replaced by a newer build.
type DataLoader struct {
	path    string
	mutex   sync.Mutex
	modTime time.Time
	finder  *tzfinder.Finder
}

func NewDataLoader(path string) (*DataLoader, error) {
	dl := &DataLoader{path: path}
	if err := dl.Reload(); err != nil {
		return nil, err
	}
	return dl, nil
}

func (dl *DataLoader) Get() *tzfinder.Finder {
	dl.mutex.Lock()
	defer dl.mutex.Unlock()
	return dl.finder
}

func (dl *DataLoader) Reload() error {
	stat, err := os.Stat(dl.path)
	if err != nil {
		return err
	}

	dl.mutex.Lock()
	upToDate := dl.finder != nil && stat.ModTime().Equal(dl.modTime)
	dl.mutex.Unlock()
	if upToDate {
		return nil
	}

	f, err := os.Open(dl.path)
	if err != nil {
		return err
	}
	defer f.Close()

	finder, err := tzfinder.LoadFinder(f)
	if err != nil {
		return err
	}

	dl.mutex.Lock()
	dl.finder = finder
	dl.modTime = stat.ModTime()
	dl.mutex.Unlock()

	return nil
}
