// SPDX-License-Identifier: MIT

// Command tzf-builder compiles a Timezone Boundary Builder GeoJSON
// release into the binary lookup tree served by the tzfinder library.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"tzfinder"
)

var logger *log.Logger

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := flag.String("input",
		"https://github.com/evansiroky/timezone-boundary-builder/releases/latest/download/timezones.geojson.zip",
		"URL or local path of the boundary GeoJSON release")
	cachedir := flag.String("cache", "cache/tzf-builder", "path to cache directory")
	output := flag.String("output", tzfinder.DefaultDataFilename, "path of the binary index being written")
	maxLevel := flag.Int("max-level", tzfinder.DefaultMaxLevel, "deepest split level of the tree")
	minDist := flag.Float64("min-ring-distance", tzfinder.DefaultMinRingDistance, "ring vertex filter distance in meters")
	statspath := flag.String("stats", "", "optional path for a coverage stats JSON file")
	cellspath := flag.String("cells", "", "optional path for a sorted cell inventory report")
	storagekey := flag.String("storage-key", "", "path to key with storage access credentials")
	flag.Parse()

	logfile, err := createLogFile()
	if err != nil {
		log.Fatal(err)
	}
	defer logfile.Close()
	logger = log.New(logfile, "", log.Ldate|log.Ltime|log.LUTC|log.Lshortfile)

	var storage Storage
	if *storagekey != "" {
		storage, err = NewStorage(*storagekey)
		if err != nil {
			logger.Fatal(err)
		}
		bucketExists, err := storage.BucketExists(ctx, bucket)
		if err != nil {
			logger.Fatal(err)
		}
		if !bucketExists {
			logger.Fatalf("storage bucket %q does not exist", bucket)
		}
	}

	// If a previous run already produced the output file, we only redo
	// the reporting and upload steps.
	finder, err := loadExistingOutput(*output)
	if err != nil {
		logger.Fatal(err)
	}
	if finder == nil {
		finder, err = build(ctx, *input, *cachedir, *output, *maxLevel, *minDist)
		if err != nil {
			logger.Fatal(err)
		}
	}

	if *statspath != "" {
		if err := buildStats(finder, *statspath); err != nil {
			logger.Fatal(err)
		}
	}
	if *cellspath != "" {
		if err := writeCellsReport(ctx, finder, *cellspath); err != nil {
			logger.Fatal(err)
		}
	}

	if storage != nil {
		remotepath := fmt.Sprintf("public/%s", filepath.Base(*output))
		if err := storage.PutFile(ctx, bucket, remotepath, *output, "application/gzip"); err != nil {
			logger.Fatal(err)
		}
		msg := fmt.Sprintf("Uploaded to storage: %s/%s", bucket, remotepath)
		fmt.Println(msg)
		logger.Println(msg)
		if err := Cleanup(storage); err != nil {
			logger.Fatal(err)
		}
	}
}

// loadExistingOutput opens a pre-existing output file, or returns nil
// when there is none and the tree needs to be built.
func loadExistingOutput(path string) (*tzfinder.Finder, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	finder, err := tzfinder.LoadFinder(f)
	if err != nil {
		return nil, fmt.Errorf("pre-existing %s is unusable: %w", path, err)
	}
	logger.Printf("using pre-existing %s", path)
	return finder, nil
}

func build(ctx context.Context, input, cachedir, output string, maxLevel int, minDist float64) (*tzfinder.Finder, error) {
	client := &http.Client{Timeout: 15 * time.Minute}
	in, err := openBoundaryInput(input, client, cachedir)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	start := time.Now()
	sources, err := tzfinder.LoadSources(in, tzfinder.LoadOptions{MinRingDistance: minDist})
	if err != nil {
		return nil, err
	}
	logger.Printf("loaded %d time zones in %.1fs", sources.Len(), time.Since(start).Seconds())

	start = time.Now()
	tree, err := tzfinder.Build(ctx, sources, tzfinder.BuildOptions{MaxLevel: maxLevel}, logProgress)
	if err != nil {
		return nil, err
	}
	logger.Printf("built %d nodes in %.1fs", tree.NodeCount(), time.Since(start).Seconds())

	start = time.Now()
	if err := tree.Consolidate(ctx, sources, logProgress); err != nil {
		return nil, err
	}
	logger.Printf("consolidated in %.1fs", time.Since(start).Seconds())

	// Write to a temporary file first and rename it atomically once it
	// is complete, so a crash mid-write cannot leave a half-written
	// index behind.
	if err := os.MkdirAll(filepath.Dir(output), os.ModePerm); err != nil {
		return nil, err
	}
	tmppath := output + ".tmp"
	tmpfile, err := os.Create(tmppath)
	if err != nil {
		return nil, err
	}
	defer tmpfile.Close()
	if err := tree.Save(tmpfile); err != nil {
		return nil, err
	}
	if err := tmpfile.Sync(); err != nil {
		return nil, err
	}
	if err := tmpfile.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmppath, output); err != nil {
		return nil, err
	}
	logger.Printf("wrote %s", output)

	return tzfinder.NewFinder(tree), nil
}

// logProgress reports builder progress to the log, batched so that a
// full planet build does not produce millions of lines. Called from
// several worker goroutines.
var progressCount int64

func logProgress(step string, delta int) {
	n := atomic.AddInt64(&progressCount, int64(delta))
	if n%500 == 0 {
		logger.Printf("%s: %d work items done", step, n)
	}
}

// Create a file for keeping logs. If the file already exists, its
// present content is preserved, and new log entries will get appended
// after the existing ones.
func createLogFile() (*os.File, error) {
	logpath := filepath.Join("logs", "tzf-builder.log")
	if err := os.MkdirAll("logs", os.ModePerm); err != nil {
		return nil, err
	}

	logfile, err := os.OpenFile(logpath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return logfile, nil
}
