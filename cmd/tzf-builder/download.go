// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
)

// openBoundaryInput returns a reader over the uncompressed GeoJSON of a
// boundary release. A URL is fetched once and kept in the cache
// directory as a brotli-compressed copy; subsequent runs read from the
// cache without going to the network.
func openBoundaryInput(input string, client *http.Client, cachedir string) (io.ReadCloser, error) {
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return openLocalInput(input)
	}

	cached := filepath.Join(cachedir, cacheName(input))
	if f, err := os.Open(cached); err == nil {
		return &wrappedReader{r: brotli.NewReader(f), close: f.Close}, nil
	}

	if logger != nil {
		logger.Printf("fetching %s", input)
	}
	if err := os.MkdirAll(cachedir, os.ModePerm); err != nil {
		return nil, err
	}

	if err := downloadToCache(input, client, cachedir, cached); err != nil {
		return nil, err
	}

	f, err := os.Open(cached)
	if err != nil {
		return nil, err
	}
	return &wrappedReader{r: brotli.NewReader(f), close: f.Close}, nil
}

// cacheName derives the cache file name from the URL's base name, with
// the compression extension replaced by .br.
func cacheName(url string) string {
	base := path.Base(url)
	for _, ext := range []string{".zip", ".gz", ".bz2", ".xz"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".br"
}

// downloadToCache fetches the release, unwraps its compression, and
// stores the GeoJSON brotli-compressed. The download goes to the
// archive's own name first so the unwrapping can key off the extension,
// and the cache file is renamed into place only once complete.
func downloadToCache(url string, client *http.Client, cachedir, cached string) error {
	r, err := client.Get(url)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if r.StatusCode != 200 {
		return fmt.Errorf("failed to fetch %s, StatusCode=%d", url, r.StatusCode)
	}

	downloadPath := filepath.Join(cachedir, path.Base(url)+".download")
	download, err := os.Create(downloadPath)
	if err != nil {
		return err
	}
	defer os.Remove(downloadPath)
	if _, err := io.Copy(download, r.Body); err != nil {
		download.Close()
		return err
	}
	if err := download.Close(); err != nil {
		return err
	}

	// The archive keeps its real name minus the .download suffix, so
	// openLocalInput picks the right decompressor.
	archivePath := filepath.Join(cachedir, path.Base(url))
	if err := os.Rename(downloadPath, archivePath); err != nil {
		return err
	}
	defer os.Remove(archivePath)

	raw, err := openLocalInput(archivePath)
	if err != nil {
		return err
	}
	defer raw.Close()

	tmppath := cached + ".tmp"
	tmpfile, err := os.Create(tmppath)
	if err != nil {
		return err
	}
	defer tmpfile.Close()
	writer := brotli.NewWriterLevel(tmpfile, 9)
	if _, err := io.Copy(writer, raw); err != nil {
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
	return os.Rename(tmppath, cached)
}
