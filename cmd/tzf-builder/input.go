// SPDX-License-Identifier: MIT

package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// openLocalInput opens a boundary file and unwraps whatever compression
// its name announces. Release archives come as .zip; mirrors also offer
// .gz, .bz2 and .xz variants.
func openLocalInput(filename string) (io.ReadCloser, error) {
	if strings.HasSuffix(filename, ".zip") {
		return openZipInput(filename)
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	r, err := decompressedReader(filename, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func decompressedReader(filename string, f *os.File) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(filename, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		return &wrappedReader{r: zr, close: f.Close}, nil
	case strings.HasSuffix(filename, ".bz2"):
		br, err := bzip2.NewReader(f, &bzip2.ReaderConfig{})
		if err != nil {
			return nil, err
		}
		return &wrappedReader{r: br, close: f.Close}, nil
	case strings.HasSuffix(filename, ".xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, err
		}
		return &wrappedReader{r: xr, close: f.Close}, nil
	default:
		return f, nil
	}
}

// openZipInput opens the first .json entry of a release archive.
func openZipInput(filename string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	for _, entry := range zr.File {
		if strings.HasSuffix(path.Ext(entry.Name), "json") {
			r, err := entry.Open()
			if err != nil {
				zr.Close()
				return nil, err
			}
			return &wrappedReader{r: r, close: func() error {
				r.Close()
				return zr.Close()
			}}, nil
		}
	}
	zr.Close()
	return nil, fmt.Errorf("no .json entry in %s", filename)
}

// wrappedReader pairs a decompressing reader with the close chain of
// everything beneath it.
type wrappedReader struct {
	r     io.Reader
	close func() error
}

func (w *wrappedReader) Read(p []byte) (int, error) { return w.r.Read(p) }
func (w *wrappedReader) Close() error               { return w.close() }
