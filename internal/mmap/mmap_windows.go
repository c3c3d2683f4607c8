//go:build windows

package mmap

import (
	"io"
	"os"
)

// Windows gets a plain read instead of a mapping; container files are
// modest and the blobstore interface only needs io.ReaderAt semantics.
func mapFile(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, int64(size)), data); err != nil {
		return nil, err
	}
	return data, nil
}

func unmapFile(data []byte) error {
	return nil
}
