package blobstore

import (
	"os"
	"path/filepath"

	"github.com/stellarlib/opat/internal/mmap"
)

// LocalStore serves blobs from a directory on the local file system.
// Files are memory-mapped: catalog and card reads are scattered and small
// compared to container size, so mapping beats buffered reads.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

// Open opens the named container file.
func (s *LocalStore) Open(name string) (Blob, error) {
	m, err := mmap.Open(filepath.Join(s.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}
