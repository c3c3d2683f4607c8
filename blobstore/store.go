// Package blobstore abstracts read-only access to stored containers.
//
// A BlobStore hands out Blobs: random-access handles over immutable byte
// ranges. Containers opened lazily (opat.OpenReader) fetch the header and
// catalog once and then read single card blocks on demand, which keeps
// remote backends from downloading whole files.
package blobstore

import (
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations must return an error satisfying
// errors.Is(err, ErrNotFound). The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// BlobStore is read-only access to named blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(name string) (Blob, error)
}

// Blob is a random-access read handle over one immutable blob.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the blob length in bytes.
	Size() int64
}
