package opat

import (
	"fmt"

	"github.com/stellarlib/opat/blobstore"
	"github.com/stellarlib/opat/index"
	"github.com/stellarlib/opat/persistence"
)

// Reader is a lazily-decoded view of a stored container: the header and card
// catalog are read once at open time, single cards on demand. It never holds
// more than the requested card in memory, which suits containers with
// hundreds of large cards on local or object storage.
//
// A Reader is safe for concurrent Card calls as long as the underlying Blob
// supports concurrent ReadAt (local files and object stores do).
type Reader struct {
	blob    blobstore.Blob
	br      *persistence.Reader
	logger  *Logger
	version uint16
	source  string
	comment string
	created string

	numIndex    int
	precision   uint8
	compression persistence.Compression

	catalog map[uint64][]catalogSlot // xxhash64 key buckets
	keys    []index.Key              // catalog order
}

// catalogSlot pairs a decoded key with its catalog entry inside a hash
// bucket; lookups probe the bucket with Key.Equal.
type catalogSlot struct {
	key   index.Key
	entry *persistence.CatalogEntry
}

// OpenReader opens the named container through a BlobStore and decodes its
// header and catalog. Close releases the underlying blob.
func OpenReader(store blobstore.BlobStore, name string, opts ...Option) (*Reader, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	blob, err := store.Open(name)
	if err != nil {
		return nil, err
	}

	br := persistence.NewReader(blob, blob.Size())
	hdr, err := readHeader(br)
	if err != nil {
		blob.Close()
		return nil, err
	}
	entries, err := readCatalog(br, hdr)
	if err != nil {
		blob.Close()
		return nil, err
	}

	r := &Reader{
		blob:        blob,
		br:          br,
		logger:      o.logger.WithFile(name),
		version:     hdr.Version,
		source:      persistence.UnpadString(hdr.Source[:]),
		comment:     persistence.UnpadString(hdr.Comment[:]),
		created:     persistence.UnpadString(hdr.CreationDate[:]),
		numIndex:    int(hdr.NumIndex),
		precision:   hdr.HashPrecision,
		compression: persistence.Compression(hdr.Compression),
		catalog:     make(map[uint64][]catalogSlot, len(entries)),
	}
	for _, entry := range entries {
		key, err := index.Make(entry.Index, r.precision)
		if err != nil {
			blob.Close()
			return nil, fmt.Errorf("%w: %w", persistence.ErrCorrupt, err)
		}
		if r.findEntry(key) != nil {
			blob.Close()
			return nil, fmt.Errorf("%w: duplicate card key %s", persistence.ErrCorrupt, key)
		}
		h := key.Hash()
		r.catalog[h] = append(r.catalog[h], catalogSlot{key: key, entry: entry})
		r.keys = append(r.keys, key)
	}

	r.logger.WithCards(len(r.keys)).Debug("container opened")
	return r, nil
}

// Close releases the underlying blob.
func (r *Reader) Close() error { return r.blob.Close() }

// Version returns the container format revision.
func (r *Reader) Version() uint16 { return r.version }

// Source returns the provenance string.
func (r *Reader) Source() string { return r.source }

// Comment returns the free-text comment.
func (r *Reader) Comment() string { return r.comment }

// CreationDate returns the creation timestamp recorded in the header.
func (r *Reader) CreationDate() string { return r.created }

// NumIndex returns the dimensionality of index vectors.
func (r *Reader) NumIndex() int { return r.numIndex }

// HashPrecision returns the key quantization precision in decimal digits.
func (r *Reader) HashPrecision() uint8 { return r.precision }

// Len returns the number of cards in the catalog.
func (r *Reader) Len() int { return len(r.keys) }

// Keys returns the card keys in catalog order.
func (r *Reader) Keys() []index.Key {
	out := make([]index.Key, len(r.keys))
	copy(out, r.keys)
	return out
}

// Card reads, verifies and decodes the single card identified by vector.
// Each call decodes afresh; callers wanting their own caching layer on top
// keep control of memory.
func (r *Reader) Card(vector []float64) (*Card, error) {
	if len(vector) != r.numIndex {
		return nil, &ErrInvalidDimension{Expected: r.numIndex, Actual: len(vector)}
	}
	key, err := index.Make(vector, r.precision)
	if err != nil {
		return nil, err
	}
	return r.CardByKey(key)
}

// CardByKey reads, verifies and decodes the single card stored under key.
func (r *Reader) CardByKey(key index.Key) (*Card, error) {
	entry := r.findEntry(key)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, key)
	}
	return decodeCard(r.br, entry, r.compression, r.precision)
}

func (r *Reader) findEntry(key index.Key) *persistence.CatalogEntry {
	for _, slot := range r.catalog[key.Hash()] {
		if slot.key.Equal(key) {
			return slot.entry
		}
	}
	return nil
}
