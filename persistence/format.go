package persistence

import (
	"errors"
	"fmt"
)

const (
	// Magic identifies OPAT container files.
	Magic = "OPAT"
	// CardMagic identifies serialized card blocks.
	CardMagic = "CARD"

	// Version is the highest container format revision this package reads
	// and the revision it writes.
	Version = 1

	// HeaderSize is the fixed byte size of the file header.
	HeaderSize = 256
	// CardHeaderSize is the fixed byte size of a card header.
	CardHeaderSize = 256
	// TableEntrySize is the fixed byte size of a table index entry.
	TableEntrySize = 64

	// TagWidth is the fixed width of table tags and axis labels.
	TagWidth = 8
	// SourceWidth and CommentWidth bound the free-text header fields.
	SourceWidth  = 64
	CommentWidth = 128
	// DateWidth bounds the creation date field ("YYYY-MM-DD HH:MM").
	DateWidth = 16
)

var (
	// ErrInvalidMagic is returned when a stream does not start with the
	// OPAT magic bytes.
	ErrInvalidMagic = errors.New("persistence: invalid magic")

	// ErrCorrupt is returned when declared offsets, lengths or digests are
	// inconsistent with the stream content. Decoding stops rather than
	// reading out of bounds.
	ErrCorrupt = errors.New("persistence: corrupt container")
)

// ErrUnsupportedVersion is returned when a container declares a format
// revision newer than this package supports. Nothing past the header is read.
type ErrUnsupportedVersion struct {
	Version uint16
}

func (e *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("persistence: unsupported container version %d (max supported %d)", e.Version, Version)
}

// FileHeader is the 256-byte header at the start of every container.
// All multi-byte fields are little-endian; the layout is packed.
type FileHeader struct {
	Magic         [4]byte  // "OPAT"
	Version       uint16   // format revision
	NumCards      uint32   // number of cards in the catalog
	HeaderSize    uint32   // = HeaderSize
	CatalogOffset uint64   // byte offset of the card catalog
	CreationDate  [16]byte // "YYYY-MM-DD HH:MM", NUL padded
	Source        [64]byte // provenance string, NUL padded
	Comment       [128]byte
	NumIndex      uint16 // index vector dimensionality
	HashPrecision uint8  // key quantization digits
	Compression   uint8  // card block compression (CompressionNone in v1 legacy files)
	Reserved      [22]byte
}

// CardHeader is the 256-byte header at the start of every card block.
// Offsets inside the block are relative to the block start.
type CardHeader struct {
	Magic       [4]byte // "CARD"
	NumTables   uint32
	HeaderSize  uint32 // = CardHeaderSize
	IndexOffset uint64 // offset of the table index within the block
	CardSize    uint64 // total block size in bytes
	Comment     [128]byte
	Reserved    [100]byte
}

// TableEntry is one 64-byte record of a card's table index.
type TableEntry struct {
	Tag        [8]byte
	ByteStart  uint64 // payload start, relative to the card block
	ByteEnd    uint64 // payload end, relative to the card block
	NumColumns uint16
	NumRows    uint16
	ColumnName [8]byte
	RowName    [8]byte
	CellSize   uint64 // values per cell (depth), >= 1
	Reserved   [12]byte
}

// CatalogEntry locates one card in the container. On disk it is preceded by
// the card's key values (NumIndex float64s); the struct holds only the fixed
// trailer.
type CatalogEntry struct {
	Index     []float64 // quantization happens at the model layer
	ByteStart uint64    // absolute offset of the card block
	ByteEnd   uint64    // absolute end of the card block
	SHA256    [32]byte  // digest of the card block as stored
}

// CatalogEntrySize returns the on-disk size of one catalog entry for the
// given index dimensionality.
func CatalogEntrySize(numIndex int) int {
	return numIndex*8 + 48
}

// PadString copies s into a fixed-width NUL-padded field, truncating if
// needed. Truncation of free-text fields is documented container behavior.
func PadString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// UnpadString recovers a string from a NUL-padded fixed-width field.
func UnpadString(src []byte) string {
	for i, b := range src {
		if b == 0 {
			return string(src[:i])
		}
	}
	return string(src)
}
