package opat

import (
	"bytes"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/stellarlib/opat/index"
	"github.com/stellarlib/opat/persistence"
)

// Load reconstructs a container from an io.ReaderAt of the given size.
//
// The decode is all-or-nothing: on any failure no partially populated
// Container is returned. Unknown future format versions fail with
// *persistence.ErrUnsupportedVersion before anything past the header is
// read; offsets or digests inconsistent with the stream fail with
// persistence.ErrCorrupt. Card blocks are independent byte ranges, so they
// decode concurrently under a bounded errgroup.
func Load(r io.ReaderAt, size int64, opts ...Option) (*Container, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	br := persistence.NewReader(r, size)
	hdr, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	entries, err := readCatalog(br, hdr)
	if err != nil {
		return nil, err
	}

	c := &Container{
		version:     hdr.Version,
		source:      persistence.UnpadString(hdr.Source[:]),
		comment:     persistence.UnpadString(hdr.Comment[:]),
		created:     persistence.UnpadString(hdr.CreationDate[:]),
		numIndex:    int(hdr.NumIndex),
		precision:   hdr.HashPrecision,
		compression: persistence.Compression(hdr.Compression),
		logger:      o.logger,
		cards:       make(map[uint64][]*Card, len(entries)),
	}

	cards := make([]*Card, len(entries))
	g := new(errgroup.Group)
	limit := o.parallelism
	if limit < 1 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			card, err := decodeCard(br, entry, c.compression, c.precision)
			if err != nil {
				return fmt.Errorf("card %v: %w", entry.Index, err)
			}
			cards[i] = card
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, card := range cards {
		if c.lookup(card.key) != nil {
			return nil, fmt.Errorf("%w: duplicate card key %s", persistence.ErrCorrupt, card.key)
		}
		c.insert(card)
	}

	c.logger.WithCards(len(cards)).Debug("container loaded",
		"bytes", size,
		"compression", c.compression.String(),
	)
	return c, nil
}

// LoadFile reconstructs a container from a file. The handle is released on
// all exit paths, including decode failures.
func LoadFile(path string, opts ...Option) (*Container, error) {
	var c *Container
	err := persistence.LoadFromFile(path, func(r io.ReaderAt, size int64) error {
		var err error
		c, err = Load(r, size, opts...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func readHeader(br *persistence.Reader) (*persistence.FileHeader, error) {
	var hdr persistence.FileHeader
	if err := br.ReadStruct(0, &hdr); err != nil {
		return nil, err
	}
	if string(hdr.Magic[:]) != persistence.Magic {
		return nil, fmt.Errorf("%w: got %q", persistence.ErrInvalidMagic, hdr.Magic[:])
	}
	if hdr.Version > persistence.Version {
		return nil, &persistence.ErrUnsupportedVersion{Version: hdr.Version}
	}
	if hdr.HeaderSize != persistence.HeaderSize {
		return nil, fmt.Errorf("%w: header size %d", persistence.ErrCorrupt, hdr.HeaderSize)
	}
	if hdr.NumIndex == 0 {
		return nil, fmt.Errorf("%w: zero index dimensions", persistence.ErrCorrupt)
	}
	if hdr.HashPrecision < index.MinPrecision || hdr.HashPrecision > index.MaxPrecision {
		return nil, fmt.Errorf("%w: hash precision %d", persistence.ErrCorrupt, hdr.HashPrecision)
	}
	if !persistence.Compression(hdr.Compression).Valid() {
		return nil, fmt.Errorf("%w: unknown compression codec %d", persistence.ErrCorrupt, hdr.Compression)
	}
	return &hdr, nil
}

func readCatalog(br *persistence.Reader, hdr *persistence.FileHeader) ([]*persistence.CatalogEntry, error) {
	numIndex := int(hdr.NumIndex)
	entrySize := int64(persistence.CatalogEntrySize(numIndex))
	catalogEnd := int64(hdr.CatalogOffset) + int64(hdr.NumCards)*entrySize
	if catalogEnd > br.Size() {
		return nil, fmt.Errorf("%w: catalog [%d, %d) exceeds stream size %d",
			persistence.ErrCorrupt, hdr.CatalogOffset, catalogEnd, br.Size())
	}

	entries := make([]*persistence.CatalogEntry, 0, hdr.NumCards)
	for i := 0; i < int(hdr.NumCards); i++ {
		off := int64(hdr.CatalogOffset) + int64(i)*entrySize
		entry, err := br.ReadCatalogEntry(off, numIndex)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// decodeCard reads, verifies, decompresses and parses one card block.
func decodeCard(br *persistence.Reader, entry *persistence.CatalogEntry, comp persistence.Compression, precision uint8) (*Card, error) {
	stored, err := br.ReadBytes(int64(entry.ByteStart), int64(entry.ByteEnd-entry.ByteStart))
	if err != nil {
		return nil, err
	}
	if err := persistence.VerifyDigest(stored, entry.SHA256); err != nil {
		return nil, err
	}
	block, err := comp.Decompress(stored)
	if err != nil {
		return nil, err
	}

	key, err := index.Make(entry.Index, precision)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", persistence.ErrCorrupt, err)
	}
	return decodeCardBlock(block, key)
}

// decodeCardBlock parses a decompressed card block.
func decodeCardBlock(block []byte, key index.Key) (*Card, error) {
	blockReader := persistence.NewReader(bytes.NewReader(block), int64(len(block)))

	var hdr persistence.CardHeader
	if err := blockReader.ReadStruct(0, &hdr); err != nil {
		return nil, err
	}
	if string(hdr.Magic[:]) != persistence.CardMagic {
		return nil, fmt.Errorf("%w: bad card magic %q", persistence.ErrCorrupt, hdr.Magic[:])
	}
	if hdr.CardSize != uint64(len(block)) {
		return nil, fmt.Errorf("%w: card size %d, block has %d bytes", persistence.ErrCorrupt, hdr.CardSize, len(block))
	}

	card := newCard(key)
	card.comment = persistence.UnpadString(hdr.Comment[:])

	for i := 0; i < int(hdr.NumTables); i++ {
		off := int64(hdr.IndexOffset) + int64(i)*persistence.TableEntrySize
		var e persistence.TableEntry
		if err := blockReader.ReadStruct(off, &e); err != nil {
			return nil, err
		}

		t, err := decodeTable(blockReader, &e)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", persistence.UnpadString(e.Tag[:]), err)
		}
		if err := card.AddTable(persistence.UnpadString(e.Tag[:]), t); err != nil {
			return nil, err
		}
	}
	return card, nil
}

func decodeTable(br *persistence.Reader, e *persistence.TableEntry) (*Table, error) {
	rows, cols := int(e.NumRows), int(e.NumColumns)
	if e.CellSize < 1 {
		return nil, fmt.Errorf("%w: cell size %d", persistence.ErrCorrupt, e.CellSize)
	}
	if e.ByteEnd < e.ByteStart || (e.ByteEnd-e.ByteStart)%8 != 0 {
		return nil, fmt.Errorf("%w: payload range [%d, %d) is not a float64 sequence",
			persistence.ErrCorrupt, e.ByteStart, e.ByteEnd)
	}

	// The shape check divides instead of multiplying: a crafted CellSize must
	// not wrap the expected length into a small value that matches the
	// payload.
	n := (e.ByteEnd - e.ByteStart) / 8
	axes := uint64(rows) + uint64(cols)
	cells := uint64(rows) * uint64(cols)
	if n < axes {
		return nil, fmt.Errorf("%w: payload range [%d, %d) too short for %dx%d axes",
			persistence.ErrCorrupt, e.ByteStart, e.ByteEnd, rows, cols)
	}
	dataN := n - axes
	if cells == 0 {
		if dataN != 0 {
			return nil, fmt.Errorf("%w: %d data values in a %dx%d table",
				persistence.ErrCorrupt, dataN, rows, cols)
		}
	} else if dataN%cells != 0 || dataN/cells != e.CellSize {
		return nil, fmt.Errorf("%w: payload range [%d, %d) does not match %dx%dx%d shape",
			persistence.ErrCorrupt, e.ByteStart, e.ByteEnd, rows, cols, e.CellSize)
	}
	depth := int(e.CellSize)

	off := int64(e.ByteStart)
	rowValues, err := br.ReadFloat64Slice(off, rows)
	if err != nil {
		return nil, err
	}
	off += int64(rows) * 8
	columnValues, err := br.ReadFloat64Slice(off, cols)
	if err != nil {
		return nil, err
	}
	off += int64(cols) * 8
	data, err := br.ReadFloat64Slice(off, int(dataN))
	if err != nil {
		return nil, err
	}

	return &Table{
		rowValues:    rowValues,
		columnValues: columnValues,
		data:         data,
		rows:         rows,
		cols:         cols,
		depth:        depth,
		rowName:      persistence.UnpadString(e.RowName[:]),
		columnName:   persistence.UnpadString(e.ColumnName[:]),
	}, nil
}
