package opat

import (
	"bytes"
	"fmt"
	"io"

	"github.com/stellarlib/opat/persistence"
)

// Save writes the container in OPAT binary form. Cards are emitted in
// insertion order, so saving the same container twice produces byte-identical
// output. The stream layout is header, card blocks, then the card catalog;
// the catalog's position is recorded in the header for random access.
func (c *Container) Save(w io.Writer) error {
	blocks := make([][]byte, 0, len(c.order))
	entries := make([]*persistence.CatalogEntry, 0, len(c.order))

	offset := uint64(persistence.HeaderSize)
	for _, card := range c.order {
		block, err := encodeCardBlock(card)
		if err != nil {
			return fmt.Errorf("encode card %s: %w", card.key, err)
		}
		stored, err := c.compression.Compress(block)
		if err != nil {
			return fmt.Errorf("compress card %s: %w", card.key, err)
		}

		entries = append(entries, &persistence.CatalogEntry{
			Index:     card.key.Values(),
			ByteStart: offset,
			ByteEnd:   offset + uint64(len(stored)),
			SHA256:    persistence.Digest(stored),
		})
		blocks = append(blocks, stored)
		offset += uint64(len(stored))
	}

	hdr := persistence.FileHeader{
		Version:       c.version,
		NumCards:      uint32(len(blocks)),
		HeaderSize:    persistence.HeaderSize,
		CatalogOffset: offset,
		NumIndex:      uint16(c.numIndex),
		HashPrecision: c.precision,
		Compression:   uint8(c.compression),
	}
	copy(hdr.Magic[:], persistence.Magic)
	persistence.PadString(hdr.CreationDate[:], c.created)
	persistence.PadString(hdr.Source[:], c.source)
	persistence.PadString(hdr.Comment[:], c.comment)

	bw := persistence.NewWriter(w)
	if err := bw.WriteStruct(&hdr); err != nil {
		return err
	}
	for _, block := range blocks {
		if err := bw.WriteBytes(block); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := bw.WriteCatalogEntry(e); err != nil {
			return err
		}
	}

	c.logger.WithCards(len(blocks)).Debug("container saved",
		"bytes", bw.Offset(),
		"compression", c.compression.String(),
	)
	return nil
}

// SaveFile writes the container to path atomically: either the complete file
// appears under the target name or the previous content is untouched.
func (c *Container) SaveFile(path string) error {
	err := persistence.SaveToFile(path, c.Save)
	if err != nil {
		c.logger.WithFile(path).Error("container save failed", "error", err)
		return err
	}
	c.logger.WithFile(path).Info("container saved")
	return nil
}

// encodeCardBlock serializes one card: 256-byte card header, table payloads,
// then the table index. Payload offsets are relative to the block start.
func encodeCardBlock(card *Card) ([]byte, error) {
	var payloads bytes.Buffer
	pw := persistence.NewWriter(&payloads)

	entries := make([]persistence.TableEntry, 0, len(card.order))
	for _, tag := range card.order {
		t := card.tables[tag]
		if t.rows > 0xFFFF || t.cols > 0xFFFF {
			return nil, fmt.Errorf("table %q: %dx%d exceeds the format's 16-bit axis limit", tag, t.rows, t.cols)
		}
		start := uint64(persistence.CardHeaderSize) + pw.Offset()

		if err := pw.WriteFloat64Slice(t.rowValues); err != nil {
			return nil, err
		}
		if err := pw.WriteFloat64Slice(t.columnValues); err != nil {
			return nil, err
		}
		if err := pw.WriteFloat64Slice(t.data); err != nil {
			return nil, err
		}

		e := persistence.TableEntry{
			ByteStart:  start,
			ByteEnd:    uint64(persistence.CardHeaderSize) + pw.Offset(),
			NumColumns: uint16(t.cols),
			NumRows:    uint16(t.rows),
			CellSize:   uint64(t.depth),
		}
		copy(e.Tag[:], tag)
		copy(e.RowName[:], t.rowName)
		copy(e.ColumnName[:], t.columnName)
		entries = append(entries, e)
	}

	indexOffset := uint64(persistence.CardHeaderSize) + pw.Offset()
	cardSize := indexOffset + uint64(len(entries))*persistence.TableEntrySize

	hdr := persistence.CardHeader{
		NumTables:   uint32(len(entries)),
		HeaderSize:  persistence.CardHeaderSize,
		IndexOffset: indexOffset,
		CardSize:    cardSize,
	}
	copy(hdr.Magic[:], persistence.CardMagic)
	persistence.PadString(hdr.Comment[:], card.comment)

	var block bytes.Buffer
	block.Grow(int(cardSize))
	bw := persistence.NewWriter(&block)
	if err := bw.WriteStruct(&hdr); err != nil {
		return nil, err
	}
	if err := bw.WriteBytes(payloads.Bytes()); err != nil {
		return nil, err
	}
	for i := range entries {
		if err := bw.WriteStruct(&entries[i]); err != nil {
			return nil, err
		}
	}
	return block.Bytes(), nil
}
