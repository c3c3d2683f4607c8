package persistence

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructSizes(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteStruct(&FileHeader{}))
	assert.Equal(t, HeaderSize, buf.Len())

	buf.Reset()
	w = NewWriter(&buf)
	require.NoError(t, w.WriteStruct(&CardHeader{}))
	assert.Equal(t, CardHeaderSize, buf.Len())

	buf.Reset()
	w = NewWriter(&buf)
	require.NoError(t, w.WriteStruct(&TableEntry{}))
	assert.Equal(t, TableEntrySize, buf.Len())
}

func TestWriterOffset(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteStruct(&FileHeader{}))
	require.NoError(t, w.WriteBytes([]byte{1, 2, 3}))
	require.NoError(t, w.WriteFloat64Slice([]float64{1.5, 2.5}))

	assert.Equal(t, uint64(HeaderSize+3+16), w.Offset())
	assert.Equal(t, int(w.Offset()), buf.Len())
}

func TestStructRoundTrip(t *testing.T) {
	hdr := FileHeader{
		Version:       1,
		NumCards:      6,
		HeaderSize:    HeaderSize,
		CatalogOffset: 12345,
		NumIndex:      2,
		HashPrecision: 8,
		Compression:   uint8(CompressionZstd),
	}
	copy(hdr.Magic[:], Magic)
	PadString(hdr.Source[:], "OPLIB")

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteStruct(&hdr))

	var got FileHeader
	r := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, r.ReadStruct(0, &got))
	assert.Equal(t, hdr, got)
	assert.Equal(t, "OPLIB", UnpadString(got.Source[:]))
}

func TestFloat64SliceRoundTrip(t *testing.T) {
	vals := []float64{0, 1.5, -2.25, 1e300, -1e-300}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteFloat64Slice(vals))
	require.Equal(t, len(vals)*8, buf.Len())

	r := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	got, err := r.ReadFloat64Slice(0, len(vals))
	require.NoError(t, err)
	assert.Equal(t, vals, got)

	assert.Equal(t, vals, Float64sFromBytes(buf.Bytes()))
}

func TestCatalogEntryRoundTrip(t *testing.T) {
	e := &CatalogEntry{
		Index:     []float64{0.35, 0.02},
		ByteStart: 256,
		ByteEnd:   300,
	}
	for i := range e.SHA256 {
		e.SHA256[i] = byte(i)
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteCatalogEntry(e))
	require.Equal(t, CatalogEntrySize(2), buf.Len())

	// The stream must admit the entry's declared range.
	r := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	_, err := r.ReadCatalogEntry(0, 2)
	assert.ErrorIs(t, err, ErrCorrupt, "declared range exceeds the stream")

	padded := append(buf.Bytes(), make([]byte, 300-buf.Len())...)
	r = NewReader(bytes.NewReader(padded), 300)
	got, err := r.ReadCatalogEntry(0, 2)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestCatalogEntryRangeChecked(t *testing.T) {
	e := &CatalogEntry{Index: []float64{1}, ByteStart: 500, ByteEnd: 400}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteCatalogEntry(e))

	r := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	_, err := r.ReadCatalogEntry(0, 1)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestReaderBounds(t *testing.T) {
	data := make([]byte, 64)
	r := NewReader(bytes.NewReader(data), 64)

	_, err := r.ReadBytes(0, 64)
	assert.NoError(t, err)

	_, err = r.ReadBytes(1, 64)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = r.ReadBytes(-1, 4)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = r.ReadFloat64Slice(40, 4)
	assert.ErrorIs(t, err, ErrCorrupt)

	var hdr FileHeader
	assert.ErrorIs(t, r.ReadStruct(0, &hdr), ErrCorrupt)
}

func TestPadString(t *testing.T) {
	var field [8]byte
	PadString(field[:], "ross")
	assert.Equal(t, [8]byte{'r', 'o', 's', 's', 0, 0, 0, 0}, field)
	assert.Equal(t, "ross", UnpadString(field[:]))

	PadString(field[:], "overlyLongTag")
	assert.Equal(t, "overlyLo", UnpadString(field[:]))

	PadString(field[:], "")
	assert.Equal(t, "", UnpadString(field[:]))
}

func TestCompressionRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("opacity tables compress well "), 100)

	for _, comp := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(comp.String(), func(t *testing.T) {
			stored, err := comp.Compress(payload)
			require.NoError(t, err)
			if comp != CompressionNone {
				assert.Less(t, len(stored), len(payload))
			}

			got, err := comp.Decompress(stored)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestDecompressGarbage(t *testing.T) {
	garbage := []byte("definitely not a compressed frame")

	_, err := CompressionZstd.Decompress(garbage)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = CompressionLZ4.Decompress(garbage)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCompressionValid(t *testing.T) {
	assert.True(t, CompressionNone.Valid())
	assert.True(t, CompressionZstd.Valid())
	assert.True(t, CompressionLZ4.Valid())
	assert.False(t, Compression(9).Valid())
}

func TestDigest(t *testing.T) {
	data := []byte("card block")
	sum := Digest(data)

	assert.NoError(t, VerifyDigest(data, sum))

	data[0] ^= 0x01
	assert.ErrorIs(t, VerifyDigest(data, sum), ErrCorrupt)
}

func TestSaveToFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.opat")

	require.NoError(t, SaveToFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("v1"))
		return err
	}))

	boom := errors.New("boom")
	err := SaveToFile(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// The failed save must leave the previous content and no temp files.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.opat")
	require.NoError(t, os.WriteFile(path, []byte("abcdef"), 0644))

	var got []byte
	err := LoadFromFile(path, func(r io.ReaderAt, size int64) error {
		got = make([]byte, size)
		_, err := r.ReadAt(got, 0)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(got))

	assert.Error(t, LoadFromFile(filepath.Join(t.TempDir(), "absent"), func(io.ReaderAt, int64) error {
		return nil
	}))
}
