// Package persistence implements the low-level binary layer of the OPAT
// container format: fixed little-endian on-disk structures, float64 slice
// I/O, card block compression and integrity digests.
//
// The package operates on primitives only; the container model that
// assembles these pieces lives in the parent opat package.
package persistence

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"unsafe"
)

// ByteOrder is the byte order of every multi-byte field in the format.
var ByteOrder = binary.LittleEndian

// Writer serializes format structures to an underlying stream and tracks the
// running byte offset so callers can record section positions.
type Writer struct {
	w      io.Writer
	offset uint64
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Offset returns the number of bytes written so far.
func (bw *Writer) Offset() uint64 { return bw.offset }

// WriteStruct writes a fixed-size structure in packed little-endian layout.
func (bw *Writer) WriteStruct(v any) error {
	if err := binary.Write(bw.w, ByteOrder, v); err != nil {
		return err
	}
	bw.offset += uint64(binary.Size(v))
	return nil
}

// WriteBytes writes raw bytes.
func (bw *Writer) WriteBytes(p []byte) error {
	n, err := bw.w.Write(p)
	bw.offset += uint64(n)
	return err
}

// WriteFloat64Slice writes a float64 slice as raw little-endian bytes.
// On little-endian hosts the slice memory is written directly.
func (bw *Writer) WriteFloat64Slice(vals []float64) error {
	if len(vals) == 0 {
		return nil
	}
	if hostLittleEndian() {
		byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&vals[0])), len(vals)*8)
		return bw.WriteBytes(byteSlice)
	}
	buf := make([]byte, len(vals)*8)
	for i, v := range vals {
		ByteOrder.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return bw.WriteBytes(buf)
}

// WriteCatalogEntry writes one card catalog entry (key values + trailer).
func (bw *Writer) WriteCatalogEntry(e *CatalogEntry) error {
	if err := bw.WriteFloat64Slice(e.Index); err != nil {
		return err
	}
	var trailer [48]byte
	ByteOrder.PutUint64(trailer[0:], e.ByteStart)
	ByteOrder.PutUint64(trailer[8:], e.ByteEnd)
	copy(trailer[16:], e.SHA256[:])
	return bw.WriteBytes(trailer[:])
}

// Reader deserializes format structures from an io.ReaderAt, allowing random
// access to individual cards without consuming the whole stream.
type Reader struct {
	r    io.ReaderAt
	size int64
}

// NewReader creates a Reader over r with the given total stream size.
// The size bounds every declared offset; anything pointing past it fails
// with ErrCorrupt instead of reading out of range.
func NewReader(r io.ReaderAt, size int64) *Reader {
	return &Reader{r: r, size: size}
}

// Size returns the total stream size in bytes.
func (br *Reader) Size() int64 { return br.size }

// ReadStruct reads a fixed-size structure from the given offset.
func (br *Reader) ReadStruct(off int64, v any) error {
	n := int64(binary.Size(v))
	sec, err := br.section(off, n)
	if err != nil {
		return err
	}
	return binary.Read(sec, ByteOrder, v)
}

// ReadBytes reads length raw bytes from the given offset.
func (br *Reader) ReadBytes(off, length int64) ([]byte, error) {
	if _, err := br.section(off, length); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if _, err := br.r.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("%w: short read at offset %d: %w", ErrCorrupt, off, err)
	}
	return buf, nil
}

// ReadFloat64Slice reads count float64 values from the given offset.
func (br *Reader) ReadFloat64Slice(off int64, count int) ([]float64, error) {
	buf, err := br.ReadBytes(off, int64(count)*8)
	if err != nil {
		return nil, err
	}
	return Float64sFromBytes(buf), nil
}

// ReadCatalogEntry reads one card catalog entry at the given offset.
func (br *Reader) ReadCatalogEntry(off int64, numIndex int) (*CatalogEntry, error) {
	idx, err := br.ReadFloat64Slice(off, numIndex)
	if err != nil {
		return nil, err
	}
	trailer, err := br.ReadBytes(off+int64(numIndex)*8, 48)
	if err != nil {
		return nil, err
	}
	e := &CatalogEntry{
		Index:     idx,
		ByteStart: ByteOrder.Uint64(trailer[0:]),
		ByteEnd:   ByteOrder.Uint64(trailer[8:]),
	}
	copy(e.SHA256[:], trailer[16:])
	if e.ByteEnd < e.ByteStart || e.ByteEnd > uint64(br.size) {
		return nil, fmt.Errorf("%w: catalog entry range [%d, %d) exceeds stream size %d",
			ErrCorrupt, e.ByteStart, e.ByteEnd, br.size)
	}
	return e, nil
}

func (br *Reader) section(off, length int64) (*io.SectionReader, error) {
	if off < 0 || length < 0 || off+length > br.size {
		return nil, fmt.Errorf("%w: section [%d, %d) exceeds stream size %d",
			ErrCorrupt, off, off+length, br.size)
	}
	return io.NewSectionReader(br.r, off, length), nil
}

// Float64sFromBytes reinterprets little-endian bytes as float64 values.
func Float64sFromBytes(buf []byte) []float64 {
	vals := make([]float64, len(buf)/8)
	if hostLittleEndian() && len(vals) > 0 {
		byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&vals[0])), len(vals)*8)
		copy(byteSlice, buf)
		return vals
	}
	for i := range vals {
		vals[i] = math.Float64frombits(ByteOrder.Uint64(buf[i*8:]))
	}
	return vals
}

// SaveToFile writes a file atomically: the content goes to a temp file in the
// target directory which is fsynced and renamed over the target. A failed
// write never leaves a partial file visible.
func SaveToFile(filename string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	_ = tmp.Chmod(0644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	tmpName = ""
	return nil
}

// LoadFromFile opens a file and hands an io.ReaderAt plus its size to
// readFunc. The handle is released on all exit paths.
func LoadFromFile(filename string, readFunc func(r io.ReaderAt, size int64) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}
	return readFunc(f, fi.Size())
}

func hostLittleEndian() bool {
	var x uint16 = 1
	return *(*byte)(unsafe.Pointer(&x)) == 1
}
