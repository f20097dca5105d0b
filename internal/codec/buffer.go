package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var errTruncated = errors.New("truncated")

// writer appends little-endian fields to a growing buffer.
type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *writer) i64(v int64)  { w.u64(uint64(v)) }

func (w *writer) str(s string) {
	w.u32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// column-vector helpers: each writes one full column for count records.

func (w *writer) u8Col(count int, at func(i int) uint8) {
	for i := 0; i < count; i++ {
		w.u8(at(i))
	}
}

func (w *writer) u64Col(count int, at func(i int) uint64) {
	for i := 0; i < count; i++ {
		w.u64(at(i))
	}
}

func (w *writer) i64Col(count int, at func(i int) int64) {
	for i := 0; i < count; i++ {
		w.i64(at(i))
	}
}

func (w *writer) strCol(count int, at func(i int) string) {
	for i := 0; i < count; i++ {
		w.str(at(i))
	}
}

// reader consumes little-endian fields, tagging failures with the column
// being read so codec errors name the offending column.
type reader struct {
	buf    []byte
	off    int
	column string
	err    error
}

// col names the column for subsequent reads.
func (r *reader) col(name string) { r.column = name }

func (r *reader) fail() {
	if r.err == nil {
		r.err = &ColumnError{Column: r.column, Err: errTruncated}
	}
}

func (r *reader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	if r.off+1 > len(r.buf) {
		r.fail()
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	if r.off+4 > len(r.buf) {
		r.fail()
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	if r.off+8 > len(r.buf) {
		r.fail()
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *reader) i64() int64 { return int64(r.u64()) }

func (r *reader) str() string {
	n := r.u32()
	if r.err != nil {
		return ""
	}
	if n > math.MaxInt32 || r.off+int(n) > len(r.buf) {
		r.fail()
		return ""
	}
	s := string(r.buf[r.off : r.off+int(n)])
	r.off += int(n)
	return s
}

func (r *reader) u8Col(name string, count int, set func(i int, v uint8)) {
	r.col(name)
	for i := 0; i < count && r.err == nil; i++ {
		set(i, r.u8())
	}
}

func (r *reader) u64Col(name string, count int, set func(i int, v uint64)) {
	r.col(name)
	for i := 0; i < count && r.err == nil; i++ {
		set(i, r.u64())
	}
}

func (r *reader) i64Col(name string, count int, set func(i int, v int64)) {
	r.col(name)
	for i := 0; i < count && r.err == nil; i++ {
		set(i, r.i64())
	}
}

func (r *reader) strCol(name string, count int, set func(i int, v string)) {
	r.col(name)
	for i := 0; i < count && r.err == nil; i++ {
		set(i, r.str())
	}
}

// header writes the shared batch prefix.
func writeHeader(w *writer, kind uint8, meta Metadata, count int) {
	w.buf = append(w.buf, magic...)
	w.u8(kind)
	w.str(meta.ID)
	w.u8(meta.PricePrecision)
	w.u8(meta.SizePrecision)
	w.u32(uint32(count))
}

// readHeader validates the prefix and returns the metadata and count. The
// count is rejected when the remaining buffer cannot hold that many
// records of the kind's minimum encoded size.
func readHeader(r *reader, wantKind uint8, recordBytes int) (Metadata, int) {
	r.col("header")
	if len(r.buf) < len(magic) || string(r.buf[:len(magic)]) != magic {
		r.err = ErrBadMagic
		return Metadata{}, 0
	}
	r.off = len(magic)

	kind := r.u8()
	if r.err == nil && kind != wantKind {
		r.err = fmt.Errorf("%w: have %d, want %d", ErrWrongKind, kind, wantKind)
		return Metadata{}, 0
	}

	var meta Metadata
	r.col("metadata")
	meta.ID = r.str()
	if r.err == nil && meta.ID == "" {
		r.err = &MetadataError{Key: "id", Err: errors.New("empty")}
		return Metadata{}, 0
	}
	meta.PricePrecision = r.u8()
	meta.SizePrecision = r.u8()

	r.col("count")
	count := r.u32()
	if r.err == nil && uint64(count) > uint64(len(r.buf)-r.off)/uint64(recordBytes) {
		r.err = &ColumnError{
			Column: "count",
			Err:    fmt.Errorf("%d records cannot fit in %d remaining bytes", count, len(r.buf)-r.off),
		}
		return Metadata{}, 0
	}
	return meta, int(count)
}
