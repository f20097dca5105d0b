// Package codec implements the column-oriented binary record-batch
// format plus JSON batch encoding for control-plane use. Batches are
// homogeneous: one record kind per batch, one column per field, integer
// columns little-endian fixed width. Metadata carries the shared
// instrument (or bar type) and the fixed-point precisions, so raw price
// and size columns stay plain integers.
package codec

import (
	"errors"
	"fmt"
)

// Batch format, in order:
//
//	magic        [4]byte "VRB1"
//	kind         u8
//	metadata     instrument_id | bar_type (string), price_precision u8,
//	             size_precision u8
//	count        u32
//	columns      schema order, each column contiguous
const (
	magic = "VRB1"

	kindDelta   uint8 = 1
	kindQuote   uint8 = 2
	kindTrade   uint8 = 3
	kindBar     uint8 = 4
	kindDepth10 uint8 = 5
)

// Minimum encoded bytes per record, per kind. The header count is bounded
// by remaining/min before any allocation, so a malformed count fails as a
// codec error instead of an absurd slice allocation. Variable-width string
// columns contribute their 4-byte length prefix only.
const (
	deltaRecordBytes   = 51
	quoteRecordBytes   = 48
	tradeRecordBytes   = 37
	barRecordBytes     = 56
	depth10RecordBytes = 685
)

var (
	ErrBadMagic  = errors.New("bad record batch magic")
	ErrWrongKind = errors.New("wrong record kind")
)

// ColumnError reports a malformed or truncated column by name.
type ColumnError struct {
	Column string
	Err    error
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q: %v", e.Column, e.Err)
}

func (e *ColumnError) Unwrap() error { return e.Err }

// MetadataError reports a missing or invalid batch metadata key.
type MetadataError struct {
	Key string
	Err error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata %q: %v", e.Key, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// Metadata is the batch-level schema context. ID holds the instrument id
// for delta/quote/trade/depth batches and the bar type for bar batches.
type Metadata struct {
	ID             string `json:"id"`
	PricePrecision uint8  `json:"price_precision"`
	SizePrecision  uint8  `json:"size_precision"`
}
