package codec

import (
	"encoding/json"
	"fmt"

	"vidar/internal/common"
)

// EncodeJSON marshals a homogeneous record batch for control-plane and
// audit use. Empty batches are rejected, matching the binary codec.
func EncodeJSON[T any](records []T) ([]byte, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: json batch", common.ErrEmptyBatch)
	}
	return json.Marshal(records)
}

// DecodeJSON unmarshals a record batch produced by EncodeJSON.
func DecodeJSON[T any](buf []byte) ([]T, error) {
	var records []T
	if err := json.Unmarshal(buf, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: json batch", common.ErrEmptyBatch)
	}
	return records, nil
}
