package overlay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"user-console/internal/domain"
)

// ErrMalformed reports stored overlay content that could not be parsed.
// Decoders still return a usable empty value alongside it.
var ErrMalformed = errors.New("malformed overlay data")

// DecodeEdits parses the stored edit overlay, a JSON object keyed by user id.
// Absent or empty input yields an empty map and no error. Entries with a
// non-numeric key are skipped.
func DecodeEdits(raw []byte) (map[int64]domain.UserFields, error) {
	edits := make(map[int64]domain.UserFields)
	if len(bytes.TrimSpace(raw)) == 0 {
		return edits, nil
	}

	var stored map[string]json.RawMessage
	if err := json.Unmarshal(raw, &stored); err != nil {
		return edits, fmt.Errorf("%w: edits: %v", ErrMalformed, err)
	}

	var skipped int
	for key, value := range stored {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			skipped++
			continue
		}
		var fields domain.UserFields
		if err := json.Unmarshal(value, &fields); err != nil {
			skipped++
			continue
		}
		edits[id] = fields
	}
	if skipped > 0 {
		return edits, fmt.Errorf("%w: edits: %d entries skipped", ErrMalformed, skipped)
	}
	return edits, nil
}

// DecodeDeleted parses the stored deletion overlay, a JSON array of ids.
// Absent or empty input yields nil and no error. Duplicates are dropped.
func DecodeDeleted(raw []byte) ([]int64, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var stored []json.RawMessage
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("%w: deleted: %v", ErrMalformed, err)
	}

	var (
		ids     []int64
		seen    = make(map[int64]struct{}, len(stored))
		skipped int
	)
	for _, value := range stored {
		var id int64
		if err := json.Unmarshal(value, &id); err != nil {
			skipped++
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if skipped > 0 {
		return ids, fmt.Errorf("%w: deleted: %d entries skipped", ErrMalformed, skipped)
	}
	return ids, nil
}

// EncodeEdits serializes the edit overlay as a JSON object keyed by id.
func EncodeEdits(edits map[int64]domain.UserFields) ([]byte, error) {
	stored := make(map[string]domain.UserFields, len(edits))
	for id, fields := range edits {
		stored[strconv.FormatInt(id, 10)] = fields
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode edits: %w", err)
	}
	return data, nil
}

// EncodeDeleted serializes the deletion overlay as a JSON array.
func EncodeDeleted(deleted []int64) ([]byte, error) {
	if deleted == nil {
		deleted = []int64{}
	}
	data, err := json.Marshal(deleted)
	if err != nil {
		return nil, fmt.Errorf("encode deleted: %w", err)
	}
	return data, nil
}
