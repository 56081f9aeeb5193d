// Package storage persists the submission collection as a single document.
//
// Every backend replaces the whole document on Save; there is no incremental
// persistence. Callers are responsible for serialising load/mutate/save cycles.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/zhouzirui/submission-desk/backend/internal/model/submission"
)

var (
	// ErrUnavailable marks a document that exists but could not be read or written.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrCorrupt marks a document that could not be decoded.
	ErrCorrupt = errors.New("storage document corrupt")
)

// Store loads and saves the full submission collection.
type Store interface {
	// Load returns the stored collection. A missing document is an empty collection.
	Load(ctx context.Context) ([]submission.Submission, error)
	// Save replaces the stored collection in one step.
	Save(ctx context.Context, items []submission.Submission) error
}

// Encode renders the collection the way it is kept on disk.
func Encode(items []submission.Submission) ([]byte, error) {
	if items == nil {
		items = []submission.Submission{}
	}
	data, err := json.MarshalIndent(submission.Document{Submissions: items}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Decode parses a stored document. An absent or null submissions field is an
// empty collection.
//
// Records are read one by one so a single odd entry does not cost the rest of
// the document: scalar fields that are not strings (numbers, booleans) are kept
// in their JSON text form, null becomes empty, and entries that are not objects
// are dropped and counted in skipped. Only a document that is not a JSON object
// with a submissions array is ErrCorrupt.
func Decode(data []byte) (items []submission.Submission, skipped int, err error) {
	var doc struct {
		Submissions []json.RawMessage `json:"submissions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	items = make([]submission.Submission, 0, len(doc.Submissions))
	for _, raw := range doc.Submissions {
		fields, ok := decodeRecord(raw)
		if !ok {
			skipped++
			continue
		}
		items = append(items, submission.FromPayload(fields))
	}
	return items, skipped, nil
}

func decodeRecord(raw json.RawMessage) (submission.Payload, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, false
	}
	for key, value := range fields {
		switch v := value.(type) {
		case string:
		case json.Number:
			fields[key] = v.String()
		case bool:
			fields[key] = strconv.FormatBool(v)
		case nil:
			fields[key] = ""
		default:
			text, err := json.Marshal(v)
			if err != nil {
				return nil, false
			}
			fields[key] = string(text)
		}
	}
	return fields, true
}
