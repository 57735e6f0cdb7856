// Package docid provides identity types for document builds.
//
// A DocumentID names one logical document build for the lifetime of its
// processing: numbering allocations, style bindings and reconciliation
// reports all key on it, and releasing a document's allocations at
// end-of-processing is a bulk operation over its DocumentID. A WorkerKey is
// an explicitly injected partition key for fleets of builder processes that
// share no coordinator; it replaces any reliance on OS process identity.
package docid

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DocumentID identifies one document build.
type DocumentID struct {
	value uuid.UUID
}

// NewDocumentID generates a fresh random document id.
func NewDocumentID() DocumentID {
	return DocumentID{value: uuid.New()}
}

// ParseDocumentID parses a document id from its canonical string form.
func ParseDocumentID(s string) (DocumentID, error) {
	if s == "" {
		return DocumentID{}, fmt.Errorf("document id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return DocumentID{}, fmt.Errorf("invalid document id: %w", err)
	}
	return DocumentID{value: u}, nil
}

// MustParseDocumentID parses a document id, panicking on error. Useful for
// test fixtures where the id is known valid.
func MustParseDocumentID(s string) DocumentID {
	id, err := ParseDocumentID(s)
	if err != nil {
		panic(fmt.Sprintf("invalid document id %s: %v", s, err))
	}
	return id
}

// String returns the canonical lowercase hyphenated form.
func (d DocumentID) String() string {
	return d.value.String()
}

// IsZero reports whether this is the zero document id.
func (d DocumentID) IsZero() bool {
	return d.value == uuid.Nil
}

// Equal reports whether two document ids are equal.
func (d DocumentID) Equal(other DocumentID) bool {
	return d.value == other.value
}

// MarshalJSON implements json.Marshaler.
func (d DocumentID) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DocumentID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("document id must be a string: %w", err)
	}
	if s == "" || s == "null" {
		*d = DocumentID{}
		return nil
	}
	parsed, err := ParseDocumentID(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner.
func (d *DocumentID) Scan(value interface{}) error {
	if value == nil {
		*d = DocumentID{}
		return nil
	}
	switch v := value.(type) {
	case string:
		if v == "" {
			*d = DocumentID{}
			return nil
		}
		parsed, err := ParseDocumentID(v)
		if err != nil {
			return fmt.Errorf("cannot scan string into DocumentID: %w", err)
		}
		*d = parsed
		return nil
	case []byte:
		if len(v) == 0 {
			*d = DocumentID{}
			return nil
		}
		parsed, err := ParseDocumentID(string(v))
		if err != nil {
			return fmt.Errorf("cannot scan bytes into DocumentID: %w", err)
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into DocumentID", value)
	}
}

// Value implements driver.Valuer. Zero ids store as NULL.
func (d DocumentID) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// WorkerKey partitions id allocation across builder processes that have no
// shared coordinator. Keys are assigned by deployment configuration, never
// derived from process ids: a key is stable across restarts, a pid is not.
type WorkerKey int

// Partition folds the key into one of n partitions.
func (k WorkerKey) Partition(n int) int {
	if n <= 0 {
		return 0
	}
	p := int(k) % n
	if p < 0 {
		p += n
	}
	return p
}
