// Package care defines the shared value types for the care-visit scheduling
// and EVV verification domain: service patterns, visits, EVV records,
// geofences, aggregator submissions and VMUR amendment requests.
package care

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ID is a 128-bit opaque entity identifier shared by every persisted
// entity in this domain (service patterns, visits, EVV records,
// submissions, VMURs, geofences).
type ID uuid.UUID

// NilID is the zero value of ID.
var NilID = ID(uuid.Nil)

// NewID generates a new random ID.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID parses a canonical UUID string into an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, fmt.Errorf("care: invalid id %q: %w", s, err)
	}
	return ID(u), nil
}

// MustParseID parses s or panics; intended for tests and constant ids.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool {
	return id == NilID
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

// MarshalJSON renders the id as a JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON parses a JSON string into the id.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*id = NilID
		return nil
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value implements driver.Valuer so an ID can be passed to a parameterized
// store query without callers needing to know its underlying representation.
func (id ID) Value() (driver.Value, error) {
	if id.IsZero() {
		return nil, nil
	}
	return id.String(), nil
}
