// Package diffsummary computes a human-readable field-level diff between
// two JSON-shaped values, used to build a VMUR's changes summary.
package diffsummary

import (
	"encoding/json"

	"github.com/google/go-cmp/cmp"

	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// Fields compares original against changed one top-level key at a time and
// returns one care.FieldChange per key whose value differs. Only keys
// present in changed are considered; this models a targeted correction
// against a full snapshot, not a general-purpose deep diff.
func Fields(original, changed map[string]any) []care.FieldChange {
	var diffs []care.FieldChange
	for field, newValue := range changed {
		oldValue := original[field]
		if cmp.Equal(oldValue, newValue) {
			continue
		}
		diffs = append(diffs, care.FieldChange{
			Field:    field,
			OldValue: stringify(oldValue),
			NewValue: stringify(newValue),
		})
	}
	return diffs
}

func stringify(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
