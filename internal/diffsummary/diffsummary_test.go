package diffsummary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFields_ReportsOnlyChangedKeys(t *testing.T) {
	original := map[string]any{"serviceTypeCode": "PERSONAL_CARE", "totalDuration": float64(60)}
	changed := map[string]any{"serviceTypeCode": "RESPITE", "totalDuration": float64(60)}

	diffs := Fields(original, changed)

	assert.Len(t, diffs, 1)
	assert.Equal(t, "serviceTypeCode", diffs[0].Field)
	assert.Equal(t, `"PERSONAL_CARE"`, diffs[0].OldValue)
	assert.Equal(t, `"RESPITE"`, diffs[0].NewValue)
}

func TestFields_NoChangesReturnsEmpty(t *testing.T) {
	original := map[string]any{"status": "COMPLETE"}
	changed := map[string]any{"status": "COMPLETE"}

	assert.Empty(t, Fields(original, changed))
}
