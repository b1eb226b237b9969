package auditingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMsEpochUTC(t *testing.T) {
	ms, err := ParseMsEpoch("2026-07-31T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1785492000000), ms)
}

func TestParseMsEpochDiscardsOffsetMinutes(t *testing.T) {
	// +05:30 should apply only the 5 hour component, silently dropping the
	// 30 minute component -- a documented quirk, not a bug.
	withMinutes, err := ParseMsEpoch("2026-07-31T10:00:00+05:30")
	require.NoError(t, err)

	withoutMinutes, err := ParseMsEpoch("2026-07-31T10:00:00+05:00")
	require.NoError(t, err)

	assert.Equal(t, withoutMinutes, withMinutes)
}

func TestOffsetHourComponentNegative(t *testing.T) {
	assert.Equal(t, -7, offsetHourComponent("2026-07-31T10:00:00-07:00"))
}

func TestOffsetHourComponentZ(t *testing.T) {
	assert.Equal(t, 0, offsetHourComponent("2026-07-31T10:00:00Z"))
}
