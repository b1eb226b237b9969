package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSubstitutesWildcards(t *testing.T) {
	expr := Resolve(Document{Minute: "0", Hour: "3"})
	assert.Equal(t, "0 3 * * *", expr)
}

func TestResolveAllWildcards(t *testing.T) {
	expr := Resolve(Document{})
	assert.Equal(t, "* * * * *", expr)
}

func TestLastFiringDaily(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 7, 31, 10, 15, 0, 0, loc)

	last, err := LastFiring("0 3 * * *", now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 7, 31, 3, 0, 0, 0, loc), last)
}

func TestLastFiringBeforeTodaysFiring(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 7, 31, 1, 0, 0, 0, loc)

	last, err := LastFiring("0 3 * * *", now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 7, 30, 3, 0, 0, 0, loc), last)
}

func TestLastFiringInvalidExpr(t *testing.T) {
	_, err := LastFiring("not a cron expr", time.Now(), time.UTC)
	require.Error(t, err)
}
