package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToInfoOnBadLevel(t *testing.T) {
	l := New("dispatcher", "not-a-level", "json")
	assert.Equal(t, "info", l.GetLevel().String())
}

func TestNewTextFormatter(t *testing.T) {
	l := New("monitor", "debug", "text")
	assert.Equal(t, "debug", l.GetLevel().String())
}

func TestNewFromEnvDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	l := NewFromEnv("auditingest")
	assert.Equal(t, "info", l.GetLevel().String())
}

func TestWithContextCarriesRunIDAndCluster(t *testing.T) {
	l := New("dispatcher", "info", "json")
	ctx := WithRunID(context.Background(), "run-123")
	ctx = WithClusterName(ctx, "cluster-a")

	entry := l.WithContext(ctx)
	require.NotNil(t, entry)
	assert.Equal(t, "run-123", entry.Data["run_id"])
	assert.Equal(t, "cluster-a", entry.Data["cluster"])
	assert.Equal(t, "dispatcher", entry.Data["component"])
}

func TestClusterFromContext(t *testing.T) {
	ctx := WithClusterName(context.Background(), "fsx01")
	assert.Equal(t, "fsx01", ClusterFromContext(ctx))
	assert.Equal(t, "", ClusterFromContext(context.Background()))
}

func TestNewRunIDIsUnique(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	assert.NotEqual(t, a, b)
}
