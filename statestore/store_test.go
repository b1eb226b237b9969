package statestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/eventhistory"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/systemstatus"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/blobstore"
)

func TestSystemStatusMissingReturnsZeroValue(t *testing.T) {
	store := New(blobstore.NewMemStore())
	status, err := store.SystemStatus(context.Background(), "fsx01")
	require.NoError(t, err)
	assert.Equal(t, systemstatus.Status{}, status)
}

func TestSystemStatusRoundTrip(t *testing.T) {
	store := New(blobstore.NewMemStore())
	ctx := context.Background()

	want := systemstatus.Status{ConsecutiveFailures: 2, LastKnownVersion: "9.13.1"}
	require.NoError(t, store.PutSystemStatus(ctx, "fsx01", want))

	got, err := store.SystemStatus(ctx, "fsx01")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEMSEventsRoundTrip(t *testing.T) {
	store := New(blobstore.NewMemStore())
	ctx := context.Background()

	h := eventhistory.History{"1": {Refresh: 4, Payload: map[string]string{"severity": "ERROR"}}}
	require.NoError(t, store.PutEMSEvents(ctx, "fsx01", h))

	got, err := store.EMSEvents(ctx, "fsx01")
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestNetworkInterfaceEventsRoundTrip(t *testing.T) {
	store := New(blobstore.NewMemStore())
	ctx := context.Background()

	h := eventhistory.History{"e0a": {Refresh: 4, Payload: map[string]string{"state": "down"}}}
	require.NoError(t, store.PutNetworkInterfaceEvents(ctx, "fsx01", h))

	got, err := store.NetworkInterfaceEvents(ctx, "fsx01")
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestAuditWatermarkDefaultsOnMissing(t *testing.T) {
	store := New(blobstore.NewMemStore())
	w, err := store.AuditWatermark(context.Background(), "fsx01")
	require.NoError(t, err)
	assert.Equal(t, "5m", w.SeedWindow)
	assert.Equal(t, int64(0), w.EpochMillis)
}

func TestFleetFailureCountersRoundTrip(t *testing.T) {
	store := New(blobstore.NewMemStore())
	ctx := context.Background()

	counters := map[string]int{"fsx01.example.com": 1}
	require.NoError(t, store.PutFleetFailureCounters(ctx, "default", counters))

	got, err := store.FleetFailureCounters(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, counters, got)
}

func TestClustersAreIsolated(t *testing.T) {
	store := New(blobstore.NewMemStore())
	ctx := context.Background()

	require.NoError(t, store.PutSystemStatus(ctx, "fsx01", systemstatus.Status{ConsecutiveFailures: 5}))
	other, err := store.SystemStatus(ctx, "fsx02")
	require.NoError(t, err)
	assert.Equal(t, 0, other.ConsecutiveFailures)
}
