package evaluator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/eventhistory"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/matchconditions"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/systemstatus"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/clusterapi"
)

func TestParseVersionToken(t *testing.T) {
	assert.Equal(t, "9.13.1", parseVersionToken("NetApp Release 9.13.1: Thu Jan 01 00:00:00 UTC 2026"))
}

func TestParseVersionTokenShortString(t *testing.T) {
	assert.Equal(t, "weird", parseVersionToken("weird"))
}

func TestCheckSystemSuccessResetsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"fsx01","version":{"full":"NetApp Release 9.13.1: Thu Jan 01 2026"},"timezone":{"name":"UTC"}}`))
	}))
	defer server.Close()

	evalCtx := EvalContext{Client: clusterapi.New(server.URL, "admin", "secret"), ClusterName: "fsx01"}
	prev := systemstatus.Status{ConsecutiveFailures: 2}

	info, next, alerts, err := CheckSystem(context.Background(), evalCtx, matchconditions.SystemHealthRules{}, prev)
	require.NoError(t, err)
	assert.Equal(t, 0, next.ConsecutiveFailures)
	assert.Equal(t, "9.13.1", next.LastKnownVersion)
	assert.Equal(t, "fsx01", info.Name)
	assert.Empty(t, alerts)
}

func TestCheckSystemFailureAlertsOnceAtThreshold(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	evalCtx := EvalContext{Client: clusterapi.New(server.URL, "admin", "secret"), ClusterName: "fsx01"}
	rules := matchconditions.SystemHealthRules{}

	_, next, alerts, err := CheckSystem(context.Background(), evalCtx, rules, systemstatus.Status{})
	require.NoError(t, err)
	assert.Equal(t, 1, next.ConsecutiveFailures)
	assert.Empty(t, alerts, "threshold is 2 consecutive failures, not 1")

	_, next2, alerts2, err := CheckSystem(context.Background(), evalCtx, rules, next)
	require.NoError(t, err)
	assert.Equal(t, 2, next2.ConsecutiveFailures)
	require.Len(t, alerts2, 1)
	assert.True(t, next2.AlertedUnreachable)

	_, next3, alerts3, err := CheckSystem(context.Background(), evalCtx, rules, next2)
	require.NoError(t, err)
	assert.Equal(t, 3, next3.ConsecutiveFailures)
	assert.Empty(t, alerts3, "should not repeat the alert every poll")
}

func TestCheckSystemVersionChangeAlert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"fsx01","version":{"full":"NetApp Release 9.14.0: Thu Jan 01 2026"}}`))
	}))
	defer server.Close()

	evalCtx := EvalContext{Client: clusterapi.New(server.URL, "admin", "secret"), ClusterName: "fsx01"}
	rules := matchconditions.SystemHealthRules{VersionChange: true, VersionChangeSeverity: "WARNING"}

	_, _, alerts, err := CheckSystem(context.Background(), evalCtx, rules, systemstatus.Status{LastKnownVersion: "9.13.1"})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Message, "9.13.1 to 9.14.0")
}

func TestCheckSystemVersionChangeDisabledByRule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"fsx01","version":{"full":"NetApp Release 9.14.0: Thu Jan 01 2026"}}`))
	}))
	defer server.Close()

	evalCtx := EvalContext{Client: clusterapi.New(server.URL, "admin", "secret"), ClusterName: "fsx01"}
	rules := matchconditions.SystemHealthRules{VersionChange: false}

	_, _, alerts, err := CheckSystem(context.Background(), evalCtx, rules, systemstatus.Status{LastKnownVersion: "9.13.1"})
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestCheckFailoverNodeCountChangeAlertsInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"num_records":2,"records":[{"name":"node1"},{"name":"node2"}]}`))
	}))
	defer server.Close()

	evalCtx := EvalContext{Client: clusterapi.New(server.URL, "a", "b"), ClusterName: "fsx01"}
	next, alerts, err := CheckFailover(context.Background(), evalCtx, systemstatus.Status{LastKnownNodeCount: 3})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.Info, alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "3 to 2")
	assert.Equal(t, 2, next.LastKnownNodeCount)
}

func TestCheckFailoverNoChangeNoAlert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"num_records":2,"records":[{"name":"node1"},{"name":"node2"}]}`))
	}))
	defer server.Close()

	evalCtx := EvalContext{Client: clusterapi.New(server.URL, "a", "b"), ClusterName: "fsx01"}
	_, alerts, err := CheckFailover(context.Background(), evalCtx, systemstatus.Status{LastKnownNodeCount: 2})
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestCheckFailoverFirstRunDoesNotAlert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"num_records":2,"records":[{"name":"node1"},{"name":"node2"}]}`))
	}))
	defer server.Close()

	evalCtx := EvalContext{Client: clusterapi.New(server.URL, "a", "b"), ClusterName: "fsx01"}
	next, alerts, err := CheckFailover(context.Background(), evalCtx, systemstatus.Status{})
	require.NoError(t, err)
	assert.Empty(t, alerts, "no prior node count recorded yet, nothing to compare against")
	assert.Equal(t, 2, next.LastKnownNodeCount)
}

func TestCheckNetworkInterfacesDedupsAcrossPolls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records":[{"name":"e0a","state":"down"}]}`))
	}))
	defer server.Close()

	evalCtx := EvalContext{Client: clusterapi.New(server.URL, "a", "b"), ClusterName: "fsx01"}

	alerts, history, err := CheckNetworkInterfaces(context.Background(), evalCtx, alert.Warning, eventhistory.History{})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.True(t, history.Exists("e0a"))

	alerts2, _, err := CheckNetworkInterfaces(context.Background(), evalCtx, alert.Warning, history)
	require.NoError(t, err)
	assert.Empty(t, alerts2, "still-down interface must not re-fire every poll")
}

func TestCheckNetworkInterfacesUpDoesNotAlert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records":[{"name":"e0a","state":"up"}]}`))
	}))
	defer server.Close()

	evalCtx := EvalContext{Client: clusterapi.New(server.URL, "a", "b"), ClusterName: "fsx01"}
	alerts, _, err := CheckNetworkInterfaces(context.Background(), evalCtx, alert.Warning, eventhistory.History{})
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
