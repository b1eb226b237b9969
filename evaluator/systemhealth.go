package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/eventhistory"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/matchconditions"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/systemstatus"
)

// unreachableFailureThreshold is the fixed number of consecutive failed
// availability probes that triggers the CRITICAL "cluster unreachable"
// alert. Unlike every other rule in this domain this is not operator
// configurable -- the availability probe always runs.
const unreachableFailureThreshold = 2

type clusterInfo struct {
	Name    string `json:"name"`
	Version struct {
		Full string `json:"full"`
	} `json:"version"`
	Timezone struct {
		Name string `json:"name"`
	} `json:"timezone"`
}

type networkInterface struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

type nodeCountResponse struct {
	NumRecords int `json:"num_records"`
	Records    []struct {
		Name string `json:"name"`
	} `json:"records"`
}

// CheckSystem probes "GET /api/cluster?fields=version,name,timezone". On
// failure it increments the availability-probe's consecutive-failure
// counter (a scalar counter, not the shared eventhistory refresh scheme,
// since there is exactly one availability record per cluster) and alerts
// once per failure streak, at the fixed unreachableFailureThreshold. On
// success the counter resets and the cluster's timezone and version are
// returned for use by the other domain evaluators.
func CheckSystem(ctx context.Context, evalCtx EvalContext, rules matchconditions.SystemHealthRules, prev systemstatus.Status) (clusterInfo, systemstatus.Status, []alert.Intent, error) {
	var alerts []alert.Intent
	next := prev

	body, err := evalCtx.Client.Get(ctx, "/api/cluster?fields=version,name,timezone")
	if err != nil {
		next.ConsecutiveFailures++
		if next.ConsecutiveFailures >= unreachableFailureThreshold && !next.AlertedUnreachable {
			alerts = append(alerts, alert.Intent{
				Severity:   alert.Critical,
				Message:    "cluster " + evalCtx.ClusterName + " is unreachable: " + err.Error(),
				Identifier: evalCtx.ClusterName + "_availability",
			})
			next.AlertedUnreachable = true
		}
		return clusterInfo{}, next, alerts, nil
	}

	var info clusterInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return clusterInfo{}, next, nil, err
	}

	next.ConsecutiveFailures = 0
	next.AlertedUnreachable = false

	version := parseVersionToken(info.Version.Full)
	if rules.VersionChange && prev.LastKnownVersion != "" && prev.LastKnownVersion != version {
		alerts = append(alerts, alert.Intent{
			Severity:   rules.VersionChangeSeverity,
			Message:    "cluster " + evalCtx.ClusterName + " version changed from " + prev.LastKnownVersion + " to " + version,
			Identifier: evalCtx.ClusterName + "_version",
		})
	}
	next.LastKnownVersion = version

	return info, next, alerts, nil
}

// parseVersionToken extracts the 3rd whitespace-separated token of
// version.full (e.g. "NetApp Release 9.13.1: Thu Jan 01 ..." -> "9.13.1"),
// trimming a trailing colon.
func parseVersionToken(full string) string {
	fields := strings.Fields(full)
	if len(fields) < 3 {
		return full
	}
	return strings.TrimSuffix(fields[2], ":")
}

// CheckFailover queries the cluster's node-count endpoint and compares it
// against the last known node count; a diff means a node left or joined
// the cluster (e.g. a storage failover took a node out of service), and is
// reported at INFO regardless of direction -- the rule observes that the
// cluster's shape changed, not that it is unhealthy.
func CheckFailover(ctx context.Context, evalCtx EvalContext, prev systemstatus.Status) (systemstatus.Status, []alert.Intent, error) {
	next := prev

	body, err := evalCtx.Client.Get(ctx, "/api/cluster/nodes?fields=name")
	if err != nil {
		return next, nil, err
	}

	var resp nodeCountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return next, nil, err
	}

	count := resp.NumRecords
	if count == 0 {
		count = len(resp.Records)
	}

	var alerts []alert.Intent
	if prev.LastKnownNodeCount != 0 && prev.LastKnownNodeCount != count {
		alerts = append(alerts, alert.Intent{
			Severity:   alert.Info,
			Message:    fmt.Sprintf("cluster %s node count changed from %d to %d", evalCtx.ClusterName, prev.LastKnownNodeCount, count),
			Identifier: evalCtx.ClusterName + "_nodecount",
		})
	}
	next.LastKnownNodeCount = count

	return next, alerts, nil
}

// CheckNetworkInterfaces alerts on any network interface not in the "up"
// operational state, driving the shared refresh-based dedup scheme keyed
// by interface name so a down interface is reported once per incident
// rather than on every poll it remains down.
func CheckNetworkInterfaces(ctx context.Context, evalCtx EvalContext, severity alert.Severity, history eventhistory.History) ([]alert.Intent, eventhistory.History, error) {
	body, err := evalCtx.Client.Get(ctx, "/api/network/ip/interfaces")
	if err != nil {
		return nil, history, err
	}

	var resp struct {
		Records []networkInterface `json:"records"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, history, err
	}

	var alerts []alert.Intent
	observed := map[string]struct{}{}

	for _, iface := range resp.Records {
		if iface.State == "up" {
			continue
		}
		id := iface.Name
		observed[id] = struct{}{}
		isNew := !history.Exists(id)
		history, _ = history.Observe(id, map[string]string{"state": iface.State})
		if isNew {
			alerts = append(alerts, alert.Intent{
				Severity:   severity,
				Message:    "network interface " + iface.Name + " is " + iface.State,
				Identifier: id,
			})
		}
	}

	history = history.AgeOne(observed)
	return alerts, history, nil
}
