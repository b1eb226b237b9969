package evaluator

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/NetApp/FSx-ONTAP-monitoring/schedule"
)

type clusterScheduleRecord struct {
	Name string `json:"name"`
	Cron struct {
		Minutes  []int `json:"minutes"`
		Hours    []int `json:"hours"`
		Days     []int `json:"days"`
		Months   []int `json:"months"`
		Weekdays []int `json:"weekdays"`
	} `json:"cron"`
}

type snapMirrorPolicyRecord struct {
	Name             string `json:"name"`
	TransferSchedule struct {
		Name string `json:"name"`
	} `json:"transfer_schedule"`
}

// FetchScheduleExpressions builds the policy-name-to-cron-expression map
// ResolveScheduleLookup needs, by fetching the cluster's named schedules
// and its SnapMirror policies' transfer_schedule references.
func FetchScheduleExpressions(ctx context.Context, evalCtx EvalContext) (map[string]string, error) {
	scheduleBody, err := evalCtx.Client.Get(ctx, "/api/cluster/schedules?fields=name,cron")
	if err != nil {
		return nil, err
	}
	var scheduleResp struct {
		Records []clusterScheduleRecord `json:"records"`
	}
	if err := json.Unmarshal(scheduleBody, &scheduleResp); err != nil {
		return nil, err
	}

	exprByScheduleName := make(map[string]string, len(scheduleResp.Records))
	for _, rec := range scheduleResp.Records {
		exprByScheduleName[rec.Name] = schedule.Resolve(schedule.Document{
			Minute:     cronFieldFrom(rec.Cron.Minutes),
			Hour:       cronFieldFrom(rec.Cron.Hours),
			DayOfMonth: cronFieldFrom(rec.Cron.Days),
			Month:      cronFieldFrom(rec.Cron.Months),
			DayOfWeek:  cronFieldFrom(rec.Cron.Weekdays),
		})
	}

	policyBody, err := evalCtx.Client.Get(ctx, "/api/snapmirror/policies?fields=name,transfer_schedule.name")
	if err != nil {
		return nil, err
	}
	var policyResp struct {
		Records []snapMirrorPolicyRecord `json:"records"`
	}
	if err := json.Unmarshal(policyBody, &policyResp); err != nil {
		return nil, err
	}

	exprByPolicy := make(map[string]string, len(policyResp.Records))
	for _, policy := range policyResp.Records {
		if expr, ok := exprByScheduleName[policy.TransferSchedule.Name]; ok {
			exprByPolicy[policy.Name] = expr
		}
	}

	return exprByPolicy, nil
}

func cronFieldFrom(values []int) string {
	if len(values) == 0 {
		return "*"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
