package evaluator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/eventhistory"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/matchconditions"
)

// quotaRow mirrors one row of the CLI-passthrough quota report, not the
// structured /api/storage/quota/reports endpoint: that endpoint is known to
// return zero rows on affected ONTAP releases, so this evaluator queries
// the private CLI-passthrough path instead, matching the original
// implementation's documented workaround and field names.
type quotaRow struct {
	Index                     int      `json:"index"`
	Type                      string   `json:"quota_type"`
	Target                    []string `json:"quota_target"`
	Tree                      string   `json:"tree"`
	Vserver                   string   `json:"vserver"`
	Volume                    string   `json:"volume"`
	DiskUsedPctSoftDiskLimit  float64  `json:"disk_used_pct_soft_disk_limit"`
	DiskUsedPctDiskLimit      float64  `json:"disk_used_pct_disk_limit"`
	FilesUsedPctSoftFileLimit float64  `json:"files_used_pct_soft_file_limit"`
	FilesUsedPctFileLimit     float64  `json:"files_used_pct_file_limit"`
}

// QuotaIdentifier builds the stable identifier for one quota row's rule
// evaluation: "<row-index>_<ruleKey>".
func QuotaIdentifier(rowIndex int, ruleKey string) string {
	return fmt.Sprintf("%d_%s", rowIndex, ruleKey)
}

// EvaluateQuota fetches the quota report via the CLI-passthrough endpoint
// and applies the four configured percent-used thresholds: two against
// inode usage (soft/hard), two against space usage (soft/hard), each
// compared against its own report field. All four alert at WARNING,
// matching the source's alerting regardless of soft/hard distinction.
func EvaluateQuota(ctx context.Context, evalCtx EvalContext, rules matchconditions.QuotaRules, history eventhistory.History) ([]alert.Intent, eventhistory.History, error) {
	body, err := evalCtx.Client.Get(ctx, "/api/private/cli/volume/quota/report?fields=vserver,volume,index,tree,quota_type,quota_target,disk_used_pct_soft_disk_limit,disk_used_pct_disk_limit,files_used_pct_soft_file_limit,files_used_pct_file_limit")
	if err != nil {
		return nil, history, err
	}

	var resp struct {
		Records []quotaRow `json:"records"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, history, err
	}

	var alerts []alert.Intent
	observed := map[string]struct{}{}

	checks := []struct {
		ruleKey   string
		threshold float64
		actual    func(quotaRow) float64
		noun      string
	}{
		{"maxSoftQuotaInodesPercentUsed", rules.MaxSoftQuotaInodesPercentUsed, func(r quotaRow) float64 { return r.FilesUsedPctSoftFileLimit }, "Soft quota inode"},
		{"maxQuotaInodesPercentUsed", rules.MaxQuotaInodesPercentUsed, func(r quotaRow) float64 { return r.FilesUsedPctFileLimit }, "Hard quota inode"},
		{"maxHardQuotaSpacePercentUsed", rules.MaxHardQuotaSpacePercentUsed, func(r quotaRow) float64 { return r.DiskUsedPctDiskLimit }, "Hard quota space"},
		{"maxSoftQuotaSpacePercentUsed", rules.MaxSoftQuotaSpacePercentUsed, func(r quotaRow) float64 { return r.DiskUsedPctSoftDiskLimit }, "Soft quota space"},
	}

	for _, row := range resp.Records {
		for _, check := range checks {
			if check.threshold <= 0 {
				continue
			}
			actual := check.actual(row)
			if actual < check.threshold {
				continue
			}

			id := QuotaIdentifier(row.Index, check.ruleKey)
			observed[id] = struct{}{}
			isNew := !history.Exists(id)
			history, _ = history.Observe(id, map[string]string{"usedPercent": fmt.Sprintf("%.1f", actual)})
			if !isNew {
				continue
			}

			alerts = append(alerts, alert.Intent{
				Severity:   alert.Warning,
				Message:    fmt.Sprintf("%s usage alert: quota %s on %s:/%s%s is using %.1f%% which is more than %.1f%%", check.noun, row.Type, row.Vserver, row.Volume, quotaScope(row), actual, check.threshold),
				Identifier: id,
			})
		}
	}

	history = history.AgeOne(observed)
	return alerts, history, nil
}

func quotaScope(row quotaRow) string {
	switch row.Type {
	case "user":
		return fmt.Sprintf(" associated with user(s) %q", joinTargets(row.Target))
	case "tree":
		return fmt.Sprintf(" under qtree %s", row.Tree)
	default:
		return ""
	}
}

func joinTargets(targets []string) string {
	out := ""
	for i, t := range targets {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}
