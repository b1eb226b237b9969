package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/eventhistory"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/matchconditions"
)

type storageContainer struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	State string `json:"state"`
	Space struct {
		Size      int64 `json:"size"`
		Available int64 `json:"available"`
	} `json:"space"`
	Files struct {
		Used    int64 `json:"used"`
		Maximum int64 `json:"maximum"`
	} `json:"files"`
	IsConstituent bool `json:"is_constituent"`
}

type snapshotInfo struct {
	Name       string    `json:"name"`
	CreateTime time.Time `json:"create_time"`
}

// StorageIdentifier builds the stable identifier for one aggregate/volume
// rule evaluation: "<aggregate/volume-uuid>_<ruleKey>".
func StorageIdentifier(uuid, ruleKey string) string {
	return uuid + "_" + ruleKey
}

// EvaluateAggregateSpace fetches aggregates from endpoint and applies the
// aggrWarnPercentUsed/aggrCriticalPercentUsed thresholds, alerting at most
// once per aggregate: a critical breach suppresses the warn alert for the
// same poll.
func EvaluateAggregateSpace(ctx context.Context, evalCtx EvalContext, endpoint string, rules matchconditions.StorageRules, history eventhistory.History) ([]alert.Intent, eventhistory.History, error) {
	containers, err := fetchStorageContainers(ctx, evalCtx, endpoint)
	if err != nil {
		return nil, history, err
	}

	var alerts []alert.Intent
	observed := map[string]struct{}{}

	for _, c := range containers {
		usedPercent := usedPercentOf(c.Space.Size, c.Space.Available)

		switch {
		case rules.AggrCriticalPercentUsed > 0 && usedPercent >= rules.AggrCriticalPercentUsed:
			appendSpaceAlert(&alerts, history.Exists(StorageIdentifier(c.UUID, "aggrCriticalPercentUsed")), &observed, &history,
				StorageIdentifier(c.UUID, "aggrCriticalPercentUsed"), alert.Critical,
				fmt.Sprintf("aggregate %s is %.1f%% used, exceeding critical threshold %.1f%%", c.Name, usedPercent, rules.AggrCriticalPercentUsed), usedPercent)
		case rules.AggrWarnPercentUsed > 0 && usedPercent >= rules.AggrWarnPercentUsed:
			appendSpaceAlert(&alerts, history.Exists(StorageIdentifier(c.UUID, "aggrWarnPercentUsed")), &observed, &history,
				StorageIdentifier(c.UUID, "aggrWarnPercentUsed"), alert.Warning,
				fmt.Sprintf("aggregate %s is %.1f%% used, exceeding warn threshold %.1f%%", c.Name, usedPercent, rules.AggrWarnPercentUsed), usedPercent)
		}
	}

	history = history.AgeOne(observed)
	return alerts, history, nil
}

// EvaluateVolumeSpace fetches volumes from endpoint and applies the
// volume space, volume-files, and offline checks. The endpoint is queried
// a second time with is_constituent=true when includeConstituents is set,
// so FlexGroup constituents are also covered -- the management API does
// not return both in a single unfiltered page.
func EvaluateVolumeSpace(ctx context.Context, evalCtx EvalContext, endpoint string, includeConstituents bool, rules matchconditions.StorageRules, history eventhistory.History) ([]alert.Intent, eventhistory.History, error) {
	containers, err := fetchStorageContainers(ctx, evalCtx, endpoint)
	if err != nil {
		return nil, history, err
	}

	if includeConstituents {
		constituents, err := fetchStorageContainers(ctx, evalCtx, endpoint+"?is_constituent=true")
		if err != nil {
			return nil, history, err
		}
		containers = append(containers, constituents...)
	}

	var alerts []alert.Intent
	observed := map[string]struct{}{}

	for _, c := range containers {
		if rules.Offline && c.State == "offline" {
			id := StorageIdentifier(c.UUID, "offline")
			severity := rules.OfflineSeverity
			if severity == "" {
				severity = alert.Warning
			}
			appendSpaceAlert(&alerts, history.Exists(id), &observed, &history, id, severity,
				fmt.Sprintf("volume %s is offline", c.Name), 0)
			continue
		}

		usedPercent := usedPercentOf(c.Space.Size, c.Space.Available)
		switch {
		case rules.VolumeCriticalPercentUsed > 0 && usedPercent >= rules.VolumeCriticalPercentUsed:
			id := StorageIdentifier(c.UUID, "volumeCriticalPercentUsed")
			appendSpaceAlert(&alerts, history.Exists(id), &observed, &history, id, alert.Critical,
				fmt.Sprintf("volume %s is %.1f%% used, exceeding critical threshold %.1f%%", c.Name, usedPercent, rules.VolumeCriticalPercentUsed), usedPercent)
		case rules.VolumeWarnPercentUsed > 0 && usedPercent >= rules.VolumeWarnPercentUsed:
			id := StorageIdentifier(c.UUID, "volumeWarnPercentUsed")
			appendSpaceAlert(&alerts, history.Exists(id), &observed, &history, id, alert.Warning,
				fmt.Sprintf("volume %s is %.1f%% used, exceeding warn threshold %.1f%%", c.Name, usedPercent, rules.VolumeWarnPercentUsed), usedPercent)
		}

		if c.Files.Maximum <= 0 {
			continue
		}
		filesUsedPercent := float64(c.Files.Used) / float64(c.Files.Maximum) * 100

		switch {
		case rules.VolumeCriticalFilesPercentUsed > 0 && filesUsedPercent >= rules.VolumeCriticalFilesPercentUsed:
			id := StorageIdentifier(c.UUID, "volumeCriticalFilesPercentUsed")
			appendSpaceAlert(&alerts, history.Exists(id), &observed, &history, id, alert.Critical,
				fmt.Sprintf("volume %s is using %.1f%% of its inodes/files, exceeding critical threshold %.1f%%", c.Name, filesUsedPercent, rules.VolumeCriticalFilesPercentUsed), filesUsedPercent)
		case rules.VolumeWarnFilesPercentUsed > 0 && filesUsedPercent >= rules.VolumeWarnFilesPercentUsed:
			id := StorageIdentifier(c.UUID, "volumeWarnFilesPercentUsed")
			appendSpaceAlert(&alerts, history.Exists(id), &observed, &history, id, alert.Warning,
				fmt.Sprintf("volume %s is using %.1f%% of its inodes/files, exceeding warn threshold %.1f%%", c.Name, filesUsedPercent, rules.VolumeWarnFilesPercentUsed), filesUsedPercent)
		}
	}

	history = history.AgeOne(observed)
	return alerts, history, nil
}

// appendSpaceAlert records id as observed this poll and, only the first
// time the condition is seen (alreadyKnown is false), appends the alert
// and payload to history -- at-most-once alerting per incident.
func appendSpaceAlert(alerts *[]alert.Intent, alreadyKnown bool, observed *map[string]struct{}, history *eventhistory.History, id string, severity alert.Severity, message string, value float64) {
	(*observed)[id] = struct{}{}
	*history, _ = history.Observe(id, map[string]string{"value": fmt.Sprintf("%.1f", value)})
	if alreadyKnown {
		return
	}
	*alerts = append(*alerts, alert.Intent{Severity: severity, Message: message, Identifier: id})
}

func fetchStorageContainers(ctx context.Context, evalCtx EvalContext, path string) ([]storageContainer, error) {
	body, err := evalCtx.Client.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Records []storageContainer `json:"records"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

func usedPercentOf(size, available int64) float64 {
	if size <= 0 {
		return 0
	}
	used := size - available
	return float64(used) / float64(size) * 100
}

// EvaluateSnapshotAge fetches a volume's snapshots and alerts on any
// snapshot older than oldSnapshot (in days), at most once per incident.
func EvaluateSnapshotAge(ctx context.Context, evalCtx EvalContext, volumeUUID, volumeName string, rules matchconditions.StorageRules, history eventhistory.History) ([]alert.Intent, eventhistory.History, error) {
	if rules.OldSnapshotDays <= 0 {
		return nil, history, nil
	}

	body, err := evalCtx.Client.Get(ctx, "/api/storage/volumes/"+volumeUUID+"/snapshots?fields=name,create_time")
	if err != nil {
		return nil, history, err
	}

	var resp struct {
		Records []snapshotInfo `json:"records"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, history, err
	}

	severity := rules.OldSnapshotSeverity
	if severity == "" {
		severity = alert.Warning
	}

	var alerts []alert.Intent
	observed := map[string]struct{}{}
	maxAgeHours := rules.OldSnapshotDays * 24

	for _, snap := range resp.Records {
		ageHours := evalCtx.Now.Sub(snap.CreateTime).Hours()
		if ageHours <= maxAgeHours {
			continue
		}
		id := StorageIdentifier(volumeUUID+"_"+snap.Name, "oldSnapshot")
		appendSpaceAlert(&alerts, history.Exists(id), &observed, &history, id, severity,
			fmt.Sprintf("snapshot %s on volume %s is %.1f hours old, exceeding %.1f", snap.Name, volumeName, ageHours, maxAgeHours), ageHours)
	}

	history = history.AgeOne(observed)
	return alerts, history, nil
}
