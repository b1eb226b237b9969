// Package matchconditions holds the per-domain rule configuration that
// drives the evaluator package: thresholds, regex match/exclusion filters,
// and per-rule severities, bootstrapped from either the "initial*"-prefixed
// invocation keys (first run) or a persisted state blob (subsequent runs).
package matchconditions

import "github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"

// Document is the full set of rules for one cluster, one entry per domain.
type Document struct {
	SystemHealth SystemHealthRules `yaml:"systemHealth"`
	EMS          EMSRules          `yaml:"ems"`
	SnapMirror   SnapMirrorRules   `yaml:"snapMirror"`
	Storage      StorageRules      `yaml:"storage"`
	Quota        QuotaRules        `yaml:"quota"`
	Vserver      VserverRules      `yaml:"vserver"`
}

// SystemHealthRules configures the availability probe and the three
// boolean system-health checks: each of VersionChange, Failover, and
// NetworkInterfaces gates whether that check runs at all this poll.
type SystemHealthRules struct {
	VersionChange            bool           `yaml:"versionChange"`
	VersionChangeSeverity    alert.Severity `yaml:"versionChangeSeverity"`
	Failover                 bool           `yaml:"failover"`
	FailoverSeverity         alert.Severity `yaml:"failoverSeverity"`
	NetworkInterfaces        bool           `yaml:"networkInterfaces"`
	NetworkInterfaceSeverity alert.Severity `yaml:"networkInterfaceSeverity"`
}

// EMSRule is one EMS event-matching rule: three required regexes (event
// name, severity, and log message) plus an optional exclusion filter regex
// also evaluated against the log message. There is no configurable
// severity here -- the alert's severity is always derived from the
// event's own ONTAP severity (see SeverityForEMS in the evaluator
// package), matching the documented mapping table.
type EMSRule struct {
	Name             string `yaml:"name"`
	MessageNameMatch string `yaml:"messageNameMatch"`
	SeverityMatch    string `yaml:"severityMatch"`
	MessageMatch     string `yaml:"messageMatch"`
	Filter           string `yaml:"filter"`
}

// EMSRules is the full set of EMS rules for a cluster.
type EMSRules struct {
	Rules []EMSRule `yaml:"rules"`
}

// SnapMirrorRule configures lag-time, stall, and health checks for one
// relationship-matching rule. Any subset of the four checks may be
// configured; a zero value disables that particular check for this rule.
type SnapMirrorRule struct {
	Name                   string         `yaml:"name"`
	MaxLagTime             string         `yaml:"maxLagTime"`
	MaxLagTimePercent      float64        `yaml:"maxLagTimePercent"`
	Healthy                bool           `yaml:"healthy"`
	HealthySeverity        alert.Severity `yaml:"healthySeverity"`
	StalledTransferSeconds int            `yaml:"stalledTransferSeconds"`
	Severity               alert.Severity `yaml:"severity"`
}

// SnapMirrorRules is the full set of SnapMirror rules for a cluster.
type SnapMirrorRules struct {
	Rules []SnapMirrorRule `yaml:"rules"`
}

// StorageRules configures the seven distinct aggregate/volume thresholds.
// A zero threshold disables that particular check. The Warn/Critical
// pairing in each key name fixes that check's alert severity; Offline and
// OldSnapshot carry an explicit severity field since their key names do
// not encode one, defaulting to WARNING when unset.
type StorageRules struct {
	AggrWarnPercentUsed            float64        `yaml:"aggrWarnPercentUsed"`
	AggrCriticalPercentUsed        float64        `yaml:"aggrCriticalPercentUsed"`
	VolumeWarnPercentUsed          float64        `yaml:"volumeWarnPercentUsed"`
	VolumeCriticalPercentUsed      float64        `yaml:"volumeCriticalPercentUsed"`
	VolumeWarnFilesPercentUsed     float64        `yaml:"volumeWarnFilesPercentUsed"`
	VolumeCriticalFilesPercentUsed float64        `yaml:"volumeCriticalFilesPercentUsed"`
	Offline                        bool           `yaml:"offline"`
	OfflineSeverity                alert.Severity `yaml:"offlineSeverity"`
	OldSnapshotDays                float64        `yaml:"oldSnapshot"`
	OldSnapshotSeverity            alert.Severity `yaml:"oldSnapshotSeverity"`
}

// QuotaRules configures the four quota percent-used thresholds: two on
// inode usage, two on space usage, each split into a soft and a hard
// variant. All four alert at WARNING when exceeded, matching the
// source's alerting convention; none of these keys carries its own
// severity field. MaxQuotaInodesPercentUsed is the canonical key;
// maxHardQuotaInodesPercentUsed is recognized as its alias when parsing
// the external rule document.
type QuotaRules struct {
	MaxSoftQuotaInodesPercentUsed float64 `yaml:"maxSoftQuotaInodesPercentUsed"`
	MaxQuotaInodesPercentUsed     float64 `yaml:"maxQuotaInodesPercentUsed"`
	MaxHardQuotaSpacePercentUsed  float64 `yaml:"maxHardQuotaSpacePercentUsed"`
	MaxSoftQuotaSpacePercentUsed  float64 `yaml:"maxSoftQuotaSpacePercentUsed"`
}

// VserverRules configures the three boolean SVM/protocol state checks, one
// field per rule key documented for this domain. Each key name does not
// encode a severity, so each carries its own severity field, defaulting to
// WARNING when unset.
type VserverRules struct {
	VserverState      bool           `yaml:"vserverState"`
	VserverSeverity   alert.Severity `yaml:"vserverStateSeverity"`
	NFSProtocolState  bool           `yaml:"nfsProtocolState"`
	NFSSeverity       alert.Severity `yaml:"nfsProtocolStateSeverity"`
	CIFSProtocolState bool           `yaml:"cifsProtocolState"`
	CIFSSeverity      alert.Severity `yaml:"cifsProtocolStateSeverity"`
}
