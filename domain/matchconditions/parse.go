package matchconditions

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"
)

// ParseYAML decodes a persisted match-conditions document from its YAML
// form -- the state store's internal representation of Document, used to
// round-trip a cluster's bootstrapped rules between runs.
func ParseYAML(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// MarshalYAML encodes a Document back to YAML, used when persisting a
// first-run bootstrap result for later edits by an operator.
func MarshalYAML(doc Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// Warning is a non-fatal issue found while extracting a rule document's
// service blocks: an unrecognized rule key is logged and otherwise
// ignored, exactly as the documented external interface requires.
type Warning struct {
	Service string
	Key     string
}

// rawDocument mirrors the external match-conditions document's wire shape:
// { "services": [ { "name": <str>, "rules": [ { <ruleKey>: <value> }, ... ] } ] }.
// Rule objects are decoded as generic maps so that rule keys can be matched
// case-insensitively against each domain's known vocabulary.
type rawDocument struct {
	Services []rawService `yaml:"services" json:"services"`
}

type rawService struct {
	Name  string                   `yaml:"name" json:"name"`
	Rules []map[string]interface{} `yaml:"rules" json:"rules"`
}

// ParseRuleDocument decodes the external match-conditions document (either
// JSON, as produced by the invocation payload, or the equivalent YAML form)
// into a Document, applying spec's documented external-interface contract:
// rule keys are matched case-insensitively, and any key not recognized by
// its service's domain is reported as a Warning and otherwise ignored
// rather than rejected.
func ParseRuleDocument(data []byte) (Document, []Warning, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Document{}, nil, err
	}

	var doc Document
	var warnings []Warning

	for _, svc := range raw.Services {
		switch strings.ToLower(strings.TrimSpace(svc.Name)) {
		case "systemhealth":
			warnings = append(warnings, extractSystemHealth(&doc.SystemHealth, svc)...)
		case "ems":
			warnings = append(warnings, extractEMS(&doc.EMS, svc)...)
		case "snapmirror":
			warnings = append(warnings, extractSnapMirror(&doc.SnapMirror, svc)...)
		case "storage":
			warnings = append(warnings, extractStorage(&doc.Storage, svc)...)
		case "quota":
			warnings = append(warnings, extractQuota(&doc.Quota, svc)...)
		case "vserver":
			warnings = append(warnings, extractVserver(&doc.Vserver, svc)...)
		default:
			warnings = append(warnings, Warning{Service: svc.Name, Key: "(service name)"})
		}
	}

	return doc, warnings, nil
}

// keyMatch reports whether key case-insensitively equals any of candidates.
func keyMatch(key string, candidates ...string) bool {
	for _, c := range candidates {
		if strings.EqualFold(key, c) {
			return true
		}
	}
	return false
}

func asBool(v interface{}) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)
		return b, err == nil
	}
	return false, false
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func extractSystemHealth(rules *SystemHealthRules, svc rawService) []Warning {
	var warnings []Warning
	for _, rule := range svc.Rules {
		for key, val := range rule {
			switch {
			case keyMatch(key, "versionChange"):
				if b, ok := asBool(val); ok {
					rules.VersionChange = b
				}
			case keyMatch(key, "versionChangeSeverity"):
				if s, ok := asString(val); ok {
					rules.VersionChangeSeverity = severityFromString(s)
				}
			case keyMatch(key, "failover"):
				if b, ok := asBool(val); ok {
					rules.Failover = b
				}
			case keyMatch(key, "failoverSeverity"):
				if s, ok := asString(val); ok {
					rules.FailoverSeverity = severityFromString(s)
				}
			case keyMatch(key, "networkInterfaces"):
				if b, ok := asBool(val); ok {
					rules.NetworkInterfaces = b
				}
			case keyMatch(key, "networkInterfaceSeverity"):
				if s, ok := asString(val); ok {
					rules.NetworkInterfaceSeverity = severityFromString(s)
				}
			default:
				warnings = append(warnings, Warning{Service: svc.Name, Key: key})
			}
		}
	}
	return warnings
}

func extractEMS(rules *EMSRules, svc rawService) []Warning {
	var warnings []Warning
	for _, rule := range svc.Rules {
		var r EMSRule
		for key, val := range rule {
			switch {
			case keyMatch(key, "name"):
				if s, ok := asString(val); ok {
					r.Name = s
				}
			case keyMatch(key, "messageNameMatch", "eventName", "name_match"):
				if s, ok := asString(val); ok {
					r.MessageNameMatch = s
				}
			case keyMatch(key, "severityMatch", "severity"):
				if s, ok := asString(val); ok {
					r.SeverityMatch = s
				}
			case keyMatch(key, "messageMatch", "message"):
				if s, ok := asString(val); ok {
					r.MessageMatch = s
				}
			case keyMatch(key, "filter"):
				if s, ok := asString(val); ok {
					r.Filter = s
				}
			default:
				warnings = append(warnings, Warning{Service: svc.Name, Key: key})
			}
		}
		rules.Rules = append(rules.Rules, r)
	}
	return warnings
}

func extractSnapMirror(rules *SnapMirrorRules, svc rawService) []Warning {
	var warnings []Warning
	for _, rule := range svc.Rules {
		var r SnapMirrorRule
		for key, val := range rule {
			switch {
			case keyMatch(key, "name"):
				if s, ok := asString(val); ok {
					r.Name = s
				}
			case keyMatch(key, "maxLagTime"):
				if s, ok := asString(val); ok {
					r.MaxLagTime = s
				}
			case keyMatch(key, "maxLagTimePercent"):
				if f, ok := asFloat(val); ok {
					r.MaxLagTimePercent = f
				}
			case keyMatch(key, "healthy"):
				if b, ok := asBool(val); ok {
					r.Healthy = b
				}
			case keyMatch(key, "stalledTransferSeconds"):
				if f, ok := asFloat(val); ok {
					r.StalledTransferSeconds = int(f)
				}
			case keyMatch(key, "severity"):
				if s, ok := asString(val); ok {
					r.Severity = severityFromString(s)
					r.HealthySeverity = r.Severity
				}
			default:
				warnings = append(warnings, Warning{Service: svc.Name, Key: key})
			}
		}
		rules.Rules = append(rules.Rules, r)
	}
	return warnings
}

func extractStorage(rules *StorageRules, svc rawService) []Warning {
	var warnings []Warning
	for _, rule := range svc.Rules {
		for key, val := range rule {
			switch {
			case keyMatch(key, "aggrWarnPercentUsed"):
				setFloat(&rules.AggrWarnPercentUsed, val)
			case keyMatch(key, "aggrCriticalPercentUsed"):
				setFloat(&rules.AggrCriticalPercentUsed, val)
			case keyMatch(key, "volumeWarnPercentUsed"):
				setFloat(&rules.VolumeWarnPercentUsed, val)
			case keyMatch(key, "volumeCriticalPercentUsed"):
				setFloat(&rules.VolumeCriticalPercentUsed, val)
			case keyMatch(key, "volumeWarnFilesPercentUsed"):
				setFloat(&rules.VolumeWarnFilesPercentUsed, val)
			case keyMatch(key, "volumeCriticalFilesPercentUsed"):
				setFloat(&rules.VolumeCriticalFilesPercentUsed, val)
			case keyMatch(key, "offline"):
				if b, ok := asBool(val); ok {
					rules.Offline = b
				}
			case keyMatch(key, "offlineSeverity"):
				if s, ok := asString(val); ok {
					rules.OfflineSeverity = severityFromString(s)
				}
			case keyMatch(key, "oldSnapshot"):
				setFloat(&rules.OldSnapshotDays, val)
			case keyMatch(key, "oldSnapshotSeverity"):
				if s, ok := asString(val); ok {
					rules.OldSnapshotSeverity = severityFromString(s)
				}
			default:
				warnings = append(warnings, Warning{Service: svc.Name, Key: key})
			}
		}
	}
	return warnings
}

func extractQuota(rules *QuotaRules, svc rawService) []Warning {
	var warnings []Warning
	for _, rule := range svc.Rules {
		for key, val := range rule {
			switch {
			case keyMatch(key, "maxSoftQuotaInodesPercentUsed"):
				setFloat(&rules.MaxSoftQuotaInodesPercentUsed, val)
			case keyMatch(key, "maxQuotaInodesPercentUsed", "maxHardQuotaInodesPercentUsed"):
				setFloat(&rules.MaxQuotaInodesPercentUsed, val)
			case keyMatch(key, "maxHardQuotaSpacePercentUsed"):
				setFloat(&rules.MaxHardQuotaSpacePercentUsed, val)
			case keyMatch(key, "maxSoftQuotaSpacePercentUsed"):
				setFloat(&rules.MaxSoftQuotaSpacePercentUsed, val)
			default:
				warnings = append(warnings, Warning{Service: svc.Name, Key: key})
			}
		}
	}
	return warnings
}

func extractVserver(rules *VserverRules, svc rawService) []Warning {
	var warnings []Warning
	for _, rule := range svc.Rules {
		for key, val := range rule {
			switch {
			case keyMatch(key, "vserverState"):
				if b, ok := asBool(val); ok {
					rules.VserverState = b
				}
			case keyMatch(key, "vserverStateSeverity"):
				if s, ok := asString(val); ok {
					rules.VserverSeverity = severityFromString(s)
				}
			case keyMatch(key, "nfsProtocolState"):
				if b, ok := asBool(val); ok {
					rules.NFSProtocolState = b
				}
			case keyMatch(key, "nfsProtocolStateSeverity"):
				if s, ok := asString(val); ok {
					rules.NFSSeverity = severityFromString(s)
				}
			case keyMatch(key, "cifsProtocolState"):
				if b, ok := asBool(val); ok {
					rules.CIFSProtocolState = b
				}
			case keyMatch(key, "cifsProtocolStateSeverity"):
				if s, ok := asString(val); ok {
					rules.CIFSSeverity = severityFromString(s)
				}
			default:
				warnings = append(warnings, Warning{Service: svc.Name, Key: key})
			}
		}
	}
	return warnings
}

func setFloat(dst *float64, val interface{}) {
	if f, ok := asFloat(val); ok {
		*dst = f
	}
}

func severityFromString(s string) alert.Severity {
	return alert.Severity(strings.ToUpper(strings.TrimSpace(s)))
}
