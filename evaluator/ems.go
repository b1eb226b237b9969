package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/eventhistory"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/matchconditions"
)

type emsEvent struct {
	Index       int    `json:"index"`
	MessageName string `json:"message.name"`
	Severity    string `json:"message.severity"`
	Source      string `json:"source"`
	LogMessage  string `json:"log_message"`
}

// EMSIdentifier builds the stable identifier for one EMS event: the
// sequence index, which is unique and monotonically increasing per cluster.
func EMSIdentifier(index int) string {
	return fmt.Sprintf("%d", index)
}

// SeverityForEMS maps a raw ONTAP event severity to the alert severity it
// produces, per the documented mapping table. The second return value is
// false for any severity outside that table, in which case the event still
// alerts at INFO but the caller must also raise the secondary "unrecognized
// severity" notice.
func SeverityForEMS(ontapSeverity string) (alert.Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(ontapSeverity)) {
	case "EMERGENCY":
		return alert.Critical, true
	case "ALERT":
		return alert.Error, true
	case "ERROR":
		return alert.Warning, true
	case "NOTICE", "INFORMATIONAL":
		return alert.Info, true
	case "DEBUG":
		return alert.Debug, true
	default:
		return alert.Info, false
	}
}

// EvaluateEMS fetches the cluster's EMS event log and applies every rule's
// three required regexes (message name, severity, log message) plus
// optional exclusion filter (also matched against the log message). A
// matching event's alert severity is always derived from its own ONTAP
// severity via SeverityForEMS, never from rule configuration; an event
// whose severity cannot be mapped additionally raises a secondary INFO
// alert noting the unrecognized severity.
func EvaluateEMS(ctx context.Context, evalCtx EvalContext, rules matchconditions.EMSRules, history eventhistory.History) ([]alert.Intent, eventhistory.History, error) {
	body, err := evalCtx.Client.Get(ctx, "/api/support/ems/events?fields=index,message.name,message.severity,source,log_message")
	if err != nil {
		return nil, history, err
	}

	var resp struct {
		Records []emsEvent `json:"records"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, history, err
	}

	var alerts []alert.Intent
	observed := map[string]struct{}{}

	for _, event := range resp.Records {
		for _, rule := range rules.Rules {
			if !emsRuleMatches(rule, event) {
				continue
			}

			id := EMSIdentifier(event.Index)
			observed[id] = struct{}{}
			isNew := !history.Exists(id)

			severity, known := SeverityForEMS(event.Severity)
			payload := map[string]string{"severity": string(severity), "message": event.LogMessage}
			history, _ = history.Observe(id, payload)

			if !isNew {
				continue
			}

			alerts = append(alerts, alert.Intent{
				Severity:   severity,
				Message:    "EMS event " + event.MessageName + " on " + evalCtx.ClusterName + ": " + event.LogMessage,
				Identifier: id,
			})

			if !known {
				alerts = append(alerts, alert.Intent{
					Severity:   alert.Info,
					Message:    "EMS event " + event.MessageName + " has unrecognized severity " + event.Severity,
					Identifier: id + "_unknown_severity",
				})
			}
		}
	}

	history = history.AgeOne(observed)
	return alerts, history, nil
}

func emsRuleMatches(rule matchconditions.EMSRule, event emsEvent) bool {
	if !mustMatch(rule.MessageNameMatch, event.MessageName) {
		return false
	}
	if !mustMatch(rule.SeverityMatch, event.Severity) {
		return false
	}
	if !mustMatch(rule.MessageMatch, event.LogMessage) {
		return false
	}
	if rule.Filter != "" {
		if excluded, _ := regexp.MatchString(rule.Filter, event.LogMessage); excluded {
			return false
		}
	}
	return true
}

func mustMatch(pattern, value string) bool {
	if pattern == "" {
		return true
	}
	matched, err := regexp.MatchString(pattern, value)
	return err == nil && matched
}
