package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/eventhistory"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/matchconditions"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/watchlist"
	"github.com/NetApp/FSx-ONTAP-monitoring/schedule"
)

// transferringState is the transfer state in which stall detection runs:
// a transfer actively moving bytes is the only state where an unchanged
// byte count across polls is meaningful. Any other state (idle,
// finalizing, aborted, ...) ages the watchlist entry out instead.
const transferringState = "transferring"

type snapMirrorRelationship struct {
	UUID    string `json:"uuid"`
	Healthy bool   `json:"healthy"`
	State   string `json:"state"`
	Policy  struct {
		Name string `json:"name"`
	} `json:"policy"`
	Transfer struct {
		UUID        string `json:"uuid"`
		State       string `json:"state"`
		BytesCopied int64  `json:"bytes_transferred"`
	} `json:"transfer"`
	UnhealthyReason []struct {
		Message string `json:"message"`
	} `json:"unhealthy_reason"`
	LagTime string `json:"lag_time"`
}

// SnapMirrorIdentifier builds the stable identifier for one relationship's
// rule evaluation: "<uuid>_<ruleKey>".
func SnapMirrorIdentifier(uuid, ruleKey string) string {
	return uuid + "_" + ruleKey
}

// EvaluateSnapMirror fetches every SnapMirror relationship and applies each
// rule's maxLagTime / maxLagTimePercent / Healthy / stalledTransferSeconds
// checks. scheduleLookup resolves a relationship's policy-driven schedule to
// its most recent firing instant, used to compute lag-time-as-percentage of
// the expected transfer interval.
func EvaluateSnapMirror(
	ctx context.Context,
	evalCtx EvalContext,
	rules matchconditions.SnapMirrorRules,
	history eventhistory.History,
	watch watchlist.Watchlist,
	scheduleLookup func(relationship snapMirrorRelationshipRef) (time.Time, error),
) ([]alert.Intent, eventhistory.History, watchlist.Watchlist, error) {
	body, err := evalCtx.Client.Get(ctx, "/api/snapmirror/relationships?fields=uuid,healthy,state,policy,transfer,unhealthy_reason,lag_time")
	if err != nil {
		return nil, history, watch, err
	}

	var resp struct {
		Records []snapMirrorRelationship `json:"records"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, history, watch, err
	}

	var alerts []alert.Intent
	observedHistory := map[string]struct{}{}
	observedWatch := map[string]struct{}{}

	for _, rel := range resp.Records {
		isTransferring := rel.Transfer.State == transferringState

		for _, rule := range rules.Rules {
			ruleKey := rule.Name
			id := SnapMirrorIdentifier(rel.UUID, ruleKey)

			var intent *alert.Intent

			if rule.Healthy && !rel.Healthy {
				intent = &alert.Intent{
					Severity:   severityOrWarning(rule.HealthySeverity),
					Message:    "SnapMirror relationship " + rel.UUID + " is unhealthy: " + firstUnhealthyReason(rel),
					Identifier: id,
				}
			}

			if intent == nil && rule.MaxLagTime != "" {
				if exceeded, lag := lagExceeds(rel.LagTime, rule.MaxLagTime); exceeded {
					intent = &alert.Intent{
						Severity:   rule.Severity,
						Message:    "SnapMirror relationship " + rel.UUID + " lag " + FormatLagTime(lag) + " exceeds " + rule.MaxLagTime,
						Identifier: id,
					}
				}
			}

			// Stall detection supersedes the percent-of-schedule lag check:
			// a transfer that is actively moving bytes but behind schedule
			// is not "stalled", but one that is transferring and suppressed
			// here should instead be caught by the stalledTransferSeconds
			// check below.
			suppressLagPercent := isTransferring && rule.StalledTransferSeconds > 0

			if intent == nil && !suppressLagPercent && rule.MaxLagTimePercent > 0 && scheduleLookup != nil {
				lastFiring, err := scheduleLookup(snapMirrorRelationshipRef{UUID: rel.UUID, PolicyName: rel.Policy.Name})
				if err == nil {
					lag, parseErr := ParseLagTime(rel.LagTime)
					if parseErr == nil {
						expectedInterval := evalCtx.Now.Sub(lastFiring)
						if expectedInterval > 0 {
							pct := float64(lag) / float64(expectedInterval) * 100
							if pct > rule.MaxLagTimePercent {
								intent = &alert.Intent{
									Severity:   rule.Severity,
									Message:    "SnapMirror relationship " + rel.UUID + " lag is over its scheduled interval",
									Identifier: id,
								}
							}
						}
					}
				}
			}

			if intent != nil {
				observedHistory[id] = struct{}{}
				isNew := !history.Exists(id)
				payload := map[string]string{"message": intent.Message}
				history, _ = history.Observe(id, payload)
				if isNew {
					alerts = append(alerts, *intent)
				}
			}

			if rule.StalledTransferSeconds > 0 && isTransferring && rel.Transfer.UUID != "" {
				observedWatch[rel.UUID] = struct{}{}
				var stalled bool
				watch, stalled = watch.Observe(rel.UUID, rel.Transfer.UUID, rel.Transfer.BytesCopied)
				if stalled {
					stallID := id + "_stalled"
					isNew := !history.Exists(stallID)
					observedHistory[stallID] = struct{}{}
					history, _ = history.Observe(stallID, nil)
					if isNew {
						alerts = append(alerts, alert.Intent{
							Severity:   rule.Severity,
							Message:    "SnapMirror transfer for relationship " + rel.UUID + " appears stalled",
							Identifier: stallID,
						})
					}
				}
			}
		}
	}

	history = history.AgeOne(observedHistory)
	watch = watch.AgeOne(observedWatch)
	return alerts, history, watch, nil
}

// snapMirrorRelationshipRef is the minimal information scheduleLookup needs
// to resolve a relationship's configured transfer schedule.
type snapMirrorRelationshipRef struct {
	UUID       string
	PolicyName string
}

func firstUnhealthyReason(rel snapMirrorRelationship) string {
	if len(rel.UnhealthyReason) == 0 {
		return "unknown reason"
	}
	return rel.UnhealthyReason[0].Message
}

func lagExceeds(actual, max string) (bool, time.Duration) {
	lag, err := ParseLagTime(actual)
	if err != nil {
		return false, 0
	}
	maxLag, err := ParseLagTime(max)
	if err != nil {
		return false, 0
	}
	return lag > maxLag, lag
}

var errNoSchedule = errors.New("evaluator: no schedule configured for policy")

// ResolveScheduleLookup adapts schedule.LastFiring into the function shape
// EvaluateSnapMirror expects, given a lookup from policy name to cron
// expression and the cluster timezone.
func ResolveScheduleLookup(exprByPolicy map[string]string, loc *time.Location, at time.Time) func(snapMirrorRelationshipRef) (time.Time, error) {
	return func(ref snapMirrorRelationshipRef) (time.Time, error) {
		expr, ok := exprByPolicy[ref.PolicyName]
		if !ok {
			return time.Time{}, errNoSchedule
		}
		return schedule.LastFiring(expr, at, loc)
	}
}
