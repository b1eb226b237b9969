// Package dispatcher fans the fleet descriptor out into one monitor
// invocation per cluster, tracking per-cluster failure streaks and raising a
// meta-alert on the transition to the configured failure threshold.
package dispatcher

import (
	"context"
	"strconv"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/fleet"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/logging"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/runconfig"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/svcerr"
	"github.com/NetApp/FSx-ONTAP-monitoring/statestore"
)

// Mode is the per-invocation dispatch strategy.
type Mode string

const (
	// ModeFireAndForget invokes the monitor asynchronously and does not wait
	// for a result, mirroring InvocationType=Event in the system this was
	// ported from.
	ModeFireAndForget Mode = "fire-and-forget"
	// ModeSync invokes the monitor and waits for a result, maintaining the
	// per-cluster failure-streak counters.
	ModeSync Mode = "sync"
)

// DefaultMaxAllowedFailures is the failure-streak length at which the
// dispatcher's meta-alert fires.
const DefaultMaxAllowedFailures = 2

// MonitorInvoker invokes the monitor for one cluster and reports whether the
// invocation succeeded. In ModeFireAndForget its result is never consulted.
type MonitorInvoker func(ctx context.Context, entry fleet.Entry, payload runconfig.Payload) error

// Dispatcher fans a fleet descriptor out to MonitorInvoker, one call per
// cluster.
type Dispatcher struct {
	Logger            *logging.Logger
	Store             *statestore.Store
	Invoke            MonitorInvoker
	Alerts            AlertEmitter
	FleetID           string
	MaxAllowedFailures int
}

// AlertEmitter is the narrow alert-sink surface the dispatcher needs for its
// own meta-alerts (fleet list fetch failure, failure-streak transitions).
type AlertEmitter interface {
	Emit(ctx context.Context, msg alert.Intent) error
}

// Run parses fleetText, forwards the "initial*"-prefixed keys from payload
// into each cluster's invocation, and dispatches every entry according to
// mode. Fatal conditions (empty fleet descriptor after parsing) return a
// typed error; per-cluster invocation failures never do -- they are
// reflected only in the failure-streak counters and meta-alerts.
func (d *Dispatcher) Run(ctx context.Context, fleetText string, payload runconfig.Payload, mode Mode) error {
	entries, warnings := fleet.Parse(fleetText)
	for _, w := range warnings {
		d.Logger.WithContext(ctx).Warnf("fleet descriptor line %d: %s", w.Line, w.Message)
	}

	if len(entries) == 0 {
		err := svcerr.New(svcerr.CodeConfiguration, "fleet descriptor produced no usable entries")
		if d.Alerts != nil {
			_ = d.Alerts.Emit(ctx, alert.Intent{
				Severity:   alert.Critical,
				Message:    "dispatcher: " + err.Error(),
				Identifier: d.FleetID + "_empty_fleet",
			})
		}
		return err
	}

	maxFailures := d.MaxAllowedFailures
	if maxFailures <= 0 {
		maxFailures = DefaultMaxAllowedFailures
	}

	initial := payload.WithPrefix("initial")

	var counters map[string]int
	if mode == ModeSync {
		var err error
		counters, err = d.Store.FleetFailureCounters(ctx, d.FleetID)
		if err != nil {
			return err
		}
	}

	for _, entry := range entries {
		invokePayload := runconfig.Payload{}
		for k, v := range initial {
			invokePayload[k] = v
		}
		for k, v := range entry.Overrides {
			invokePayload[k] = v
		}
		invokePayload["secretRef"] = entry.SecretRef
		invokePayload["host"] = entry.Host

		if mode == ModeFireAndForget {
			go func(e fleet.Entry, p runconfig.Payload) {
				_ = d.Invoke(ctx, e, p)
			}(entry, invokePayload)
			continue
		}

		err := d.Invoke(ctx, entry, invokePayload)
		d.recordResult(ctx, counters, entry, maxFailures, err)
	}

	if mode == ModeSync {
		if err := d.Store.PutFleetFailureCounters(ctx, d.FleetID, counters); err != nil {
			return err
		}
	}

	return nil
}

func (d *Dispatcher) recordResult(ctx context.Context, counters map[string]int, entry fleet.Entry, maxFailures int, invokeErr error) {
	if invokeErr == nil {
		if counters[entry.Host] != 0 {
			counters[entry.Host] = 0
		}
		return
	}

	counters[entry.Host]++
	d.Logger.WithContext(ctx).WithError(invokeErr).Warnf("monitor invocation failed for %s (%d consecutive)", entry.Host, counters[entry.Host])

	if counters[entry.Host] == maxFailures && d.Alerts != nil {
		_ = d.Alerts.Emit(ctx, alert.Intent{
			Severity:   alert.Error,
			Message:    "cluster " + entry.Host + " has failed monitor invocation " + strconv.Itoa(maxFailures) + " times in a row",
			Identifier: entry.Host + "_invoke_failures",
		})
	}
}
