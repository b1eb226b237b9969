// Package evaluator implements the six condition-evaluation domains: system
// health, EMS events, SnapMirror relationships, storage, quota, and vserver
// state. Each domain is a pure function over an EvalContext and its rules,
// with no package-level mutable state.
package evaluator

import (
	"context"
	"time"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/clusterapi"
)

// EvalContext carries what every domain evaluator needs to probe the
// cluster API and report alerts.
type EvalContext struct {
	Client      *clusterapi.Client
	ClusterName string
	Now         time.Time
}

// Result is what one domain evaluator produces: the alerts to emit this
// poll.
type Result struct {
	Alerts []alert.Intent
}

// Evaluator is satisfied by every domain's Evaluate function signature in
// spirit; each domain package-level function takes its own state type, so
// this interface exists only for documentation -- callers in cmd/monitor
// invoke each domain's Evaluate function directly.
type Evaluator func(ctx context.Context, evalCtx EvalContext) (Result, error)
