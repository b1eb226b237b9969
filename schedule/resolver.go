// Package schedule resolves a cluster's named schedule document into a cron
// expression and finds the most recent firing instant. robfig/cron/v3 only
// exposes forward iteration (Schedule.Next), so finding the most recent past
// firing requires a forward scan from a lower bound rather than a single
// library call.
package schedule

import (
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/svcerr"
)

// Document is the cluster's named schedule, as returned by the management
// API's /api/cluster/schedules endpoint. Any field left empty is treated as
// "*" (every value) when building the cron expression.
type Document struct {
	Minute     string
	Hour       string
	DayOfMonth string
	Month      string
	DayOfWeek  string
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Resolve builds the 5-field cron expression for doc, substituting "*" for
// any unset field.
func Resolve(doc Document) string {
	fields := []string{doc.Minute, doc.Hour, doc.DayOfMonth, doc.Month, doc.DayOfWeek}
	for i, f := range fields {
		if strings.TrimSpace(f) == "" {
			fields[i] = "*"
		}
	}
	return strings.Join(fields, " ")
}

// LastFiring returns the most recent instant at or before at, in loc, that
// expr would have fired. It scans forward with Next from a lower bound 400
// days before at and keeps the last firing not after at, since
// robfig/cron/v3's Schedule only exposes Next, never Previous.
func LastFiring(expr string, at time.Time, loc *time.Location) (time.Time, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return time.Time{}, svcerr.Configuration("parse cron expression "+expr, err)
	}

	at = at.In(loc)

	// Scan forward from a fixed lower bound 400 days before "at" (covers
	// yearly schedules), keeping the last firing at or before "at".
	const maxLookback = 400 * 24 * time.Hour
	lowerBound := at.Add(-maxLookback)

	last := lowerBound
	cursor := sched.Next(lowerBound)
	for !cursor.After(at) && !cursor.IsZero() {
		last = cursor
		next := sched.Next(cursor)
		if !next.After(cursor) {
			break
		}
		cursor = next
	}

	if last.Equal(lowerBound) {
		return time.Time{}, svcerr.New(svcerr.CodeConfiguration, "no firing of "+expr+" found within lookback window")
	}

	return last, nil
}
