package auditingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/watermark"
	"github.com/NetApp/FSx-ONTAP-monitoring/evaluator"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/clusterapi"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/logging"
	"github.com/NetApp/FSx-ONTAP-monitoring/statestore"
)

// Message is one audit-log record as emitted into the downstream sink.
type Message struct {
	Timestamp string `json:"timestamp"`
	Index     int    `json:"index"`
	Body      string `json:"message"`
}

type auditRecord struct {
	Timestamp   string `json:"timestamp"`
	Index       int    `json:"index"`
	Input       string `json:"input"`
	Application string `json:"application"`
	User        string `json:"user"`
	State       string `json:"state"`
}

// Sink delivers a batch of messages for one cluster on one day.
type Sink interface {
	PutBatch(ctx context.Context, batchKey string, messages []Message) error
}

// Ingester pulls audit records for one cluster and forwards them to a Sink,
// advancing the cluster's watermark only once a batch push succeeds.
type Ingester struct {
	Client auditAPI
	Store  *statestore.Store
	Sink   Sink
	Logger *logging.Logger
	Filter Filter
	// Clock overrides time.Now for tests; nil uses the real clock.
	Clock func() time.Time
}

func (ing *Ingester) now() time.Time {
	if ing.Clock != nil {
		return ing.Clock()
	}
	return time.Now()
}

// auditAPI is the narrow cluster API surface the ingester needs.
type auditAPI interface {
	Paginate(ctx context.Context, path string, handler clusterapi.PageHandler) error
}

// NewIngester constructs an Ingester. client satisfies the Paginate method
// of *clusterapi.Client.
func NewIngester(client auditAPI, store *statestore.Store, sink Sink, logger *logging.Logger, filter Filter) *Ingester {
	return &Ingester{Client: client, Store: store, Sink: sink, Logger: logger, Filter: filter}
}

// Run pulls every audit record newer than the cluster's persisted
// watermark, in timestamp order, applies the compound filter, and pushes
// matching records batched by calendar day into the sink. The watermark
// only advances past a record once it (and everything before it in the
// same push) has been successfully delivered.
func (ing *Ingester) Run(ctx context.Context, clusterID string) error {
	wm, err := ing.Store.AuditWatermark(ctx, clusterID)
	if err != nil {
		return err
	}

	seed := wm.EpochMillis
	if seed == 0 {
		seedDuration, parseErr := evaluator.ParseLagTime(wm.SeedWindow)
		if parseErr != nil {
			seedDuration, parseErr = time.ParseDuration(wm.SeedWindow)
		}
		if parseErr == nil {
			seed = ing.now().Add(-seedDuration).UnixMilli()
		}
	}

	var matched []Message
	var lastMatchedTimestamp string
	lastMatchedIndex := wm.Index

	path := fmt.Sprintf("/api/security/audit/messages?timestamp=>%d&max_records=1000", seed)
	err = ing.Client.Paginate(ctx, path, func(records json.RawMessage) error {
		var rows []auditRecord
		if unmarshalErr := json.Unmarshal(records, &rows); unmarshalErr != nil {
			return unmarshalErr
		}

		for _, row := range rows {
			if row.Index <= wm.Index {
				continue
			}
			if !ing.Filter.Matches(Record{Input: row.Input, Application: row.Application, User: row.User, State: row.State}) {
				continue
			}
			matched = append(matched, Message{Timestamp: row.Timestamp, Index: row.Index, Body: row.Input})
			lastMatchedTimestamp = row.Timestamp
			lastMatchedIndex = row.Index
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(matched) == 0 {
		return nil
	}

	batches := groupByDay(matched)
	for day, msgs := range batches {
		if sinkErr := ing.Sink.PutBatch(ctx, clusterID+"-"+day, msgs); sinkErr != nil {
			return sinkErr
		}
	}

	newEpoch, err := ParseMsEpoch(lastMatchedTimestamp)
	if err != nil {
		return err
	}

	return ing.Store.PutAuditWatermark(ctx, clusterID, watermark.Watermark{
		EpochMillis: newEpoch,
		Index:       lastMatchedIndex,
		SeedWindow:  wm.SeedWindow,
	})
}

func groupByDay(messages []Message) map[string][]Message {
	out := map[string][]Message{}
	for _, m := range messages {
		day := m.Timestamp
		if len(day) >= 10 {
			day = day[:10]
		}
		out[day] = append(out[day], m)
	}
	return out
}
