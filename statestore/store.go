// Package statestore is a typed wrapper over infrastructure/blobstore, one
// method per persisted state key. A missing key decodes to the type's zero
// value, never an error; only a present-but-corrupt blob is an error.
package statestore

import (
	"context"
	"encoding/json"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/eventhistory"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/matchconditions"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/systemstatus"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/watchlist"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/watermark"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/blobstore"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/svcerr"
)

// Store is the typed state-key API used by the dispatcher, evaluator, and
// audit ingester.
type Store struct {
	blobs blobstore.Store
}

// New wraps an underlying blobstore.Store.
func New(blobs blobstore.Store) *Store {
	return &Store{blobs: blobs}
}

func clusterKey(clusterID, name string) string {
	return clusterID + "/" + name
}

func getJSON(ctx context.Context, blobs blobstore.Store, key string, out interface{}) error {
	data, ok, err := blobs.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return svcerr.StateBlobParse("decode state blob "+key, err)
	}
	return nil
}

func putJSON(ctx context.Context, blobs blobstore.Store, key string, in interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return svcerr.Internal("encode state blob "+key, err)
	}
	return blobs.Put(ctx, key, data)
}

// SystemStatus loads the availability-probe state for clusterID.
func (s *Store) SystemStatus(ctx context.Context, clusterID string) (systemstatus.Status, error) {
	var status systemstatus.Status
	err := getJSON(ctx, s.blobs, clusterKey(clusterID, "system-status"), &status)
	return status, err
}

// PutSystemStatus persists the availability-probe state for clusterID.
func (s *Store) PutSystemStatus(ctx context.Context, clusterID string, status systemstatus.Status) error {
	return putJSON(ctx, s.blobs, clusterKey(clusterID, "system-status"), status)
}

// EMSEvents loads the EMS event history for clusterID.
func (s *Store) EMSEvents(ctx context.Context, clusterID string) (eventhistory.History, error) {
	return s.history(ctx, clusterID, "ems-events")
}

// PutEMSEvents persists the EMS event history for clusterID.
func (s *Store) PutEMSEvents(ctx context.Context, clusterID string, h eventhistory.History) error {
	return putJSON(ctx, s.blobs, clusterKey(clusterID, "ems-events"), h)
}

// SnapMirrorEvents loads the SnapMirror event history for clusterID.
func (s *Store) SnapMirrorEvents(ctx context.Context, clusterID string) (eventhistory.History, error) {
	return s.history(ctx, clusterID, "snapmirror-events")
}

// PutSnapMirrorEvents persists the SnapMirror event history for clusterID.
func (s *Store) PutSnapMirrorEvents(ctx context.Context, clusterID string, h eventhistory.History) error {
	return putJSON(ctx, s.blobs, clusterKey(clusterID, "snapmirror-events"), h)
}

// SnapMirrorWatchlist loads the stalled-transfer watchlist for clusterID.
func (s *Store) SnapMirrorWatchlist(ctx context.Context, clusterID string) (watchlist.Watchlist, error) {
	var w watchlist.Watchlist
	err := getJSON(ctx, s.blobs, clusterKey(clusterID, "snapmirror-watchlist"), &w)
	return w, err
}

// PutSnapMirrorWatchlist persists the stalled-transfer watchlist for clusterID.
func (s *Store) PutSnapMirrorWatchlist(ctx context.Context, clusterID string, w watchlist.Watchlist) error {
	return putJSON(ctx, s.blobs, clusterKey(clusterID, "snapmirror-watchlist"), w)
}

// NetworkInterfaceEvents loads the down-interface event history for clusterID.
func (s *Store) NetworkInterfaceEvents(ctx context.Context, clusterID string) (eventhistory.History, error) {
	return s.history(ctx, clusterID, "network-interface-events")
}

// PutNetworkInterfaceEvents persists the down-interface event history for clusterID.
func (s *Store) PutNetworkInterfaceEvents(ctx context.Context, clusterID string, h eventhistory.History) error {
	return putJSON(ctx, s.blobs, clusterKey(clusterID, "network-interface-events"), h)
}

// StorageEvents loads the aggregate/volume event history for clusterID.
func (s *Store) StorageEvents(ctx context.Context, clusterID string) (eventhistory.History, error) {
	return s.history(ctx, clusterID, "storage-events")
}

// PutStorageEvents persists the aggregate/volume event history for clusterID.
func (s *Store) PutStorageEvents(ctx context.Context, clusterID string, h eventhistory.History) error {
	return putJSON(ctx, s.blobs, clusterKey(clusterID, "storage-events"), h)
}

// QuotaEvents loads the quota event history for clusterID.
func (s *Store) QuotaEvents(ctx context.Context, clusterID string) (eventhistory.History, error) {
	return s.history(ctx, clusterID, "quota-events")
}

// PutQuotaEvents persists the quota event history for clusterID.
func (s *Store) PutQuotaEvents(ctx context.Context, clusterID string, h eventhistory.History) error {
	return putJSON(ctx, s.blobs, clusterKey(clusterID, "quota-events"), h)
}

// VserverEvents loads the vserver event history for clusterID.
func (s *Store) VserverEvents(ctx context.Context, clusterID string) (eventhistory.History, error) {
	return s.history(ctx, clusterID, "vserver-events")
}

// PutVserverEvents persists the vserver event history for clusterID.
func (s *Store) PutVserverEvents(ctx context.Context, clusterID string, h eventhistory.History) error {
	return putJSON(ctx, s.blobs, clusterKey(clusterID, "vserver-events"), h)
}

// AuditWatermark loads the audit ingester's read position for clusterID,
// defaulting to watermark.Default() when no watermark has been persisted yet.
func (s *Store) AuditWatermark(ctx context.Context, clusterID string) (watermark.Watermark, error) {
	data, ok, err := s.blobs.Get(ctx, clusterKey(clusterID, "audit-watermark"))
	if err != nil {
		return watermark.Watermark{}, err
	}
	if !ok {
		return watermark.Default(), nil
	}
	var w watermark.Watermark
	if err := json.Unmarshal(data, &w); err != nil {
		return watermark.Watermark{}, svcerr.StateBlobParse("decode audit watermark", err)
	}
	return w, nil
}

// PutAuditWatermark persists the audit ingester's read position for clusterID.
func (s *Store) PutAuditWatermark(ctx context.Context, clusterID string, w watermark.Watermark) error {
	return putJSON(ctx, s.blobs, clusterKey(clusterID, "audit-watermark"), w)
}

// FleetFailureCounters loads the dispatcher's failure-streak counters for one
// fleet descriptor: a single blob keyed by fleetID holding one
// consecutive-failure count per cluster host.
func (s *Store) FleetFailureCounters(ctx context.Context, fleetID string) (map[string]int, error) {
	counters := map[string]int{}
	err := getJSON(ctx, s.blobs, "fleet/"+fleetID+"/failure-counters", &counters)
	return counters, err
}

// PutFleetFailureCounters persists the dispatcher's per-cluster failure-streak
// counters for one fleet descriptor.
func (s *Store) PutFleetFailureCounters(ctx context.Context, fleetID string, counters map[string]int) error {
	return putJSON(ctx, s.blobs, "fleet/"+fleetID+"/failure-counters", counters)
}

// MatchConditions loads the persisted match-conditions document for
// clusterID, if one has been bootstrapped.
func (s *Store) MatchConditions(ctx context.Context, clusterID string) (matchconditions.Document, bool, error) {
	data, ok, err := s.blobs.Get(ctx, clusterKey(clusterID, "match-conditions"))
	if err != nil {
		return matchconditions.Document{}, false, err
	}
	if !ok {
		return matchconditions.Document{}, false, nil
	}
	doc, err := matchconditions.ParseYAML(data)
	if err != nil {
		return matchconditions.Document{}, false, svcerr.StateBlobParse("decode match conditions", err)
	}
	return doc, true, nil
}

// PutMatchConditions persists a bootstrapped match-conditions document for
// clusterID.
func (s *Store) PutMatchConditions(ctx context.Context, clusterID string, doc matchconditions.Document) error {
	data, err := matchconditions.MarshalYAML(doc)
	if err != nil {
		return svcerr.Internal("encode match conditions", err)
	}
	return s.blobs.Put(ctx, clusterKey(clusterID, "match-conditions"), data)
}

func (s *Store) history(ctx context.Context, clusterID, name string) (eventhistory.History, error) {
	var h eventhistory.History
	err := getJSON(ctx, s.blobs, clusterKey(clusterID, name), &h)
	return h, err
}
