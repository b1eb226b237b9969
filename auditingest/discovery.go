package auditingest

import (
	"context"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/fleet"
)

// Discoverer resolves the set of clusters the audit ingester should pull
// from on a given run.
type Discoverer interface {
	Discover(ctx context.Context) ([]fleet.Entry, error)
}

// StaticFleetDiscoverer reads the same fleet descriptor text the dispatcher
// parses, giving the ingester parity with the dispatcher's cluster list
// when no multi-region discovery is configured.
type StaticFleetDiscoverer struct {
	FleetText string
}

// Discover implements Discoverer.
func (d StaticFleetDiscoverer) Discover(_ context.Context) ([]fleet.Entry, error) {
	entries, _ := fleet.Parse(d.FleetText)
	return entries, nil
}

// RegionLister lists the clusters visible in one cloud-provider region. The
// concrete discovery API is an external collaborator and out of scope here;
// callers inject their own implementation.
type RegionLister func(ctx context.Context, region string) ([]fleet.Entry, error)

// MultiRegionDiscoverer fans a RegionLister call out across a configured
// list of regions and concatenates the results.
type MultiRegionDiscoverer struct {
	Regions []string
	Lister  RegionLister
}

// Discover implements Discoverer.
func (d MultiRegionDiscoverer) Discover(ctx context.Context) ([]fleet.Entry, error) {
	var all []fleet.Entry
	for _, region := range d.Regions {
		entries, err := d.Lister(ctx, region)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}
