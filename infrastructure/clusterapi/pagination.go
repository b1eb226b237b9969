package clusterapi

import (
	"context"
	"encoding/json"

	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/svcerr"
)

// page is the subset of a cluster API collection response this package
// needs to walk pagination.
type page struct {
	Records json.RawMessage `json:"records"`
	Links   struct {
		Next struct {
			Href string `json:"href"`
		} `json:"next"`
	} `json:"_links"`
}

// PageHandler is called once per page of results with the raw "records"
// array for that page.
type PageHandler func(records json.RawMessage) error

// Paginate walks every page of a collection endpoint starting at path,
// following "_links.next.href" until it is empty, invoking handler once per
// page. A non-200 on any page aborts the entire walk; callers must not
// persist any state-aging decision made before the abort, since partial
// progress through a domain's collection does not mean the unseen remainder
// has genuinely cleared.
func (c *Client) Paginate(ctx context.Context, path string, handler PageHandler) error {
	next := path
	for next != "" {
		body, err := c.Get(ctx, next)
		if err != nil {
			return err
		}

		var p page
		if err := json.Unmarshal(body, &p); err != nil {
			return svcerr.StateBlobParse("decode page from "+next, err)
		}

		if err := handler(p.Records); err != nil {
			return err
		}

		next = p.Links.Next.Href
	}
	return nil
}
