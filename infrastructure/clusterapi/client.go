// Package clusterapi is the HTTP client for the cluster management API:
// basic auth, self-signed TLS tolerated, one connect retry, one read retry,
// zero retries on a non-2xx status.
package clusterapi

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/svcerr"
)

// Client talks to one cluster's management API.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout (default 10s; valid range
// 5-15s per the documented configuration contract).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New constructs a Client for baseURL (e.g. "https://fsx01.example.com")
// authenticating with username/password over TLS with certificate
// verification disabled, since cluster management endpoints are commonly
// self-signed.
func New(baseURL, username, password string, opts ...Option) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // nolint:gosec
	}
	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}

	c := &Client{baseURL: baseURL, username: username, password: password, httpClient: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET against path (relative to baseURL, or an absolute
// "_links.next.href" URL) and returns the raw response body on a 2xx
// status. Any non-2xx status aborts with svcerr.CodeUpstreamUnreachable and
// must not be retried.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	url := path
	if len(path) > 0 && path[0] == '/' {
		url = c.baseURL + path
	}

	body, status, err := c.doWithRetry(ctx, url)
	if err != nil {
		return nil, svcerr.UpstreamUnreachable("GET "+url, err)
	}
	if status < 200 || status >= 300 {
		return nil, svcerr.New(svcerr.CodeUpstreamUnreachable, fmt.Sprintf("GET %s returned status %d", url, status))
	}
	return body, nil
}

// doWithRetry performs one connect-failure retry and one read-failure
// retry. A completed response, whatever its status code, is never retried.
func (c *Client) doWithRetry(ctx context.Context, url string) ([]byte, int, error) {
	const maxConnectAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, 0, err
		}
		req.SetBasicAuth(c.username, c.password)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := readBodyWithOneRetry(resp)
		closeErr := resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		if closeErr != nil {
			lastErr = closeErr
			continue
		}
		return body, resp.StatusCode, nil
	}
	return nil, 0, lastErr
}

func readBodyWithOneRetry(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(resp.Body)
	if err == nil {
		return data, nil
	}
	// The one allowed read retry re-reads the same already-open body; most
	// real transports will simply fail again, but a partial short read can
	// sometimes be recovered by draining further.
	more, err2 := io.ReadAll(resp.Body)
	if err2 != nil {
		return nil, err
	}
	return append(data, more...), nil
}
