package alertsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/svcerr"
)

// HTTPWebhookSender implements WebhookSender by POSTing the JSON payload to
// a fixed URL.
type HTTPWebhookSender struct {
	url        string
	httpClient *http.Client
}

// NewHTTPWebhookSender constructs a HTTPWebhookSender posting to url.
func NewHTTPWebhookSender(url string, httpClient *http.Client) *HTTPWebhookSender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPWebhookSender{url: url, httpClient: httpClient}
}

// Send implements WebhookSender.
func (s *HTTPWebhookSender) Send(ctx context.Context, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return svcerr.Internal("encode webhook payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return svcerr.Internal("build webhook request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return svcerr.TransientSink("post webhook", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return svcerr.TransientSink(fmt.Sprintf("webhook returned status %d", resp.StatusCode), nil)
	}
	return nil
}
