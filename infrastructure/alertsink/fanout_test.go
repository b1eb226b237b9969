package alertsink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/logging"
)

type fakePubSub struct {
	subject, body string
	err           error
}

func (f *fakePubSub) Publish(_ context.Context, subject, body string) error {
	f.subject, f.body = subject, body
	return f.err
}

type fakeStream struct {
	streamName, message string
}

func (f *fakeStream) PutEvent(_ context.Context, streamName, message string, _ time.Time) error {
	f.streamName, f.message = streamName, message
	return nil
}

type fakeWebhook struct {
	sent bool
	payload WebhookPayload
}

func (f *fakeWebhook) Send(_ context.Context, payload WebhookPayload) error {
	f.sent = true
	f.payload = payload
	return nil
}

func newTestFanout() (*Fanout, *fakePubSub, *fakeStream, *fakeWebhook) {
	ps := &fakePubSub{}
	stream := &fakeStream{}
	webhook := &fakeWebhook{}
	f := &Fanout{
		Logger:               logging.New("monitor", "debug", "json"),
		PubSub:               ps,
		Streams:              stream,
		Webhook:               webhook,
		ClusterName:          "fsx01",
		Source:               "lambda",
		WebhookSeverityFloor: alert.Info,
		Clock:                func() time.Time { return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) },
	}
	return f, ps, stream, webhook
}

func TestEmitDeliversToAllSinks(t *testing.T) {
	f, ps, stream, webhook := newTestFanout()

	err := f.Emit(context.Background(), alert.Intent{Severity: alert.Warning, Message: "aggregate aggr1 at 92% used"})
	require.NoError(t, err)

	assert.Contains(t, ps.subject, "WARNING")
	assert.Contains(t, ps.subject, "[ Lambda ]Monitor ONTAP Services Alert for cluster fsx01")
	assert.Equal(t, "aggregate aggr1 at 92% used", ps.body)

	assert.Equal(t, "fsx01-monitor-ontap-services-2026-07-31", stream.streamName)
	assert.True(t, webhook.sent)
}

func TestEmitSkipsWebhookBelowFloor(t *testing.T) {
	f, _, _, webhook := newTestFanout()
	f.WebhookSeverityFloor = alert.Critical

	err := f.Emit(context.Background(), alert.Intent{Severity: alert.Warning, Message: "x"})
	require.NoError(t, err)
	assert.False(t, webhook.sent)
}

func TestSubjectDaemonMarker(t *testing.T) {
	f, ps, _, _ := newTestFanout()
	f.Source = ""

	err := f.Emit(context.Background(), alert.Intent{Severity: alert.Critical, Message: "down"})
	require.NoError(t, err)
	assert.Contains(t, ps.subject, "CRITICAL:[ ]Monitor ONTAP Services Alert for cluster fsx01")
}

func TestSubjectTruncatedTo100Bytes(t *testing.T) {
	f, ps, _, _ := newTestFanout()
	f.ClusterName = "a-very-extremely-super-duper-long-cluster-name-that-pushes-the-subject-line-well-past-one-hundred-bytes"

	err := f.Emit(context.Background(), alert.Intent{Severity: alert.Error, Message: "x"})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(ps.subject), 100)
}

func TestHashIdentifierStable(t *testing.T) {
	a := hashIdentifier("same message")
	b := hashIdentifier("same message")
	assert.Equal(t, a, b)
}
