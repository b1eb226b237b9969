// Package alertsink fans a single alert out to structured logging, a
// pub/sub topic, a lazily-created daily log-aggregation stream, and an
// optional webhook.
package alertsink

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/big"
	"time"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/logging"
)

// PubSubPublisher delivers a subject/body pair to a pub/sub topic (SNS in
// production).
type PubSubPublisher interface {
	Publish(ctx context.Context, subject, body string) error
}

// LogStreamWriter appends a message to a per-cluster, per-day log stream
// (CloudWatch Logs in production), creating the stream lazily on first use.
type LogStreamWriter interface {
	PutEvent(ctx context.Context, streamName, message string, at time.Time) error
}

// WebhookSender posts a JSON alert payload to an external webhook.
type WebhookSender interface {
	Send(ctx context.Context, payload WebhookPayload) error
}

// WebhookPayload is the JSON body posted to the configured webhook, field
// names preserved from the system this was ported from.
type WebhookPayload struct {
	Identifier string `json:"INC__identifier"`
	Severity   string `json:"INC__severity"`
	Cluster    string `json:"INC__cluster"`
	Message    string `json:"INC__message"`
}

// Fanout delivers one alert to every configured sink.
type Fanout struct {
	Logger *logging.Logger

	PubSub  PubSubPublisher
	Streams LogStreamWriter
	Webhook WebhookSender

	// ClusterName is used in the pub/sub subject and the log stream name.
	ClusterName string
	// Source distinguishes a Lambda-style invocation from a long-running
	// daemon invocation in the pub/sub subject text.
	Source string // "lambda" or "" (daemon)
	// WebhookSeverityFloor is the configured minimum severity the webhook
	// sink emits; see alert.MeetsFloor for the comparison semantics.
	WebhookSeverityFloor alert.Severity
	// Clock overrides time.Now for tests; nil uses the real clock.
	Clock func() time.Time
}

// Emit delivers one alert to every configured sink. Sink failures are
// collected and returned together rather than aborting the fan-out early,
// since the structured log, pub/sub, stream, and webhook sinks are
// independent and a single sink's failure should not suppress the others.
func (f *Fanout) Emit(ctx context.Context, msg alert.Intent) error {
	var errs []error

	f.logMessage(ctx, msg)

	if f.PubSub != nil {
		if err := f.publish(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}

	if f.Streams != nil {
		if err := f.writeStream(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}

	if f.Webhook != nil && alert.MeetsFloor(f.WebhookSeverityFloor, msg.Severity) {
		if err := f.sendWebhook(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return combineErrors(errs)
}

func (f *Fanout) logMessage(ctx context.Context, msg alert.Intent) {
	entry := f.Logger.WithCluster(f.ClusterName)
	switch msg.Severity {
	case alert.Critical, alert.Error:
		entry.Error(msg.Message)
	case alert.Warning:
		entry.Warn(msg.Message)
	case alert.Debug:
		entry.Debug(msg.Message)
	default:
		entry.Info(msg.Message)
	}
}

func (f *Fanout) subject() string {
	marker := " "
	if f.Source == "lambda" {
		marker = " Lambda "
	}
	return fmt.Sprintf("%%s:[%s]Monitor ONTAP Services Alert for cluster %s", marker, f.ClusterName)
}

func (f *Fanout) publish(ctx context.Context, msg alert.Intent) error {
	subject := fmt.Sprintf(f.subject(), msg.Severity)
	if len(subject) > 100 {
		subject = subject[:100]
	}
	return f.PubSub.Publish(ctx, subject, msg.Message)
}

func (f *Fanout) writeStream(ctx context.Context, msg alert.Intent) error {
	now := f.clock()
	streamName := fmt.Sprintf("%s-monitor-ontap-services-%s", f.ClusterName, now.Format("2006-01-02"))
	return f.Streams.PutEvent(ctx, streamName, msg.Message, now)
}

func (f *Fanout) clock() time.Time {
	if f.Clock != nil {
		return f.Clock()
	}
	return time.Now()
}

func (f *Fanout) sendWebhook(ctx context.Context, msg alert.Intent) error {
	return f.Webhook.Send(ctx, WebhookPayload{
		Identifier: hashIdentifier(msg.Message),
		Severity:   string(msg.Severity),
		Cluster:    f.ClusterName,
		Message:    msg.Message,
	})
}

// hashIdentifier reproduces the original SHA-256(message) mod 10^8 stable
// identifier used so repeated deliveries of the same alert text collapse to
// the same webhook incident id.
func hashIdentifier(message string) string {
	sum := sha256.Sum256([]byte(message))
	n := new(big.Int).SetBytes(sum[:])
	return n.Mod(n, big.NewInt(100000000)).String()
}

func combineErrors(errs []error) error {
	msg := "alertsink: "
	for i, err := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += err.Error()
	}
	return fanoutError(msg)
}

type fanoutError string

func (e fanoutError) Error() string { return string(e) }
