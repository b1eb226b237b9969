package alertsink

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/resilience"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/svcerr"
)

// CloudWatchLogsClient is the subset of *cloudwatchlogs.Client this package
// depends on.
type CloudWatchLogsClient interface {
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// CloudWatchStreamWriter implements LogStreamWriter against a single
// CloudWatch Logs group, creating one stream per day lazily on first use.
type CloudWatchStreamWriter struct {
	client   CloudWatchLogsClient
	logGroup string
	retry    resilience.RetryConfig

	mu      sync.Mutex
	created map[string]struct{}
	tokens  map[string]*string
}

// NewCloudWatchStreamWriter constructs a CloudWatchStreamWriter writing into
// logGroup.
func NewCloudWatchStreamWriter(client CloudWatchLogsClient, logGroup string) *CloudWatchStreamWriter {
	return &CloudWatchStreamWriter{
		client:   client,
		logGroup: logGroup,
		retry:    resilience.DefaultRetryConfig(),
		created:  map[string]struct{}{},
		tokens:   map[string]*string{},
	}
}

// PutEvent implements LogStreamWriter.
func (w *CloudWatchStreamWriter) PutEvent(ctx context.Context, streamName, message string, at time.Time) error {
	if err := w.ensureStream(ctx, streamName); err != nil {
		return err
	}

	w.mu.Lock()
	token := w.tokens[streamName]
	w.mu.Unlock()

	var out *cloudwatchlogs.PutLogEventsOutput
	err := resilience.Retry(ctx, w.retry, func() error {
		var putErr error
		out, putErr = w.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(w.logGroup),
			LogStreamName: aws.String(streamName),
			SequenceToken: token,
			LogEvents: []types.InputLogEvent{
				{
					Message:   aws.String(message),
					Timestamp: aws.Int64(at.UnixMilli()),
				},
			},
		})
		return putErr
	})
	if err != nil {
		return svcerr.TransientSink("put log event to stream "+streamName, err)
	}

	w.mu.Lock()
	if out != nil {
		w.tokens[streamName] = out.NextSequenceToken
	}
	w.mu.Unlock()
	return nil
}

func (w *CloudWatchStreamWriter) ensureStream(ctx context.Context, streamName string) error {
	w.mu.Lock()
	_, already := w.created[streamName]
	w.mu.Unlock()
	if already {
		return nil
	}

	_, err := w.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(w.logGroup),
		LogStreamName: aws.String(streamName),
	})
	if err != nil {
		var exists *types.ResourceAlreadyExistsException
		if !errors.As(err, &exists) {
			return svcerr.TransientSink("create log stream "+streamName, err)
		}
	}

	w.mu.Lock()
	w.created[streamName] = struct{}{}
	w.mu.Unlock()
	return nil
}
