package alertsink

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/resilience"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/svcerr"
)

// SNSClient is the subset of *sns.Client this package depends on.
type SNSClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher implements PubSubPublisher against an SNS topic.
type SNSPublisher struct {
	client   SNSClient
	topicARN string
	retry    resilience.RetryConfig
}

// NewSNSPublisher constructs a SNSPublisher for the given topic ARN.
func NewSNSPublisher(client SNSClient, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN, retry: resilience.DefaultRetryConfig()}
}

// Publish implements PubSubPublisher.
func (p *SNSPublisher) Publish(ctx context.Context, subject, body string) error {
	err := resilience.Retry(ctx, p.retry, func() error {
		_, err := p.client.Publish(ctx, &sns.PublishInput{
			TopicArn: aws.String(p.topicARN),
			Subject:  aws.String(subject),
			Message:  aws.String(body),
		})
		return err
	})
	if err != nil {
		return svcerr.TransientSink("publish to SNS topic "+p.topicARN, err)
	}
	return nil
}
