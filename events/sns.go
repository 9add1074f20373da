package events

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Publisher is the minimal interface services publish domain events
// through. Publishing is always best-effort; a failed publish never
// fails the request that produced the event.
type Publisher interface {
	Publish(ctx context.Context, topicArn string, message []byte) error
}

// SNSPublisher implements Publisher on an SNS topic.
type SNSPublisher struct {
	client *sns.Client
}

// NewSNSPublisher loads the default AWS config and returns a publisher.
func NewSNSPublisher(ctx context.Context) (*SNSPublisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &SNSPublisher{client: sns.NewFromConfig(cfg)}, nil
}

// NewSNSPublisherFromConfig builds a publisher from an existing config,
// for tests and for LocalStack endpoints.
func NewSNSPublisherFromConfig(cfg sdkaws.Config) *SNSPublisher {
	return &SNSPublisher{client: sns.NewFromConfig(cfg)}
}

func (p *SNSPublisher) Publish(ctx context.Context, topicArn string, message []byte) error {
	if topicArn == "" {
		return fmt.Errorf("empty topicArn")
	}
	body := string(message)
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &topicArn,
		Message:  &body,
	})
	if err != nil {
		return fmt.Errorf("sns publish failed for topic %s: %w", topicArn, err)
	}
	return nil
}
