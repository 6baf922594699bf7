package cloud

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

type snsAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClient publishes hygiene alerts to an SNS topic for the cleaner app.
type SNSClient struct {
	svc      snsAPI
	topicArn string
}

func NewSNSClient(cfg aws.Config, topicArn string) *SNSClient {
	return &SNSClient{svc: sns.NewFromConfig(cfg), topicArn: topicArn}
}

// PushNotification publishes n as JSON with the washroom id as a message
// attribute so subscribers can filter per washroom.
func (c *SNSClient) PushNotification(ctx context.Context, deviceID string, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	out, err := c.svc.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(fmt.Sprintf("Washroom Hygiene Alert: %s", deviceID)),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"washroom_id": {DataType: aws.String("String"), StringValue: aws.String(deviceID)},
			"type":        {DataType: aws.String("String"), StringValue: aws.String(n.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}

	log.Debug().Str("washroom_id", deviceID).Str("message_id", aws.ToString(out.MessageId)).Msg("alert published")
	return nil
}
