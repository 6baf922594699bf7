// Package messaging publishes hygiene alerts onto a Kafka topic.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier writes one message per notification keyed by washroom id,
// so all alerts for a washroom land on the same partition in order.
type KafkaNotifier struct {
	w messageWriter
}

func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	if topic == "" {
		return nil, errors.New("kafka topic must not be empty")
	}
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	return &KafkaNotifier{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}}, nil
}

func (k *KafkaNotifier) PushNotification(ctx context.Context, deviceID string, n domain.Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	err = k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(deviceID),
		Value: value,
		Time:  n.Timestamp,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(n.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", deviceID, err)
	}
	return nil
}

func (k *KafkaNotifier) Close() error {
	return k.w.Close()
}
