// Package kafka publishes audit events to a Kafka topic for deployments
// where audit consumers run out of process.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "agora/pkg/platform/audit"
)

// DefaultTopic is where audit events land unless configured otherwise.
const DefaultTopic = "agora.audit"

// Publisher writes audit events as JSON records keyed by anonymous ID, so
// one participant's trail stays ordered within a partition.
type Publisher struct {
	client *kgo.Client
	topic  string
}

type Option func(*Publisher)

func WithTopic(topic string) Option {
	return func(p *Publisher) { p.topic = topic }
}

func NewPublisher(brokers []string, opts ...Option) (*Publisher, error) {
	p := &Publisher{topic: DefaultTopic}
	for _, opt := range opts {
		opt(p)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(p.topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p.client = client
	return p, nil
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(event.AnonymousID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}
