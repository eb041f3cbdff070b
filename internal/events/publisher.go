package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ResourceEvent is the message written for every successful mutation.
type ResourceEvent struct {
	Resource string    `json:"resource"`
	Action   string    `json:"action"`
	ID       string    `json:"id"`
	Data     any       `json:"data,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher writes mutation events to Kafka. Publishing is best effort: a
// broker outage is logged and never fails the request that caused the event.
type Publisher struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

// NewPublisher returns a no-op publisher when no brokers are configured;
// kafka.NewWriter panics on an empty broker list.
func NewPublisher(brokers []string, topic string, log *zap.SugaredLogger) *Publisher {
	if len(brokers) == 0 {
		log.Infow("kafka brokers not configured, events disabled")
		return &Publisher{log: log}
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Publisher{writer: w, log: log}
}

func (p *Publisher) Publish(ctx context.Context, resource, action, id string, data any) {
	if p == nil || p.writer == nil {
		return
	}
	ev := ResourceEvent{Resource: resource, Action: action, ID: id, Data: data, At: time.Now().UTC()}
	b, err := json.Marshal(ev)
	if err != nil {
		p.log.Warnw("event marshal failed", "resource", resource, "action", action, "error", err)
		return
	}
	msg := kafka.Message{Key: []byte(resource + "." + action), Value: b, Time: time.Now()}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warnw("event publish failed", "resource", resource, "action", action, "error", err)
	}
}

func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
