// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/segmentio/kafka-go"

	"github.com/xenking/market-orders/internal/domain/order"
)

// messageWriter is the subset of *kafka.Writer used by Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ order.Publisher = (*Publisher)(nil)

// Publisher writes order events as JSON messages keyed by order id, so all
// events of one order land in the same partition.
type Publisher struct {
	w messageWriter
}

// NewPublisher returns a Publisher writing to topic on the given brokers.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers")
	}
	if topic == "" {
		return nil, errors.New("empty kafka topic")
	}
	return &Publisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// Publish writes events in a single batch.
func (p *Publisher) Publish(ctx context.Context, events ...order.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		msgs = append(msgs, message(ev))
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return errors.Wrapf(err, "write %d events", len(msgs))
	}
	return nil
}

// Close flushes pending writes and releases connections.
func (p *Publisher) Close() error {
	return p.w.Close()
}

func message(ev order.Event) kafka.Message {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	ev.Encode(e)

	return kafka.Message{
		Key:   []byte(ev.Order.ID.String()),
		Value: append([]byte(nil), e.Bytes()...),
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	}
}
