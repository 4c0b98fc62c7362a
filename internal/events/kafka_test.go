package events

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/market-orders/internal/domain/order"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewPublisher_Validation(t *testing.T) {
	_, err := NewPublisher(nil, "orders")
	require.Error(t, err)

	_, err = NewPublisher([]string{"localhost:9092"}, "")
	require.Error(t, err)

	p, err := NewPublisher([]string{"localhost:9092"}, "orders")
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &Publisher{w: w}

	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	o := &order.Order{ID: uuid.New(), Status: order.StatusCanceled}

	err := p.Publish(context.Background(), order.Event{
		Type:     order.EventStatusChanged,
		Order:    o,
		Previous: order.StatusOrdered,
		At:       at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, o.ID.String(), string(msg.Key))
	assert.Equal(t, at, msg.Time)

	var typ, prev, status string
	require.NoError(t, jx.DecodeBytes(msg.Value).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "type":
			s, err := d.Str()
			typ = s
			return err
		case "previousStatus":
			s, err := d.Str()
			prev = s
			return err
		case "order":
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "status" {
					return d.Skip()
				}
				s, err := d.Str()
				status = s
				return err
			})
		default:
			return d.Skip()
		}
	}))
	assert.Equal(t, "order.status_changed", typ)
	assert.Equal(t, "ORDERED", prev)
	assert.Equal(t, "CANCELED", status)
}

func TestPublisher_Errors(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := &Publisher{w: w}

	require.NoError(t, p.Publish(context.Background()), "no events is a no-op")

	err := p.Publish(context.Background(), order.Event{
		Type:  order.EventPlaced,
		Order: &order.Order{ID: uuid.New()},
	})
	require.ErrorContains(t, err, "broker down")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
