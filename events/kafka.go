package events

import (
	"context"
	"fmt"
	"strconv"

	"github.com/djportal/accounts"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes profile events to a single topic keyed by user id,
// so events of one user keep their order.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event accounts.ProfileEvent) error {
	value, err := encode(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(int64(event.UserId), 10)),
		Value: value,
		Time:  eventTime(event),
	})
	if err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error { return p.w.Close() }
