package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shootle/txtcoin/internal/model"
	"github.com/Shootle/txtcoin/internal/util"
	"github.com/segmentio/kafka-go"
)

// Writer is the subset of kafka.Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes inbound SMS envelopes, keyed by sender so one sender's
// commands land on one partition in order.
type Producer struct {
	w Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	})
}

func NewProducerWithWriter(w Writer) *Producer {
	return &Producer{w: w}
}

// Accept wraps msg in an Envelope and writes it synchronously.
func (p *Producer) Accept(ctx context.Context, msg model.Inbound) error {
	env := model.Envelope{
		ID:         util.New(),
		Inbound:    msg,
		ReceivedAt: time.Now().UnixMilli(),
	}
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{Key: []byte(msg.From), Value: b}); err != nil {
		return fmt.Errorf("publish envelope: %w", err)
	}
	return nil
}

func (p *Producer) Close() error { return p.w.Close() }
