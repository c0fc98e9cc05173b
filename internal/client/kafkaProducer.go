package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("kafka producer closed")

// KafkaProducer buffers messages in an inbox drained by one goroutine so
// publishers never wait on the brokers.
type KafkaProducer struct {
	w       *kafka.Writer
	logger  *log.Logger
	inbox   chan kafka.Message
	closeCh chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewKafkaProducer(brokers []string, topic string, buf int, logger *log.Logger) *KafkaProducer {
	return &KafkaProducer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 10 * time.Second,
		},
		logger:  logger,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

func (p *KafkaProducer) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			if err := p.w.WriteMessages(context.Background(), m); err != nil {
				p.logger.Warnf("kafka: write %s: %v", string(m.Key), err)
			}
		}
		if err := p.w.Close(); err != nil {
			p.logger.Warnf("kafka: close writer: %v", err)
		}
	}()
}

// Publish enqueues a message. It blocks only while the inbox is full, and
// no longer than ctx allows.
func (p *KafkaProducer) Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}

	msg := kafka.Message{Key: key, Value: value, Time: time.Now(), Headers: headers}
	select {
	case p.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting messages, flushes the inbox and waits for the writer.
func (p *KafkaProducer) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()
	<-p.closeCh
}
