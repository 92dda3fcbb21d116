package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "leadflow.changes"

	redialInterval = 5 * time.Second
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpConnection interface {
	IsClosed() bool
	Close() error
}

// AMQPPublisher mirrors changes to a RabbitMQ topic exchange so other services
// can follow lead activity. A lost connection is redialed on the next publish,
// at most once per redialInterval. Changes published while the broker is away
// are dropped.
type AMQPPublisher struct {
	dial func() (amqpConnection, amqpChannel, error)

	mu      sync.Mutex
	conn    amqpConnection
	ch      amqpChannel
	retryAt time.Time
}

func DialAMQP(url string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{
		dial: func() (amqpConnection, amqpChannel, error) {
			return dialExchange(url)
		},
	}

	conn, ch, err := p.dial()
	if err != nil {
		return nil, err
	}
	p.conn, p.ch = conn, ch

	slog.Info("change events mirrored to broker", "exchange", ExchangeName)
	return p, nil
}

func dialExchange(url string) (amqpConnection, amqpChannel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return conn, ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, change Change) {
	body, err := json.Marshal(change)
	if err != nil {
		slog.Error("failed to encode change", "error", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil && p.conn.IsClosed() {
		slog.Warn("broker connection lost")
		p.drop()
	}
	if p.ch == nil && !p.redial() {
		slog.Debug("change not mirrored, broker unavailable", "key", change.RoutingKey())
		return
	}

	err = p.ch.PublishWithContext(ctx,
		ExchangeName,
		change.RoutingKey(),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    change.At,
		},
	)
	if err != nil {
		slog.Error("failed to publish change", "error", err, "key", change.RoutingKey(), "owner_id", change.OwnerID)
		p.drop()
	}
}

// redial reports whether a fresh channel is ready. Callers hold p.mu.
func (p *AMQPPublisher) redial() bool {
	if p.dial == nil || time.Now().Before(p.retryAt) {
		return false
	}

	conn, ch, err := p.dial()
	if err != nil {
		p.retryAt = time.Now().Add(redialInterval)
		slog.Warn("broker redial failed", "error", err, "retry_in", redialInterval)
		return false
	}

	p.conn, p.ch = conn, ch
	slog.Info("reconnected to broker", "exchange", ExchangeName)
	return true
}

// drop closes the current channel and connection. Callers hold p.mu.
func (p *AMQPPublisher) drop() {
	err := p.closeLocked()
	if err != nil {
		slog.Debug("failed to close broker session", "error", err)
	}
}

func (p *AMQPPublisher) closeLocked() error {
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		cerr := p.conn.Close()
		if err == nil {
			err = cerr
		}
	}
	p.conn, p.ch = nil, nil
	return err
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.dial = nil
	return p.closeLocked()
}
