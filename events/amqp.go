package events

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the fanout exchange transcript events are sent to.
const DefaultExchange = "transcript"

// AMQP publishes events as JSON messages to a RabbitMQ fanout exchange.
type AMQP struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// DialAMQP connects to url and declares a durable fanout exchange.
func DialAMQP(url, exchange string) (*AMQP, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQP{conn: conn, ch: ch, exchange: exchange}, nil
}

func (a *AMQP) Publish(ctx context.Context, e Event) error {
	msg, err := message(e)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ch.PublishWithContext(ctx, a.exchange, string(e.Type), false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (a *AMQP) Close() error {
	a.ch.Close()
	return a.conn.Close()
}

func message(e Event) (amqp.Publishing, error) {
	body, err := e.Encode()
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.At,
		Type:         string(e.Type),
		Body:         body,
	}, nil
}
