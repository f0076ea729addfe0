package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	mu         sync.Mutex
	ch         *amqp091.Channel
	confirms   <-chan amqp091.Confirmation
	seq        uint64 // delivery tag of the last publish under mu
	exchange   string
	routingKey string
}

func NewPublisher(conn *amqp091.Connection, exchange, routingKey string) (*Publisher, error) {

	if conn == nil {
		return nil, errors.New("AMQP connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, err
	}

	confirms := ch.NotifyPublish(make(chan amqp091.Confirmation, 100))

	return &Publisher{
		ch:         ch,
		confirms:   confirms,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// Publish sends one message and waits for the broker confirm. Calls
// are serialized so each waiter reads its own confirmation; many check
// goroutines share one publisher.
func (p *Publisher) Publish(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.publish(ctx, body); err != nil {
		return err
	}
	p.seq++

	return awaitConfirm(ctx, p.confirms, p.seq)
}

// awaitConfirm blocks until the confirmation for the given delivery
// tag arrives. Confirms with a lower tag belong to earlier publishes
// that timed out before their confirm came back; skip them.
func awaitConfirm(ctx context.Context, confirms <-chan amqp091.Confirmation, tag uint64) error {
	for {
		select {
		case confirm, ok := <-confirms:
			if !ok {
				return errors.New("confirm channel closed")
			}
			if confirm.DeliveryTag < tag {
				continue
			}
			if !confirm.Ack {
				return errors.New("message nacked by broker")
			}
			return nil
		case <-time.After(5 * time.Second):
			return errors.New("publish confirms timeout")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Publisher) publish(ctx context.Context, body []byte) error {

	if p.ch == nil {
		return errors.New("AMQP channel is nil")
	}

	return p.ch.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
