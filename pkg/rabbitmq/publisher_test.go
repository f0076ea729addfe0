package rabbitmq

import (
	"context"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestAwaitConfirmAck(t *testing.T) {
	confirms := make(chan amqp091.Confirmation, 1)
	confirms <- amqp091.Confirmation{DeliveryTag: 1, Ack: true}

	if err := awaitConfirm(context.Background(), confirms, 1); err != nil {
		t.Fatalf("want ack accepted, got %v", err)
	}
}

func TestAwaitConfirmNack(t *testing.T) {
	confirms := make(chan amqp091.Confirmation, 1)
	confirms <- amqp091.Confirmation{DeliveryTag: 1, Ack: false}

	if err := awaitConfirm(context.Background(), confirms, 1); err == nil {
		t.Fatal("want an error for a nacked message")
	}
}

// A confirm left over from an earlier publish that gave up waiting
// must not be mistaken for the current publish's confirmation.
func TestAwaitConfirmSkipsStaleTags(t *testing.T) {
	confirms := make(chan amqp091.Confirmation, 2)
	confirms <- amqp091.Confirmation{DeliveryTag: 1, Ack: false}
	confirms <- amqp091.Confirmation{DeliveryTag: 2, Ack: true}

	if err := awaitConfirm(context.Background(), confirms, 2); err != nil {
		t.Fatalf("stale nack must be skipped, got %v", err)
	}
}

func TestAwaitConfirmContextCancel(t *testing.T) {
	confirms := make(chan amqp091.Confirmation)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := awaitConfirm(ctx, confirms, 1); err == nil {
		t.Fatal("want an error when the context expires before the confirm")
	}
}

func TestAwaitConfirmClosedChannel(t *testing.T) {
	confirms := make(chan amqp091.Confirmation)
	close(confirms)

	if err := awaitConfirm(context.Background(), confirms, 1); err == nil {
		t.Fatal("want an error when the confirm channel closes")
	}
}
