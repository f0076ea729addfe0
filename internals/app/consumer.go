package app

import (
	"context"
)

// StartConsumer runs the incident-event consumer until the context is
// cancelled. Consume ranges over the delivery channel, so it gets its
// own goroutine.
func StartConsumer(ctx context.Context, c *Container) {
	go func() {
		if err := c.Consumer.Consume(ctx, c.eventHandler); err != nil {
			c.Logger.Error().
				Err(err).
				Msg("rabbitmq consumer stopped")
		}
	}()
}
