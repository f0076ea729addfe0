package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const monitorCacheTTL = 24 * time.Hour

// Monitor records are cached as raw JSON; the monitor module owns the
// encoding so this package stays below the domain layer.

func (c *Client) SetMonitor(ctx context.Context, id uuid.UUID, data []byte) error {
	key := fmt.Sprintf("monitor:%v", id.String())

	return c.rdb.Set(ctx, key, data, monitorCacheTTL).Err()
}

func (c *Client) GetMonitor(ctx context.Context, id uuid.UUID) ([]byte, bool) {
	key := fmt.Sprintf("monitor:%v", id.String())

	res, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return res, true
}

func (c *Client) DelMonitor(ctx context.Context, id uuid.UUID) error {
	key := fmt.Sprintf("monitor:%v", id.String())

	return c.rdb.Del(ctx, key).Err()
}
