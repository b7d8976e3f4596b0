package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ClientName identifies the service's connections in CLIENT LIST.
const ClientName = "cashledger"

// NewClient connects to redisURL and pings it. The idempotency store and the
// branch cache share this client.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if opts.ClientName == "" {
		opts.ClientName = ClientName
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}

	return client, nil
}

// Checker reports whether Redis is reachable. It satisfies the readiness
// handler's Pinger.
type Checker struct {
	client redis.UniversalClient
}

func NewChecker(client redis.UniversalClient) *Checker {
	return &Checker{client: client}
}

func (c *Checker) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
