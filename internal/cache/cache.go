// Package cache fronts redis for the registry's collection snapshots and the
// revoked-token list. The database stays the source of truth: every data call
// degrades to a miss or a no-op when redis is absent or unreachable.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned by Ping when no redis endpoint is configured.
var ErrDisabled = errors.New("cache disabled")

// Client is nil-safe. A nil or disabled Client reads as permanently empty.
type Client struct {
	rdb *redis.Client
}

// New returns a client for addr. The connection is dialled on first use; an
// empty addr yields a disabled client.
func New(addr, password string, db int) *Client {
	if addr == "" {
		return &Client{}
	}
	return &Client{rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})}
}

func (c *Client) enabled() bool {
	return c != nil && c.rdb != nil
}

// Get returns the snapshot under key. An absent key and a redis failure both
// read as (nil, nil), sending the caller to the database.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.enabled() {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil
	}
	return data, nil
}

// Set stores a snapshot or revocation marker for ttl. Write failures are
// dropped; the next read repopulates from the database.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.enabled() {
		_ = c.rdb.Set(ctx, key, value, ttl).Err()
	}
	return nil
}

// Delete invalidates the snapshots of collections a commit touched.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if c.enabled() && len(keys) > 0 {
		_ = c.rdb.Del(ctx, keys...).Err()
	}
	return nil
}

// Ping reports reachability for diagnostics. It is the one call that surfaces
// redis errors.
func (c *Client) Ping(ctx context.Context) error {
	if !c.enabled() {
		return ErrDisabled
	}
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.rdb.Close()
}
