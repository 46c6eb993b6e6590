package valkey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

const (
	keyPrefix = "ridekit:"
	// localTTL bounds how long a value may be served from the client-side
	// tracking cache before the server is asked again.
	localTTL = 30 * time.Second
)

// Cache is the shared tier behind the per-process LRUs: Overpass way and
// feature lookups keyed by bounding box, stored as JSON. Reads go through
// valkey's server-assisted client cache, which the server invalidates when
// another replica overwrites the key.
type Cache struct {
	client valkey.Client
}

// New connects to a single valkey node.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{addr},
		ClientName:        "ridekit",
		ConnWriteTimeout:  5 * time.Second,
		CacheSizeEachConn: 16 << 20,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client}, nil
}

func key(k string) string { return keyPrefix + k }

func (c *Cache) Get(ctx context.Context, k string) ([]byte, error) {
	cmd := c.client.B().Get().Key(key(k)).Cache()
	b, err := c.client.DoCache(ctx, cmd, localTTL).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("valkey get %s: %w", k, err)
	}
	return b, nil
}

// Set stores value for ttlSeconds; zero or less keeps it until evicted.
func (c *Cache) Set(ctx context.Context, k string, value []byte, ttlSeconds int) error {
	set := c.client.B().Set().Key(key(k)).Value(valkey.BinaryString(value))
	var err error
	if ttlSeconds > 0 {
		err = c.client.Do(ctx, set.ExSeconds(int64(ttlSeconds)).Build()).Error()
	} else {
		err = c.client.Do(ctx, set.Build()).Error()
	}
	if err != nil {
		return fmt.Errorf("valkey set %s: %w", k, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, k string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(key(k)).Build()).Error()
}

// Ping is used by the readiness probe.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

func (c *Cache) Close() { c.client.Close() }
