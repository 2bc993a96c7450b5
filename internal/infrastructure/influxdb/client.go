package influxdb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/config"
)

const (
	pingTimeout = 5 * time.Second

	fallbackBatchSize     = 100
	fallbackFlushInterval = 10 * time.Second
)

// Client batches hub telemetry into one bucket. Points carry a site tag
// so several hubs can share a bucket.
//
// Writes never block the caller. Once closed, writes are discarded.
type Client struct {
	influx   influxdb2.Client
	writeAPI api.WriteAPI
	site     string

	closed   atomic.Bool
	failures atomic.Int64

	mu      sync.RWMutex
	onError func(err error)
}

// Connect pings the server and prepares the batched write API.
func Connect(cfg config.InfluxDBConfig, site string) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	opts := influxdb2.DefaultOptions().
		SetBatchSize(batchSize(cfg)).
		SetFlushInterval(flushIntervalMillis(cfg))
	influx := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	if err := ping(context.Background(), influx); err != nil {
		influx.Close()
		return nil, err
	}

	c := &Client{
		influx:   influx,
		writeAPI: influx.WriteAPI(cfg.Org, cfg.Bucket),
		site:     site,
	}
	go c.drainErrors(c.writeAPI.Errors())
	return c, nil
}

func batchSize(cfg config.InfluxDBConfig) uint {
	if cfg.BatchSize <= 0 {
		return fallbackBatchSize
	}
	return uint(cfg.BatchSize) // #nosec G115 -- positive
}

func flushIntervalMillis(cfg config.InfluxDBConfig) uint {
	d := time.Duration(cfg.FlushInterval) * time.Second
	if d <= 0 {
		d = fallbackFlushInterval
	}
	return uint(d.Milliseconds()) // #nosec G115 -- positive
}

func ping(ctx context.Context, influx influxdb2.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	ok, err := influx.Ping(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	case !ok:
		return fmt.Errorf("%w: not ready", ErrUnreachable)
	}
	return nil
}

// drainErrors runs until the write API is closed.
func (c *Client) drainErrors(errs <-chan error) {
	for err := range errs {
		c.failures.Add(1)
		c.mu.RLock()
		fn := c.onError
		c.mu.RUnlock()
		if fn != nil {
			fn(err)
		}
	}
}

// SetOnError registers a callback for failed background batches.
func (c *Client) SetOnError(fn func(err error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// Failures counts batches the server rejected or that never arrived.
func (c *Client) Failures() int64 {
	if c == nil {
		return 0
	}
	return c.failures.Load()
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.active() {
		return ErrClosed
	}
	return ping(ctx, c.influx)
}

// Flush blocks until buffered points are sent.
func (c *Client) Flush() {
	if c.active() {
		c.writeAPI.Flush()
	}
}

// Close sends what is buffered and releases the client. Safe on nil and
// safe to call twice.
func (c *Client) Close() error {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.writeAPI.Flush()
	c.influx.Close()
	return nil
}

func (c *Client) active() bool {
	return c != nil && !c.closed.Load()
}
