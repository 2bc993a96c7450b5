package remotelog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nerrad567/gray-logic-hub/internal/device"
	"github.com/nerrad567/gray-logic-hub/internal/settings"
)

// DefaultTimeout caps one upload.
const DefaultTimeout = 5 * time.Second

// stopTimeout bounds how long Stop waits for a running upload.
const stopTimeout = 10 * time.Second

// Logger defines the logging interface used by the Uploader.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Source supplies what is uploaded. Implemented by the controller.
type Source interface {
	Config() settings.Configuration
	Snapshot() device.Snapshot
}

// Uploader schedules uploads with robfig/cron.
type Uploader struct {
	source  Source
	client  *http.Client
	timeout time.Duration
	logger  Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// New creates an uploader. A timeout <= 0 uses DefaultTimeout.
func New(source Source, timeout time.Duration) *Uploader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Uploader{
		source:  source,
		client:  &http.Client{},
		timeout: timeout,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the uploader.
func (u *Uploader) SetLogger(logger Logger) {
	u.logger = logger
}

// SetHTTPClient replaces the HTTP client.
func (u *Uploader) SetHTTPClient(c *http.Client) {
	u.client = c
}

// Start schedules uploads every LogIntervalSeconds. It does nothing when
// logging is disabled or no endpoint is set. The schedule is fixed at
// start; configuration changes apply after a restart.
func (u *Uploader) Start() error {
	cfg := u.source.Config()
	if !cfg.LoggingActive() {
		u.logger.Info("remote logging disabled")
		return nil
	}
	if _, err := parseEndpoint(cfg.LoggingEndpoint); err != nil {
		return err
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{u.logger}),
		cron.SkipIfStillRunning(cronLogger{u.logger}),
	))
	spec := fmt.Sprintf("@every %ds", cfg.LogIntervalSeconds)
	if _, err := c.AddFunc(spec, u.run); err != nil {
		return fmt.Errorf("scheduling remote log: %w", err)
	}

	u.mu.Lock()
	u.cron = c
	u.mu.Unlock()

	c.Start()
	u.logger.Info("remote logging started", "interval_s", cfg.LogIntervalSeconds, "timeout", u.timeout.String())
	return nil
}

// Stop cancels the schedule and waits briefly for a running upload.
func (u *Uploader) Stop() {
	u.mu.Lock()
	c := u.cron
	u.cron = nil
	u.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
	case <-time.After(stopTimeout):
		u.logger.Warn("remote log upload still running at stop")
	}
}

func (u *Uploader) run() {
	if err := u.Upload(context.Background()); err != nil {
		u.logger.Warn("remote log upload failed", "error", err)
		return
	}
	u.logger.Debug("remote log uploaded")
}

// Upload performs one upload, bounded by the uploader's timeout.
func (u *Uploader) Upload(ctx context.Context) error {
	cfg := u.source.Config()
	target, err := BuildURL(cfg.LoggingEndpoint, u.source.Snapshot())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote log request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10)) //nolint:mnd // drain for keep-alive

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrUpstream, resp.StatusCode)
	}
	return nil
}

// BuildURL appends the log query to endpoint, keeping any query it
// already has. Disabled sensors and relays report 0.
func BuildURL(endpoint string, snap device.Snapshot) (string, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("action", "log")

	sensor := func(id device.ID) float64 {
		v, _ := snap.Sensor(id)
		return v.Value
	}
	q.Set("temp", formatFloat(sensor(device.Temp1)))
	q.Set("humidity", formatFloat(sensor(device.Hum1)))
	q.Set("light", formatFloat(sensor(device.Light1)))
	q.Set("motion", bit(sensor(device.Motion1) != 0))

	for _, id := range []device.ID{device.Relay1, device.Relay2, device.Relay3, device.Relay4} {
		a, _ := snap.Actuator(id)
		q.Set(string(id), bit(a.On))
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}
	return u, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func bit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	l Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
