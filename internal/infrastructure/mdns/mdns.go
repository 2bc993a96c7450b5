package mdns

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/pion/logging"
	"github.com/pion/mdns/v2"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// ErrInvalidName is returned when a device name has no usable characters.
var ErrInvalidName = errors.New("mdns: device name has no valid hostname characters")

// maxLabel is the DNS label length limit.
const maxLabel = 63

// Logger defines the logging interface used by the announcer.
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

// Announcer owns the mDNS responder.
type Announcer struct {
	mu     sync.Mutex
	conn   *mdns.Conn
	host   string
	logger Logger
}

// NewAnnouncer returns an idle announcer.
func NewAnnouncer() *Announcer {
	return &Announcer{logger: noopLogger{}}
}

// SetLogger sets the logger for the announcer and the responder.
func (a *Announcer) SetLogger(logger Logger) {
	a.logger = logger
}

// Hostname turns a free-form device name into a single DNS label plus
// ".local". Letters are lowercased, runs of other characters become one
// hyphen.
func Hostname(deviceName string) (string, error) {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(deviceName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	label := b.String()
	if label == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, deviceName)
	}
	if len(label) > maxLabel {
		label = strings.TrimRight(label[:maxLabel], "-")
	}
	return label + ".local", nil
}

// Start begins answering for deviceName. Calling Start again replaces
// the previous responder.
func (a *Announcer) Start(deviceName string) error {
	host, err := Hostname(deviceName)
	if err != nil {
		return err
	}

	addr4, err := net.ResolveUDPAddr("udp4", mdns.DefaultAddressIPv4)
	if err != nil {
		return fmt.Errorf("resolving mdns ipv4 address: %w", err)
	}
	l4, err := net.ListenUDP("udp4", addr4)
	if err != nil {
		return fmt.Errorf("listening on mdns ipv4: %w", err)
	}

	// IPv6 is optional; many small boards run without it.
	var p6 *ipv6.PacketConn
	if addr6, err := net.ResolveUDPAddr("udp6", mdns.DefaultAddressIPv6); err == nil {
		if l6, err := net.ListenUDP("udp6", addr6); err == nil {
			p6 = ipv6.NewPacketConn(l6)
		} else {
			a.logger.Debug("mdns ipv6 unavailable", "error", err)
		}
	}

	conn, err := mdns.Server(ipv4.NewPacketConn(l4), p6, &mdns.Config{
		LocalNames:    []string{host},
		LoggerFactory: loggerFactory{logger: a.logger},
	})
	if err != nil {
		l4.Close() //nolint:errcheck // best effort after failed start
		if p6 != nil {
			p6.Close() //nolint:errcheck // best effort after failed start
		}
		return fmt.Errorf("starting mdns responder: %w", err)
	}

	a.mu.Lock()
	old := a.conn
	a.conn = conn
	a.host = host
	a.mu.Unlock()
	if old != nil {
		old.Close() //nolint:errcheck // replaced responder
	}

	a.logger.Info("mdns responder started", "host", host)
	return nil
}

// Host returns the name being announced, or "" when stopped.
func (a *Announcer) Host() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.host
}

// Close stops the responder.
func (a *Announcer) Close() error {
	a.mu.Lock()
	conn := a.conn
	a.conn = nil
	a.host = ""
	a.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// loggerFactory routes pion's leveled logs into the hub logger.
type loggerFactory struct {
	logger Logger
}

func (f loggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return pionLogger{logger: f.logger, scope: scope}
}

type pionLogger struct {
	logger Logger
	scope  string
}

func (l pionLogger) Trace(string)          {}
func (l pionLogger) Tracef(string, ...any) {}

func (l pionLogger) Debug(msg string) { l.logger.Debug(msg, "scope", l.scope) }
func (l pionLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "scope", l.scope)
}
func (l pionLogger) Info(msg string) { l.logger.Info(msg, "scope", l.scope) }
func (l pionLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...), "scope", l.scope)
}
func (l pionLogger) Warn(msg string) { l.logger.Warn(msg, "scope", l.scope) }
func (l pionLogger) Warnf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "scope", l.scope)
}
func (l pionLogger) Error(msg string) { l.logger.Error(msg, "scope", l.scope) }
func (l pionLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...), "scope", l.scope)
}
