package backends

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/wayneeseguin/syncore/pkg/errs"
)

// NATSBackend publishes every record to a NATS subject. With batching
// enabled records are buffered and published on Flush or when the batch is
// full.
//
// URI form:
//
//	nats://[user:pass@]host:port/subject?batch=100&max_reconnect=10&reconnect_wait=2&tls=true
type NATSBackend struct {
	conn    *nats.Conn
	servers string
	subject string
	options []nats.Option
	timeout time.Duration

	batchSize int
	buffer    [][]byte
	mu        sync.Mutex
}

// NewNATSBackend parses uri and connects.
func NewNATSBackend(uri string) (*NATSBackend, error) {
	return NewNATSBackendWithOptions(uri, true)
}

// NewNATSBackendWithOptions parses uri and connects only when connect is set.
func NewNATSBackendWithOptions(uri string, connect bool) (*NATSBackend, error) {
	parsedURL, err := url.Parse(uri)
	if err != nil {
		return nil, errs.Wrap(errs.PrimitiveSink, "open", errs.KindInvalidState, err)
	}
	if parsedURL.Scheme != "nats" {
		return nil, errs.Wrap(errs.PrimitiveSink, "open", errs.KindInvalidState,
			fmt.Errorf("invalid scheme %q (expected \"nats\")", parsedURL.Scheme))
	}

	backend := &NATSBackend{
		subject: strings.TrimPrefix(parsedURL.Path, "/"),
		timeout: 2 * time.Second,
		options: []nats.Option{nats.Name("syncore-logger")},
	}
	if backend.subject == "" {
		return nil, errs.Wrap(errs.PrimitiveSink, "open", errs.KindInvalidState,
			fmt.Errorf("missing subject in %q", uri))
	}

	query := parsedURL.Query()

	if batchStr := query.Get("batch"); batchStr != "" {
		if batch, err := strconv.Atoi(batchStr); err == nil && batch > 0 {
			backend.batchSize = batch
		}
	}
	if timeoutStr := query.Get("flush_timeout"); timeoutStr != "" {
		if ms, err := strconv.Atoi(timeoutStr); err == nil && ms > 0 {
			backend.timeout = time.Duration(ms) * time.Millisecond
		}
	}
	if maxReconnectStr := query.Get("max_reconnect"); maxReconnectStr != "" {
		if maxReconnect, err := strconv.Atoi(maxReconnectStr); err == nil {
			backend.options = append(backend.options, nats.MaxReconnects(maxReconnect))
		}
	}
	if reconnectWaitStr := query.Get("reconnect_wait"); reconnectWaitStr != "" {
		if reconnectWait, err := strconv.Atoi(reconnectWaitStr); err == nil {
			backend.options = append(backend.options, nats.ReconnectWait(time.Duration(reconnectWait)*time.Second))
		}
	}
	if tls, _ := strconv.ParseBool(query.Get("tls")); tls {
		backend.options = append(backend.options, nats.Secure())
	}
	if parsedURL.User != nil {
		password, _ := parsedURL.User.Password()
		backend.options = append(backend.options, nats.UserInfo(parsedURL.User.Username(), password))
	}

	if parsedURL.Host != "" {
		backend.servers = "nats://" + parsedURL.Host
	} else {
		backend.servers = nats.DefaultURL
	}

	if connect {
		conn, err := nats.Connect(backend.servers, backend.options...)
		if err != nil {
			return nil, errs.Wrap(errs.PrimitiveSink, "connect", errs.KindTemporarilyUnavailable, err)
		}
		backend.conn = conn
	}
	return backend, nil
}

// Subject returns the subject records are published to.
func (n *NATSBackend) Subject() string {
	return n.subject
}

// BatchSize returns the configured batch size, zero when unbatched.
func (n *NATSBackend) BatchSize() int {
	return n.batchSize
}

// Servers returns the server URL the backend connects to.
func (n *NATSBackend) Servers() string {
	return n.servers
}

func (n *NATSBackend) Write(entry []byte) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		return 0, errs.New(errs.PrimitiveSink, "write", errs.KindInvalidState)
	}

	if n.batchSize == 0 {
		if err := n.conn.Publish(n.subject, entry); err != nil {
			return 0, errs.Wrap(errs.PrimitiveSink, "publish", errs.KindDevice, err)
		}
		return len(entry), nil
	}

	// entry is a pooled buffer owned by the caller
	n.buffer = append(n.buffer, append([]byte(nil), entry...))
	if len(n.buffer) >= n.batchSize {
		if err := n.publishLocked(); err != nil {
			return 0, err
		}
	}
	return len(entry), nil
}

func (n *NATSBackend) publishLocked() error {
	for i, entry := range n.buffer {
		if err := n.conn.Publish(n.subject, entry); err != nil {
			n.buffer = n.buffer[i:]
			return errs.Wrap(errs.PrimitiveSink, "publish", errs.KindDevice, err)
		}
	}
	clear(n.buffer)
	n.buffer = n.buffer[:0]
	return nil
}

// Flush publishes buffered records and waits for the server to acknowledge
// everything published so far.
func (n *NATSBackend) Flush() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.flushLocked()
}

func (n *NATSBackend) flushLocked() error {
	if n.conn == nil {
		return nil
	}
	if err := n.publishLocked(); err != nil {
		return err
	}
	if err := n.conn.FlushTimeout(n.timeout); err != nil {
		return errs.Wrap(errs.PrimitiveSink, "flush", errs.KindTemporarilyUnavailable, err)
	}
	return nil
}

// Close flushes and closes the connection.
func (n *NATSBackend) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		return nil
	}
	err := n.flushLocked()
	n.conn.Close()
	n.conn = nil
	return err
}
