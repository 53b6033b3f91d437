package backends

import (
	"bufio"
	"bytes"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/wayneeseguin/syncore/pkg/errs"
)

// Syslog priorities used by the logger's level mapping (facility user).
const (
	SyslogUser    = 1 << 3
	SyslogErr     = SyslogUser | 3
	SyslogWarning = SyslogUser | 4
	SyslogInfo    = SyslogUser | 6
	SyslogDebug   = SyslogUser | 7
)

var localSyslogSockets = []string{"/dev/log", "/var/run/syslog", "/var/run/log"}

// SyslogBackend sends each record as one "<priority>tag: message" line.
type SyslogBackend struct {
	network  string
	address  string
	conn     net.Conn
	writer   *bufio.Writer
	priority int
	tag      string
	mu       sync.Mutex
}

// NewSyslogBackend connects to a syslog daemon. An empty address selects the
// first local syslog socket found.
func NewSyslogBackend(network, address string, priority int, tag string) (*SyslogBackend, error) {
	if address == "" {
		for _, path := range localSyslogSockets {
			if _, err := os.Stat(path); err == nil {
				network, address = "unix", path
				break
			}
		}
		if address == "" {
			return nil, errs.New(errs.PrimitiveSink, "dial", errs.KindDevice)
		}
	}

	conn, err := net.Dial(network, address)
	if err != nil {
		return nil, errs.FromErrno(errs.PrimitiveSink, "dial", err)
	}

	return &SyslogBackend{
		network:  network,
		address:  address,
		conn:     conn,
		writer:   bufio.NewWriter(conn),
		priority: priority,
		tag:      tag,
	}, nil
}

// Write frames entry as a syslog line. The returned count is the number of
// bytes of entry consumed.
func (sb *SyslogBackend) Write(entry []byte) (int, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.conn == nil {
		return 0, errs.New(errs.PrimitiveSink, "write", errs.KindInvalidState)
	}

	w := sb.writer
	_ = w.WriteByte('<')
	_, _ = w.WriteString(strconv.Itoa(sb.priority))
	_ = w.WriteByte('>')
	_, _ = w.WriteString(sb.tag)
	_, _ = w.WriteString(": ")
	_, _ = w.Write(bytes.TrimSpace(entry))
	if err := w.WriteByte('\n'); err != nil {
		return 0, errs.FromErrno(errs.PrimitiveSink, "write", err)
	}
	return len(entry), nil
}

// Flush flushes buffered data
func (sb *SyslogBackend) Flush() error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.conn == nil {
		return nil
	}
	return errs.FromErrno(errs.PrimitiveSink, "flush", sb.writer.Flush())
}

// Close flushes and closes the connection.
func (sb *SyslogBackend) Close() error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.conn == nil {
		return nil
	}

	var result *multierror.Error
	if err := sb.writer.Flush(); err != nil {
		result = multierror.Append(result, errs.FromErrno(errs.PrimitiveSink, "flush", err))
	}
	if err := sb.conn.Close(); err != nil {
		result = multierror.Append(result, errs.FromErrno(errs.PrimitiveSink, "close", err))
	}
	sb.conn = nil
	return result.ErrorOrNil()
}

// SetPriority sets the syslog priority
func (sb *SyslogBackend) SetPriority(priority int) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.priority = priority
}

// SetTag sets the syslog tag
func (sb *SyslogBackend) SetTag(tag string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tag = tag
}

// Address returns network and address of the daemon.
func (sb *SyslogBackend) Address() (network, address string) {
	return sb.network, sb.address
}
