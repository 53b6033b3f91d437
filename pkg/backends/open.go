package backends

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/wayneeseguin/syncore/pkg/errs"
)

// Open creates a backend from a URI:
//
//	/var/log/app.log                    file
//	file:///var/log/app.log             file
//	gzip:///var/log/app.log.gz?level=9  gzip-compressed file
//	syslog://host:514?tag=app&network=udp
//	syslog:///dev/log?tag=app           local syslog socket
//	syslog://?tag=app                   first local syslog socket found
//	nats://host:4222/logs.app?batch=100
func Open(uri string) (Backend, error) {
	if !strings.Contains(uri, "://") {
		return NewFileBackend(uri)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, errs.Wrap(errs.PrimitiveSink, "open", errs.KindInvalidState, err)
	}

	switch u.Scheme {
	case "file":
		return NewFileBackend(filePath(u))
	case "gzip":
		level := gzip.DefaultCompression
		if s := u.Query().Get("level"); s != "" {
			if level, err = strconv.Atoi(s); err != nil {
				return nil, errs.Wrap(errs.PrimitiveSink, "open", errs.KindInvalidState, err)
			}
		}
		return NewGzipBackend(filePath(u), level)
	case "syslog":
		return openSyslog(u)
	case "nats":
		return NewNATSBackend(uri)
	}
	return nil, errs.Wrap(errs.PrimitiveSink, "open", errs.KindInvalidState,
		fmt.Errorf("unsupported scheme %q", u.Scheme))
}

// filePath accepts both file:///abs/path and file://relative/path.
func filePath(u *url.URL) string {
	return u.Host + u.Path
}

func openSyslog(u *url.URL) (Backend, error) {
	q := u.Query()

	tag := q.Get("tag")
	if tag == "" {
		tag = "syncore"
	}
	priority := SyslogInfo
	if s := q.Get("priority"); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil {
			return nil, errs.Wrap(errs.PrimitiveSink, "open", errs.KindInvalidState, err)
		}
		priority = p
	}

	network, address := q.Get("network"), ""
	switch {
	case u.Host != "":
		address = u.Host
		if network == "" {
			network = "tcp"
		}
	case u.Path != "":
		network, address = "unix", u.Path
	}
	return NewSyslogBackend(network, address, priority, tag)
}
