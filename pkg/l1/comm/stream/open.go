// Package stream opens byte transports by URL.
package stream

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"time"
)

// Stdio is the transport URL for stdin/stdout.
const Stdio = "-"

// DialTimeout bounds connecting network transports.
var DialTimeout = 10 * time.Second

var (
	// ErrUnsupportedScheme indicates an unknown transport URL scheme.
	ErrUnsupportedScheme = errors.New("unsupported transport scheme")
)

// Open opens the transport at rawURL:
//
//	-                  stdin for reading, stdout for writing
//	file:///dev/ttyACM0 a device node or plain file
//	tcp://host:port
//	ws://host/path, wss://host/path
func Open(rawURL string) (io.ReadWriteCloser, error) {
	if rawURL == Stdio {
		return stdio{}, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "file":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			return nil, err
		}
		return f, nil
	case "tcp":
		return net.DialTimeout("tcp", u.Host, DialTimeout)
	case "ws", "wss":
		ws, err := DialWebSocket(u)
		if err != nil {
			return nil, err
		}
		return ws, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return nil }
