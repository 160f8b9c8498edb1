package stream

import (
	"net/url"

	"golang.org/x/net/websocket"
)

// WebSocket adapts message oriented websocket.Conn to a byte stream.
// Each Write is sent as one binary message.
type WebSocket struct {
	Conn *websocket.Conn

	pending []byte
}

// NewWebSocket wraps websocket.Conn.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{Conn: conn}
}

// DialWebSocket connects to a ws:// or wss:// URL.
func DialWebSocket(u *url.URL) (*WebSocket, error) {
	origin := &url.URL{Scheme: "http", Host: u.Host}
	if u.Scheme == "wss" {
		origin.Scheme = "https"
	}
	conf, err := websocket.NewConfig(u.String(), origin.String())
	if err != nil {
		return nil, err
	}
	conn, err := websocket.DialConfig(conf)
	if err != nil {
		return nil, err
	}
	return NewWebSocket(conn), nil
}

// Read implements io.Reader.
func (s *WebSocket) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		if err := websocket.Message.Receive(s.Conn, &s.pending); err != nil {
			return 0, err
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Write implements io.Writer.
func (s *WebSocket) Write(p []byte) (int, error) {
	if err := websocket.Message.Send(s.Conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer.
func (s *WebSocket) Close() error {
	return s.Conn.Close()
}
