package funnel

import (
	"bufio"
	"fmt"
	"net"

	"github.com/gorilla/websocket"
)

// Upstream is the funnel's connection to the engine: it yields framed JSON
// messages and accepts single-line Vote frames to forward. Two wire
// transports satisfy it, selected by upstream_is_websocket: a raw
// newline-delimited TCP connection, and a WebSocket text-frame connection.
type Upstream interface {
	// ReadFrame blocks for the next framed message and returns its raw
	// bytes, unparsed, so the caller can both decode it and rebroadcast
	// the original text verbatim.
	ReadFrame() ([]byte, error)
	// WriteFrame sends one pre-encoded JSON line upstream.
	WriteFrame(data []byte) error
	Close() error
}

// lineUpstream speaks newline-delimited JSON over a plain TCP connection.
type lineUpstream struct {
	conn net.Conn
	r    *bufio.Reader
}

// DialLineUpstream connects to addr and wraps it as a line-protocol Upstream.
func DialLineUpstream(addr string) (Upstream, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("funnel: dialing upstream %s: %w", addr, err)
	}
	return &lineUpstream{conn: conn, r: bufio.NewReader(conn)}, nil
}

func (u *lineUpstream) ReadFrame() ([]byte, error) {
	line, err := u.r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("funnel: reading upstream line: %w", err)
	}
	return trimNewline(line), nil
}

func (u *lineUpstream) WriteFrame(data []byte) error {
	if _, err := u.conn.Write(append(append([]byte{}, data...), '\n')); err != nil {
		return fmt.Errorf("funnel: writing upstream line: %w", err)
	}
	return nil
}

func (u *lineUpstream) Close() error {
	return u.conn.Close()
}

func trimNewline(line []byte) []byte {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}

// websocketUpstream speaks the same JSON messages as text frames over a
// WebSocket connection to the engine.
type websocketUpstream struct {
	conn *websocket.Conn
}

// DialWebsocketUpstream connects to a ws:// or wss:// URL and wraps it as a
// WebSocket Upstream.
func DialWebsocketUpstream(url string) (Upstream, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("funnel: dialing websocket upstream %s: %w", url, err)
	}
	return &websocketUpstream{conn: conn}, nil
}

func (u *websocketUpstream) ReadFrame() ([]byte, error) {
	_, data, err := u.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("funnel: reading upstream websocket frame: %w", err)
	}
	return data, nil
}

func (u *websocketUpstream) WriteFrame(data []byte) error {
	if err := u.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("funnel: writing upstream websocket frame: %w", err)
	}
	return nil
}

func (u *websocketUpstream) Close() error {
	return u.conn.Close()
}
