// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obsws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/websocket"
)

// ErrReadTimeout is returned by ReadFrame when no frame arrived within
// the timeout. The connection stays usable.
var ErrReadTimeout = errors.New("obsws: read timeout")

// writeTimeout bounds a single frame write.
const writeTimeout = 5 * time.Second

// maxFrameSize caps an incoming frame. Scene item lists of very large
// collections stay well under this.
const maxFrameSize = 8 << 20

// Conn is one protocol connection.
type Conn interface {
	// ReadFrame waits up to timeout for the next frame.
	ReadFrame(timeout time.Duration) (Frame, error)

	// WriteFrame sends one frame.
	WriteFrame(op OpCode, payload any) error

	// Close closes the connection. Safe to call more than once.
	Close() error
}

// Dialer opens protocol connections.
type Dialer interface {
	Dial(ctx context.Context, address string, timeout time.Duration) (Conn, error)
}

// WebSocketDialer dials real WebSocket connections.
type WebSocketDialer struct{}

// Dial connects to a ws:// or wss:// URL within timeout.
func (WebSocketDialer) Dial(ctx context.Context, address string, timeout time.Duration) (Conn, error) {
	parsed, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", address, err)
	}
	origin := "http://" + parsed.Host + "/"
	if parsed.Scheme == "wss" {
		origin = "https://" + parsed.Host + "/"
	}

	config, err := websocket.NewConfig(address, origin)
	if err != nil {
		return nil, fmt.Errorf("configuring websocket for %s: %w", address, err)
	}
	config.Protocol = []string{Subprotocol}
	config.Dialer = &net.Dialer{Timeout: timeout}

	dialContext, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ws, err := config.DialContext(dialContext)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", address, err)
	}
	ws.MaxPayloadBytes = maxFrameSize
	return &webSocketConn{ws: ws}, nil
}

type webSocketConn struct {
	ws *websocket.Conn
}

func (c *webSocketConn) ReadFrame(timeout time.Duration) (Frame, error) {
	if err := c.ws.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return Frame{}, fmt.Errorf("setting read deadline: %w", err)
	}
	var data []byte
	if err := websocket.Message.Receive(c.ws, &data); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return Frame{}, ErrReadTimeout
		}
		return Frame{}, fmt.Errorf("reading frame: %w", err)
	}
	return DecodeFrame(data)
}

func (c *webSocketConn) WriteFrame(op OpCode, payload any) error {
	data, err := EncodeFrame(op, payload)
	if err != nil {
		return err
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	// A string is sent as a text frame, which the JSON subprotocol
	// requires.
	if err := websocket.Message.Send(c.ws, string(data)); err != nil {
		return fmt.Errorf("writing %s frame: %w", op, err)
	}
	return nil
}

func (c *webSocketConn) Close() error {
	err := c.ws.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
