// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/obsmenu/lib/codec"
	"github.com/bureau-foundation/obsmenu/lib/netutil"
)

// ActionFunc handles one control request. raw is the whole CBOR
// request, "action" field included; the handler decodes its own
// fields from it. A nil result answers {ok: true} without data.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Error codes carried in failed responses.
const (
	CodeBadRequest    = "bad_request"
	CodeUnknownAction = "unknown_action"
	CodeNotFound      = "not_found"
	CodeDenied        = "denied"
	CodeFailed        = "failed"
)

// Response is the envelope of every control socket reply.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Code  string           `cbor:"code,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// CodedError attaches a response code to a handler error. Handler
// errors without one are answered with CodeFailed.
type CodedError struct {
	Code string
	Err  error
}

// WithCode wraps err so its response carries code.
func WithCode(code string, err error) error {
	return &CodedError{Code: code, Err: err}
}

func (e *CodedError) Error() string { return e.Err.Error() }

func (e *CodedError) Unwrap() error { return e.Err }

func responseCode(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeFailed
}

const (
	// readTimeout bounds how long a client may take to send its
	// request.
	readTimeout = 30 * time.Second

	// writeTimeout bounds writing the response.
	writeTimeout = 10 * time.Second

	// maxRequestSize caps one request. Control requests are a few
	// small fields.
	maxRequestSize = 64 * 1024
)

// SocketServer answers CBOR requests on a Unix socket, one request
// and one response per connection.
//
// The socket is created mode 0600. On Linux a peer running as another
// user is refused before its request is read.
type SocketServer struct {
	socketPath string
	handlers   map[string]ActionFunc
	logger     *slog.Logger

	inflight sync.WaitGroup
}

// NewSocketServer returns a server for socketPath. Register actions
// with Handle before Serve.
func NewSocketServer(socketPath string, logger *slog.Logger) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		handlers:   make(map[string]ActionFunc),
		logger:     logger.With("socket", socketPath),
	}
}

// Handle registers handler for action. Registering an action twice
// panics.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Actions returns the registered action names, sorted.
func (s *SocketServer) Actions() []string {
	return slices.Sorted(maps.Keys(s.handlers))
}

// Serve listens until ctx is cancelled, then waits for in-flight
// requests. A stale socket file is replaced; the file is removed when
// Serve returns.
func (s *SocketServer) Serve(ctx context.Context) error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	defer os.Remove(s.socketPath)

	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()

	s.logger.Info("control socket listening", "actions", s.Actions())
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.inflight.Go(func() { s.serveConn(ctx, conn) })
	}
	listener.Close()
	s.inflight.Wait()
	return nil
}

func (s *SocketServer) listen() (net.Listener, error) {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		os.Remove(s.socketPath)
		return nil, fmt.Errorf("restricting socket permissions on %s: %w", s.socketPath, err)
	}
	return listener, nil
}

// serveConn answers one request on conn and closes it.
func (s *SocketServer) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := checkPeer(conn); err != nil {
		s.logger.Warn("refusing control connection", "error", err)
		s.respond(conn, "", nil, WithCode(CodeDenied, errors.New("permission denied")))
		return
	}

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	action, raw, err := readRequest(conn)
	if err != nil {
		if !netutil.IsClosed(err) {
			s.respond(conn, action, nil, err)
		}
		return
	}

	handler, exists := s.handlers[action]
	if !exists {
		s.respond(conn, action, nil, WithCode(CodeUnknownAction,
			fmt.Errorf("unknown action %q (have: %s)", action, strings.Join(s.Actions(), ", "))))
		return
	}

	started := time.Now()
	result, err := handler(ctx, raw)
	s.logger.Debug("control request",
		"action", action,
		"duration", time.Since(started),
		"error", err,
	)
	s.respond(conn, action, result, err)
}

// readRequest reads one CBOR value and its action name. Errors other
// than a closed connection carry CodeBadRequest.
func readRequest(conn net.Conn) (string, []byte, error) {
	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if netutil.IsClosed(err) {
			return "", nil, err
		}
		return "", nil, WithCode(CodeBadRequest, fmt.Errorf("invalid request: %w", err))
	}

	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		return "", nil, WithCode(CodeBadRequest, fmt.Errorf("invalid request: %w", err))
	}
	if header.Action == "" {
		return "", nil, WithCode(CodeBadRequest, errors.New("missing required field: action"))
	}
	return header.Action, raw, nil
}

// respond writes the success or failure envelope. Write failures are
// only logged: the connection closes either way.
func (s *SocketServer) respond(conn net.Conn, action string, result any, err error) {
	response := Response{OK: err == nil}
	if err == nil && result != nil {
		data, marshalErr := codec.Marshal(result)
		if marshalErr != nil {
			err = fmt.Errorf("internal: marshaling response: %w", marshalErr)
			response.OK = false
		}
		response.Data = data
	}
	if err != nil {
		response.Error = err.Error()
		response.Code = responseCode(err)
		response.Data = nil
	}

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if writeErr := codec.NewEncoder(conn).Encode(response); writeErr != nil {
		s.logger.Debug("writing response", "action", action, "error", writeErr)
	}
}
