// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"syscall"
	"time"

	"github.com/bureau-foundation/obsmenu/lib/codec"
)

const (
	dialTimeout = 5 * time.Second

	// responseTimeout covers the server's read and write timeouts.
	responseTimeout = 45 * time.Second

	// maxResponseSize caps one response. Item lists are the largest.
	maxResponseSize = 1024 * 1024
)

// ErrNotRunning is returned by Call when nothing listens on the
// socket: the file is missing or refuses connections.
var ErrNotRunning = errors.New("obsmenud is not running")

// ServiceError is a failed response.
type ServiceError struct {
	Action  string
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// NotFound reports whether the request named a service or menu the
// daemon does not have.
func (e *ServiceError) NotFound() bool {
	return e.Code == CodeNotFound
}

// ServiceClient calls a control socket. Every Call uses a fresh
// connection.
type ServiceClient struct {
	socketPath string
}

func NewServiceClient(socketPath string) *ServiceClient {
	return &ServiceClient{socketPath: socketPath}
}

func (c *ServiceClient) SocketPath() string {
	return c.socketPath
}

// Call sends action with fields and decodes the response data into
// result when both are non-nil. A failed response is a *ServiceError;
// a missing daemon is ErrNotRunning.
func (c *ServiceClient) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := maps.Clone(fields)
	if request == nil {
		request = make(map[string]any, 1)
	}
	request["action"] = action

	response, err := c.roundTrip(ctx, request)
	if err != nil {
		return err
	}
	if !response.OK {
		return &ServiceError{Action: action, Code: response.Code, Message: response.Error}
	}
	if result == nil || len(response.Data) == 0 {
		return nil
	}
	if err := codec.Unmarshal(response.Data, result); err != nil {
		return fmt.Errorf("decoding %s response: %w", action, err)
	}
	return nil
}

func (c *ServiceClient) roundTrip(ctx context.Context, request map[string]any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		if errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%w (no listener on %s)", ErrNotRunning, c.socketPath)
		}
		return nil, fmt.Errorf("connecting to %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(responseTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	conn.SetDeadline(deadline)

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("sending %v: %w", request["action"], err)
	}
	// The server reads one value; closing our write side lets it see
	// EOF if it reads further.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading %v response: %w", request["action"], err)
	}
	return &response, nil
}
