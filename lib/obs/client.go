// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/obsmenu/lib/clock"
	"github.com/bureau-foundation/obsmenu/lib/netutil"
	"github.com/bureau-foundation/obsmenu/lib/obsws"
	"github.com/bureau-foundation/obsmenu/lib/service"
	"github.com/bureau-foundation/obsmenu/lib/throttle"
)

// ServiceName is the actor name the daemon registers the client under.
const ServiceName = "obs"

// DisplayName is the human-readable service name.
const DisplayName = "OBS Studio"

type (
	frameHandler    func(frame obsws.Frame) error
	eventHandler    func(data json.RawMessage) error
	responseHandler func(request pendingRequest, data json.RawMessage) error
	actionHandler   func(item actionItem)
)

// Client is the OBS service. Construct it with New around an actor
// that has not been started yet, then start the actor with it.
type Client struct {
	actor    *service.Actor
	logger   *slog.Logger
	clock    clock.Clock
	options  Options
	throttle *throttle.Throttle

	frameHandlers    map[obsws.OpCode]frameHandler
	eventHandlers    map[string]eventHandler
	responseHandlers map[string]responseHandler
	actionHandlers   map[string]actionHandler

	// Connection epoch state. Reset only by disconnect.
	state       ConnectionState
	conn        obsws.Conn
	epoch       uint64
	dialedAt    time.Time
	nextAttempt time.Time
	lastPoll    time.Time
	pending     map[string]pendingRequest
	snapshot    snapshot
	menus       menuIDs
}

var (
	_ service.Service        = (*Client)(nil)
	_ service.Activator      = (*Client)(nil)
	_ service.CommandHandler = (*Client)(nil)
	_ service.Closer         = (*Client)(nil)
)

// New returns a disconnected client publishing through actor.
func New(actor *service.Actor, options Options) *Client {
	options = options.withDefaults()
	c := &Client{
		actor:    actor,
		logger:   actor.Logger(),
		clock:    actor.Clock(),
		options:  options,
		throttle: throttle.New(actor.Clock(), options.Throttle),
		pending:  make(map[string]pendingRequest),
	}

	c.frameHandlers = map[obsws.OpCode]frameHandler{
		obsws.OpHello:           c.onHello,
		obsws.OpIdentified:      c.onIdentified,
		obsws.OpEvent:           c.onEvent,
		obsws.OpRequestResponse: c.onResponse,
	}
	c.eventHandlers = c.buildEventHandlers()
	c.responseHandlers = c.buildResponseHandlers()
	c.actionHandlers = c.buildActionHandlers()
	return c
}

// Step connects if needed, sends due status polls, and processes at
// most one frame.
func (c *Client) Step(ctx context.Context) (bool, error) {
	if !c.ensureConnected(ctx) {
		return false, nil
	}

	if c.state != StateIdentified && clock.Elapsed(c.clock, c.dialedAt, c.options.HandshakeTimeout) {
		c.disconnect(fmt.Sprintf("no identification within %s", c.options.HandshakeTimeout))
		return true, nil
	}

	c.pollStatus()
	if c.conn == nil {
		// A poll write failed and disconnected.
		return true, nil
	}

	frame, err := c.conn.ReadFrame(c.options.ReadTimeout)
	switch {
	case err == nil:
		c.handleFrame(frame)
		return true, nil
	case errors.Is(err, obsws.ErrReadTimeout):
		return false, nil
	case errors.Is(err, obsws.ErrMalformedFrame):
		c.logger.Warn("malformed frame from peer", "error", err)
		c.disconnect("malformed frame")
		return true, nil
	case netutil.IsClosed(err):
		c.disconnect("connection closed by OBS")
		return true, nil
	default:
		c.disconnect(fmt.Sprintf("read failed: %v", err))
		return true, nil
	}
}

// handleFrame dispatches one frame by opcode. Unknown opcodes are
// logged once and dropped.
func (c *Client) handleFrame(frame obsws.Frame) {
	handler, known := c.frameHandlers[frame.Op]
	if !known {
		c.logger.Warn("unhandled opcode", "op", int(frame.Op))
		return
	}
	if err := handler(frame); err != nil {
		c.logger.Warn("malformed payload from peer", "op", frame.Op.String(), "error", err)
		c.disconnect("malformed payload")
	}
}

// HandleCommand implements service.CommandHandler.
func (c *Client) HandleCommand(ctx context.Context, command service.Command) bool {
	switch command.(type) {
	case service.Refresh:
		if c.state != StateIdentified {
			c.logger.Debug("refresh ignored while not identified", "state", c.state.String())
			return true
		}
		c.logger.Debug("refreshing remote state")
		c.requestFullStatus()
		c.fetchSceneItems()
		return true
	default:
		return false
	}
}

// Close implements service.Closer.
func (c *Client) Close() error {
	c.teardown("service closing", false)
	return nil
}
