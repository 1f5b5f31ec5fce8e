// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obs

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/obsmenu/lib/obsws"
	"github.com/bureau-foundation/obsmenu/lib/service"
)

// ConnectionState is where the client is in the connection lifecycle.
type ConnectionState int

const (
	// StateDisconnected: no socket.
	StateDisconnected ConnectionState = iota
	// StateConnecting: socket open, waiting for Hello.
	StateConnecting
	// StateHandshakeHello: Identify sent, waiting for Identified.
	StateHandshakeHello
	// StateIdentified: requests may be sent.
	StateIdentified
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateHandshakeHello:
		return "handshake"
	case StateIdentified:
		return "identified"
	default:
		return fmt.Sprintf("ConnectionState(%d)", int(s))
	}
}

// ensureConnected reports whether a socket is open, dialing one when
// the retry deadline has passed. A failed dial sets the next deadline
// instead of sleeping so the actor keeps draining commands.
func (c *Client) ensureConnected(ctx context.Context) bool {
	if c.conn != nil {
		return true
	}
	now := c.clock.Now()
	if now.Before(c.nextAttempt) {
		return false
	}

	c.state = StateConnecting
	conn, err := c.options.Dialer.Dial(ctx, c.options.URL, c.options.ConnectTimeout)
	if err != nil {
		c.state = StateDisconnected
		c.nextAttempt = now.Add(c.options.RetryInterval)
		c.logger.Debug("connect failed",
			"url", c.options.URL,
			"error", err,
			"retry_in", c.options.RetryInterval,
		)
		return false
	}

	c.conn = conn
	c.epoch++
	c.dialedAt = c.clock.Now()
	c.logger.Info("connected", "url", c.options.URL, "epoch", c.epoch)
	return true
}

// disconnect tears the epoch down and lets a lost identified session
// announce itself.
func (c *Client) disconnect(reason string) {
	c.teardown(reason, true)
}

// teardown is the single reset point for epoch state: socket, pending
// requests, snapshot, menus and connection state. It is a no-op when
// there is nothing to tear down, so repeated connect failures never
// emit Disconnected.
func (c *Client) teardown(reason string, announce bool) {
	if c.conn == nil && c.state == StateDisconnected {
		return
	}
	wasIdentified := c.state == StateIdentified

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("closing connection", "error", err)
		}
		c.conn = nil
	}
	c.state = StateDisconnected
	clear(c.pending)
	c.snapshot.reset()
	c.menus = menuIDs{}
	c.actor.ClearMenus()
	c.nextAttempt = c.clock.Now().Add(c.options.RetryInterval)

	c.logger.Info("disconnected", "reason", reason, "epoch", c.epoch)
	c.actor.Emit(service.Disconnected{})

	if announce && wasIdentified {
		c.announceIssue(issueConnectionLost, "Connection to OBS lost, reconnecting")
	}
}

func (c *Client) onHello(frame obsws.Frame) error {
	var hello obsws.Hello
	if err := frame.Decode(&hello); err != nil {
		return err
	}
	if c.state != StateConnecting {
		c.logger.Warn("unexpected hello", "state", c.state.String())
		return nil
	}

	identify := obsws.Identify{
		RPCVersion:         obsws.RPCVersion,
		EventSubscriptions: c.options.EventSubscriptions,
	}
	if hello.Authentication != nil {
		if c.options.Password == "" {
			c.logger.Error("OBS requires a password but none is configured")
		} else {
			identify.Authentication = obsws.Authenticate(c.options.Password, *hello.Authentication)
		}
	}

	if err := c.conn.WriteFrame(obsws.OpIdentify, identify); err != nil {
		c.disconnect(fmt.Sprintf("sending identify: %v", err))
		return nil
	}
	c.state = StateHandshakeHello
	c.logger.Debug("hello received",
		"obs_websocket_version", hello.ObsWebSocketVersion,
		"rpc_version", hello.RPCVersion,
		"authentication", hello.Authentication != nil,
	)
	return nil
}

func (c *Client) onIdentified(frame obsws.Frame) error {
	var identified obsws.Identified
	if err := frame.Decode(&identified); err != nil {
		return err
	}
	if c.state != StateHandshakeHello {
		c.logger.Warn("unexpected identified", "state", c.state.String())
		return nil
	}

	c.state = StateIdentified
	c.logger.Info("identified", "rpc_version", identified.NegotiatedRPCVersion)
	c.actor.Emit(service.Ready{})
	c.requestFullStatus()
	return nil
}
