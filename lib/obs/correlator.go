// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obs

import (
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/obsmenu/lib/clock"
	"github.com/bureau-foundation/obsmenu/lib/obsws"
)

// pendingRequest is a request awaiting its response in the current
// epoch.
type pendingRequest struct {
	ID          string
	RequestType string
	Data        map[string]any
	IssuedAt    time.Time
	Epoch       uint64
}

// sceneName returns the "sceneName" request field, or "".
func (p pendingRequest) sceneName() string {
	name, _ := p.Data["sceneName"].(string)
	return name
}

// send issues a request. It refuses (returns false) before the session
// is identified; a write failure disconnects.
func (c *Client) send(requestType string, data map[string]any) (string, bool) {
	if c.state != StateIdentified || c.conn == nil {
		c.logger.Debug("request refused before identification",
			"type", requestType,
			"state", c.state.String(),
		)
		return "", false
	}

	id := uuid.NewString()
	c.pending[id] = pendingRequest{
		ID:          id,
		RequestType: requestType,
		Data:        maps.Clone(data),
		IssuedAt:    c.clock.Now(),
		Epoch:       c.epoch,
	}

	err := c.conn.WriteFrame(obsws.OpRequest, obsws.Request{
		RequestType: requestType,
		RequestID:   id,
		RequestData: data,
	})
	if err != nil {
		c.disconnect(fmt.Sprintf("sending %s: %v", requestType, err))
		return "", false
	}
	return id, true
}

// onResponse matches a response to its pending request and hands the
// payload to the handler registered for the request type.
func (c *Client) onResponse(frame obsws.Frame) error {
	var response obsws.RequestResponse
	if err := frame.Decode(&response); err != nil {
		return err
	}

	request, known := c.pending[response.RequestID]
	if !known || request.Epoch != c.epoch {
		c.logger.Warn("dropping response to unknown request",
			"id", response.RequestID,
			"type", response.RequestType,
		)
		return nil
	}
	delete(c.pending, response.RequestID)

	if response.RequestType != request.RequestType {
		c.logger.Warn("response type differs from request",
			"id", request.ID,
			"requested", request.RequestType,
			"answered", response.RequestType,
		)
	}

	if err := response.Err(); err != nil {
		c.logger.Warn("request failed",
			"type", request.RequestType,
			"code", response.RequestStatus.Code,
			"comment", response.RequestStatus.Comment,
		)
		return nil
	}

	handler, ok := c.responseHandlers[request.RequestType]
	if !ok {
		c.logger.Warn("no handler for response", "type", request.RequestType)
		return nil
	}
	if err := handler(request, response.ResponseData); err != nil {
		c.logger.Warn("applying response",
			"type", request.RequestType,
			"error", err,
		)
	}
	return nil
}

// requestFullStatus asks for everything the menus show. The scene
// list comes first; its response triggers the item list fetch.
func (c *Client) requestFullStatus() {
	for _, requestType := range []string{
		requestGetSceneList,
		requestGetStreamStatus,
		requestGetRecordStatus,
		requestGetVirtualCamStatus,
		requestGetReplayBufferStatus,
	} {
		if _, ok := c.send(requestType, nil); !ok {
			return
		}
	}
	c.lastPoll = c.clock.Now()
}

// pollStatus re-requests the stream status while streaming, which is
// how skipped frames become visible.
func (c *Client) pollStatus() {
	if c.state != StateIdentified || !c.snapshot.stream.on {
		return
	}
	if !clock.Elapsed(c.clock, c.lastPoll, c.options.StatusPollInterval) {
		return
	}
	c.lastPoll = c.clock.Now()
	c.send(requestGetStreamStatus, nil)
}

// fetchSceneItems requests the item list of the current scene.
func (c *Client) fetchSceneItems() {
	if c.snapshot.currentScene == "" {
		return
	}
	c.send(requestGetSceneItemList, map[string]any{"sceneName": c.snapshot.currentScene})
}
