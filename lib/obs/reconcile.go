// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obs

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/bureau-foundation/obsmenu/lib/obsws"
)

// Request types.
const (
	requestGetSceneList          = "GetSceneList"
	requestGetSceneItemList      = "GetSceneItemList"
	requestGetStreamStatus       = "GetStreamStatus"
	requestGetRecordStatus       = "GetRecordStatus"
	requestGetVirtualCamStatus   = "GetVirtualCamStatus"
	requestGetReplayBufferStatus = "GetReplayBufferStatus"

	requestSetCurrentProgramScene = "SetCurrentProgramScene"
	requestSetSceneItemEnabled    = "SetSceneItemEnabled"
	requestToggleStream           = "ToggleStream"
	requestToggleRecord           = "ToggleRecord"
	requestToggleRecordPause      = "ToggleRecordPause"
	requestToggleVirtualCam       = "ToggleVirtualCam"
	requestToggleReplayBuffer     = "ToggleReplayBuffer"
	requestSaveReplayBuffer       = "SaveReplayBuffer"
)

// Output states carried by the *StateChanged events.
const (
	outputStarted      = "OBS_WEBSOCKET_OUTPUT_STARTED"
	outputStopped      = "OBS_WEBSOCKET_OUTPUT_STOPPED"
	outputPaused       = "OBS_WEBSOCKET_OUTPUT_PAUSED"
	outputResumed      = "OBS_WEBSOCKET_OUTPUT_RESUMED"
	outputReconnecting = "OBS_WEBSOCKET_OUTPUT_RECONNECTING"
	outputReconnected  = "OBS_WEBSOCKET_OUTPUT_RECONNECTED"
)

type sceneEntry struct {
	SceneIndex int    `json:"sceneIndex"`
	SceneName  string `json:"sceneName"`
}

type sceneItemEntry struct {
	SceneItemID      int    `json:"sceneItemId"`
	SourceName       string `json:"sourceName"`
	SceneItemEnabled bool   `json:"sceneItemEnabled"`
}

type outputStateChange struct {
	OutputActive bool   `json:"outputActive"`
	OutputState  string `json:"outputState"`
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("missing data")
	}
	return json.Unmarshal(data, v)
}

func (c *Client) buildResponseHandlers() map[string]responseHandler {
	acknowledge := func(request pendingRequest, _ json.RawMessage) error {
		c.logger.Debug("request acknowledged", "type", request.RequestType)
		return nil
	}
	return map[string]responseHandler{
		requestGetSceneList:          c.onSceneList,
		requestGetSceneItemList:      c.onSceneItemList,
		requestGetStreamStatus:       c.onStreamStatus,
		requestGetRecordStatus:       c.onRecordStatus,
		requestGetVirtualCamStatus:   c.onVirtualCamStatus,
		requestGetReplayBufferStatus: c.onReplayBufferStatus,

		requestSetCurrentProgramScene: acknowledge,
		requestSetSceneItemEnabled:    acknowledge,
		requestToggleStream:           acknowledge,
		requestToggleRecord:           acknowledge,
		requestToggleRecordPause:      acknowledge,
		requestToggleVirtualCam:       acknowledge,
		requestToggleReplayBuffer:     acknowledge,
		requestSaveReplayBuffer:       acknowledge,
	}
}

func (c *Client) buildEventHandlers() map[string]eventHandler {
	return map[string]eventHandler{
		"CurrentProgramSceneChanged":  c.onCurrentProgramSceneChanged,
		"SceneListChanged":            c.onSceneListChanged,
		"SceneItemEnableStateChanged": c.onSceneItemEnableStateChanged,
		"SceneItemCreated":            c.onSceneItemsChanged,
		"SceneItemRemoved":            c.onSceneItemsChanged,
		"SceneItemListReindexed":      c.onSceneItemsChanged,
		"StreamStateChanged":          c.onStreamStateChanged,
		"RecordStateChanged":          c.onRecordStateChanged,
		"VirtualcamStateChanged":      c.onVirtualCamStateChanged,
		"ReplayBufferStateChanged":    c.onReplayBufferStateChanged,
		"ReplayBufferSaved":           c.onReplayBufferSaved,
		"ExitStarted":                 c.onExitStarted,
	}
}

// onEvent dispatches a push event by type. Unknown types and event
// data that does not decode are logged and dropped.
func (c *Client) onEvent(frame obsws.Frame) error {
	var event obsws.Event
	if err := frame.Decode(&event); err != nil {
		return err
	}
	handler, known := c.eventHandlers[event.EventType]
	if !known {
		c.logger.Debug("unhandled event", "type", event.EventType)
		return nil
	}
	if c.state != StateIdentified {
		c.logger.Warn("event before identification", "type", event.EventType)
		return nil
	}
	if err := handler(event.EventData); err != nil {
		c.logger.Warn("applying event", "type", event.EventType, "error", err)
	}
	return nil
}

// Scenes.

// applySceneList stores the peer's back-to-front list in display
// order.
func (c *Client) applySceneList(entries []sceneEntry) {
	scenes := make([]string, 0, len(entries))
	for _, entry := range entries {
		scenes = append(scenes, entry.SceneName)
	}
	slices.Reverse(scenes)
	c.snapshot.scenes = scenes
	c.snapshot.scenesKnown = true
}

// setCurrentScene records the program scene and reports whether it
// changed. A change from a known scene is announced. The previous
// scene's sources are forgotten until the new scene's list arrives.
func (c *Client) setCurrentScene(name string) bool {
	previous := c.snapshot.currentScene
	if name == previous {
		return false
	}
	c.snapshot.currentScene = name
	c.snapshot.sources = nil
	c.snapshot.sourcesScene = name
	c.snapshot.sourcesKnown = false
	if c.menus.sources != 0 {
		c.publishSources()
	}
	if previous != "" {
		c.announce("Scene: " + name)
	}
	return true
}

func (c *Client) onSceneList(_ pendingRequest, data json.RawMessage) error {
	var response struct {
		CurrentProgramSceneName string       `json:"currentProgramSceneName"`
		Scenes                  []sceneEntry `json:"scenes"`
	}
	if err := decodeData(data, &response); err != nil {
		return err
	}
	c.applySceneList(response.Scenes)
	changed := c.setCurrentScene(response.CurrentProgramSceneName)
	c.publishScenes()
	if changed || !c.snapshot.sourcesKnown {
		c.fetchSceneItems()
	}
	return nil
}

func (c *Client) onCurrentProgramSceneChanged(data json.RawMessage) error {
	var event struct {
		SceneName string `json:"sceneName"`
	}
	if err := decodeData(data, &event); err != nil {
		return err
	}
	if !c.setCurrentScene(event.SceneName) {
		return nil
	}
	c.publishScenes()
	c.fetchSceneItems()
	return nil
}

func (c *Client) onSceneListChanged(data json.RawMessage) error {
	var event struct {
		Scenes []sceneEntry `json:"scenes"`
	}
	if err := decodeData(data, &event); err != nil {
		return err
	}
	c.applySceneList(event.Scenes)
	c.publishScenes()
	c.fetchSceneItems()
	return nil
}

// Sources.

func (c *Client) onSceneItemList(request pendingRequest, data json.RawMessage) error {
	if scene := request.sceneName(); scene != c.snapshot.currentScene {
		c.logger.Debug("dropping item list of a scene that is no longer current",
			"scene", scene,
			"current", c.snapshot.currentScene,
		)
		return nil
	}

	var response struct {
		SceneItems []sceneItemEntry `json:"sceneItems"`
	}
	if err := decodeData(data, &response); err != nil {
		return err
	}

	// The peer lists items bottom-up; the menu shows the topmost
	// first.
	sources := make([]sceneSource, 0, len(response.SceneItems))
	for _, entry := range response.SceneItems {
		sources = append(sources, sceneSource{
			ID:      entry.SceneItemID,
			Name:    entry.SourceName,
			Enabled: entry.SceneItemEnabled,
		})
	}
	slices.Reverse(sources)
	c.snapshot.sources = sources
	c.snapshot.sourcesScene = c.snapshot.currentScene
	c.snapshot.sourcesKnown = true
	c.publishSources()
	return nil
}

func (c *Client) onSceneItemEnableStateChanged(data json.RawMessage) error {
	var event struct {
		SceneName        string `json:"sceneName"`
		SceneItemID      int    `json:"sceneItemId"`
		SceneItemEnabled bool   `json:"sceneItemEnabled"`
	}
	if err := decodeData(data, &event); err != nil {
		return err
	}
	if event.SceneName != c.snapshot.currentScene || !c.snapshot.sourcesKnown {
		return nil
	}
	index := c.snapshot.sourceIndex(event.SceneItemID)
	if index < 0 {
		c.logger.Debug("visibility change for unknown item, refetching", "item", event.SceneItemID)
		c.fetchSceneItems()
		return nil
	}
	if c.snapshot.sources[index].Enabled == event.SceneItemEnabled {
		return nil
	}
	c.snapshot.sources[index].Enabled = event.SceneItemEnabled
	c.publishSources()
	return nil
}

// onSceneItemsChanged handles creation, removal and reindexing by
// refetching the whole list of the current scene.
func (c *Client) onSceneItemsChanged(data json.RawMessage) error {
	var event struct {
		SceneName string `json:"sceneName"`
	}
	if err := decodeData(data, &event); err != nil {
		return err
	}
	if event.SceneName != c.snapshot.currentScene {
		return nil
	}
	c.fetchSceneItems()
	return nil
}

// Outputs.

func (c *Client) onStreamStatus(_ pendingRequest, data json.RawMessage) error {
	var response struct {
		OutputActive        bool   `json:"outputActive"`
		OutputReconnecting  bool   `json:"outputReconnecting"`
		OutputTimecode      string `json:"outputTimecode"`
		OutputSkippedFrames int64  `json:"outputSkippedFrames"`
		OutputTotalFrames   int64  `json:"outputTotalFrames"`
	}
	if err := decodeData(data, &response); err != nil {
		return err
	}

	c.setStreaming(response.OutputActive)
	setFlag(&c.snapshot.streamReconnecting, response.OutputReconnecting)
	if response.OutputReconnecting {
		c.announceIssue(issueStreamReconnecting, "Stream reconnecting")
	}

	if response.OutputActive {
		previous := c.snapshot.skippedFrames
		if c.snapshot.framesKnown && response.OutputSkippedFrames > previous {
			c.announceIssue(issueSkippedFrames,
				fmt.Sprintf("%d frames skipped", response.OutputSkippedFrames-previous))
		}
		c.snapshot.framesKnown = true
		c.snapshot.skippedFrames = response.OutputSkippedFrames
		c.snapshot.totalFrames = response.OutputTotalFrames
		c.snapshot.streamTimecode = response.OutputTimecode
	}
	c.publishOutputs()
	return nil
}

// setStreaming applies the stream flag from a poll or an event.
// Stopping forgets the frame counters, which restart with the next
// stream.
func (c *Client) setStreaming(active bool) {
	if setFlag(&c.snapshot.stream, active) {
		if active {
			c.announce("Stream started")
		} else {
			c.announce("Stream stopped")
		}
	}
	if !active {
		c.snapshot.framesKnown = false
		c.snapshot.skippedFrames = 0
		c.snapshot.totalFrames = 0
		c.snapshot.streamTimecode = ""
		setFlag(&c.snapshot.streamReconnecting, false)
	}
}

func (c *Client) onStreamStateChanged(data json.RawMessage) error {
	var event outputStateChange
	if err := decodeData(data, &event); err != nil {
		return err
	}
	switch event.OutputState {
	case outputStarted, outputStopped:
		c.setStreaming(event.OutputActive)
		if event.OutputActive {
			// Poll right away so frame counting starts from this
			// stream.
			c.lastPoll = c.clock.Now().Add(-c.options.StatusPollInterval)
		}
	case outputReconnecting:
		setFlag(&c.snapshot.streamReconnecting, true)
		c.announceIssue(issueStreamReconnecting, "Stream reconnecting")
	case outputReconnected:
		if setFlag(&c.snapshot.streamReconnecting, false) {
			c.announce("Stream reconnected")
		}
	default:
		return nil
	}
	c.publishOutputs()
	return nil
}

func (c *Client) onRecordStatus(_ pendingRequest, data json.RawMessage) error {
	var response struct {
		OutputActive   bool   `json:"outputActive"`
		OutputPaused   bool   `json:"outputPaused"`
		OutputTimecode string `json:"outputTimecode"`
	}
	if err := decodeData(data, &response); err != nil {
		return err
	}
	c.setRecording(response.OutputActive, response.OutputPaused)
	c.snapshot.recordTimecode = response.OutputTimecode
	c.publishOutputs()
	return nil
}

// setRecording applies both recording flags, announcing at most one
// transition.
func (c *Client) setRecording(active, paused bool) {
	recordNews := setFlag(&c.snapshot.record, active)
	pausedNews := setFlag(&c.snapshot.recordPaused, active && paused)
	switch {
	case recordNews && active:
		c.announce("Recording started")
	case recordNews:
		c.announce("Recording stopped")
	case pausedNews && paused:
		c.announce("Recording paused")
	case pausedNews:
		c.announce("Recording resumed")
	}
}

func (c *Client) onRecordStateChanged(data json.RawMessage) error {
	var event outputStateChange
	if err := decodeData(data, &event); err != nil {
		return err
	}
	switch event.OutputState {
	case outputStarted:
		c.setRecording(true, false)
	case outputStopped:
		c.setRecording(false, false)
		c.snapshot.recordTimecode = ""
	case outputPaused:
		c.setRecording(true, true)
	case outputResumed:
		c.setRecording(true, false)
	default:
		return nil
	}
	c.publishOutputs()
	return nil
}

func (c *Client) onVirtualCamStatus(_ pendingRequest, data json.RawMessage) error {
	var response struct {
		OutputActive bool `json:"outputActive"`
	}
	if err := decodeData(data, &response); err != nil {
		return err
	}
	c.setVirtualCam(response.OutputActive)
	c.publishOutputs()
	return nil
}

func (c *Client) setVirtualCam(active bool) {
	if !setFlag(&c.snapshot.virtualCam, active) {
		return
	}
	if active {
		c.announce("Virtual camera started")
	} else {
		c.announce("Virtual camera stopped")
	}
}

func (c *Client) onVirtualCamStateChanged(data json.RawMessage) error {
	var event outputStateChange
	if err := decodeData(data, &event); err != nil {
		return err
	}
	if event.OutputState != outputStarted && event.OutputState != outputStopped {
		return nil
	}
	c.setVirtualCam(event.OutputActive)
	c.publishOutputs()
	return nil
}

func (c *Client) onReplayBufferStatus(_ pendingRequest, data json.RawMessage) error {
	var response struct {
		OutputActive bool `json:"outputActive"`
	}
	if err := decodeData(data, &response); err != nil {
		return err
	}
	c.setReplayBuffer(response.OutputActive)
	c.publishOutputs()
	return nil
}

func (c *Client) setReplayBuffer(active bool) {
	if !setFlag(&c.snapshot.replayBuffer, active) {
		return
	}
	if active {
		c.announce("Replay buffer started")
	} else {
		c.announce("Replay buffer stopped")
	}
}

func (c *Client) onReplayBufferStateChanged(data json.RawMessage) error {
	var event outputStateChange
	if err := decodeData(data, &event); err != nil {
		return err
	}
	if event.OutputState != outputStarted && event.OutputState != outputStopped {
		return nil
	}
	c.setReplayBuffer(event.OutputActive)
	c.publishOutputs()
	return nil
}

func (c *Client) onReplayBufferSaved(json.RawMessage) error {
	c.announce("Replay saved")
	return nil
}

func (c *Client) onExitStarted(json.RawMessage) error {
	c.disconnect("OBS is shutting down")
	return nil
}
