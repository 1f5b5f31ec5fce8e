// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obs

import (
	"fmt"

	"github.com/bureau-foundation/obsmenu/lib/menu"
)

// Menu names.
const (
	MenuScenes  = "Scenes"
	MenuSources = "Sources"
	MenuOutputs = "Outputs"
)

// Item actions.
const (
	ActionSwitchScene        = "switch_scene"
	ActionToggleSource       = "toggle_source"
	ActionToggleStream       = "toggle_stream"
	ActionToggleRecord       = "toggle_record"
	ActionToggleRecordPause  = "toggle_record_pause"
	ActionToggleVirtualCam   = "toggle_virtual_cam"
	ActionToggleReplayBuffer = "toggle_replay_buffer"
	ActionSaveReplayBuffer   = "save_replay_buffer"
)

// menuIDs holds the ids of this epoch's menus; zero means not created
// yet.
type menuIDs struct {
	scenes  int
	sources int
	outputs int
}

// publish creates the menu the first time its data arrives in an
// epoch and replaces its items afterwards.
func (c *Client) publish(id *int, name string, items []menu.Item) {
	if *id == 0 {
		*id = c.actor.AddMenu(name, items)
		return
	}
	c.actor.SetMenuItems(*id, items)
}

func (c *Client) publishScenes() {
	c.publish(&c.menus.scenes, MenuScenes, sceneItems(&c.snapshot))
}

func (c *Client) publishSources() {
	c.publish(&c.menus.sources, MenuSources, sourceItems(&c.snapshot))
}

func (c *Client) publishOutputs() {
	c.publish(&c.menus.outputs, MenuOutputs, outputItems(&c.snapshot))
}

func sceneItems(s *snapshot) []menu.Item {
	items := make([]menu.Item, 0, len(s.scenes))
	for _, name := range s.scenes {
		label := name
		if name == s.currentScene {
			label += " (current)"
		}
		items = append(items, menu.Item{
			Label:      label,
			Action:     ActionSwitchScene,
			ActionData: map[string]any{"sceneName": name},
		})
	}
	if len(items) == 0 {
		items = append(items, menu.Info("No scenes"))
	}
	return items
}

func sourceItems(s *snapshot) []menu.Item {
	if !s.sourcesKnown {
		return []menu.Item{menu.Info("Loading sources of " + s.sourcesScene)}
	}
	items := make([]menu.Item, 0, len(s.sources))
	for _, source := range s.sources {
		label := source.Name
		if !source.Enabled {
			label += " (hidden)"
		}
		items = append(items, menu.Item{
			Label:  label,
			Action: ActionToggleSource,
			ActionData: map[string]any{
				"sceneName":   s.sourcesScene,
				"sceneItemId": source.ID,
				"enabled":     source.Enabled,
			},
		})
	}
	if len(items) == 0 {
		items = append(items, menu.Info(fmt.Sprintf("No sources in %s", s.sourcesScene)))
	}
	return items
}

func flagLabel(f flag, on, off string) string {
	switch {
	case !f.known:
		return "unknown"
	case f.on:
		return on
	default:
		return off
	}
}

func outputItems(s *snapshot) []menu.Item {
	stream := "Stream: " + flagLabel(s.stream, "live", "off")
	if s.stream.on && s.streamReconnecting.on {
		stream += ", reconnecting"
	}
	items := []menu.Item{{Label: stream, Action: ActionToggleStream}}
	if s.stream.on && s.framesKnown {
		items = append(items, menu.Info(fmt.Sprintf("Skipped frames: %d", s.skippedFrames)))
	}

	record := "Recording: " + flagLabel(s.record, "on", "off")
	if s.record.on && s.recordPaused.on {
		record = "Recording: paused"
	}
	items = append(items, menu.Item{Label: record, Action: ActionToggleRecord})
	if s.record.on {
		pause := "Pause recording"
		if s.recordPaused.on {
			pause = "Resume recording"
		}
		items = append(items, menu.Item{Label: pause, Action: ActionToggleRecordPause})
	}

	items = append(items, menu.Item{
		Label:  "Virtual camera: " + flagLabel(s.virtualCam, "on", "off"),
		Action: ActionToggleVirtualCam,
	})
	items = append(items, menu.Item{
		Label:  "Replay buffer: " + flagLabel(s.replayBuffer, "on", "off"),
		Action: ActionToggleReplayBuffer,
	})
	if s.replayBuffer.on {
		items = append(items, menu.Item{Label: "Save replay", Action: ActionSaveReplayBuffer})
	}
	return items
}
