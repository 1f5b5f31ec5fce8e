// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obs

import (
	"context"

	"github.com/bureau-foundation/obsmenu/lib/menu"
)

// actionItem is an activated item together with the menu it came
// from.
type actionItem struct {
	menuID int
	menu.Item
}

func (c *Client) buildActionHandlers() map[string]actionHandler {
	toggle := func(requestType string) actionHandler {
		return func(actionItem) {
			c.send(requestType, nil)
		}
	}
	return map[string]actionHandler{
		ActionSwitchScene:        c.switchScene,
		ActionToggleSource:       c.toggleSource,
		ActionToggleStream:       toggle(requestToggleStream),
		ActionToggleRecord:       toggle(requestToggleRecord),
		ActionToggleRecordPause:  toggle(requestToggleRecordPause),
		ActionToggleVirtualCam:   toggle(requestToggleVirtualCam),
		ActionToggleReplayBuffer: toggle(requestToggleReplayBuffer),
		ActionSaveReplayBuffer:   toggle(requestSaveReplayBuffer),
	}
}

// Activate implements service.Activator. The resulting state change
// arrives later as a push event.
func (c *Client) Activate(ctx context.Context, menuID int, item menu.Item) {
	handler, known := c.actionHandlers[item.Action]
	if !known {
		c.logger.Warn("unknown menu action", "action", item.Action, "menu", menuID)
		return
	}
	if c.state != StateIdentified {
		c.logger.Debug("action ignored while not identified", "action", item.Action)
		return
	}
	handler(actionItem{menuID: menuID, Item: item})
}

func (c *Client) switchScene(item actionItem) {
	scene, ok := item.ActionData["sceneName"].(string)
	if !ok || scene == "" {
		c.logger.Warn("scene item without a scene name", "label", item.Label)
		return
	}
	c.send(requestSetCurrentProgramScene, map[string]any{"sceneName": scene})
}

func (c *Client) toggleSource(item actionItem) {
	scene, _ := item.ActionData["sceneName"].(string)
	id, idOK := intValue(item.ActionData["sceneItemId"])
	enabled, enabledOK := item.ActionData["enabled"].(bool)
	if scene == "" || !idOK || !enabledOK {
		c.logger.Warn("source item with incomplete action data", "label", item.Label)
		return
	}
	if scene != c.snapshot.currentScene {
		c.logger.Warn("source item belongs to a scene that is no longer current",
			"label", item.Label,
			"scene", scene,
			"current", c.snapshot.currentScene,
		)
		return
	}
	c.send(requestSetSceneItemEnabled, map[string]any{
		"sceneName":        scene,
		"sceneItemId":      id,
		"sceneItemEnabled": !enabled,
	})
}

// intValue accepts the integer types action data may hold after a
// round trip through JSON or CBOR.
func intValue(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), v == float64(int(v))
	default:
		return 0, false
	}
}
