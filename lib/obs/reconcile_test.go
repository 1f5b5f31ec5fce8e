// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obs

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/bureau-foundation/obsmenu/lib/service"
)

const (
	streamStarted = `{"outputActive":true,"outputState":"OBS_WEBSOCKET_OUTPUT_STARTED"}`
	streamStopped = `{"outputActive":false,"outputState":"OBS_WEBSOCKET_OUTPUT_STOPPED"}`
)

func TestVisibilityToggleUpdatesOnlySources(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.populate(conn)
	if got, want := h.menuLabels(MenuSources), []string{"Webcam (hidden)", "Background"}; !slices.Equal(got, want) {
		t.Fatalf("source labels = %q, want %q", got, want)
	}
	h.events()

	h.event(conn, "SceneItemEnableStateChanged", `{"sceneName":"B","sceneItemId":2,"sceneItemEnabled":true}`)

	var updates []service.MenuUpdate
	for _, event := range h.events() {
		if update, ok := event.(service.MenuUpdate); ok {
			updates = append(updates, update)
		}
	}
	if len(updates) != 1 {
		t.Fatalf("got %d MenuUpdate events, want 1", len(updates))
	}
	if updates[0].Menu.Name != MenuSources {
		t.Errorf("updated menu %q, want %q", updates[0].Menu.Name, MenuSources)
	}
	if got, want := h.menuLabels(MenuSources), []string{"Webcam", "Background"}; !slices.Equal(got, want) {
		t.Errorf("source labels = %q, want %q", got, want)
	}
	if n := len(conn.requestsOfType(requestGetSceneItemList)); n != 1 {
		t.Errorf("known item change refetched the list (%d requests)", n)
	}
}

func TestVisibilityOfUnknownItemRefetches(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.populate(conn)
	h.events()

	h.event(conn, "SceneItemEnableStateChanged", `{"sceneName":"B","sceneItemId":9,"sceneItemEnabled":true}`)

	if n := countKind[service.MenuUpdate](h.events()); n != 0 {
		t.Errorf("unknown item produced %d MenuUpdate events", n)
	}
	if n := len(conn.requestsOfType(requestGetSceneItemList)); n != 2 {
		t.Errorf("GetSceneItemList sent %d times, want a refetch", n)
	}
}

func TestVisibilityUnchangedIsSilent(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.populate(conn)
	h.events()

	h.event(conn, "SceneItemEnableStateChanged", `{"sceneName":"B","sceneItemId":1,"sceneItemEnabled":true}`)
	h.event(conn, "SceneItemEnableStateChanged", `{"sceneName":"A","sceneItemId":1,"sceneItemEnabled":false}`)

	if n := countKind[service.MenuUpdate](h.events()); n != 0 {
		t.Errorf("no-op visibility events produced %d MenuUpdate events", n)
	}
}

func TestSceneItemStructureChangesRefetch(t *testing.T) {
	for _, eventType := range []string{"SceneItemCreated", "SceneItemRemoved", "SceneItemListReindexed"} {
		t.Run(eventType, func(t *testing.T) {
			h := newHarness(t, Options{})
			conn := h.identify()
			h.populate(conn)

			h.event(conn, eventType, `{"sceneName":"A"}`)
			if n := len(conn.requestsOfType(requestGetSceneItemList)); n != 1 {
				t.Errorf("change in another scene refetched (%d requests)", n)
			}

			h.event(conn, eventType, `{"sceneName":"B"}`)
			if n := len(conn.requestsOfType(requestGetSceneItemList)); n != 2 {
				t.Errorf("GetSceneItemList sent %d times, want 2", n)
			}
		})
	}
}

func TestSceneChange(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.populate(conn)
	h.events()

	h.event(conn, "CurrentProgramSceneChanged", `{"sceneName":"A"}`)

	events := h.events()
	if got := notifications(events); !slices.Equal(got, []string{"Scene: A"}) {
		t.Errorf("scene change announced %q", got)
	}
	if got, want := h.menuLabels(MenuScenes), []string{"B", "A (current)"}; !slices.Equal(got, want) {
		t.Errorf("scene labels = %q, want %q", got, want)
	}
	itemRequests := conn.requestsOfType(requestGetSceneItemList)
	if len(itemRequests) != 2 || itemRequests[1].RequestData["sceneName"] != "A" {
		t.Fatalf("item list requests = %v, want a second one for A", itemRequests)
	}

	h.event(conn, "CurrentProgramSceneChanged", `{"sceneName":"A"}`)
	if got := notifications(h.events()); len(got) != 0 {
		t.Errorf("repeated scene announced %q", got)
	}
}

func TestSceneChangeForgetsPreviousSources(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.populate(conn)
	h.events()

	h.event(conn, "CurrentProgramSceneChanged", `{"sceneName":"A"}`)
	if got, want := h.menuLabels(MenuSources), []string{"Loading sources of A"}; !slices.Equal(got, want) {
		t.Errorf("source labels after switch = %q, want %q", got, want)
	}
	if h.client.snapshot.sourcesKnown || len(h.client.snapshot.sources) != 0 {
		t.Errorf("sources of B kept after switching to A: %+v", h.client.snapshot.sources)
	}

	// A failed item list request is not retried; the placeholder stays
	// rather than B's sources coming back.
	itemRequests := conn.requestsOfType(requestGetSceneItemList)
	h.respondTo(conn, itemRequests[len(itemRequests)-1].RequestID, requestGetSceneItemList, 600, `{}`)
	if got, want := h.menuLabels(MenuSources), []string{"Loading sources of A"}; !slices.Equal(got, want) {
		t.Errorf("source labels after failed fetch = %q, want %q", got, want)
	}

	// A visibility event while the list is unknown changes nothing.
	before := len(conn.requestsOfType(requestGetSceneItemList))
	h.event(conn, "SceneItemEnableStateChanged", `{"sceneName":"A","sceneItemId":1,"sceneItemEnabled":false}`)
	if after := len(conn.requestsOfType(requestGetSceneItemList)); after != before {
		t.Errorf("visibility event with unknown sources sent %d item list requests", after-before)
	}
}

func TestSourceRowOfPreviousSceneRefused(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.populate(conn)
	menuID, item := h.menuItem(MenuSources, "Background")

	h.event(conn, "CurrentProgramSceneChanged", `{"sceneName":"A"}`)
	h.client.Activate(context.Background(), menuID, item)

	if requests := conn.requestsOfType(requestSetSceneItemEnabled); len(requests) != 0 {
		t.Errorf("toggled a source of B while A is current: %v", requests[0].RequestData)
	}

	h.respond(conn, requestGetSceneItemList,
		`{"sceneItems":[{"sceneItemId":4,"sceneItemIndex":0,"sourceName":"Slides","sceneItemEnabled":true}]}`)
	menuID, item = h.menuItem(MenuSources, "Slides")
	h.client.Activate(context.Background(), menuID, item)
	requests := conn.requestsOfType(requestSetSceneItemEnabled)
	if len(requests) != 1 || requests[0].RequestData["sceneName"] != "A" {
		t.Errorf("SetSceneItemEnabled requests = %v, want one for A", requests)
	}
}

func TestItemListOfPreviousSceneDropped(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.respond(conn, requestGetSceneList, `{"currentProgramSceneName":"B","scenes":[{"sceneIndex":0,"sceneName":"A"},{"sceneIndex":1,"sceneName":"B"}]}`)
	staleRequest := conn.requestsOfType(requestGetSceneItemList)[0]

	h.event(conn, "CurrentProgramSceneChanged", `{"sceneName":"A"}`)
	h.respondTo(conn, staleRequest.RequestID, requestGetSceneItemList, 100,
		`{"sceneItems":[{"sceneItemId":1,"sceneItemIndex":0,"sourceName":"Background","sceneItemEnabled":true}]}`)
	if h.client.menus.sources != 0 {
		t.Fatal("item list for the previous scene was published")
	}

	h.respond(conn, requestGetSceneItemList,
		`{"sceneItems":[{"sceneItemId":7,"sceneItemIndex":0,"sourceName":"Slides","sceneItemEnabled":true}]}`)
	if got, want := h.menuLabels(MenuSources), []string{"Slides"}; !slices.Equal(got, want) {
		t.Errorf("source labels = %q, want %q", got, want)
	}
}

func TestSceneListChanged(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.populate(conn)

	h.event(conn, "SceneListChanged", `{"scenes":[{"sceneIndex":0,"sceneName":"A"},{"sceneIndex":1,"sceneName":"B"},{"sceneIndex":2,"sceneName":"C"}]}`)

	if got, want := h.menuLabels(MenuScenes), []string{"C", "B (current)", "A"}; !slices.Equal(got, want) {
		t.Errorf("scene labels = %q, want %q", got, want)
	}
}

func TestEmptyMenus(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.respond(conn, requestGetSceneList, `{"currentProgramSceneName":"Only","scenes":[{"sceneIndex":0,"sceneName":"Only"}]}`)
	h.respond(conn, requestGetSceneItemList, `{"sceneItems":[]}`)

	if got, want := h.menuLabels(MenuSources), []string{"No sources in Only"}; !slices.Equal(got, want) {
		t.Errorf("source labels = %q, want %q", got, want)
	}

	h.event(conn, "SceneListChanged", `{"scenes":[]}`)
	if got, want := h.menuLabels(MenuScenes), []string{"No scenes"}; !slices.Equal(got, want) {
		t.Errorf("scene labels = %q, want %q", got, want)
	}
}

func TestInitialStatusIsSilent(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.respond(conn, requestGetStreamStatus, `{"outputActive":true,"outputReconnecting":false,"outputSkippedFrames":3,"outputTotalFrames":900}`)
	h.respond(conn, requestGetRecordStatus, `{"outputActive":true,"outputPaused":true,"outputTimecode":"00:01:00.000"}`)
	h.respond(conn, requestGetVirtualCamStatus, `{"outputActive":true}`)
	h.respond(conn, requestGetReplayBufferStatus, `{"outputActive":true}`)

	if got := notifications(h.events()); len(got) != 0 {
		t.Errorf("first observation of outputs announced %q", got)
	}
	want := []string{
		"Stream: live",
		"Skipped frames: 3",
		"Recording: paused",
		"Resume recording",
		"Virtual camera: on",
		"Replay buffer: on",
		"Save replay",
	}
	if got := h.menuLabels(MenuOutputs); !slices.Equal(got, want) {
		t.Errorf("output labels = %q, want %q", got, want)
	}
}

func TestOutputsUnknownUntilReported(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.respond(conn, requestGetVirtualCamStatus, `{"outputActive":false}`)

	want := []string{"Stream: unknown", "Recording: unknown", "Virtual camera: off", "Replay buffer: unknown"}
	if got := h.menuLabels(MenuOutputs); !slices.Equal(got, want) {
		t.Errorf("output labels = %q, want %q", got, want)
	}
}

func TestOutputTransitionsAnnounced(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.populate(conn)
	h.events()

	steps := []struct {
		eventType string
		data      string
		announced string
	}{
		{"StreamStateChanged", streamStarted, "Stream started"},
		{"StreamStateChanged", `{"outputActive":true,"outputState":"OBS_WEBSOCKET_OUTPUT_RECONNECTING"}`, "Stream reconnecting"},
		{"StreamStateChanged", `{"outputActive":true,"outputState":"OBS_WEBSOCKET_OUTPUT_RECONNECTED"}`, "Stream reconnected"},
		{"StreamStateChanged", streamStopped, "Stream stopped"},
		{"RecordStateChanged", `{"outputActive":true,"outputState":"OBS_WEBSOCKET_OUTPUT_STARTED"}`, "Recording started"},
		{"RecordStateChanged", `{"outputActive":true,"outputState":"OBS_WEBSOCKET_OUTPUT_PAUSED"}`, "Recording paused"},
		{"RecordStateChanged", `{"outputActive":true,"outputState":"OBS_WEBSOCKET_OUTPUT_RESUMED"}`, "Recording resumed"},
		{"RecordStateChanged", `{"outputActive":false,"outputState":"OBS_WEBSOCKET_OUTPUT_STOPPED"}`, "Recording stopped"},
		{"VirtualcamStateChanged", `{"outputActive":true,"outputState":"OBS_WEBSOCKET_OUTPUT_STARTED"}`, "Virtual camera started"},
		{"VirtualcamStateChanged", `{"outputActive":false,"outputState":"OBS_WEBSOCKET_OUTPUT_STOPPED"}`, "Virtual camera stopped"},
		{"ReplayBufferStateChanged", `{"outputActive":true,"outputState":"OBS_WEBSOCKET_OUTPUT_STARTED"}`, "Replay buffer started"},
		{"ReplayBufferSaved", `{"savedReplayPath":"/tmp/replay.mkv"}`, "Replay saved"},
		{"ReplayBufferStateChanged", `{"outputActive":false,"outputState":"OBS_WEBSOCKET_OUTPUT_STOPPED"}`, "Replay buffer stopped"},
	}
	for _, step := range steps {
		h.event(conn, step.eventType, step.data)
		if got := notifications(h.events()); !slices.Equal(got, []string{step.announced}) {
			t.Errorf("%s %s announced %q, want %q", step.eventType, step.data, got, step.announced)
		}
	}

	// Transitional states change nothing.
	h.event(conn, "StreamStateChanged", `{"outputActive":false,"outputState":"OBS_WEBSOCKET_OUTPUT_STARTING"}`)
	if got := notifications(h.events()); len(got) != 0 {
		t.Errorf("transitional state announced %q", got)
	}
}

func TestRecordingMenuRows(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.populate(conn)

	h.event(conn, "RecordStateChanged", `{"outputActive":true,"outputState":"OBS_WEBSOCKET_OUTPUT_STARTED"}`)
	want := []string{"Stream: off", "Recording: on", "Pause recording", "Virtual camera: off", "Replay buffer: off"}
	if got := h.menuLabels(MenuOutputs); !slices.Equal(got, want) {
		t.Errorf("output labels = %q, want %q", got, want)
	}

	h.event(conn, "RecordStateChanged", `{"outputActive":true,"outputState":"OBS_WEBSOCKET_OUTPUT_PAUSED"}`)
	want = []string{"Stream: off", "Recording: paused", "Resume recording", "Virtual camera: off", "Replay buffer: off"}
	if got := h.menuLabels(MenuOutputs); !slices.Equal(got, want) {
		t.Errorf("output labels = %q, want %q", got, want)
	}
}

func TestLaterReportWins(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.populate(conn)

	h.event(conn, "StreamStateChanged", streamStarted)
	h.step()
	h.respond(conn, requestGetStreamStatus, `{"outputActive":false,"outputReconnecting":false,"outputSkippedFrames":0,"outputTotalFrames":0}`)

	if h.client.snapshot.stream.on {
		t.Error("stream still live after a later status report said otherwise")
	}
	if got := h.menuLabels(MenuOutputs)[0]; got != "Stream: off" {
		t.Errorf("stream label = %q", got)
	}
}

func TestSkippedFramesPolledAndThrottled(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.populate(conn)

	h.event(conn, "StreamStateChanged", streamStarted)
	h.step()
	polls := conn.requestsOfType(requestGetStreamStatus)
	if len(polls) != 2 {
		t.Fatalf("stream start sent %d status requests in total, want an immediate poll", len(polls))
	}
	status := func(skipped int) string {
		return fmt.Sprintf(`{"outputActive":true,"outputReconnecting":false,"outputTimecode":"00:00:05.000","outputSkippedFrames":%d,"outputTotalFrames":300}`, skipped)
	}
	h.respond(conn, requestGetStreamStatus, status(0))
	h.events()

	h.clock.Advance(DefaultStatusPollInterval - time.Millisecond)
	h.step()
	if n := len(conn.requestsOfType(requestGetStreamStatus)); n != 2 {
		t.Fatalf("polled before the interval elapsed (%d requests)", n)
	}

	// t=5s: first skip is announced.
	h.clock.Advance(time.Millisecond)
	h.step()
	h.respond(conn, requestGetStreamStatus, status(10))
	if got := notifications(h.events()); !slices.Equal(got, []string{"10 frames skipped"}) {
		t.Errorf("first skip announced %q", got)
	}
	if got := h.menuLabels(MenuOutputs)[1]; got != "Skipped frames: 10" {
		t.Errorf("frames row = %q", got)
	}

	// t=10s: within the throttle interval.
	h.clock.Advance(DefaultStatusPollInterval)
	h.step()
	h.respond(conn, requestGetStreamStatus, status(15))
	if got := notifications(h.events()); len(got) != 0 {
		t.Errorf("second skip within the interval announced %q", got)
	}

	// t=15s: ten seconds after the first announcement.
	h.clock.Advance(DefaultStatusPollInterval)
	h.step()
	h.respond(conn, requestGetStreamStatus, status(20))
	if got := notifications(h.events()); !slices.Equal(got, []string{"5 frames skipped"}) {
		t.Errorf("skip after the interval announced %q", got)
	}

	h.event(conn, "StreamStateChanged", streamStopped)
	h.clock.Advance(DefaultStatusPollInterval)
	h.step()
	if n := len(conn.requestsOfType(requestGetStreamStatus)); n != 5 {
		t.Errorf("polled after the stream stopped (%d requests)", n)
	}
	if h.client.snapshot.framesKnown {
		t.Error("frame counters survived the stream stopping")
	}
}

func TestUnknownEventIgnored(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.populate(conn)
	h.events()

	h.event(conn, "InputVolumeMeters", `{"inputs":[]}`)

	events := h.events()
	if len(events) != 1 || countKind[service.Log](events) != 1 {
		t.Errorf("unknown event produced %v, want one Log", events)
	}
	if h.client.state != StateIdentified {
		t.Errorf("state = %s after unknown event", h.client.state)
	}
}

func TestUndecodableEventDataKeepsConnection(t *testing.T) {
	h := newHarness(t, Options{})
	conn := h.identify()
	h.populate(conn)

	h.event(conn, "CurrentProgramSceneChanged", `{"sceneName":42}`)

	if h.client.state != StateIdentified {
		t.Errorf("state = %s after undecodable event data", h.client.state)
	}
	if h.client.snapshot.currentScene != "B" {
		t.Errorf("current scene = %q", h.client.snapshot.currentScene)
	}
}
