// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/obsmenu/lib/clock"
	"github.com/bureau-foundation/obsmenu/lib/menu"
	"github.com/bureau-foundation/obsmenu/lib/testutil"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testService is a Service whose Step runs an optional callback and
// whose optional interfaces record what they were given.
type testService struct {
	actor     *Actor
	onStep    func(calls int) (bool, error)
	steps     atomic.Int32
	activated chan menu.Item
	handled   []string
	closed    atomic.Bool
}

func (s *testService) Step(ctx context.Context) (bool, error) {
	calls := int(s.steps.Add(1))
	s.handled = append(s.handled, "step")
	if s.onStep != nil {
		return s.onStep(calls)
	}
	return false, nil
}

func (s *testService) Activate(ctx context.Context, menuID int, item menu.Item) {
	s.activated <- item
}

type markCommand struct{ name string }

func (markCommand) Kind() string { return "mark" }

type strangeCommand struct{}

func (strangeCommand) Kind() string { return "strange" }

func (s *testService) HandleCommand(ctx context.Context, command Command) bool {
	mark, ok := command.(markCommand)
	if !ok {
		return false
	}
	s.handled = append(s.handled, mark.name)
	return true
}

func (s *testService) Close() error {
	s.closed.Store(true)
	return nil
}

func newTestActor(t *testing.T) (*Actor, *testService) {
	t.Helper()
	actor := NewActor("test", ActorOptions{Clock: clock.Fake(testEpoch)})
	service := &testService{actor: actor, activated: make(chan menu.Item, 1)}
	return actor, service
}

func startActor(t *testing.T, actor *Actor, service Service) {
	t.Helper()
	if err := actor.Start(t.Context(), service); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(actor.Terminate)
}

// waitForEvent pops events until match accepts one and returns all
// popped events.
func waitForEvent(t *testing.T, actor *Actor, match func(Event) bool) []Event {
	t.Helper()
	return testutil.CollectUntil(t, actor.NextEvent, match, 5*time.Second, "waiting for actor event")
}

func countLogs(events []Event, level slog.Level) int {
	count := 0
	for _, event := range events {
		if log, ok := event.(Log); ok && log.Level == level {
			count++
		}
	}
	return count
}

func TestActorTerminateIsSynchronous(t *testing.T) {
	actor, service := newTestActor(t)
	if err := actor.Start(context.Background(), service); err != nil {
		t.Fatalf("Start: %v", err)
	}

	actor.Terminate()

	testutil.RequireClosed(t, actor.Done(), time.Second, "Done after Terminate")
	if !service.closed.Load() {
		t.Error("service Close did not run before Terminate returned")
	}
	if err := actor.Post(MenuListRequest{}); !errors.Is(err, ErrActorStopped) {
		t.Errorf("Post after Terminate = %v, want ErrActorStopped", err)
	}

	// A second Terminate returns immediately.
	actor.Terminate()
}

func TestActorTerminateWithoutStart(t *testing.T) {
	actor, _ := newTestActor(t)
	actor.Terminate()
	if err := actor.Post(Quit{}); !errors.Is(err, ErrActorStopped) {
		t.Errorf("Post after Terminate = %v, want ErrActorStopped", err)
	}
}

func TestActorStartTwice(t *testing.T) {
	actor, service := newTestActor(t)
	startActor(t, actor, service)
	if err := actor.Start(t.Context(), service); err == nil {
		t.Fatal("second Start succeeded")
	}
}

func TestActorHandlesOneCommandPerStep(t *testing.T) {
	actor, service := newTestActor(t)
	for _, name := range []string{"a", "b", "c"} {
		actor.Post(markCommand{name: name})
	}
	startActor(t, actor, service)
	actor.Terminate()

	want := []string{"a", "step", "b", "step", "c", "step"}
	if len(service.handled) < len(want) {
		t.Fatalf("handled = %v, want prefix %v", service.handled, want)
	}
	for index := range want {
		if service.handled[index] != want[index] {
			t.Fatalf("handled = %v, want prefix %v", service.handled, want)
		}
	}
}

func TestActorStepErrorDisablesStepping(t *testing.T) {
	actor, service := newTestActor(t)
	service.onStep = func(int) (bool, error) {
		return false, errors.New("snapshot corrupted")
	}
	startActor(t, actor, service)

	events := waitForEvent(t, actor, func(event Event) bool {
		_, ok := event.(Log)
		return ok
	})
	log := events[len(events)-1].(Log)
	if log.Level != slog.LevelError || !strings.Contains(log.Message, "snapshot corrupted") {
		t.Fatalf("log event = %+v", log)
	}

	// Commands are still drained after stepping is disabled.
	actor.Post(MenuListRequest{})
	events = waitForEvent(t, actor, func(event Event) bool {
		_, ok := event.(MenuListChanged)
		return ok
	})
	if countLogs(events, slog.LevelError) != 0 {
		t.Errorf("further error logs after stepping was disabled: %v", events)
	}
	if steps := service.steps.Load(); steps != 1 {
		t.Errorf("Step called %d times, want 1", steps)
	}
}

func TestActorStepPanicIsContained(t *testing.T) {
	actor, service := newTestActor(t)
	service.onStep = func(int) (bool, error) {
		panic("nil snapshot")
	}
	startActor(t, actor, service)

	events := waitForEvent(t, actor, func(event Event) bool {
		_, ok := event.(Log)
		return ok
	})
	log := events[len(events)-1].(Log)
	if log.Level != slog.LevelError || !strings.Contains(log.Message, "panicked") {
		t.Fatalf("log event = %+v", log)
	}

	actor.Terminate()
	if steps := service.steps.Load(); steps != 1 {
		t.Errorf("Step called %d times after panic, want 1", steps)
	}
}

func TestActorMenuCommands(t *testing.T) {
	actor, service := newTestActor(t)
	service.onStep = func(calls int) (bool, error) {
		if calls == 1 {
			actor.AddMenu("Scenes", []menu.Item{
				menu.Info("Scenes"),
				{Label: "Main", Action: "switch_scene", ActionData: map[string]any{"sceneName": "Main"}},
			})
		}
		return false, nil
	}
	startActor(t, actor, service)

	events := waitForEvent(t, actor, func(event Event) bool {
		_, ok := event.(MenuListChanged)
		return ok
	})
	list := events[len(events)-1].(MenuListChanged)
	if len(list.Menus) != 1 || list.Menus[0].Name != "Scenes" {
		t.Fatalf("MenuListChanged = %+v", list)
	}
	menuID := list.Menus[0].ID

	actor.Post(MenuGetItems{MenuID: menuID})
	events = waitForEvent(t, actor, func(event Event) bool {
		_, ok := event.(MenuItemsList)
		return ok
	})
	items := events[len(events)-1].(MenuItemsList)
	if !items.Found || len(items.Menu.Items) != 2 || items.Menu.Items[1].Label != "Main" {
		t.Fatalf("MenuItemsList = %+v", items)
	}

	actor.Post(MenuGetItems{MenuID: 42})
	events = waitForEvent(t, actor, func(event Event) bool {
		_, ok := event.(MenuItemsList)
		return ok
	})
	if missing := events[len(events)-1].(MenuItemsList); missing.Found || missing.Menu.ID != 42 {
		t.Fatalf("MenuItemsList for unknown menu = %+v", missing)
	}

	// The informational row is not handed to the service.
	actor.Post(MenuActivate{MenuID: menuID, ItemIndex: 0})
	actor.Post(MenuActivate{MenuID: menuID, ItemIndex: 1})
	activated := testutil.RequireReceive(t, service.activated, 5*time.Second, "waiting for activation")
	if activated.Action != "switch_scene" || activated.ActionData["sceneName"] != "Main" {
		t.Fatalf("activated item = %+v", activated)
	}

	// An expected label that no longer matches refuses the activation.
	actor.Post(MenuActivate{MenuID: menuID, ItemIndex: 1, Label: "Intro"})
	waitForEvent(t, actor, func(event Event) bool {
		log, ok := event.(Log)
		return ok && strings.Contains(log.Message, "menu item changed before activation")
	})
	select {
	case item := <-service.activated:
		t.Fatalf("activated %+v despite a label mismatch", item)
	default:
	}

	actor.Post(MenuActivate{MenuID: menuID, ItemIndex: 1, Label: "Main"})
	testutil.RequireReceive(t, service.activated, 5*time.Second, "waiting for activation with matching label")
}

func TestActorUnhandledCommandLogsOnce(t *testing.T) {
	actor, service := newTestActor(t)
	startActor(t, actor, service)

	actor.Post(strangeCommand{})
	events := waitForEvent(t, actor, func(event Event) bool {
		_, ok := event.(Log)
		return ok
	})
	log := events[len(events)-1].(Log)
	if log.Level != slog.LevelWarn || !strings.Contains(log.Message, "command=strange") {
		t.Fatalf("log event = %+v", log)
	}
}

func TestActorMenuPrimitives(t *testing.T) {
	// The primitives are exercised without a running loop; the test
	// goroutine plays the actor goroutine.
	actor, _ := newTestActor(t)

	scenes := actor.AddMenu("Scenes", nil)
	sources := actor.AddMenu("", nil)

	if !actor.SetMenuItems(sources, []menu.Item{menu.Info("Mic")}) {
		t.Fatal("first SetMenuItems reported unchanged")
	}
	if actor.SetMenuItems(sources, []menu.Item{menu.Info("Mic")}) {
		t.Fatal("identical SetMenuItems reported changed")
	}
	if actor.SetMenuItems(99, nil) {
		t.Fatal("SetMenuItems on unknown menu reported changed")
	}
	actor.RemoveMenu(scenes)
	actor.ClearMenus()
	actor.ClearMenus()

	var kinds []string
	var updates []MenuUpdate
	for _, event := range actor.DrainEvents() {
		kinds = append(kinds, event.Kind())
		if update, ok := event.(MenuUpdate); ok {
			updates = append(updates, update)
		}
	}

	want := []string{
		"menu_list_changed", // add Scenes
		"log",               // empty name
		"menu_list_changed", // add "menu 2"
		"menu_update",       // first SetMenuItems
		"log",               // unknown menu
		"menu_list_changed", // remove Scenes
		"menu_list_changed", // clear
	}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Fatalf("event kinds = %v\nwant %v", kinds, want)
	}
	if len(updates) != 1 || updates[0].Menu.Name != "menu 2" || updates[0].Menu.Items[0].Label != "Mic" {
		t.Fatalf("updates = %+v", updates)
	}
}

func TestActorAvailability(t *testing.T) {
	actor, _ := newTestActor(t)
	if actor.Available() {
		t.Fatal("new actor reported available")
	}
	actor.Emit(Ready{})
	if !actor.Available() {
		t.Fatal("actor not available after Ready")
	}
	actor.Emit(Disconnected{})
	if actor.Available() {
		t.Fatal("actor available after Disconnected")
	}
}
