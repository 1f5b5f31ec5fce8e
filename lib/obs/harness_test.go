// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/bureau-foundation/obsmenu/lib/clock"
	"github.com/bureau-foundation/obsmenu/lib/menu"
	"github.com/bureau-foundation/obsmenu/lib/obsws"
	"github.com/bureau-foundation/obsmenu/lib/service"
)

var testEpoch = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

// fakeConn is an in-memory obsws.Conn. Frames queued with push are
// returned by ReadFrame in order; an empty queue reads as a timeout.
type fakeConn struct {
	inbound  []any
	written  []obsws.Frame
	closed   bool
	writeErr error
}

func (f *fakeConn) push(raw string) {
	f.inbound = append(f.inbound, []byte(raw))
}

func (f *fakeConn) pushError(err error) {
	f.inbound = append(f.inbound, err)
}

func (f *fakeConn) ReadFrame(time.Duration) (obsws.Frame, error) {
	if f.closed {
		return obsws.Frame{}, net.ErrClosed
	}
	if len(f.inbound) == 0 {
		return obsws.Frame{}, obsws.ErrReadTimeout
	}
	next := f.inbound[0]
	f.inbound = f.inbound[1:]
	if err, ok := next.(error); ok {
		return obsws.Frame{}, err
	}
	return obsws.DecodeFrame(next.([]byte))
}

func (f *fakeConn) WriteFrame(op obsws.OpCode, payload any) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	data, err := obsws.EncodeFrame(op, payload)
	if err != nil {
		return err
	}
	frame, err := obsws.DecodeFrame(data)
	if err != nil {
		return err
	}
	f.written = append(f.written, frame)
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

// requests returns every op 6 frame written so far.
func (f *fakeConn) requests() []obsws.Request {
	var requests []obsws.Request
	for _, frame := range f.written {
		if frame.Op != obsws.OpRequest {
			continue
		}
		var request obsws.Request
		if err := frame.Decode(&request); err != nil {
			panic(err)
		}
		requests = append(requests, request)
	}
	return requests
}

// requestsOfType returns the op 6 frames of one request type.
func (f *fakeConn) requestsOfType(requestType string) []obsws.Request {
	var matching []obsws.Request
	for _, request := range f.requests() {
		if request.RequestType == requestType {
			matching = append(matching, request)
		}
	}
	return matching
}

// fakeDialer hands out queued connections, or err when none are left.
type fakeDialer struct {
	conns []*fakeConn
	err   error
	dials int
}

func (d *fakeDialer) Dial(context.Context, string, time.Duration) (obsws.Conn, error) {
	d.dials++
	if len(d.conns) == 0 {
		if d.err != nil {
			return nil, d.err
		}
		return nil, errors.New("connection refused")
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

// harness drives a Client step by step on the test goroutine, which
// plays the actor goroutine. The actor is never started.
type harness struct {
	t      *testing.T
	clock  *clock.FakeClock
	actor  *service.Actor
	dialer *fakeDialer
	client *Client
}

func newHarness(t *testing.T, options Options) *harness {
	t.Helper()
	fake := clock.Fake(testEpoch)
	actor := service.NewActor(ServiceName, service.ActorOptions{Clock: fake, DisplayName: DisplayName})
	dialer := &fakeDialer{}
	options.Dialer = dialer
	return &harness{
		t:      t,
		clock:  fake,
		actor:  actor,
		dialer: dialer,
		client: New(actor, options),
	}
}

func (h *harness) step() bool {
	h.t.Helper()
	progressed, err := h.client.Step(context.Background())
	if err != nil {
		h.t.Fatalf("Step: %v", err)
	}
	return progressed
}

// connect queues a connection and steps until it is dialed.
func (h *harness) connect() *fakeConn {
	h.t.Helper()
	conn := &fakeConn{}
	h.dialer.conns = append(h.dialer.conns, conn)
	h.step()
	if h.client.conn != conn {
		h.t.Fatalf("client did not dial (state %s, next attempt %v)", h.client.state, h.client.nextAttempt)
	}
	return conn
}

// deliver queues one frame and steps once to process it.
func (h *harness) deliver(conn *fakeConn, raw string) {
	h.t.Helper()
	conn.push(raw)
	if !h.step() {
		h.t.Fatalf("step did not process frame %s", raw)
	}
}

const (
	helloFrame      = `{"op":0,"d":{"obsWebSocketVersion":"5.4.2","rpcVersion":1}}`
	identifiedFrame = `{"op":2,"d":{"negotiatedRpcVersion":1}}`
)

// identify connects and completes the handshake.
func (h *harness) identify() *fakeConn {
	h.t.Helper()
	conn := h.connect()
	h.deliver(conn, helloFrame)
	h.deliver(conn, identifiedFrame)
	if h.client.state != StateIdentified {
		h.t.Fatalf("state after handshake = %s", h.client.state)
	}
	return conn
}

// respond answers the most recent request of requestType with a
// success status and responseData.
func (h *harness) respond(conn *fakeConn, requestType, responseData string) {
	h.t.Helper()
	requests := conn.requestsOfType(requestType)
	if len(requests) == 0 {
		h.t.Fatalf("no %s request was sent", requestType)
	}
	h.respondTo(conn, requests[len(requests)-1].RequestID, requestType, 100, responseData)
}

func (h *harness) respondTo(conn *fakeConn, requestID, requestType string, code int, responseData string) {
	h.t.Helper()
	h.deliver(conn, fmt.Sprintf(
		`{"op":7,"d":{"requestType":%q,"requestId":%q,"requestStatus":{"result":%t,"code":%d},"responseData":%s}}`,
		requestType, requestID, code == 100, code, responseData))
}

// event delivers a push event.
func (h *harness) event(conn *fakeConn, eventType, eventData string) {
	h.t.Helper()
	h.deliver(conn, fmt.Sprintf(`{"op":5,"d":{"eventType":%q,"eventIntent":4,"eventData":%s}}`, eventType, eventData))
}

// populate answers the initial status requests: two scenes with B
// current, two sources in B, every output off.
func (h *harness) populate(conn *fakeConn) {
	h.t.Helper()
	h.respond(conn, requestGetSceneList, `{"currentProgramSceneName":"B","scenes":[{"sceneIndex":0,"sceneName":"A"},{"sceneIndex":1,"sceneName":"B"}]}`)
	h.respond(conn, requestGetStreamStatus, `{"outputActive":false,"outputReconnecting":false,"outputSkippedFrames":0,"outputTotalFrames":0}`)
	h.respond(conn, requestGetRecordStatus, `{"outputActive":false,"outputPaused":false,"outputTimecode":"00:00:00.000"}`)
	h.respond(conn, requestGetVirtualCamStatus, `{"outputActive":false}`)
	h.respond(conn, requestGetReplayBufferStatus, `{"outputActive":false}`)
	h.respond(conn, requestGetSceneItemList, `{"sceneItems":[
		{"sceneItemId":1,"sceneItemIndex":0,"sourceName":"Background","sceneItemEnabled":true},
		{"sceneItemId":2,"sceneItemIndex":1,"sourceName":"Webcam","sceneItemEnabled":false}]}`)
}

// events drains the actor's outbound queue.
func (h *harness) events() []service.Event {
	return h.actor.DrainEvents()
}

// menuLabels returns the labels of the named menu, failing when it
// does not exist.
func (h *harness) menuLabels(name string) []string {
	h.t.Helper()
	for _, ref := range h.actor.Menus() {
		if ref.Name != name {
			continue
		}
		current, _ := h.actor.Menu(ref.ID)
		labels := make([]string, 0, len(current.Items))
		for _, item := range current.Items {
			labels = append(labels, item.Label)
		}
		return labels
	}
	h.t.Fatalf("no %s menu among %v", name, h.actor.Menus())
	return nil
}

func (h *harness) menuItem(name string, label string) (int, menu.Item) {
	h.t.Helper()
	for _, ref := range h.actor.Menus() {
		if ref.Name != name {
			continue
		}
		current, _ := h.actor.Menu(ref.ID)
		for _, item := range current.Items {
			if item.Label == label {
				return ref.ID, item
			}
		}
	}
	h.t.Fatalf("no item %q in menu %s", label, name)
	return 0, menu.Item{}
}

func notifications(events []service.Event) []string {
	var messages []string
	for _, event := range events {
		if notification, ok := event.(service.UserNotification); ok {
			messages = append(messages, notification.Message)
		}
	}
	return messages
}

func countKind[T service.Event](events []service.Event) int {
	count := 0
	for _, event := range events {
		if _, ok := event.(T); ok {
			count++
		}
	}
	return count
}
