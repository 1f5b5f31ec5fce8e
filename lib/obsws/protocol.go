// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obsws

import (
	"encoding/json"
	"fmt"
)

// OpCode identifies the payload type of a frame.
type OpCode int

const (
	OpHello                OpCode = 0
	OpIdentify             OpCode = 1
	OpIdentified           OpCode = 2
	OpReidentify           OpCode = 3
	OpEvent                OpCode = 5
	OpRequest              OpCode = 6
	OpRequestResponse      OpCode = 7
	OpRequestBatch         OpCode = 8
	OpRequestBatchResponse OpCode = 9
)

func (op OpCode) String() string {
	switch op {
	case OpHello:
		return "Hello"
	case OpIdentify:
		return "Identify"
	case OpIdentified:
		return "Identified"
	case OpReidentify:
		return "Reidentify"
	case OpEvent:
		return "Event"
	case OpRequest:
		return "Request"
	case OpRequestResponse:
		return "RequestResponse"
	case OpRequestBatch:
		return "RequestBatch"
	case OpRequestBatchResponse:
		return "RequestBatchResponse"
	default:
		return fmt.Sprintf("OpCode(%d)", int(op))
	}
}

// RPCVersion is the protocol version sent in Identify.
const RPCVersion = 1

// Subprotocol is the WebSocket subprotocol for JSON encoding.
const Subprotocol = "obswebsocket.json"

// EventSubscription is the bitmask in Identify selecting which event
// categories the peer sends.
type EventSubscription uint32

const (
	SubscribeGeneral     EventSubscription = 1 << 0
	SubscribeConfig      EventSubscription = 1 << 1
	SubscribeScenes      EventSubscription = 1 << 2
	SubscribeInputs      EventSubscription = 1 << 3
	SubscribeTransitions EventSubscription = 1 << 4
	SubscribeFilters     EventSubscription = 1 << 5
	SubscribeOutputs     EventSubscription = 1 << 6
	SubscribeSceneItems  EventSubscription = 1 << 7
	SubscribeMediaInputs EventSubscription = 1 << 8
	SubscribeVendors     EventSubscription = 1 << 9
	SubscribeUI          EventSubscription = 1 << 10

	// DefaultSubscriptions covers everything the menus display: 197.
	DefaultSubscriptions = SubscribeGeneral | SubscribeScenes | SubscribeOutputs | SubscribeSceneItems
)

// StatusSuccess is the request status code of a successful request.
const StatusSuccess = 100

// Hello is the op 0 payload sent by the peer on connect.
type Hello struct {
	ObsWebSocketVersion string         `json:"obsWebSocketVersion"`
	RPCVersion          int            `json:"rpcVersion"`
	Authentication      *AuthChallenge `json:"authentication,omitempty"`
}

// AuthChallenge is present in Hello when the peer requires a password.
type AuthChallenge struct {
	Challenge string `json:"challenge"`
	Salt      string `json:"salt"`
}

// Identify is the op 1 payload answering Hello.
type Identify struct {
	RPCVersion         int               `json:"rpcVersion"`
	Authentication     string            `json:"authentication,omitempty"`
	EventSubscriptions EventSubscription `json:"eventSubscriptions"`
}

// Identified is the op 2 payload confirming the session.
type Identified struct {
	NegotiatedRPCVersion int `json:"negotiatedRpcVersion"`
}

// Event is the op 5 payload.
type Event struct {
	EventType   string          `json:"eventType"`
	EventIntent int             `json:"eventIntent,omitempty"`
	EventData   json.RawMessage `json:"eventData,omitempty"`
}

// Request is the op 6 payload. RequestData is omitted when empty.
type Request struct {
	RequestType string         `json:"requestType"`
	RequestID   string         `json:"requestId"`
	RequestData map[string]any `json:"requestData,omitempty"`
}

// RequestStatus reports the outcome of a request.
type RequestStatus struct {
	Result  bool   `json:"result"`
	Code    int    `json:"code"`
	Comment string `json:"comment,omitempty"`
}

// RequestResponse is the op 7 payload.
type RequestResponse struct {
	RequestType   string          `json:"requestType"`
	RequestID     string          `json:"requestId"`
	RequestStatus RequestStatus   `json:"requestStatus"`
	ResponseData  json.RawMessage `json:"responseData,omitempty"`
}

// Err returns nil for a successful response and a
// *RequestStatusError otherwise.
func (r RequestResponse) Err() error {
	if r.RequestStatus.Code == StatusSuccess {
		return nil
	}
	return &RequestStatusError{
		RequestType: r.RequestType,
		Code:        r.RequestStatus.Code,
		Comment:     r.RequestStatus.Comment,
	}
}

// RequestStatusError is a request the peer answered with a non-success
// status code.
type RequestStatusError struct {
	RequestType string
	Code        int
	Comment     string
}

func (e *RequestStatusError) Error() string {
	if e.Comment == "" {
		return fmt.Sprintf("%s failed with status %d", e.RequestType, e.Code)
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.RequestType, e.Code, e.Comment)
}
