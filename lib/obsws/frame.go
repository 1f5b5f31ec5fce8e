// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obsws

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedFrame is returned for data that is not a protocol frame.
var ErrMalformedFrame = errors.New("obsws: malformed frame")

// Frame is one protocol message with its payload still encoded.
type Frame struct {
	Op OpCode          `json:"op"`
	D  json.RawMessage `json:"d"`
}

// rawFrame distinguishes a missing "op" from op 0.
type rawFrame struct {
	Op *OpCode         `json:"op"`
	D  json.RawMessage `json:"d"`
}

// DecodeFrame parses one frame. The payload is checked to be a JSON
// object but not decoded.
func DecodeFrame(data []byte) (Frame, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if raw.Op == nil {
		return Frame{}, fmt.Errorf("%w: missing op", ErrMalformedFrame)
	}
	payload := bytes.TrimSpace(raw.D)
	if len(payload) == 0 || payload[0] != '{' {
		return Frame{}, fmt.Errorf("%w: op %d payload is not an object", ErrMalformedFrame, int(*raw.Op))
	}
	return Frame{Op: *raw.Op, D: raw.D}, nil
}

// EncodeFrame wraps payload in a frame envelope.
func EncodeFrame(op OpCode, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding op %d payload: %w", int(op), err)
	}
	return json.Marshal(Frame{Op: op, D: data})
}

// Decode unmarshals the payload into v.
func (f Frame) Decode(v any) error {
	if err := json.Unmarshal(f.D, v); err != nil {
		return fmt.Errorf("%w: decoding %s payload: %v", ErrMalformedFrame, f.Op, err)
	}
	return nil
}
