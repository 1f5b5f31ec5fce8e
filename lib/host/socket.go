// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/obsmenu/lib/codec"
	"github.com/bureau-foundation/obsmenu/lib/service"
)

// Control socket actions.
const (
	ActionServices      = "services"
	ActionMenus         = "menus"
	ActionItems         = "items"
	ActionActivate      = "activate"
	ActionRefresh       = "refresh"
	ActionNotifications = "notifications"
)

// itemsTimeout bounds how long an items request waits for the actor.
const itemsTimeout = 5 * time.Second

// controlRequest holds every field a control action reads. Each action
// ignores the fields it does not use.
type controlRequest struct {
	Service string `cbor:"service"`
	Menu    int    `cbor:"menu"`
	Index   int    `cbor:"index"`
	Label   string `cbor:"label"`
	After   uint64 `cbor:"after"`
}

type controlFunc func(ctx context.Context, request controlRequest) (any, error)

// RegisterHandlers installs the control socket actions on server.
func (h *Host) RegisterHandlers(server *service.SocketServer) {
	server.Handle(ActionServices, func(context.Context, []byte) (any, error) {
		return h.Services(), nil
	})
	server.Handle(ActionMenus, serviceAction(func(_ context.Context, request controlRequest) (any, error) {
		return h.Menus(request.Service)
	}))
	server.Handle(ActionItems, serviceAction(func(ctx context.Context, request controlRequest) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, itemsTimeout)
		defer cancel()
		return h.Items(ctx, request.Service, request.Menu)
	}))
	server.Handle(ActionActivate, serviceAction(func(_ context.Context, request controlRequest) (any, error) {
		if request.Index < 0 {
			return nil, service.WithCode(service.CodeBadRequest,
				fmt.Errorf("item index must not be negative, got %d", request.Index))
		}
		return nil, h.Activate(request.Service, request.Menu, request.Index, request.Label)
	}))
	server.Handle(ActionRefresh, serviceAction(func(_ context.Context, request controlRequest) (any, error) {
		return nil, h.Refresh(request.Service)
	}))
	server.Handle(ActionNotifications, serviceAction(func(_ context.Context, request controlRequest) (any, error) {
		return h.Notifications(request.Service, request.After)
	}))
}

// serviceAction decodes a request addressed to one service and maps
// host errors to response codes.
func serviceAction(handle controlFunc) service.ActionFunc {
	return func(ctx context.Context, raw []byte) (any, error) {
		var request controlRequest
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, service.WithCode(service.CodeBadRequest, fmt.Errorf("decoding request: %w", err))
		}
		if request.Service == "" {
			return nil, service.WithCode(service.CodeBadRequest, errors.New("service name is required"))
		}
		result, err := handle(ctx, request)
		if errors.Is(err, ErrUnknownService) || errors.Is(err, ErrUnknownMenu) {
			err = service.WithCode(service.CodeNotFound, err)
		}
		return result, err
	}
}
