// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/qudah-works/qudah/control"
	"github.com/qudah-works/qudah/lib/codec"
	"github.com/qudah-works/qudah/store"
)

// registerControlActions wires the admin actions onto the control
// server. shutdown cancels the daemon's root context.
func (b *bot) registerControlActions(server *control.Server, shutdown context.CancelFunc) {
	server.Handle(control.ActionStatus, func(ctx context.Context, raw []byte) (any, error) {
		snapshot := b.store.Read()
		return control.StatusResponse{
			PreviousValue:     snapshot.Sequence.PreviousValue,
			PreviousUser:      snapshot.Sequence.PreviousUser,
			PreviousTimestamp: snapshot.Sequence.PreviousTimestamp,
			Categories:        snapshot.Roles.Names(),
			StorePath:         b.store.Path(),
		}, nil
	})

	server.Handle(control.ActionSave, func(ctx context.Context, raw []byte) (any, error) {
		if err := b.store.Save(); err != nil {
			return nil, err
		}
		b.logger.Info("store saved via control socket")
		return nil, nil
	})

	server.Handle(control.ActionReset, func(ctx context.Context, raw []byte) (any, error) {
		var request control.ResetRequest
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		if _, err := b.store.Update(func(s *store.Snapshot) {
			value := request.Value
			s.Sequence.PreviousValue = &value
			s.Sequence.PreviousUser = ""
			s.Sequence.PreviousTimestamp = b.clock.Now().UnixMilli()
		}); err != nil {
			return nil, err
		}
		b.logger.Info("sequence reset via control socket", "value", request.Value)
		return nil, nil
	})

	server.Handle(control.ActionShutdown, func(ctx context.Context, raw []byte) (any, error) {
		b.logger.Info("shutdown requested via control socket")
		shutdown()
		return nil, nil
	})
}
