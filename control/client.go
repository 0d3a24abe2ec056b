// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"fmt"
	"net"

	"github.com/qudah-works/qudah/lib/codec"
)

// Do sends one request to the daemon's control socket and returns the
// raw data payload of a success response. request must marshal to a
// CBOR map carrying an "action" field.
func Do(ctx context.Context, path string, request any) (codec.RawMessage, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("control: dialing %s: %w", path, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("control: sending request: %w", err)
	}

	var reply response
	if err := codec.NewDecoder(conn).Decode(&reply); err != nil {
		return nil, fmt.Errorf("control: reading response: %w", err)
	}
	if !reply.OK {
		return nil, fmt.Errorf("control: %s", reply.Error)
	}
	return reply.Data, nil
}

// DoAction sends an action with no extra fields.
func DoAction(ctx context.Context, path, action string) (codec.RawMessage, error) {
	return Do(ctx, path, map[string]string{"action": action})
}
