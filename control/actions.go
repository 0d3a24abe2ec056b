// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package control

// Action names understood by the daemon.
const (
	// ActionStatus reports the current sequence state and catalog.
	ActionStatus = "status"
	// ActionSave flushes the store to disk.
	ActionSave = "save"
	// ActionReset sets the sequence's previous value.
	ActionReset = "reset"
	// ActionShutdown asks the daemon to exit gracefully.
	ActionShutdown = "shutdown"
)

// StatusResponse is the data payload of a status reply.
type StatusResponse struct {
	PreviousValue     *int64   `cbor:"previous_value,omitempty"`
	PreviousUser      string   `cbor:"previous_user,omitempty"`
	PreviousTimestamp int64    `cbor:"previous_timestamp,omitempty"`
	Categories        []string `cbor:"categories,omitempty"`
	StorePath         string   `cbor:"store_path"`
}

// ResetRequest carries the value a reset sets the sequence to.
type ResetRequest struct {
	Action string `cbor:"action"`
	Value  int64  `cbor:"value"`
}
