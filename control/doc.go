// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

// Package control implements the daemon's admin surface: a CBOR
// request-response protocol on a unix socket, one cycle per
// connection. The daemon registers action handlers and serves;
// qudah-ctl is the client.
package control
