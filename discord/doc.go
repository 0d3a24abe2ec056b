// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

// Package discord is a minimal Discord client covering exactly what
// the daemon needs: REST calls for messages, webhooks, members,
// roles, application commands, and interaction responses, plus a
// gateway connection that delivers message and interaction events.
//
// The REST surface lives on Client; the event stream lives on
// Gateway. Both take their collaborators (HTTP client, logger)
// through config structs and nothing in the package touches global
// state.
package discord
