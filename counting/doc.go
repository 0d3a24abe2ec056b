// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

// Package counting runs the sequential counting session: the
// submission arbiter validates inbound messages against the stored
// sequence and relays them in normalized form, and the idle scheduler
// keeps the count moving when the channel goes quiet. Both routes
// share one advisory guard so their side effects never interleave on
// the target channel.
package counting
