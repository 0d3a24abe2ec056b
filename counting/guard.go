// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package counting

import "sync/atomic"

// Guard is a non-blocking, non-queueing advisory guard over the
// counting channel. A holder that finds it taken backs off instead of
// waiting; overlapping submissions are rejected, not serialized.
type Guard struct {
	held atomic.Bool
}

// TryAcquire takes the guard if it is free. It never blocks.
func (g *Guard) TryAcquire() bool {
	return g.held.CompareAndSwap(false, true)
}

// Release frees the guard.
func (g *Guard) Release() {
	g.held.Store(false)
}
