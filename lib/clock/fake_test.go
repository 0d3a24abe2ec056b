// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeAfter(t *testing.T) {
	fake := Fake(time.Unix(0, 0))
	ch := fake.After(time.Minute)

	select {
	case <-ch:
		t.Fatal("fired before Advance")
	default:
	}

	fake.Advance(time.Minute)
	select {
	case at := <-ch:
		if !at.Equal(time.Unix(60, 0)) {
			t.Errorf("fired at %v, want %v", at, time.Unix(60, 0))
		}
	default:
		t.Fatal("did not fire after Advance")
	}
}

func TestFakeAfterFuncStop(t *testing.T) {
	fake := Fake(time.Unix(0, 0))

	ran := false
	stop := fake.AfterFunc(time.Second, func() { ran = true })
	if !stop() {
		t.Fatal("stop returned false before firing")
	}
	fake.Advance(time.Minute)
	if ran {
		t.Error("callback ran after stop")
	}
	if stop() {
		t.Error("second stop returned true")
	}
}

func TestFakeAfterFuncFires(t *testing.T) {
	fake := Fake(time.Unix(0, 0))

	ran := false
	stop := fake.AfterFunc(5*time.Second, func() { ran = true })
	fake.Advance(5 * time.Second)
	if !ran {
		t.Fatal("callback did not run")
	}
	if stop() {
		t.Error("stop after firing returned true")
	}
}

func TestFakeTicker(t *testing.T) {
	fake := Fake(time.Unix(0, 0))
	ticker := fake.NewTicker(time.Second)
	defer ticker.Stop()

	fake.Advance(time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("no tick after one interval")
	}

	// A multi-interval advance delivers what fits in the buffer and
	// drops the rest.
	fake.Advance(3 * time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("no tick after multi-interval advance")
	}

	ticker.Stop()
	fake.Advance(10 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("tick after Stop")
	default:
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	fake := Fake(time.Unix(0, 0))

	released := make(chan struct{})
	go func() {
		fake.WaitForTimers(1)
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("WaitForTimers returned with no timers pending")
	case <-time.After(10 * time.Millisecond):
	}

	fake.After(time.Hour)
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("WaitForTimers did not observe the new timer")
	}
}

func TestFakeImmediate(t *testing.T) {
	fake := Fake(time.Unix(0, 0))

	select {
	case <-fake.After(0):
	default:
		t.Error("After(0) did not fire immediately")
	}

	ran := false
	fake.AfterFunc(0, func() { ran = true })
	if !ran {
		t.Error("AfterFunc(0) did not run synchronously")
	}
}
