// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package counting

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/qudah-works/qudah/lib/clock"
	"github.com/qudah-works/qudah/store"
)

type schedulerFixture struct {
	scheduler *Scheduler
	store     *store.Store
	relay     *fakeRelay
	clock     *clock.FakeClock
	guard     *Guard
}

// newSchedulerFixture builds a scheduler whose wake delay is pinned
// to one minute.
func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "store.json"), nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	relay := &fakeRelay{}
	fake := clock.Fake(time.Unix(1_700_000_000, 0))
	guard := &Guard{}
	scheduler, err := NewScheduler(SchedulerConfig{
		Radix:      10,
		Identity:   Identity{UserID: "qudah", Username: "QUDAH"},
		Store:      st,
		Guard:      guard,
		Relay:      relay,
		Clock:      fake,
		randInt63n: func(n int64) int64 { return int64(time.Minute) },
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return &schedulerFixture{
		scheduler: scheduler,
		store:     st,
		relay:     relay,
		clock:     fake,
		guard:     guard,
	}
}

func (f *schedulerFixture) seed(t *testing.T, value int64, at time.Time) {
	t.Helper()
	if _, err := f.store.Update(func(s *store.Snapshot) {
		v := value
		s.Sequence.PreviousValue = &v
		s.Sequence.PreviousUser = "alice"
		s.Sequence.PreviousTimestamp = at.UnixMilli()
	}); err != nil {
		t.Fatalf("seeding sequence: %v", err)
	}
}

func TestSchedulerCountsOnIdleChannel(t *testing.T) {
	f := newSchedulerFixture(t)
	f.seed(t, 41, f.clock.Now().Add(-time.Hour))

	f.scheduler.wake(context.Background())

	sends := f.relay.sends
	if len(sends) != 1 {
		t.Fatalf("relay sends = %d, want 1", len(sends))
	}
	if sends[0].Content != "`42`" {
		t.Errorf("relay content = %q, want `42`", sends[0].Content)
	}
	if sends[0].Username != "QUDAH" {
		t.Errorf("relay username = %q, want the bot identity", sends[0].Username)
	}

	sequence := f.store.Read().Sequence
	if sequence.PreviousValue == nil || *sequence.PreviousValue != 42 {
		t.Errorf("previous value = %v, want 42", sequence.PreviousValue)
	}
	if sequence.PreviousUser != "qudah" {
		t.Errorf("previous user = %q, want qudah", sequence.PreviousUser)
	}
	if sequence.PreviousTimestamp != f.clock.Now().UnixMilli() {
		t.Error("previous timestamp not refreshed")
	}
}

func TestSchedulerSkipsWhenSequenceUnset(t *testing.T) {
	f := newSchedulerFixture(t)

	f.scheduler.wake(context.Background())

	if len(f.relay.sends) != 0 {
		t.Error("scheduler counted without an established sequence")
	}
}

func TestSchedulerSkipsWhenRecentlyActive(t *testing.T) {
	f := newSchedulerFixture(t)
	f.seed(t, 41, f.clock.Now())

	f.scheduler.wake(context.Background())

	if len(f.relay.sends) != 0 {
		t.Error("scheduler counted on a recently active channel")
	}
}

func TestSchedulerSkipsWhenGuardHeld(t *testing.T) {
	f := newSchedulerFixture(t)
	f.seed(t, 41, f.clock.Now().Add(-time.Hour))

	f.guard.TryAcquire()
	defer f.guard.Release()
	f.scheduler.wake(context.Background())

	if len(f.relay.sends) != 0 {
		t.Error("scheduler counted while the guard was held")
	}
	sequence := f.store.Read().Sequence
	if *sequence.PreviousValue != 41 {
		t.Error("sequence state changed on a skipped wake")
	}
}

func TestSchedulerRunWakesOnTimer(t *testing.T) {
	f := newSchedulerFixture(t)
	f.seed(t, 41, f.clock.Now().Add(-time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.scheduler.Run(ctx)
		close(done)
	}()

	// Let Run register its wake timer, then fire it.
	f.clock.WaitForTimers(1)
	f.clock.Advance(time.Minute)

	// The wake happens on the Run goroutine; wait for the next timer
	// registration, which means the previous wake completed.
	f.clock.WaitForTimers(1)

	if contents := f.relay.contents(); len(contents) != 1 || contents[0] != "`42`" {
		t.Errorf("relay contents = %v, want [`42`]", contents)
	}

	cancel()
	<-done
}
