// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package counting

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/qudah-works/qudah/discord"
	"github.com/qudah-works/qudah/lib/clock"
	"github.com/qudah-works/qudah/lib/numeral"
	"github.com/qudah-works/qudah/store"
)

// Scheduler timing defaults.
const (
	// DefaultBias is the bias window for the random wake delay; each
	// sleep is uniform in [0, 3*bias).
	DefaultBias = time.Hour
	// DefaultMinIdle is the minimum quiet time since the last
	// submission before the scheduler counts on its own.
	DefaultMinIdle = time.Second
)

// Identity is the display identity the scheduler counts under: the
// bot's own account.
type Identity struct {
	UserID    string
	Username  string
	AvatarURL string
}

// SchedulerConfig holds configuration for creating a Scheduler.
type SchedulerConfig struct {
	// Radix is the numeral base values are rendered in.
	Radix int
	// Identity attributes the synthesized submissions.
	Identity Identity
	// Store holds the persisted sequence state.
	Store *store.Store
	// Guard is the channel's advisory guard, shared with the
	// arbiter. A wake that finds it held is skipped.
	Guard *Guard
	// Relay posts the synthesized submission renderings.
	Relay Relay
	// Clock drives the wake timer. If nil, clock.Real() is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// Bias overrides DefaultBias. Zero means the default.
	Bias time.Duration
	// MinIdle overrides DefaultMinIdle. Zero means the default.
	MinIdle time.Duration
	// randInt63n overrides the delay source in tests.
	randInt63n func(n int64) int64
}

// Scheduler keeps an idle counting channel moving: it wakes at
// uniformly random intervals and, when the channel has been quiet and
// the sequence has a value, submits the next number itself. The
// random cadence keeps the automation from being trivially
// predictable.
type Scheduler struct {
	config  SchedulerConfig
	clock   clock.Clock
	logger  *slog.Logger
	bias    time.Duration
	minIdle time.Duration
	randN   func(n int64) int64
}

// NewScheduler creates a Scheduler.
func NewScheduler(config SchedulerConfig) (*Scheduler, error) {
	if !numeral.ValidRadix(config.Radix) {
		return nil, fmt.Errorf("counting: unsupported radix %d", config.Radix)
	}
	if config.Store == nil || config.Guard == nil || config.Relay == nil {
		return nil, fmt.Errorf("counting: Store, Guard and Relay are required")
	}
	c := config.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bias := config.Bias
	if bias == 0 {
		bias = DefaultBias
	}
	minIdle := config.MinIdle
	if minIdle == 0 {
		minIdle = DefaultMinIdle
	}
	randN := config.randInt63n
	if randN == nil {
		randN = rand.Int63n //nolint:gosec // The random delay is for jitter, not security.
	}
	return &Scheduler{
		config:  config,
		clock:   c,
		logger:  logger,
		bias:    bias,
		minIdle: minIdle,
		randN:   randN,
	}, nil
}

// Run wakes, counts if appropriate, and reschedules until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		delay := time.Duration(s.randN(int64(3 * s.bias)))
		s.logger.Debug("idle scheduler sleeping", "delay", delay)
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(delay):
		}
		s.wake(ctx)
	}
}

// wake performs one idle check. The sequence only advances when the
// guard is free, a previous value exists, and the channel has been
// quiet for at least the minimum idle interval.
func (s *Scheduler) wake(ctx context.Context) {
	if !s.config.Guard.TryAcquire() {
		s.logger.Debug("idle wake skipped, channel busy")
		return
	}
	defer s.config.Guard.Release()

	sequence := s.config.Store.Read().Sequence
	if sequence.PreviousValue == nil || sequence.PreviousTimestamp == 0 {
		return
	}

	now := s.clock.Now()
	idle := now.Sub(time.UnixMilli(sequence.PreviousTimestamp))
	if idle < s.minIdle {
		return
	}

	next := *sequence.PreviousValue + 1
	if _, err := s.config.Relay.Send(ctx, discord.WebhookExecute{
		Content:   FormatSubmission(next, s.config.Radix, "", false),
		Username:  s.config.Identity.Username,
		AvatarURL: s.config.Identity.AvatarURL,
	}); err != nil {
		s.logger.Error("relaying idle submission", "error", err)
		return
	}

	if _, err := s.config.Store.Update(func(snapshot *store.Snapshot) {
		snapshot.Sequence.PreviousValue = &next
		snapshot.Sequence.PreviousUser = s.config.Identity.UserID
		snapshot.Sequence.PreviousTimestamp = now.UnixMilli()
	}); err != nil {
		s.logger.Error("updating sequence state", "error", err)
		return
	}
	s.logger.Info("counted on idle channel", "value", next)
}
