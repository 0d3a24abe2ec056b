// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package counting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qudah-works/qudah/discord"
	"github.com/qudah-works/qudah/lib/clock"
	"github.com/qudah-works/qudah/lib/numeral"
	"github.com/qudah-works/qudah/store"
)

// noticeDuration is how long a transient rejection notice stays in
// the channel before it is deleted.
const noticeDuration = 5 * time.Second

// Transient notice texts.
const (
	noticeTooQuick   = "that was took quick, please try again later."
	noticeRepeatUser = "you can only count once in a row."
	noticeNoNumber   = "i couldn't find any numbers in your previous message."
	noticeNotIt      = "that is not it."
)

// Relay posts formatted messages under an alternate display identity.
type Relay interface {
	Send(ctx context.Context, execute discord.WebhookExecute) (*discord.Message, error)
}

// Channel posts and deletes plain messages in the counting channel.
type Channel interface {
	Send(ctx context.Context, send discord.MessageSend) (*discord.Message, error)
	Delete(ctx context.Context, messageID string) error
}

// Directory resolves guild members, giving the arbiter the display
// name and avatar to relay submissions under.
type Directory interface {
	Member(ctx context.Context, userID string) (*discord.Member, error)
}

// ArbiterConfig holds configuration for creating an Arbiter.
type ArbiterConfig struct {
	// ChannelID is the counting channel. Messages elsewhere are
	// ignored.
	ChannelID string
	// Radix is the numeral base submissions are parsed in.
	Radix int
	// ResumeOnError keeps the sequence value unchanged after a broken
	// submission instead of resetting it.
	ResumeOnError bool
	// Store holds the persisted sequence state.
	Store *store.Store
	// Guard is the channel's advisory guard, shared with the idle
	// scheduler.
	Guard *Guard
	// Relay posts the normalized submission renderings.
	Relay Relay
	// Channel posts transient notices and deletes originals.
	Channel Channel
	// Directory resolves submitters to their guild profile.
	Directory Directory
	// Clock is used for timestamps and notice expiry. If nil,
	// clock.Real() is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Arbiter decides accept, reject, or break for each submission in
// the counting channel, updates the stored sequence, and emits the
// relay and notice side effects.
type Arbiter struct {
	config ArbiterConfig
	clock  clock.Clock
	logger *slog.Logger
}

// NewArbiter creates an Arbiter.
func NewArbiter(config ArbiterConfig) (*Arbiter, error) {
	if config.ChannelID == "" {
		return nil, fmt.Errorf("counting: ChannelID is required")
	}
	if !numeral.ValidRadix(config.Radix) {
		return nil, fmt.Errorf("counting: unsupported radix %d", config.Radix)
	}
	if config.Store == nil || config.Guard == nil {
		return nil, fmt.Errorf("counting: Store and Guard are required")
	}
	if config.Relay == nil || config.Channel == nil || config.Directory == nil {
		return nil, fmt.Errorf("counting: Relay, Channel and Directory are required")
	}
	c := config.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Arbiter{config: config, clock: c, logger: logger}, nil
}

// HandleMessage processes one inbound channel message. Messages
// outside the counting channel and messages from bots, webhooks, or
// system senders are ignored. Every submission that passes the filter
// is deleted from the channel regardless of outcome; the normalized
// relay rendering is the only surviving record.
//
// External failures (relay, notice, member lookup, delete) are logged
// and never abort processing.
func (a *Arbiter) HandleMessage(ctx context.Context, msg discord.Message) {
	if msg.ChannelID != a.config.ChannelID {
		return
	}
	if msg.Author.Bot || msg.Author.System || msg.WebhookID != "" {
		return
	}

	defer a.deleteSubmission(ctx, msg)

	// Overlapping submissions lose: the guard is advisory and
	// fail-fast, never a queue.
	if !a.config.Guard.TryAcquire() {
		a.sendNotice(ctx, msg.Author.ID, noticeTooQuick)
		return
	}
	defer a.config.Guard.Release()

	sequence := a.config.Store.Read().Sequence

	if msg.Author.ID == sequence.PreviousUser {
		a.sendNotice(ctx, msg.Author.ID, noticeRepeatUser)
		return
	}

	var expected *int64
	if sequence.PreviousValue != nil {
		next := *sequence.PreviousValue + 1
		expected = &next
	}
	parsed := numeral.Parse(msg.Content, a.config.Radix, expected)

	if parsed.Representation == "" {
		a.sendNotice(ctx, msg.Author.ID, noticeNoNumber)
		return
	}

	correct := expected == nil || parsed.Value == *expected

	username, avatarURL := a.displayIdentity(ctx, msg)
	content := FormatSubmission(parsed.Value, a.config.Radix, parsed.Note, !correct)
	if _, err := a.config.Relay.Send(ctx, discord.WebhookExecute{
		Content:   content,
		Username:  username,
		AvatarURL: avatarURL,
	}); err != nil {
		a.logger.Error("relaying submission", "user", msg.Author.ID, "error", err)
	}

	if _, err := a.config.Store.Update(func(s *store.Snapshot) {
		s.Sequence.PreviousTimestamp = a.clock.Now().UnixMilli()
		s.Sequence.PreviousUser = msg.Author.ID
		if correct {
			value := parsed.Value
			s.Sequence.PreviousValue = &value
		} else if !a.config.ResumeOnError {
			broken := int64(-1)
			s.Sequence.PreviousValue = &broken
		}
	}); err != nil {
		a.logger.Error("updating sequence state", "error", err)
		return
	}

	if !correct {
		if a.config.ResumeOnError {
			// The sequence keeps going; tell only the sender.
			a.sendNotice(ctx, msg.Author.ID, noticeNotIt)
		} else if sequence.PreviousValue != nil {
			embed := BreakEmbed(msg.Author.ID, *sequence.PreviousValue, parsed.Value, a.config.Radix)
			if _, err := a.config.Relay.Send(ctx, discord.WebhookExecute{
				Embeds: []discord.Embed{embed},
			}); err != nil {
				a.logger.Error("announcing sequence break", "error", err)
			}
		}
	}
}

// displayIdentity resolves the submitter's guild display name and
// avatar, falling back to the account profile when the member lookup
// fails.
func (a *Arbiter) displayIdentity(ctx context.Context, msg discord.Message) (username, avatarURL string) {
	member, err := a.config.Directory.Member(ctx, msg.Author.ID)
	if err != nil {
		a.logger.Warn("resolving member profile", "user", msg.Author.ID, "error", err)
		return msg.Author.Username, msg.Author.AvatarURL()
	}
	name := member.DisplayName()
	if name == "" {
		name = msg.Author.Username
	}
	return name, msg.Author.AvatarURL()
}

// sendNotice posts a transient mention notice and schedules its
// deletion after noticeDuration. The delayed delete runs detached
// from the handler's context.
func (a *Arbiter) sendNotice(ctx context.Context, userID, text string) {
	notice, err := a.config.Channel.Send(ctx, discord.MessageSend{
		Content:         fmt.Sprintf("<@%s> %s", userID, text),
		AllowedMentions: &discord.AllowedMentions{Parse: []string{"users"}},
	})
	if err != nil {
		a.logger.Error("sending notice", "user", userID, "error", err)
		return
	}

	deleteCtx := context.WithoutCancel(ctx)
	a.clock.AfterFunc(noticeDuration, func() {
		if err := a.config.Channel.Delete(deleteCtx, notice.ID); err != nil {
			a.logger.Warn("deleting expired notice", "message", notice.ID, "error", err)
		}
	})
}

// deleteSubmission removes the original user message from the
// channel.
func (a *Arbiter) deleteSubmission(ctx context.Context, msg discord.Message) {
	if err := a.config.Channel.Delete(ctx, msg.ID); err != nil && !discord.IsNotFound(err) {
		a.logger.Warn("deleting submission", "message", msg.ID, "error", err)
	}
}
