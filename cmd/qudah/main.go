// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

// Qudah is the counting-channel daemon. It watches one text channel
// for sequential counting submissions, validates and relays them
// through a webhook identity, keeps the count moving on its own when
// the channel idles, and serves a role self-assignment dialog behind
// a button prompt.
//
// On startup:
//  1. Loads and validates the configuration file.
//  2. Opens the persisted snapshot store.
//  3. Resolves the configured guild and counting channel (fatal when
//     either is missing or the channel is not a guild text channel).
//  4. Provisions the relay webhook, reusing the persisted one.
//  5. Connects to the gateway; slash commands are registered and the
//     idle scheduler started once the session is ready.
//  6. Serves admin actions on the control socket until a signal or a
//     shutdown action arrives, then flushes the store and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/qudah-works/qudah/control"
	"github.com/qudah-works/qudah/counting"
	"github.com/qudah-works/qudah/discord"
	"github.com/qudah-works/qudah/lib/clock"
	"github.com/qudah-works/qudah/lib/config"
	"github.com/qudah-works/qudah/roles"
	"github.com/qudah-works/qudah/store"
)

// storeFlushInterval is how often the snapshot is flushed to disk in
// addition to the per-update persistence.
const storeFlushInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		debug      bool
	)
	flag.StringVar(&configPath, "config", "config.json", "path to the configuration file (JSONC or YAML)")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	signalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	// The control socket's shutdown action cancels the same context
	// the signals do.
	ctx, shutdown := context.WithCancel(signalCtx)
	defer shutdown()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StorePath, logger)
	if err != nil {
		return err
	}

	client, err := discord.NewClient(discord.ClientConfig{Token: cfg.Token, Logger: logger})
	if err != nil {
		return err
	}

	guild, err := client.GetGuild(ctx, cfg.Guild)
	if err != nil {
		return fmt.Errorf("resolving guild %s: %w", cfg.Guild, err)
	}
	channel, err := client.GetChannel(ctx, cfg.Channel)
	if err != nil {
		return fmt.Errorf("resolving channel %s: %w", cfg.Channel, err)
	}
	if channel.Type != discord.ChannelTypeGuildText || channel.GuildID != cfg.Guild {
		return fmt.Errorf("channel %s is not a text channel of guild %s", cfg.Channel, cfg.Guild)
	}
	logger.Info("serving counting channel",
		"guild", guild.Name,
		"channel", channel.Name,
		"radix", cfg.Radix,
	)

	webhook, err := provisionWebhook(ctx, client, st, cfg.Channel)
	if err != nil {
		return err
	}

	b, err := newBot(botConfig{
		config:  cfg,
		logger:  logger,
		client:  client,
		store:   st,
		clock:   clock.Real(),
		webhook: webhook,
	})
	if err != nil {
		return err
	}

	gateway, err := discord.NewGateway(discord.GatewayConfig{
		Client: client,
		Token:  cfg.Token,
		Intents: discord.IntentGuilds | discord.IntentGuildMessages |
			discord.IntentGuildWebhooks | discord.IntentMessageContent,
		Logger:              logger,
		OnReady:             func(ready discord.Ready) { b.handleReady(ctx, ready) },
		OnMessageCreate:     func(msg discord.Message) { b.arbiter.HandleMessage(ctx, msg) },
		OnInteractionCreate: func(i discord.Interaction) { b.handleInteraction(ctx, i) },
	})
	if err != nil {
		return err
	}

	var background sync.WaitGroup

	controlServer := control.NewServer(cfg.ControlSocket, logger)
	b.registerControlActions(controlServer, shutdown)
	background.Add(1)
	go func() {
		defer background.Done()
		if err := controlServer.Serve(ctx); err != nil {
			logger.Error("control server stopped", "error", err)
		}
	}()

	background.Add(1)
	go func() {
		defer background.Done()
		flushStore(ctx, b.clock, st, logger)
	}()

	err = gateway.Run(ctx)
	shutdown()
	background.Wait()

	logger.Info("exiting, saving store")
	if saveErr := st.Save(); saveErr != nil {
		logger.Error("saving store on shutdown", "error", saveErr)
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// provisionWebhook returns the relay webhook, creating it on first
// launch and persisting the reference. A persisted webhook that no
// longer exists is replaced.
func provisionWebhook(ctx context.Context, client *discord.Client, st *store.Store, channelID string) (discord.Webhook, error) {
	ref := st.Read().Webhook
	if ref.ID != "" {
		webhook, err := client.GetWebhook(ctx, ref.ID)
		if err == nil {
			if webhook.Token == "" {
				webhook.Token = ref.Token
			}
			return *webhook, nil
		}
		if !discord.IsNotFound(err) {
			return discord.Webhook{}, fmt.Errorf("fetching relay webhook: %w", err)
		}
	}

	webhook, err := client.CreateWebhook(ctx, channelID, discord.WebhookCreate{Name: "QUDAH"})
	if err != nil {
		return discord.Webhook{}, fmt.Errorf("creating relay webhook: %w", err)
	}
	if _, err := st.Update(func(s *store.Snapshot) {
		s.Webhook = store.WebhookRef{ID: webhook.ID, Token: webhook.Token}
	}); err != nil {
		return discord.Webhook{}, fmt.Errorf("persisting relay webhook: %w", err)
	}
	return *webhook, nil
}

// flushStore saves the snapshot on a fixed interval until ctx ends.
func flushStore(ctx context.Context, c clock.Clock, st *store.Store, logger *slog.Logger) {
	ticker := c.NewTicker(storeFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := st.Save(); err != nil {
				logger.Error("periodic store flush", "error", err)
			} else {
				logger.Debug("store flushed")
			}
		}
	}
}

// botConfig holds the collaborators the bot wires together.
type botConfig struct {
	config  *config.Config
	logger  *slog.Logger
	client  *discord.Client
	store   *store.Store
	clock   clock.Clock
	webhook discord.Webhook
}

// bot owns the per-session state: the arbiter, the role catalog, the
// dialog sessions, and the identity learned from READY.
type bot struct {
	config  *config.Config
	logger  *slog.Logger
	client  *discord.Client
	store   *store.Store
	clock   clock.Clock
	guard   *counting.Guard
	arbiter *counting.Arbiter
	catalog *roles.Catalog
	guild   guildAPI
	relay   relayAPI

	mu            sync.Mutex
	applicationID string
	botUser       discord.User
	sessions      map[string]*roles.Dialog

	schedulerOnce sync.Once
}

func newBot(c botConfig) (*bot, error) {
	guard := &counting.Guard{}
	guild := guildAPI{client: c.client, guildID: c.config.Guild}
	relay := relayAPI{client: c.client, id: c.webhook.ID, token: c.webhook.Token}

	arbiter, err := counting.NewArbiter(counting.ArbiterConfig{
		ChannelID:     c.config.Channel,
		Radix:         c.config.Radix,
		ResumeOnError: c.config.ResumeOnError,
		Store:         c.store,
		Guard:         guard,
		Relay:         relay,
		Channel:       channelAPI{client: c.client, channelID: c.config.Channel},
		Directory:     guild,
		Clock:         c.clock,
		Logger:        c.logger,
	})
	if err != nil {
		return nil, err
	}

	return &bot{
		config:   c.config,
		logger:   c.logger,
		client:   c.client,
		store:    c.store,
		clock:    c.clock,
		guard:    guard,
		arbiter:  arbiter,
		catalog:  roles.NewCatalog(c.store),
		guild:    guild,
		relay:    relay,
		sessions: make(map[string]*roles.Dialog),
	}, nil
}

// handleReady records the session identity, registers the guild's
// slash commands, and starts the idle scheduler. Reconnects deliver
// READY again; registration is idempotent and the scheduler starts
// once.
func (b *bot) handleReady(ctx context.Context, ready discord.Ready) {
	b.mu.Lock()
	b.applicationID = ready.Application.ID
	b.botUser = ready.User
	b.mu.Unlock()

	if err := b.client.BulkOverwriteGuildCommands(ctx, ready.Application.ID, b.config.Guild, b.commands()); err != nil {
		b.logger.Error("registering commands", "error", err)
	}

	b.schedulerOnce.Do(func() {
		scheduler, err := counting.NewScheduler(counting.SchedulerConfig{
			Radix: b.config.Radix,
			Identity: counting.Identity{
				UserID:    ready.User.ID,
				Username:  ready.User.Username,
				AvatarURL: ready.User.AvatarURL(),
			},
			Store:  b.store,
			Guard:  b.guard,
			Relay:  b.relay,
			Clock:  b.clock,
			Logger: b.logger,
		})
		if err != nil {
			b.logger.Error("creating idle scheduler", "error", err)
			return
		}
		go scheduler.Run(ctx)
	})

	b.logger.Info("session ready", "user", ready.User.Username)
}
