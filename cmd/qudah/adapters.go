// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/qudah-works/qudah/discord"
)

// channelAPI binds the REST client to the counting channel,
// implementing counting.Channel.
type channelAPI struct {
	client    *discord.Client
	channelID string
}

func (c channelAPI) Send(ctx context.Context, send discord.MessageSend) (*discord.Message, error) {
	return c.client.CreateMessage(ctx, c.channelID, send)
}

func (c channelAPI) Delete(ctx context.Context, messageID string) error {
	return c.client.DeleteMessage(ctx, c.channelID, messageID)
}

// relayAPI binds the REST client to the provisioned webhook,
// implementing counting.Relay.
type relayAPI struct {
	client *discord.Client
	id     string
	token  string
}

func (r relayAPI) Send(ctx context.Context, execute discord.WebhookExecute) (*discord.Message, error) {
	return r.client.ExecuteWebhook(ctx, r.id, r.token, execute)
}

// guildAPI binds the REST client to the configured guild,
// implementing counting.Directory, roles.Members, and
// roles.RoleSource.
type guildAPI struct {
	client  *discord.Client
	guildID string
}

func (g guildAPI) Member(ctx context.Context, userID string) (*discord.Member, error) {
	return g.client.GetMember(ctx, g.guildID, userID)
}

func (g guildAPI) AddRole(ctx context.Context, userID, roleID string) error {
	return g.client.AddMemberRole(ctx, g.guildID, userID, roleID)
}

func (g guildAPI) RemoveRole(ctx context.Context, userID, roleID string) error {
	return g.client.RemoveMemberRole(ctx, g.guildID, userID, roleID)
}

func (g guildAPI) Roles(ctx context.Context) ([]discord.Role, error) {
	return g.client.GetRoles(ctx, g.guildID)
}

// dialogResponder binds the REST client to one interaction token,
// implementing roles.Responder.
type dialogResponder struct {
	client        *discord.Client
	applicationID string
	token         string
}

func (r dialogResponder) AckUpdate(ctx context.Context, interactionID, token string) error {
	return r.client.CreateInteractionResponse(ctx, interactionID, token, discord.InteractionResponse{
		Type: discord.ResponseDeferredUpdateMessage,
	})
}

func (r dialogResponder) Edit(ctx context.Context, edit discord.MessageEdit) (*discord.Message, error) {
	return r.client.EditOriginalResponse(ctx, r.applicationID, r.token, edit)
}
