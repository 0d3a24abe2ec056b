// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// CreateInteractionResponse acknowledges an interaction. The response
// type decides whether this shows a message, defers one, or silently
// acknowledges a component click.
func (c *Client) CreateInteractionResponse(ctx context.Context, interactionID, token string, response InteractionResponse) error {
	if _, err := c.doRequest(ctx, http.MethodPost,
		"/interactions/"+interactionID+"/"+token+"/callback", response); err != nil {
		return fmt.Errorf("responding to interaction %s: %w", interactionID, err)
	}
	return nil
}

// EditOriginalResponse rewrites the original response of an
// interaction. The dialog uses this to repaint its single reply as
// the user pages through categories.
func (c *Client) EditOriginalResponse(ctx context.Context, applicationID, token string, edit MessageEdit) (*Message, error) {
	body, err := c.doRequest(ctx, http.MethodPatch,
		"/webhooks/"+applicationID+"/"+token+"/messages/@original", edit)
	if err != nil {
		return nil, fmt.Errorf("editing interaction response: %w", err)
	}
	var message Message
	if err := json.Unmarshal(body, &message); err != nil {
		return nil, fmt.Errorf("parsing edited response: %w", err)
	}
	return &message, nil
}

// BulkOverwriteGuildCommands replaces the bot's guild-scoped command
// set with the given definitions.
func (c *Client) BulkOverwriteGuildCommands(ctx context.Context, applicationID, guildID string, commands []ApplicationCommand) error {
	if _, err := c.doRequest(ctx, http.MethodPut,
		"/applications/"+applicationID+"/guilds/"+guildID+"/commands", commands); err != nil {
		return fmt.Errorf("registering guild commands: %w", err)
	}
	return nil
}
