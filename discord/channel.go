// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GetChannel fetches a channel by ID.
func (c *Client) GetChannel(ctx context.Context, channelID string) (*Channel, error) {
	var channel Channel
	if err := c.get(ctx, "/channels/"+channelID, &channel); err != nil {
		return nil, fmt.Errorf("fetching channel %s: %w", channelID, err)
	}
	return &channel, nil
}

// CreateMessage posts a message to a channel and returns it.
func (c *Client) CreateMessage(ctx context.Context, channelID string, send MessageSend) (*Message, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/channels/"+channelID+"/messages", send)
	if err != nil {
		return nil, fmt.Errorf("sending message to %s: %w", channelID, err)
	}
	var message Message
	if err := json.Unmarshal(body, &message); err != nil {
		return nil, fmt.Errorf("parsing sent message: %w", err)
	}
	return &message, nil
}

// DeleteMessage removes a message from a channel.
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if _, err := c.doRequest(ctx, http.MethodDelete,
		"/channels/"+channelID+"/messages/"+messageID, nil); err != nil {
		return fmt.Errorf("deleting message %s: %w", messageID, err)
	}
	return nil
}
