// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// CreateWebhook provisions a webhook on a channel.
func (c *Client) CreateWebhook(ctx context.Context, channelID string, create WebhookCreate) (*Webhook, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/channels/"+channelID+"/webhooks", create)
	if err != nil {
		return nil, fmt.Errorf("creating webhook on %s: %w", channelID, err)
	}
	var webhook Webhook
	if err := json.Unmarshal(body, &webhook); err != nil {
		return nil, fmt.Errorf("parsing created webhook: %w", err)
	}
	return &webhook, nil
}

// GetWebhook fetches a webhook by ID, validating a persisted
// reference still resolves.
func (c *Client) GetWebhook(ctx context.Context, webhookID string) (*Webhook, error) {
	var webhook Webhook
	if err := c.get(ctx, "/webhooks/"+webhookID, &webhook); err != nil {
		return nil, fmt.Errorf("fetching webhook %s: %w", webhookID, err)
	}
	return &webhook, nil
}

// ExecuteWebhook posts a message through a webhook, optionally under
// an overridden username and avatar. The wait flag makes the API
// return the created message.
func (c *Client) ExecuteWebhook(ctx context.Context, webhookID, token string, execute WebhookExecute) (*Message, error) {
	body, err := c.doRequest(ctx, http.MethodPost,
		"/webhooks/"+webhookID+"/"+token+"?wait=true", execute)
	if err != nil {
		return nil, fmt.Errorf("executing webhook %s: %w", webhookID, err)
	}
	var message Message
	if err := json.Unmarshal(body, &message); err != nil {
		return nil, fmt.Errorf("parsing webhook message: %w", err)
	}
	return &message, nil
}
