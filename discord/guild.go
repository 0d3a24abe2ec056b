// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"context"
	"fmt"
	"net/http"
)

// GetGuild fetches a guild by ID.
func (c *Client) GetGuild(ctx context.Context, guildID string) (*Guild, error) {
	var guild Guild
	if err := c.get(ctx, "/guilds/"+guildID, &guild); err != nil {
		return nil, fmt.Errorf("fetching guild %s: %w", guildID, err)
	}
	return &guild, nil
}

// GetMember fetches a guild member, including current role grants.
func (c *Client) GetMember(ctx context.Context, guildID, userID string) (*Member, error) {
	var member Member
	if err := c.get(ctx, "/guilds/"+guildID+"/members/"+userID, &member); err != nil {
		return nil, fmt.Errorf("fetching member %s: %w", userID, err)
	}
	return &member, nil
}

// GetRoles fetches all roles of a guild.
func (c *Client) GetRoles(ctx context.Context, guildID string) ([]Role, error) {
	var roles []Role
	if err := c.get(ctx, "/guilds/"+guildID+"/roles", &roles); err != nil {
		return nil, fmt.Errorf("fetching roles of guild %s: %w", guildID, err)
	}
	return roles, nil
}

// AddMemberRole grants a role to a guild member.
func (c *Client) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if _, err := c.doRequest(ctx, http.MethodPut,
		"/guilds/"+guildID+"/members/"+userID+"/roles/"+roleID, nil); err != nil {
		return fmt.Errorf("adding role %s to %s: %w", roleID, userID, err)
	}
	return nil
}

// RemoveMemberRole revokes a role from a guild member.
func (c *Client) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if _, err := c.doRequest(ctx, http.MethodDelete,
		"/guilds/"+guildID+"/members/"+userID+"/roles/"+roleID, nil); err != nil {
		return fmt.Errorf("removing role %s from %s: %w", roleID, userID, err)
	}
	return nil
}
