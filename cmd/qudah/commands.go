// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/qudah-works/qudah/counting"
	"github.com/qudah-works/qudah/discord"
	"github.com/qudah-works/qudah/roles"
	"github.com/qudah-works/qudah/store"
)

// commands builds the guild command set. The register-role category
// option offers the categories known at registration time as choices,
// so newly registered categories become selectable after the next
// restart.
func (b *bot) commands() []discord.ApplicationCommand {
	var categoryChoices []discord.CommandChoice
	for _, name := range b.catalog.Categories().Names() {
		categoryChoices = append(categoryChoices, discord.CommandChoice{Name: name, Value: name})
	}

	admin := discord.PermissionAdministrator
	return []discord.ApplicationCommand{
		{
			Name:        "ping",
			Description: "ping QUDAH",
		},
		{
			Name:                     "sudo",
			Description:              "For those close to QUDAH",
			DefaultMemberPermissions: &admin,
			Options: []discord.ApplicationCommandOption{
				{
					Type:        discord.OptionSubcommandGroup,
					Name:        "counting",
					Description: "Counting related commands",
					Options: []discord.ApplicationCommandOption{
						{
							Type:        discord.OptionSubcommand,
							Name:        "get",
							Description: "Get the previous value",
						},
						{
							Type:        discord.OptionSubcommand,
							Name:        "reset",
							Description: "Reset the previous value",
							Options: []discord.ApplicationCommandOption{{
								Type:        discord.OptionInteger,
								Name:        "value",
								Description: "The value to set to",
							}},
						},
					},
				},
				{
					Type:        discord.OptionSubcommandGroup,
					Name:        "role",
					Description: "Role related commands",
					Options: []discord.ApplicationCommandOption{
						{
							Type:        discord.OptionSubcommand,
							Name:        "list-categories",
							Description: "List existing role categories",
						},
						{
							Type:        discord.OptionSubcommand,
							Name:        "order-categories",
							Description: "Order existing role categories",
							Options: []discord.ApplicationCommandOption{{
								Type:        discord.OptionString,
								Name:        "categories",
								Description: "Comma separated list of categories",
								Required:    true,
							}},
						},
						{
							Type:        discord.OptionSubcommand,
							Name:        "register-category",
							Description: "Register a role category into the QUDAH system",
							Options: []discord.ApplicationCommandOption{{
								Type:        discord.OptionString,
								Name:        "category",
								Description: "The category of the role",
								Required:    true,
							}},
						},
						{
							Type:        discord.OptionSubcommand,
							Name:        "register-role",
							Description: "Register a role into the QUDAH system",
							Options: []discord.ApplicationCommandOption{
								{
									Type:        discord.OptionString,
									Name:        "category",
									Description: "The category of the role",
									Required:    true,
									Choices:     categoryChoices,
								},
								{
									Type:        discord.OptionRole,
									Name:        "role",
									Description: "The role to register",
									Required:    true,
								},
							},
						},
						{
							Type:        discord.OptionSubcommand,
							Name:        "send-prompt",
							Description: "Send the role prompt to the current channel",
							Options: []discord.ApplicationCommandOption{{
								Type:        discord.OptionString,
								Name:        "content",
								Description: "The text content of the prompt",
								Required:    true,
							}},
						},
					},
				},
			},
		},
	}
}

// handleInteraction routes one interaction: slash commands to their
// handlers, the prompt button to a fresh dialog session, and other
// component clicks to the owning session.
func (b *bot) handleInteraction(ctx context.Context, interaction discord.Interaction) {
	if interaction.Data == nil {
		return
	}
	switch interaction.Type {
	case discord.InteractionTypeApplicationCommand:
		b.handleCommand(ctx, interaction)
	case discord.InteractionTypeMessageComponent:
		if interaction.Data.CustomID == roles.CustomIDSelectRoles {
			b.openDialog(ctx, interaction)
			return
		}
		b.mu.Lock()
		session := b.sessions[interaction.UserID()]
		b.mu.Unlock()
		if session != nil {
			session.Offer(interaction)
		}
	}
}

func (b *bot) handleCommand(ctx context.Context, interaction discord.Interaction) {
	switch interaction.Data.Name {
	case "ping":
		b.reply(ctx, interaction, "Mwah :kissing_heart:", false)
	case "sudo":
		b.handleSudo(ctx, interaction)
	}
}

// handleSudo dispatches the sudo subcommand groups.
func (b *bot) handleSudo(ctx context.Context, interaction discord.Interaction) {
	if len(interaction.Data.Options) == 0 {
		return
	}
	group := interaction.Data.Options[0]
	if len(group.Options) == 0 {
		return
	}
	sub := group.Options[0]
	args := make(map[string]discord.CommandOption, len(sub.Options))
	for _, option := range sub.Options {
		args[option.Name] = option
	}

	switch group.Name {
	case "counting":
		switch sub.Name {
		case "get":
			b.sudoCountingGet(ctx, interaction)
		case "reset":
			b.sudoCountingReset(ctx, interaction, args)
		}
	case "role":
		switch sub.Name {
		case "list-categories":
			b.reply(ctx, interaction, fmt.Sprintf("Existing categories: %s.",
				strings.Join(b.catalog.Categories().Names(), ", ")), false)
		case "order-categories":
			b.sudoOrderCategories(ctx, interaction, args)
		case "register-category":
			b.sudoRegisterCategory(ctx, interaction, args)
		case "register-role":
			b.sudoRegisterRole(ctx, interaction, args)
		case "send-prompt":
			b.sudoSendPrompt(ctx, interaction, args)
		}
	}
}

func (b *bot) sudoCountingGet(ctx context.Context, interaction discord.Interaction) {
	sequence := b.store.Read().Sequence
	if sequence.PreviousValue == nil {
		b.reply(ctx, interaction, "No value has been counted yet.", true)
		return
	}
	value := *sequence.PreviousValue
	b.reply(ctx, interaction, fmt.Sprintf("`%d`; %s.",
		value, counting.FormatSubmission(value, b.config.Radix, "", false)), true)
}

// sudoCountingReset sets the sequence to the given value (default 0)
// and clears the previous-user lock so anyone can continue.
func (b *bot) sudoCountingReset(ctx context.Context, interaction discord.Interaction, args map[string]discord.CommandOption) {
	value := int64(0)
	if option, ok := args["value"]; ok {
		value = option.IntValue()
	}
	if _, err := b.store.Update(func(s *store.Snapshot) {
		v := value
		s.Sequence.PreviousValue = &v
		s.Sequence.PreviousUser = ""
		s.Sequence.PreviousTimestamp = b.clock.Now().UnixMilli()
	}); err != nil {
		b.logger.Error("resetting sequence", "error", err)
		b.reply(ctx, interaction, ":x: Failed to reset the value.", true)
		return
	}
	b.reply(ctx, interaction, counting.FormatSubmission(value, b.config.Radix, "", false), false)
}

func (b *bot) sudoOrderCategories(ctx context.Context, interaction discord.Interaction, args map[string]discord.CommandOption) {
	raw := args["categories"].StringValue()
	var names []string
	for _, name := range strings.Split(raw, ",") {
		names = append(names, strings.TrimSpace(name))
	}
	if err := b.catalog.OrderCategories(names); err != nil {
		b.reply(ctx, interaction, catalogErrorReply(err, "", ""), false)
		return
	}
	b.reply(ctx, interaction, ":white_check_mark: Ordered categories.", false)
}

func (b *bot) sudoRegisterCategory(ctx context.Context, interaction discord.Interaction, args map[string]discord.CommandOption) {
	category := args["category"].StringValue()
	if err := b.catalog.RegisterCategory(category); err != nil {
		b.reply(ctx, interaction, catalogErrorReply(err, category, ""), false)
		return
	}
	b.reply(ctx, interaction,
		fmt.Sprintf(":white_check_mark: The category '%s' has been registered.", category), false)
}

func (b *bot) sudoRegisterRole(ctx context.Context, interaction discord.Interaction, args map[string]discord.CommandOption) {
	category := args["category"].StringValue()
	roleID := args["role"].StringValue()
	label := b.roleName(ctx, roleID)
	if err := b.catalog.RegisterRole(category, roleID); err != nil {
		b.reply(ctx, interaction, catalogErrorReply(err, category, label), false)
		return
	}
	b.reply(ctx, interaction,
		fmt.Sprintf(":white_check_mark: The role %s has been registered under the category '%s'.",
			label, category), false)
}

// catalogErrorReply maps a catalog operation error to its
// user-facing reply text.
func catalogErrorReply(err error, category, roleLabel string) string {
	var orderErr *roles.OrderError
	switch {
	case errors.As(err, &orderErr):
		switch {
		case len(orderErr.Missing) > 0:
			return fmt.Sprintf(":x: The following categories are not included: %s.",
				strings.Join(orderErr.Missing, ", "))
		case len(orderErr.Unknown) > 0:
			return fmt.Sprintf(":x: The following categories do not exist: %s.",
				strings.Join(orderErr.Unknown, ", "))
		default:
			return fmt.Sprintf(":x: Duplicated categories: %s.",
				strings.Join(orderErr.Duplicated, ", "))
		}
	case errors.Is(err, roles.ErrInvalidCategoryName):
		return ":x: Category names can only contain 1-32 alphanumeric characters."
	case errors.Is(err, roles.ErrCategoryLimit):
		return fmt.Sprintf(":x: At most %d categories can be registered.", roles.MaxCategories)
	case errors.Is(err, roles.ErrDuplicateCategory):
		return fmt.Sprintf(":x: The category '%s' already exists.", category)
	case errors.Is(err, roles.ErrUnknownCategory):
		return fmt.Sprintf(":x: Unknown category '%s'.", category)
	case errors.Is(err, roles.ErrRoleLimit):
		return fmt.Sprintf(":x: No more than %d roles can be registered under a single category.",
			roles.MaxRolesPerCategory)
	case errors.Is(err, roles.ErrDuplicateRole):
		return fmt.Sprintf(":x: The role %s has already been registered under the category '%s'.",
			roleLabel, category)
	default:
		return ":x: " + err.Error()
	}
}

// sudoSendPrompt posts the prompt message carrying the button that
// opens the role selection dialog.
func (b *bot) sudoSendPrompt(ctx context.Context, interaction discord.Interaction, args map[string]discord.CommandOption) {
	content := args["content"].StringValue()
	_, err := b.client.CreateMessage(ctx, interaction.ChannelID, discord.MessageSend{
		AllowedMentions: &discord.AllowedMentions{Parse: []string{}},
		Embeds: []discord.Embed{{
			Color:       discord.ColorWhite,
			Description: content,
		}},
		Components: []discord.Component{{
			Type: discord.ComponentActionRow,
			Components: []discord.Component{{
				Type:     discord.ComponentButton,
				Style:    discord.ButtonStylePrimary,
				CustomID: roles.CustomIDSelectRoles,
				Label:    "Select Roles",
			}},
		}},
	})
	if err != nil {
		b.logger.Error("sending role prompt", "error", err)
		b.reply(ctx, interaction, ":x: Failed to send the prompt.", true)
		return
	}
	b.reply(ctx, interaction, "sent", true)
}

// openDialog answers the prompt button with a deferred ephemeral
// reply and runs a dialog session over it. A second click by the same
// user abandons the previous session's reply.
func (b *bot) openDialog(ctx context.Context, interaction discord.Interaction) {
	if err := b.client.CreateInteractionResponse(ctx, interaction.ID, interaction.Token,
		discord.InteractionResponse{
			Type: discord.ResponseDeferredChannelMessage,
			Data: &discord.InteractionResponseData{Flags: discord.MessageFlagEphemeral},
		}); err != nil {
		b.logger.Error("deferring dialog reply", "error", err)
		return
	}

	b.mu.Lock()
	applicationID := b.applicationID
	b.mu.Unlock()

	userID := interaction.UserID()
	dialog, err := roles.NewDialog(roles.DialogConfig{
		UserID:     userID,
		Store:      b.store,
		Members:    b.guild,
		RoleSource: b.guild,
		Responder: dialogResponder{
			client:        b.client,
			applicationID: applicationID,
			token:         interaction.Token,
		},
		Clock:  b.clock,
		Logger: b.logger,
	})
	if err != nil {
		b.logger.Error("creating dialog", "user", userID, "error", err)
		return
	}

	b.mu.Lock()
	b.sessions[userID] = dialog
	b.mu.Unlock()

	go func() {
		dialog.Run(ctx)
		b.mu.Lock()
		if b.sessions[userID] == dialog {
			delete(b.sessions, userID)
		}
		b.mu.Unlock()
	}()
}

// reply answers a command interaction with a plain message.
func (b *bot) reply(ctx context.Context, interaction discord.Interaction, content string, ephemeral bool) {
	data := &discord.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discord.MessageFlagEphemeral
	}
	if err := b.client.CreateInteractionResponse(ctx, interaction.ID, interaction.Token,
		discord.InteractionResponse{
			Type: discord.ResponseChannelMessage,
			Data: data,
		}); err != nil {
		b.logger.Error("replying to command", "command", interaction.Data.Name, "error", err)
	}
}

// roleName resolves a role ID to a mention-safe display form.
func (b *bot) roleName(ctx context.Context, roleID string) string {
	guildRoles, err := b.guild.Roles(ctx)
	if err == nil {
		for _, role := range guildRoles {
			if role.ID == roleID {
				return "'" + role.Name + "'"
			}
		}
	}
	return "<@&" + roleID + ">"
}
