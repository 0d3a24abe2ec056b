// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package roles

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/qudah-works/qudah/discord"
	"github.com/qudah-works/qudah/lib/clock"
	"github.com/qudah-works/qudah/store"
)

// Component custom IDs used by the role selection flow.
const (
	// CustomIDSelectRoles is the prompt button that opens a dialog.
	CustomIDSelectRoles = "select-roles"

	customIDSelectPrefix   = "select-roles-"
	customIDTurnPagePrefix = "turn-page-"
)

// DefaultTimeout is how long each page waits for the requester before
// the dialog gives up.
const DefaultTimeout = 120 * time.Second

// Members manages one guild's member role grants.
type Members interface {
	Member(ctx context.Context, userID string) (*discord.Member, error)
	AddRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
}

// RoleSource lists the guild's roles, resolving catalog role IDs to
// display names.
type RoleSource interface {
	Roles(ctx context.Context) ([]discord.Role, error)
}

// Responder drives the interaction responses of one dialog session.
// Implementations are bound to the opening interaction's token.
type Responder interface {
	// AckUpdate acknowledges a component interaction without visibly
	// changing anything (deferred update).
	AckUpdate(ctx context.Context, interactionID, token string) error
	// Edit rewrites the session's ephemeral reply.
	Edit(ctx context.Context, edit discord.MessageEdit) (*discord.Message, error)
}

// DialogConfig holds configuration for creating a Dialog.
type DialogConfig struct {
	// UserID is the requester. Interactions from anyone else are
	// ignored.
	UserID string
	// Store holds the role catalog. Stale role IDs found while
	// building a page are pruned from it in place.
	Store *store.Store
	// Members grants and revokes roles.
	Members Members
	// RoleSource resolves role IDs to names.
	RoleSource RoleSource
	// Responder edits the session's ephemeral reply.
	Responder Responder
	// Clock drives the per-page timeout. If nil, clock.Real() is
	// used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// Timeout overrides DefaultTimeout. Zero means the default.
	Timeout time.Duration
}

// Dialog is one member's role selection session: an ephemeral reply
// paged through the non-empty catalog categories, one select menu per
// page, until every page is visited, the requester stops responding,
// or the session context ends.
type Dialog struct {
	config       DialogConfig
	clock        clock.Clock
	logger       *slog.Logger
	timeout      time.Duration
	interactions chan discord.Interaction
}

// NewDialog creates a Dialog session for one requester.
func NewDialog(config DialogConfig) (*Dialog, error) {
	if config.UserID == "" {
		return nil, fmt.Errorf("roles: UserID is required")
	}
	if config.Store == nil || config.Members == nil || config.RoleSource == nil || config.Responder == nil {
		return nil, fmt.Errorf("roles: Store, Members, RoleSource and Responder are required")
	}
	c := config.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Dialog{
		config:       config,
		clock:        c,
		logger:       logger,
		timeout:      timeout,
		interactions: make(chan discord.Interaction, 1),
	}, nil
}

// Offer hands a component interaction to the session. It reports
// whether the session claimed it: the interaction must come from the
// requester and carry one of the session's component custom IDs.
// Offer never blocks; an interaction arriving while the session is
// mid-update is dropped rather than queued.
func (d *Dialog) Offer(interaction discord.Interaction) bool {
	if interaction.Type != discord.InteractionTypeMessageComponent || interaction.Data == nil {
		return false
	}
	if interaction.UserID() != d.config.UserID {
		return false
	}
	id := interaction.Data.CustomID
	if !strings.HasPrefix(id, customIDSelectPrefix) && !strings.HasPrefix(id, customIDTurnPagePrefix) {
		return false
	}
	select {
	case d.interactions <- interaction:
	default:
	}
	return true
}

// Run drives the session to completion. It shows the first non-empty
// category, then loops: selection applies the role changes and
// advances, the page buttons jump, running past the last category
// completes the dialog, and a quiet timeout window abandons it.
func (d *Dialog) Run(ctx context.Context) {
	index := 0
	for {
		category, shown, err := d.showCategory(ctx, &index)
		if err != nil {
			d.logger.Error("rendering dialog page", "user", d.config.UserID, "error", err)
			return
		}
		if !shown {
			d.complete(ctx)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-d.clock.After(d.timeout):
			d.expire(ctx)
			return
		case interaction := <-d.interactions:
			if err := d.config.Responder.AckUpdate(ctx, interaction.ID, interaction.Token); err != nil {
				d.logger.Warn("acknowledging dialog interaction", "error", err)
			}
			id := interaction.Data.CustomID
			switch {
			case id == customIDSelectPrefix+category:
				if err := d.applySelection(ctx, category, interaction.Data.Values); err != nil {
					d.logger.Error("applying role selection", "user", d.config.UserID, "error", err)
				}
				index++
			case strings.HasPrefix(id, customIDTurnPagePrefix):
				target, err := strconv.Atoi(strings.TrimPrefix(id, customIDTurnPagePrefix))
				if err != nil {
					d.logger.Warn("unparsable page index", "custom_id", id)
					continue
				}
				index = target
			default:
				// A select for a page no longer shown; ignore.
			}
		}
	}
}

// showCategory renders the page for the index'd non-empty category.
// It returns shown=false once the index runs past the catalog, which
// completes the dialog. Categories whose every role turned out stale
// are skipped, advancing the index.
func (d *Dialog) showCategory(ctx context.Context, index *int) (category string, shown bool, err error) {
	for {
		if *index < 0 {
			*index = 0
		}
		nonEmpty := d.nonEmptyCategories()
		if *index >= len(nonEmpty) {
			return "", false, nil
		}
		current := nonEmpty[*index]

		options, err := d.roleOptions(ctx, current)
		if err != nil {
			return "", false, err
		}
		if len(options) == 0 {
			// Every role in this category was stale and got pruned.
			*index++
			continue
		}

		edit := discord.MessageEdit{
			Embeds:     []discord.Embed{pageEmbed(nonEmpty, *index)},
			Components: pageComponents(current.Name, *index, options),
		}
		if _, err := d.config.Responder.Edit(ctx, edit); err != nil {
			return "", false, err
		}
		return current.Name, true, nil
	}
}

// nonEmptyCategories returns the catalog categories that have at
// least one role, in order.
func (d *Dialog) nonEmptyCategories() []store.Category {
	var out []store.Category
	for _, category := range d.config.Store.Read().Roles {
		if len(category.Roles) > 0 {
			out = append(out, category)
		}
	}
	return out
}

// roleOption is one selectable role with its current grant state.
type roleOption struct {
	label    string
	id       string
	selected bool
}

// roleOptions resolves a category's role IDs against the guild,
// pruning IDs that no longer exist from the stored catalog, and marks
// the ones the requester currently holds.
func (d *Dialog) roleOptions(ctx context.Context, category store.Category) ([]roleOption, error) {
	guildRoles, err := d.config.RoleSource.Roles(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching guild roles: %w", err)
	}
	names := make(map[string]string, len(guildRoles))
	for _, role := range guildRoles {
		names[role.ID] = role.Name
	}

	member, err := d.config.Members.Member(ctx, d.config.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetching member: %w", err)
	}

	var options []roleOption
	var stale []string
	for _, roleID := range category.Roles {
		name, ok := names[roleID]
		if !ok {
			stale = append(stale, roleID)
			continue
		}
		options = append(options, roleOption{
			label:    name,
			id:       roleID,
			selected: member.HasRole(roleID),
		})
	}

	if len(stale) > 0 {
		d.prune(category.Name, stale)
	}

	sort.Slice(options, func(i, j int) bool {
		return strings.ToLower(options[i].label) < strings.ToLower(options[j].label)
	})
	return options, nil
}

// prune removes deleted role IDs from the stored catalog.
func (d *Dialog) prune(categoryName string, stale []string) {
	staleSet := make(map[string]bool, len(stale))
	for _, id := range stale {
		staleSet[id] = true
	}
	if _, err := d.config.Store.Update(func(s *store.Snapshot) {
		category := s.Roles.Find(categoryName)
		if category == nil {
			return
		}
		kept := category.Roles[:0]
		for _, id := range category.Roles {
			if !staleSet[id] {
				kept = append(kept, id)
			}
		}
		category.Roles = kept
	}); err != nil {
		d.logger.Error("pruning stale roles", "category", categoryName, "error", err)
	} else {
		d.logger.Info("pruned stale roles", "category", categoryName, "roles", stale)
	}
}

// applySelection reconciles the requester's roles within one category
// against the selected set: held roles left out of the selection are
// removed first, then missing selected roles are added.
func (d *Dialog) applySelection(ctx context.Context, categoryName string, selected []string) error {
	category := d.config.Store.Read().Roles.Find(categoryName)
	if category == nil {
		return fmt.Errorf("category %q vanished mid-dialog", categoryName)
	}

	member, err := d.config.Members.Member(ctx, d.config.UserID)
	if err != nil {
		return fmt.Errorf("fetching member: %w", err)
	}

	selectedSet := make(map[string]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}

	for _, roleID := range category.Roles {
		if member.HasRole(roleID) && !selectedSet[roleID] {
			if err := d.config.Members.RemoveRole(ctx, d.config.UserID, roleID); err != nil {
				return fmt.Errorf("removing role %s: %w", roleID, err)
			}
		}
	}
	for _, roleID := range selected {
		if !member.HasRole(roleID) {
			if err := d.config.Members.AddRole(ctx, d.config.UserID, roleID); err != nil {
				return fmt.Errorf("adding role %s: %w", roleID, err)
			}
		}
	}
	return nil
}

// complete paints the terminal success state.
func (d *Dialog) complete(ctx context.Context) {
	_, err := d.config.Responder.Edit(ctx, discord.MessageEdit{
		Embeds: []discord.Embed{{
			Title:       "Role Selection",
			Color:       discord.ColorDarkGreen,
			Description: "You've updated your roles!",
		}},
		Components: []discord.Component{},
	})
	if err != nil {
		d.logger.Error("finishing dialog", "user", d.config.UserID, "error", err)
	}
}

// expire paints the terminal timeout state.
func (d *Dialog) expire(ctx context.Context) {
	_, err := d.config.Responder.Edit(ctx, discord.MessageEdit{
		Embeds: []discord.Embed{{
			Color:       discord.ColorRed,
			Description: ":x: Interaction timed out.",
		}},
		Components: []discord.Component{},
	})
	if err != nil {
		d.logger.Error("expiring dialog", "user", d.config.UserID, "error", err)
	}
}

// pageEmbed renders the category breadcrumb with the current one
// highlighted.
func pageEmbed(categories []store.Category, index int) discord.Embed {
	parts := make([]string, len(categories))
	for i, category := range categories {
		part := fmt.Sprintf("%d. %s", i, category.Name)
		if i == index {
			part = "__**" + part + "**__"
		}
		parts[i] = part
	}
	return discord.Embed{
		Title:       "Role Selection",
		Color:       discord.ColorWhite,
		Description: strings.Join(parts, " > "),
	}
}

// pageComponents builds the select menu and page-turn buttons for one
// category page.
func pageComponents(category string, index int, options []roleOption) []discord.Component {
	selectOptions := make([]discord.SelectOption, len(options))
	for i, option := range options {
		selectOptions[i] = discord.SelectOption{
			Label:   option.label,
			Value:   option.id,
			Default: option.selected,
		}
	}

	zero := 0
	return []discord.Component{
		{
			Type: discord.ComponentActionRow,
			Components: []discord.Component{{
				Type:      discord.ComponentSelectMenu,
				CustomID:  customIDSelectPrefix + category,
				MinValues: &zero,
				MaxValues: len(selectOptions),
				Options:   selectOptions,
			}},
		},
		{
			Type: discord.ComponentActionRow,
			Components: []discord.Component{
				{
					Type:     discord.ComponentButton,
					Style:    discord.ButtonStylePrimary,
					CustomID: customIDTurnPagePrefix + strconv.Itoa(index-1),
					Label:    "◂",
					Disabled: index == 0,
				},
				{
					Type:     discord.ComponentButton,
					Style:    discord.ButtonStylePrimary,
					CustomID: customIDTurnPagePrefix + strconv.Itoa(index+1),
					Label:    "▸",
				},
			},
		},
	}
}
