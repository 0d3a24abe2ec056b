// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import "fmt"

// User is a Discord user as it appears on messages and interactions.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Bot      bool   `json:"bot,omitempty"`
	System   bool   `json:"system,omitempty"`
}

// AvatarURL returns the CDN URL for the user's avatar, or the default
// avatar when none is set.
func (u User) AvatarURL() string {
	if u.Avatar == "" {
		return "https://cdn.discordapp.com/embed/avatars/0.png"
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", u.ID, u.Avatar)
}

// Member is a user's guild-scoped profile, including role grants.
type Member struct {
	User  *User    `json:"user,omitempty"`
	Nick  string   `json:"nick,omitempty"`
	Roles []string `json:"roles"`
}

// DisplayName returns the name shown in the guild: the nickname when
// set, otherwise the account username.
func (m Member) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		return m.User.Username
	}
	return ""
}

// HasRole reports whether the member holds the given role.
func (m Member) HasRole(roleID string) bool {
	for _, id := range m.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

// Message is a channel message.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id,omitempty"`
	Author    User   `json:"author"`
	Content   string `json:"content"`
	WebhookID string `json:"webhook_id,omitempty"`
}

// Role is a guild role.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Guild is the subset of guild fields the daemon reads.
type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Channel is the subset of channel fields the daemon reads.
type Channel struct {
	ID      string `json:"id"`
	GuildID string `json:"guild_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Type    int    `json:"type"`
}

// ChannelTypeGuildText is the channel type for ordinary text channels.
const ChannelTypeGuildText = 0

// Webhook is a channel webhook used as the relay identity.
type Webhook struct {
	ID        string `json:"id"`
	Token     string `json:"token"`
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
}

// Embed is a rich message embed.
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       int    `json:"color,omitempty"`
}

// Embed colors used by the daemon.
const (
	ColorWhite     = 0xFFFFFF
	ColorDarkGreen = 0x1F8B4C
	ColorRed       = 0xED4245
)

// Component types.
const (
	ComponentActionRow  = 1
	ComponentButton     = 2
	ComponentSelectMenu = 3
)

// Button styles.
const ButtonStylePrimary = 1

// Component is a message component. One struct covers action rows,
// buttons, and string selects; the Type field decides which fields
// apply, matching the wire format.
type Component struct {
	Type       int            `json:"type"`
	Components []Component    `json:"components,omitempty"`
	Label      string         `json:"label,omitempty"`
	Style      int            `json:"style,omitempty"`
	CustomID   string         `json:"custom_id,omitempty"`
	Disabled   bool           `json:"disabled,omitempty"`
	MinValues  *int           `json:"min_values,omitempty"`
	MaxValues  int            `json:"max_values,omitempty"`
	Options    []SelectOption `json:"options,omitempty"`
}

// SelectOption is one entry of a select menu.
type SelectOption struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Default bool   `json:"default,omitempty"`
}

// AllowedMentions controls which mention types in a message actually
// ping. Parse has no omitempty: an explicit empty list ("ping
// nobody") must serialize.
type AllowedMentions struct {
	Parse []string `json:"parse"`
}

// MessageSend is the request body for creating a channel message.
type MessageSend struct {
	Content         string           `json:"content,omitempty"`
	Embeds          []Embed          `json:"embeds,omitempty"`
	Components      []Component      `json:"components,omitempty"`
	AllowedMentions *AllowedMentions `json:"allowed_mentions,omitempty"`
}

// WebhookExecute is the request body for posting through a webhook
// under an overridden display identity.
type WebhookExecute struct {
	Content         string           `json:"content,omitempty"`
	Username        string           `json:"username,omitempty"`
	AvatarURL       string           `json:"avatar_url,omitempty"`
	Embeds          []Embed          `json:"embeds,omitempty"`
	AllowedMentions *AllowedMentions `json:"allowed_mentions,omitempty"`
}

// WebhookCreate is the request body for creating a channel webhook.
type WebhookCreate struct {
	Name string `json:"name"`
}

// Interaction types.
const (
	InteractionTypeApplicationCommand = 2
	InteractionTypeMessageComponent   = 3
)

// Interaction response types.
const (
	ResponseChannelMessage         = 4
	ResponseDeferredChannelMessage = 5
	ResponseDeferredUpdateMessage  = 6
)

// MessageFlagEphemeral marks an interaction response visible only to
// the invoking user.
const MessageFlagEphemeral = 64

// Interaction is a slash-command invocation or a component click.
type Interaction struct {
	ID            string           `json:"id"`
	ApplicationID string           `json:"application_id"`
	Type          int              `json:"type"`
	Token         string           `json:"token"`
	GuildID       string           `json:"guild_id,omitempty"`
	ChannelID     string           `json:"channel_id,omitempty"`
	Member        *Member          `json:"member,omitempty"`
	User          *User            `json:"user,omitempty"`
	Data          *InteractionData `json:"data,omitempty"`
	// Message is set on component interactions: the message the
	// component sits on.
	Message *Message `json:"message,omitempty"`
}

// UserID returns the invoking user's ID regardless of whether the
// interaction arrived with guild member context.
func (i Interaction) UserID() string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// InteractionData carries the command- or component-specific payload.
type InteractionData struct {
	// Command fields.
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name,omitempty"`
	Options []CommandOption `json:"options,omitempty"`

	// Component fields.
	CustomID      string   `json:"custom_id,omitempty"`
	ComponentType int      `json:"component_type,omitempty"`
	Values        []string `json:"values,omitempty"`
}

// CommandOption is one option of an invoked command. Subcommand
// groups and subcommands nest via Options.
type CommandOption struct {
	Name    string          `json:"name"`
	Type    int             `json:"type"`
	Value   any             `json:"value,omitempty"`
	Options []CommandOption `json:"options,omitempty"`
}

// StringValue returns the option value as a string.
func (o CommandOption) StringValue() string {
	s, _ := o.Value.(string)
	return s
}

// IntValue returns the option value as an int64. JSON numbers decode
// as float64; command integer options are whole by construction.
func (o CommandOption) IntValue() int64 {
	f, _ := o.Value.(float64)
	return int64(f)
}

// InteractionResponse is the callback body acknowledging an
// interaction.
type InteractionResponse struct {
	Type int                      `json:"type"`
	Data *InteractionResponseData `json:"data,omitempty"`
}

// InteractionResponseData is the visible part of an interaction
// response.
type InteractionResponseData struct {
	Content         string           `json:"content,omitempty"`
	Embeds          []Embed          `json:"embeds,omitempty"`
	Components      []Component      `json:"components,omitempty"`
	Flags           int              `json:"flags,omitempty"`
	AllowedMentions *AllowedMentions `json:"allowed_mentions,omitempty"`
}

// MessageEdit is the request body for editing an interaction's
// original response. Components and Embeds have no omitempty so an
// edit can clear them.
type MessageEdit struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []Embed     `json:"embeds"`
	Components []Component `json:"components"`
}

// Application command option types.
const (
	OptionSubcommand      = 1
	OptionSubcommandGroup = 2
	OptionString          = 3
	OptionInteger         = 4
	OptionRole            = 8
)

// ApplicationCommand is a slash-command definition for registration.
type ApplicationCommand struct {
	Name                     string                     `json:"name"`
	Description              string                     `json:"description"`
	DefaultMemberPermissions *string                    `json:"default_member_permissions,omitempty"`
	Options                  []ApplicationCommandOption `json:"options,omitempty"`
}

// ApplicationCommandOption is one option (or subcommand) of a
// command definition.
type ApplicationCommandOption struct {
	Type        int                        `json:"type"`
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Required    bool                       `json:"required,omitempty"`
	Choices     []CommandChoice            `json:"choices,omitempty"`
	Options     []ApplicationCommandOption `json:"options,omitempty"`
}

// CommandChoice is a fixed choice for a string or integer option.
type CommandChoice struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// PermissionAdministrator is the administrator permission bit, in the
// string form command registration expects.
const PermissionAdministrator = "8"
