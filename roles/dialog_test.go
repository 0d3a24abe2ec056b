// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package roles

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/qudah-works/qudah/discord"
	"github.com/qudah-works/qudah/lib/clock"
	"github.com/qudah-works/qudah/store"
)

// fakeMembers serves one member and records grant changes.
type fakeMembers struct {
	mu      sync.Mutex
	held    map[string]bool
	added   []string
	removed []string
}

func (f *fakeMembers) Member(ctx context.Context, userID string) (*discord.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var roles []string
	for id, held := range f.held {
		if held {
			roles = append(roles, id)
		}
	}
	return &discord.Member{User: &discord.User{ID: userID}, Roles: roles}, nil
}

func (f *fakeMembers) AddRole(ctx context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held[roleID] = true
	f.added = append(f.added, roleID)
	return nil
}

func (f *fakeMembers) RemoveRole(ctx context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held[roleID] = false
	f.removed = append(f.removed, roleID)
	return nil
}

// fakeRoleSource serves a fixed guild role list.
type fakeRoleSource struct {
	roles []discord.Role
}

func (f *fakeRoleSource) Roles(ctx context.Context) ([]discord.Role, error) {
	return f.roles, nil
}

// fakeResponder records edits and acks.
type fakeResponder struct {
	mu    sync.Mutex
	edits []discord.MessageEdit
	acks  int
}

func (f *fakeResponder) AckUpdate(ctx context.Context, interactionID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks++
	return nil
}

func (f *fakeResponder) Edit(ctx context.Context, edit discord.MessageEdit) (*discord.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, edit)
	return &discord.Message{ID: "reply"}, nil
}

func (f *fakeResponder) allEdits() []discord.MessageEdit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]discord.MessageEdit(nil), f.edits...)
}

type dialogFixture struct {
	dialog    *Dialog
	store     *store.Store
	members   *fakeMembers
	responder *fakeResponder
	clock     *clock.FakeClock
}

func newDialogFixture(t *testing.T, catalog store.Catalog, guildRoles []discord.Role, held []string) *dialogFixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "store.json"), nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	if _, err := st.Update(func(s *store.Snapshot) { s.Roles = catalog }); err != nil {
		t.Fatalf("seeding catalog: %v", err)
	}

	members := &fakeMembers{held: map[string]bool{}}
	for _, id := range held {
		members.held[id] = true
	}
	responder := &fakeResponder{}
	fake := clock.Fake(time.Unix(1_700_000_000, 0))

	dialog, err := NewDialog(DialogConfig{
		UserID:     "alice",
		Store:      st,
		Members:    members,
		RoleSource: &fakeRoleSource{roles: guildRoles},
		Responder:  responder,
		Clock:      fake,
	})
	if err != nil {
		t.Fatalf("NewDialog: %v", err)
	}
	return &dialogFixture{
		dialog:    dialog,
		store:     st,
		members:   members,
		responder: responder,
		clock:     fake,
	}
}

func selectInteraction(user, category string, values []string) discord.Interaction {
	return discord.Interaction{
		ID:    "i-select",
		Type:  discord.InteractionTypeMessageComponent,
		Token: "t",
		User:  &discord.User{ID: user},
		Data: &discord.InteractionData{
			CustomID: customIDSelectPrefix + category,
			Values:   values,
		},
	}
}

func pageInteraction(user string, target int) discord.Interaction {
	return discord.Interaction{
		ID:    "i-page",
		Type:  discord.InteractionTypeMessageComponent,
		Token: "t",
		User:  &discord.User{ID: user},
		Data: &discord.InteractionData{
			CustomID: customIDTurnPagePrefix + string(rune('0'+target)),
		},
	}
}

func TestDialogWalksCategoriesAndAppliesSelections(t *testing.T) {
	f := newDialogFixture(t,
		store.Catalog{
			{Name: "pronouns", Roles: []string{"r1", "r2"}},
			{Name: "colors", Roles: []string{"r3"}},
			{Name: "empty"},
		},
		[]discord.Role{
			{ID: "r1", Name: "she/her"},
			{ID: "r2", Name: "he/him"},
			{ID: "r3", Name: "red"},
		},
		[]string{"r2"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		f.dialog.Run(ctx)
		close(done)
	}()

	// First page is up once the dialog is waiting on its timeout.
	f.clock.WaitForTimers(1)

	edits := f.responder.allEdits()
	if len(edits) != 1 {
		t.Fatalf("edits = %d, want the pronouns page", len(edits))
	}
	embed := edits[0].Embeds[0]
	if embed.Description != "__**0. pronouns**__ > 1. colors" {
		t.Errorf("breadcrumb = %q", embed.Description)
	}
	menu := edits[0].Components[0].Components[0]
	if menu.CustomID != "select-roles-pronouns" {
		t.Errorf("menu custom_id = %q", menu.CustomID)
	}
	// Options sorted by lowercase label: he/him before she/her.
	if menu.Options[0].Label != "he/him" || !menu.Options[0].Default {
		t.Errorf("first option = %+v, want held he/him", menu.Options[0])
	}
	if menu.Options[1].Label != "she/her" || menu.Options[1].Default {
		t.Errorf("second option = %+v, want unheld she/her", menu.Options[1])
	}
	back := edits[0].Components[1].Components[0]
	if !back.Disabled {
		t.Error("back button enabled on the first page")
	}

	// Select she/her only: he/him is removed, she/her added.
	if !f.dialog.Offer(selectInteraction("alice", "pronouns", []string{"r1"})) {
		t.Fatal("session refused the selection")
	}
	f.clock.WaitForTimers(2)

	f.members.mu.Lock()
	removed := append([]string(nil), f.members.removed...)
	added := append([]string(nil), f.members.added...)
	f.members.mu.Unlock()
	if !reflect.DeepEqual(removed, []string{"r2"}) || !reflect.DeepEqual(added, []string{"r1"}) {
		t.Errorf("removed = %v added = %v, want [r2] then [r1]", removed, added)
	}

	// Page two, then an empty selection carries it to completion.
	if !f.dialog.Offer(selectInteraction("alice", "colors", nil)) {
		t.Fatal("session refused the second selection")
	}
	<-done

	edits = f.responder.allEdits()
	final := edits[len(edits)-1]
	if len(final.Components) != 0 {
		t.Error("final edit kept components")
	}
	if final.Embeds[0].Description != "You've updated your roles!" {
		t.Errorf("final description = %q", final.Embeds[0].Description)
	}
	if final.Embeds[0].Color != discord.ColorDarkGreen {
		t.Errorf("final color = %#x", final.Embeds[0].Color)
	}
}

func TestDialogPageButtonsJump(t *testing.T) {
	f := newDialogFixture(t,
		store.Catalog{
			{Name: "pronouns", Roles: []string{"r1"}},
			{Name: "colors", Roles: []string{"r3"}},
		},
		[]discord.Role{
			{ID: "r1", Name: "she/her"},
			{ID: "r3", Name: "red"},
		},
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.dialog.Run(ctx)
	f.clock.WaitForTimers(1)

	if !f.dialog.Offer(pageInteraction("alice", 1)) {
		t.Fatal("session refused the page turn")
	}
	f.clock.WaitForTimers(2)

	edits := f.responder.allEdits()
	menu := edits[1].Components[0].Components[0]
	if menu.CustomID != "select-roles-colors" {
		t.Errorf("second page menu = %q, want select-roles-colors", menu.CustomID)
	}
	if f.members.added != nil || f.members.removed != nil {
		t.Error("page turn changed role grants")
	}
}

func TestDialogIgnoresOtherUsers(t *testing.T) {
	f := newDialogFixture(t,
		store.Catalog{{Name: "pronouns", Roles: []string{"r1"}}},
		[]discord.Role{{ID: "r1", Name: "she/her"}},
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.dialog.Run(ctx)
	f.clock.WaitForTimers(1)

	if f.dialog.Offer(selectInteraction("mallory", "pronouns", []string{"r1"})) {
		t.Error("session claimed another user's interaction")
	}
	if f.dialog.Offer(discord.Interaction{
		Type: discord.InteractionTypeMessageComponent,
		User: &discord.User{ID: "alice"},
		Data: &discord.InteractionData{CustomID: "unrelated-button"},
	}) {
		t.Error("session claimed an unrelated component")
	}
}

func TestDialogTimesOut(t *testing.T) {
	f := newDialogFixture(t,
		store.Catalog{{Name: "pronouns", Roles: []string{"r1"}}},
		[]discord.Role{{ID: "r1", Name: "she/her"}},
		nil,
	)

	done := make(chan struct{})
	go func() {
		f.dialog.Run(context.Background())
		close(done)
	}()
	f.clock.WaitForTimers(1)
	f.clock.Advance(DefaultTimeout)
	<-done

	edits := f.responder.allEdits()
	final := edits[len(edits)-1]
	if final.Embeds[0].Description != ":x: Interaction timed out." {
		t.Errorf("timeout description = %q", final.Embeds[0].Description)
	}
	if final.Embeds[0].Color != discord.ColorRed {
		t.Errorf("timeout color = %#x", final.Embeds[0].Color)
	}
	if len(final.Components) != 0 {
		t.Error("timeout edit kept components")
	}
}

func TestDialogPrunesStaleRoles(t *testing.T) {
	f := newDialogFixture(t,
		store.Catalog{{Name: "pronouns", Roles: []string{"r1", "gone"}}},
		[]discord.Role{{ID: "r1", Name: "she/her"}},
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.dialog.Run(ctx)
	f.clock.WaitForTimers(1)

	category := f.store.Read().Roles.Find("pronouns")
	if !reflect.DeepEqual(category.Roles, []string{"r1"}) {
		t.Errorf("catalog roles = %v, want stale id pruned", category.Roles)
	}
	menu := f.responder.allEdits()[0].Components[0].Components[0]
	if len(menu.Options) != 1 || menu.Options[0].Value != "r1" {
		t.Errorf("menu options = %+v, want only r1", menu.Options)
	}
}

func TestDialogCompletesImmediatelyWithEmptyCatalog(t *testing.T) {
	f := newDialogFixture(t, store.Catalog{{Name: "pronouns"}}, nil, nil)

	done := make(chan struct{})
	go func() {
		f.dialog.Run(context.Background())
		close(done)
	}()
	<-done

	edits := f.responder.allEdits()
	if len(edits) != 1 || edits[0].Embeds[0].Description != "You've updated your roles!" {
		t.Errorf("edits = %+v, want immediate completion", edits)
	}
}
