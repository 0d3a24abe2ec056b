// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "store.json"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestOpenAbsentFile(t *testing.T) {
	s := openTemp(t)

	snapshot := s.Read()
	if snapshot.Sequence.PreviousValue != nil {
		t.Error("fresh store has a previous value")
	}
	if len(snapshot.Roles) != 1 || snapshot.Roles[0].Name != "pronouns" {
		t.Errorf("fresh catalog = %v, want single pronouns category", snapshot.Roles.Names())
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("Open created the store file before any update")
	}
}

func TestUpdatePersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	value := int64(41)
	if _, err := s.Update(func(snapshot *Snapshot) {
		snapshot.Sequence.PreviousValue = &value
		snapshot.Sequence.PreviousUser = "user-1"
		snapshot.Sequence.PreviousTimestamp = 1234
		snapshot.Webhook = WebhookRef{ID: "wh", Token: "tok"}
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reloaded, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	snapshot := reloaded.Read()
	if snapshot.Sequence.PreviousValue == nil || *snapshot.Sequence.PreviousValue != 41 {
		t.Errorf("previous value = %v, want 41", snapshot.Sequence.PreviousValue)
	}
	if snapshot.Sequence.PreviousUser != "user-1" {
		t.Errorf("previous user = %q", snapshot.Sequence.PreviousUser)
	}
	if snapshot.Webhook.ID != "wh" {
		t.Errorf("webhook = %+v", snapshot.Webhook)
	}
}

func TestReadReturnsCopy(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Update(func(snapshot *Snapshot) {
		snapshot.Roles = Catalog{{Name: "colors", Roles: []string{"r1"}}}
	}); err != nil {
		t.Fatal(err)
	}

	first := s.Read()
	first.Roles[0].Roles[0] = "mangled"
	first.Roles[0].Name = "mangled"

	second := s.Read()
	if second.Roles[0].Name != "colors" || second.Roles[0].Roles[0] != "r1" {
		t.Error("mutating a Read result leaked into the store")
	}
}

func TestUpdateFailureLeavesSnapshot(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "store.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	value := int64(7)
	if _, err := s.Update(func(snapshot *Snapshot) {
		snapshot.Sequence.PreviousValue = &value
	}); err != nil {
		t.Fatal(err)
	}

	// Make the directory unwritable so the temp file cannot be created.
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0o700) })

	if _, err := s.Update(func(snapshot *Snapshot) {
		v := int64(999)
		snapshot.Sequence.PreviousValue = &v
	}); err == nil {
		t.Skip("running as a user unaffected by directory permissions")
	}

	snapshot := s.Read()
	if snapshot.Sequence.PreviousValue == nil || *snapshot.Sequence.PreviousValue != 7 {
		t.Errorf("failed update published value %v, want 7 retained", snapshot.Sequence.PreviousValue)
	}
}

func TestOpenReformattedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	value := int64(12)
	if _, err := s.Update(func(snapshot *Snapshot) {
		snapshot.Sequence.PreviousValue = &value
	}); err != nil {
		t.Fatal(err)
	}

	// Whitespace-only changes must not trip the checksum: the file is
	// written indented and a hand edit may reflow it further.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var reflowed bytes.Buffer
	if err := json.Indent(&reflowed, data, "", "        "); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, reflowed.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen of reformatted file failed: %v", err)
	}
	snapshot := reloaded.Read()
	if snapshot.Sequence.PreviousValue == nil || *snapshot.Sequence.PreviousValue != 12 {
		t.Errorf("previous value = %v, want 12", snapshot.Sequence.PreviousValue)
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Update(func(snapshot *Snapshot) {
		snapshot.Sequence.PreviousUser = "someone"
	}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(data), "someone", "attacker", 1)
	if tampered == string(data) {
		t.Fatal("test setup: substitution had no effect")
	}
	if err := os.WriteFile(path, []byte(tampered), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path, nil); err == nil {
		t.Fatal("Open accepted a tampered store file")
	} else if !strings.Contains(err.Error(), "checksum") {
		t.Errorf("error %q does not mention the checksum", err)
	}
}

func TestCatalogHelpers(t *testing.T) {
	catalog := Catalog{
		{Name: "pronouns", Roles: []string{"a"}},
		{Name: "colors", Roles: nil},
	}
	if got := catalog.Find("colors"); got == nil || got.Name != "colors" {
		t.Errorf("Find(colors) = %v", got)
	}
	if catalog.Find("absent") != nil {
		t.Error("Find(absent) != nil")
	}
	names := catalog.Names()
	if len(names) != 2 || names[0] != "pronouns" || names[1] != "colors" {
		t.Errorf("Names() = %v", names)
	}
}
