// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package store

// SequenceState is the durable record of the counting sequence: the
// last accepted value, who submitted it, and when.
type SequenceState struct {
	// PreviousValue is the last accepted value, nil before the first
	// count. It moves up by exactly 1 on acceptance, or to -1 on a
	// broken sequence (so the next expected value is 0) unless the
	// channel is configured to resume on error.
	PreviousValue *int64 `json:"previous_value,omitempty"`

	// PreviousUser is the last submitter (accepted or broken, never
	// merely rejected). It exists solely to stop the same user from
	// counting twice in a row.
	PreviousUser string `json:"previous_user,omitempty"`

	// PreviousTimestamp is when the sequence last moved, in unix
	// milliseconds. Zero means unset.
	PreviousTimestamp int64 `json:"previous_timestamp,omitempty"`
}

// Category is one administrator-curated group of self-assignable
// roles. Order within Roles is the registration order.
type Category struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// Catalog is the ordered list of role categories. Order is
// significant: the role selection dialog pages through it front to
// back.
type Catalog []Category

// Find returns a pointer to the named category, or nil.
func (c Catalog) Find(name string) *Category {
	for i := range c {
		if c[i].Name == name {
			return &c[i]
		}
	}
	return nil
}

// Names returns the category names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, category := range c {
		names[i] = category.Name
	}
	return names
}

// WebhookRef identifies the provisioned relay webhook so it survives
// restarts instead of being recreated every launch.
type WebhookRef struct {
	ID    string `json:"id,omitempty"`
	Token string `json:"token,omitempty"`
}

// Snapshot is the whole persisted state. Snapshots are values: Store
// hands out deep copies, and updates go through Store.Update so a
// reader never observes a partially applied delta.
type Snapshot struct {
	Sequence SequenceState `json:"sequence"`
	Roles    Catalog       `json:"roles"`
	Webhook  WebhookRef    `json:"webhook,omitempty"`
}

// clone returns a deep copy of the snapshot.
func (s Snapshot) clone() Snapshot {
	out := s
	if s.Sequence.PreviousValue != nil {
		v := *s.Sequence.PreviousValue
		out.Sequence.PreviousValue = &v
	}
	out.Roles = make(Catalog, len(s.Roles))
	for i, category := range s.Roles {
		out.Roles[i] = Category{
			Name:  category.Name,
			Roles: append([]string(nil), category.Roles...),
		}
	}
	return out
}

// defaultSnapshot is the state a fresh deployment starts with: an
// empty sequence and a single empty "pronouns" category.
func defaultSnapshot() Snapshot {
	return Snapshot{
		Roles: Catalog{{Name: "pronouns", Roles: []string{}}},
	}
}
