// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

// Package roles implements self-assignable role management: an
// administrator-curated catalog of role categories persisted in the
// store, and the paginated ephemeral dialog members use to pick roles
// from it.
package roles
