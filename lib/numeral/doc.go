// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

// Package numeral parses counting submissions out of free-form chat
// messages and renders numbers back into the channel's numeral base.
//
// Parsing is a small character automaton rather than a regular
// expression: people wrap their numbers in markup ("**42**"), follow
// them with commentary ("42 nice"), or prefix them with noise, and the
// automaton separates the number from all of that in a single
// left-to-right pass. See Parse for the exact rules.
//
// The package is pure: no I/O, no side effects, and Parse never
// fails. Unparsable input yields an empty representation and a zero
// value.
package numeral
