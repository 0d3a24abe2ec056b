// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package numeral

import (
	"strings"
	"unicode"
)

// Radixes are the numeral bases a counting channel can be configured
// with.
var Radixes = []int{2, 10, 16}

// ValidRadix reports whether radix is a supported numeral base.
func ValidRadix(radix int) bool {
	for _, r := range Radixes {
		if r == radix {
			return true
		}
	}
	return false
}

// Parsed is the result of extracting a counting submission from a raw
// chat message.
type Parsed struct {
	// Representation is the run of digit characters found in the
	// message, verbatim (original casing, inner whitespace removed).
	// Empty when the message contains no digits of the active base.
	Representation string

	// Note is the trailing commentary after the number, with wrapper
	// characters that also appeared before the number (markup
	// delimiters like "**" or "||") and denied characters stripped.
	Note string

	// Value is the numeric interpretation of Representation in the
	// active base, or 0 when Representation is empty or unparsable.
	Value int64
}

// parser states. A character can be re-evaluated by the next state
// within the same step, so the scan below uses consecutive ifs rather
// than a switch.
const (
	statePrefix = iota
	stateRepresentation
	stateNote
)

// denied characters are dropped from notes outright: the right-to-left
// mark flips the rendered digit order of the relayed message, and a
// stray spoiler bar would open an unterminated spoiler in the relay.
func denied(c rune) bool {
	return c == '\u200f' || c == '|'
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Parse extracts a counting submission from a raw message.
//
// The scan runs a three-state automaton over the message's characters:
//
//   - prefix: characters before the first digit accumulate in a prefix
//     buffer. The first digit switches to representation without being
//     consumed here.
//   - representation: digits append to the representation, whitespace
//     is dropped, anything else switches to note without being
//     consumed. If expected is non-nil and the representation so far
//     already evaluates to *expected, collection stops immediately so a
//     correct answer doesn't swallow digit-looking characters that
//     belong to the following words.
//   - note: a character that still has a match in the prefix buffer
//     cancels that match and is dropped (this strips symmetric markup
//     wrappers like "**42**"), denied characters are dropped, and the
//     rest accumulates as the note.
//
// The digit set is derived from radix: '0'..'9' limited to the base,
// plus 'a'..'f' and a literal 'x' for base 16 (so "0x2a" survives the
// automaton). Membership is case-insensitive; the representation keeps
// the original casing.
func Parse(text string, radix int, expected *int64) Parsed {
	var out Parsed
	var prefix []rune
	var representation strings.Builder
	var note strings.Builder

	state := statePrefix
	for _, c := range text {
		if state == statePrefix {
			if isDigit(c, radix) {
				state = stateRepresentation
			} else {
				prefix = append(prefix, c)
			}
		}
		if state == stateRepresentation {
			if isDigit(c, radix) {
				representation.WriteRune(c)
				if expected != nil {
					if v, ok := parseInt(representation.String(), radix); ok && v == *expected {
						state = stateNote
						continue
					}
				}
				continue
			}
			if isSpace(c) {
				continue
			}
			state = stateNote
		}
		if state == stateNote {
			if i := indexRune(prefix, c); i >= 0 {
				prefix = append(prefix[:i], prefix[i+1:]...)
				continue
			}
			if denied(c) {
				continue
			}
			note.WriteRune(c)
		}
	}

	out.Representation = representation.String()
	out.Note = strings.TrimSpace(note.String())
	out.Value, _ = parseInt(out.Representation, radix)
	return out
}

// isDigit reports whether c belongs to the digit set of the given
// base. Case-insensitive.
func isDigit(c rune, radix int) bool {
	c = unicode.ToLower(c)
	switch {
	case c >= '0' && c <= '9':
		return int(c-'0') < radix
	case c >= 'a' && c <= 'f':
		return radix > 10 && int(c-'a')+10 < radix
	case c == 'x':
		return radix > 10
	default:
		return false
	}
}

func indexRune(runes []rune, c rune) int {
	for i, r := range runes {
		if r == c {
			return i
		}
	}
	return -1
}

// parseInt interprets s in the given base with the forgiving semantics
// the counting channel depends on: an optional "0x"/"0X" prefix is
// accepted for base 16, parsing stops at the first character that is
// not a digit of the base (so "1x2" in base 16 reads as 1), and an
// input with no leading digits yields (0, false).
func parseInt(s string, radix int) (int64, bool) {
	runes := []rune(s)
	i := 0
	if radix == 16 && len(runes) >= 2 && runes[0] == '0' && (runes[1] == 'x' || runes[1] == 'X') {
		i = 2
	}

	var value int64
	digits := 0
	for ; i < len(runes); i++ {
		d, ok := digitValue(runes[i], radix)
		if !ok {
			break
		}
		value = value*int64(radix) + int64(d)
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	return value, true
}

func digitValue(c rune, radix int) (int, bool) {
	c = unicode.ToLower(c)
	switch {
	case c >= '0' && c <= '9':
		d := int(c - '0')
		return d, d < radix
	case c >= 'a' && c <= 'f':
		d := int(c-'a') + 10
		return d, d < radix
	default:
		return 0, false
	}
}
