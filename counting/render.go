// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package counting

import (
	"fmt"
	"strings"

	"github.com/qudah-works/qudah/discord"
	"github.com/qudah-works/qudah/lib/numeral"
)

// FormatSubmission renders a counted value as relay-message content:
// the grouped representation in inline code, struck through when the
// submission broke the sequence, followed by the submitter's note
// wrapped in spoiler markers.
func FormatSubmission(value int64, radix int, note string, struck bool) string {
	var b strings.Builder
	if struck {
		b.WriteString("~~")
	}
	b.WriteString("`")
	b.WriteString(numeral.Stringify(value, radix))
	b.WriteString("`")
	if struck {
		b.WriteString("~~")
	}
	if note != "" {
		b.WriteString(" ||")
		b.WriteString(note)
		b.WriteString("||")
	}
	return b.String()
}

// BreakEmbed renders the public sequence-break announcement: who
// broke it, a diff of expected versus received, and where the count
// got to before resetting.
func BreakEmbed(userID string, lastCorrect, received int64, radix int) discord.Embed {
	expected := lastCorrect + 1
	description := fmt.Sprintf(
		"<@%s> just malfunctioned!\n"+
			"```diff\n+ %s\n- %s\n```\n"+
			"we successfully counted to `%s` (decimal `%d`). let's try again starting from `0`.",
		userID,
		numeral.Stringify(expected, radix),
		numeral.Stringify(received, radix),
		numeral.Stringify(lastCorrect, radix),
		lastCorrect,
	)
	return discord.Embed{
		Title:       "defective unit detected",
		Description: description,
	}
}
