// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package numeral

import (
	"strconv"
	"strings"
)

// groupSize is how many digits sit between separators in rendered
// numbers.
const groupSize = 4

// Stringify renders v in the given base, grouped every 4 digits from
// the right with single spaces ("12 3456" rather than "123456") so
// long binary counts stay readable. There is no leading separator.
func Stringify(v int64, radix int) string {
	raw := strconv.FormatInt(v, radix)

	sign := ""
	if strings.HasPrefix(raw, "-") {
		sign, raw = "-", raw[1:]
	}

	var b strings.Builder
	b.WriteString(sign)
	for i := 0; i < len(raw); i++ {
		if i != 0 && (len(raw)-i)%groupSize == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(raw[i])
	}
	return b.String()
}
