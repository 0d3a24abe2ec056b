// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package numeral

import "testing"

func expect(v int64) *int64 { return &v }

func TestParse(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		radix          int
		expected       *int64
		representation string
		note           string
		value          int64
	}{
		{
			name:           "number with trailing note",
			text:           "42 hello",
			radix:          10,
			representation: "42",
			note:           "hello",
			value:          42,
		},
		{
			name:           "bare number",
			text:           "7",
			radix:          10,
			representation: "7",
			value:          7,
		},
		{
			name:           "no digits at all",
			text:           "hello there",
			radix:          10,
			representation: "",
			note:           "",
			value:          0,
		},
		{
			name:           "empty message",
			text:           "",
			radix:          10,
			representation: "",
			value:          0,
		},
		{
			name:           "markup wrapper neutralized",
			text:           "**5** nice",
			radix:          10,
			representation: "5",
			note:           "nice",
			value:          5,
		},
		{
			name:           "spoiler wrapper neutralized and bars denied",
			text:           "||10|| secret",
			radix:          10,
			representation: "10",
			note:           "secret",
			value:          10,
		},
		{
			name:           "right-to-left mark dropped from note",
			text:           "3 ok‏ay",
			radix:          10,
			representation: "3",
			note:           "okay",
			value:          3,
		},
		{
			name:           "whitespace inside the number is dropped",
			text:           "12 3456",
			radix:          10,
			representation: "123456",
			value:          123456,
		},
		{
			name:           "early termination at the expected value",
			text:           "123abc",
			radix:          16,
			expected:       expect(18), // 0x12
			representation: "12",
			note:           "3abc",
			value:          18,
		},
		{
			name:           "no early termination without an expected value",
			text:           "123abc",
			radix:          16,
			representation: "123abc",
			value:          0x123abc,
		},
		{
			name:           "hex with 0x prefix",
			text:           "0x2a",
			radix:          16,
			representation: "0x2a",
			value:          42,
		},
		{
			name:           "binary ignores out-of-base digits",
			text:           "101 2 fun",
			radix:          2,
			representation: "101",
			note:           "2 fun",
			value:          5,
		},
		{
			name:           "uppercase hex digits",
			text:           "FF stop",
			radix:          16,
			representation: "FF",
			note:           "stop",
			value:          255,
		},
		{
			// In base 16 a digit-leading note word is swallowed into the
			// representation, since whitespace inside a number is dropped.
			name:           "hex note starting with a digit letter",
			text:           "FF done",
			radix:          16,
			representation: "FFd",
			note:           "one",
			value:          0xFFD,
		},
		{
			name:           "prefix noise before the number",
			text:           "> 9 quoted",
			radix:          10,
			representation: "9",
			note:           "quoted",
			value:          9,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Parse(test.text, test.radix, test.expected)
			if got.Representation != test.representation {
				t.Errorf("representation = %q, want %q", got.Representation, test.representation)
			}
			if got.Note != test.note {
				t.Errorf("note = %q, want %q", got.Note, test.note)
			}
			if got.Value != test.value {
				t.Errorf("value = %d, want %d", got.Value, test.value)
			}
		})
	}
}

func TestParseNeverConsumesUnmatchedWrapper(t *testing.T) {
	// Only one '*' appears before the number, so only one of the two
	// trailing stars is cancelled.
	got := Parse("*8** hm", 10, nil)
	if got.Representation != "8" {
		t.Fatalf("representation = %q, want %q", got.Representation, "8")
	}
	if got.Note != "* hm" {
		t.Errorf("note = %q, want %q", got.Note, "* hm")
	}
}

func TestParseIntSemantics(t *testing.T) {
	tests := []struct {
		in    string
		radix int
		value int64
		ok    bool
	}{
		{"42", 10, 42, true},
		{"", 10, 0, false},
		{"0x1a", 16, 26, true},
		{"0X1A", 16, 26, true},
		{"1x2", 16, 1, true}, // stops at the embedded x
		{"x", 16, 0, false},
		{"ff", 16, 255, true},
		{"101", 2, 5, true},
	}
	for _, test := range tests {
		value, ok := parseInt(test.in, test.radix)
		if value != test.value || ok != test.ok {
			t.Errorf("parseInt(%q, %d) = (%d, %v), want (%d, %v)",
				test.in, test.radix, value, ok, test.value, test.ok)
		}
	}
}

func TestValidRadix(t *testing.T) {
	for _, radix := range []int{2, 10, 16} {
		if !ValidRadix(radix) {
			t.Errorf("ValidRadix(%d) = false, want true", radix)
		}
	}
	for _, radix := range []int{0, 1, 8, 36} {
		if ValidRadix(radix) {
			t.Errorf("ValidRadix(%d) = true, want false", radix)
		}
	}
}
