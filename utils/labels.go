package utils

import (
	"strings"
	"unicode/utf8"
)

// LabelPad is the filler used to give tree labels a fixed width (U+2000 EN QUAD).
const LabelPad = "\u2000"

// YearKey returns the "YYYY" grouping key of a "YYYY-MM-DD" date.
// Short dates are returned as is.
func YearKey(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return date
	}
	return date[:4]
}

// MonthKey returns the "YYYY-MM" grouping key of a "YYYY-MM-DD" date.
func MonthKey(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// MonthLabel returns the "MM" part of a month key.
func MonthLabel(monthKey string) string {
	if len(monthKey) < 7 {
		return monthKey
	}
	return monthKey[5:7]
}

// PadLabel right-pads s with LabelPad up to width runes.
func PadLabel(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(LabelPad, width-n)
}
