package core

import (
	"strings"
	"time"
)

// TimestampLayout is the layout of every timestamp written to the flat files (YYYY-MM-DD HH:MM:SS).
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

var NowFunc = time.Now // mockable

// Timestamp formats the current local time with TimestampLayout.
func Timestamp() string {
	return NowFunc().Format(TimestampLayout)
}

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}
