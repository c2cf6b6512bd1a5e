package database

import (
	"strings"
	"time"
)

// TimeLayout is the fixed-width UTC layout used for every timestamp column.
// Fixed width keeps lexical order equal to chronological order, which the
// access event and telemetry queries rely on for ORDER BY and MAX().
// Nanoseconds are kept so the simulation limiter measures exact gaps.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp. RFC3339 values written by other
// tools, including millisecond stamps, are accepted too.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	return t, err
}

// NullableString converts an optional string to a value for a nullable column.
func NullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// BoolToInt converts a bool for SQLite INTEGER storage.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IsUniqueConstraintError reports whether err is a SQLite UNIQUE violation.
// With column set ("devices.token"), only violations on that column match.
func IsUniqueConstraintError(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return column == "" || strings.Contains(msg, column)
}

// IsForeignKeyError reports whether err is a SQLite FOREIGN KEY violation.
func IsForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
