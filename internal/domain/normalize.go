package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation messages surfaced to API callers.
const (
	MsgUsernameRequired    = "username is required"
	MsgUsernameExists      = "username already exists"
	MsgUsernameInvalid     = "username must be valid text"
	MsgDescriptionRequired = "description is required"
	MsgDescriptionInvalid  = "description must be valid text"
	MsgInvalidDuration     = "duration must be a number greater than 0"
	MsgInvalidDate         = "invalid date"
)

// NormalizeUsername trims and validates a username.
func NormalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if username == "" {
		return "", invalid(MsgUsernameRequired)
	}
	if !storableText(username) {
		return "", invalid(MsgUsernameInvalid)
	}
	return username, nil
}

// NormalizeDescription trims and validates an exercise description.
func NormalizeDescription(raw string) (string, error) {
	description := strings.TrimSpace(raw)
	if description == "" {
		return "", invalid(MsgDescriptionRequired)
	}
	if !storableText(description) {
		return "", invalid(MsgDescriptionInvalid)
	}
	return description, nil
}

// NormalizeDuration parses a duration in whole minutes. It must be at least 1 and fit a
// 32-bit column so every backend accepts the same range.
func NormalizeDuration(raw string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || minutes < 1 || minutes > math.MaxInt32 {
		return 0, invalid(MsgInvalidDuration)
	}
	return minutes, nil
}

// NormalizeDate parses an optional date. A blank value yields today's date according to now.
func NormalizeDate(raw string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return civilDate(now), nil
	}
	date, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, invalid(MsgInvalidDate)
	}
	return date, nil
}

// storableText reports whether s is UTF-8 without NUL bytes, which text columns reject.
func storableText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}
