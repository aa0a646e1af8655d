package domain

import (
	"strings"
	"time"
)

// DateLayout is the canonical wire representation of a calendar date.
const DateLayout = "2006-01-02"

// User is a registered person that owns exercises.
type User struct {
	ID       string
	Username string
}

// Exercise is a single logged activity. Date carries no time-of-day component.
type Exercise struct {
	ID          string
	UserID      string
	Description string
	Duration    int
	Date        time.Time
}

// ExerciseEntry is an Exercise joined with its owner's username for response shaping.
type ExerciseEntry struct {
	Exercise
	Username string
}

// LogEntry is the projection of an Exercise returned by log queries.
type LogEntry struct {
	Description string
	Duration    int
	Date        time.Time
}

// UserLog is the shaped result of a log query.
type UserLog struct {
	User  User
	Count int
	Log   []LogEntry
}

// ParseDate parses an ISO calendar date. Full RFC 3339 timestamps are accepted and truncated
// to their calendar date in the offset they were written in.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return civilDate(t), nil
}

// FormatDate renders a stored date in canonical ISO form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
