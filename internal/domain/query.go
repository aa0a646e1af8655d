package domain

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// LogFilter bounds a log query. Zero values mean "no bound".
type LogFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// ParseLogFilter builds a LogFilter from raw query values. Values that do not parse are
// dropped rather than rejected, so a malformed optional bound behaves as if it were absent.
func ParseLogFilter(from, to, limit string) LogFilter {
	var f LogFilter
	if strings.TrimSpace(from) != "" {
		if d, err := ParseDate(from); err == nil {
			f.From = &d
		}
	}
	if strings.TrimSpace(to) != "" {
		if d, err := ParseDate(to); err == nil {
			f.To = &d
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(limit)); err == nil && n > 0 {
		f.Limit = n
	}
	return f
}

// BuildLog filters, orders and truncates one user's exercises. Input order is taken as insertion
// order and is preserved among entries sharing a date.
func BuildLog(exercises []Exercise, f LogFilter) []LogEntry {
	selected := make([]Exercise, 0, len(exercises))
	for _, ex := range exercises {
		if f.From != nil && ex.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && ex.Date.After(*f.To) {
			continue
		}
		selected = append(selected, ex)
	}

	slices.SortStableFunc(selected, func(a, b Exercise) int {
		return a.Date.Compare(b.Date)
	})

	if f.Limit > 0 && len(selected) > f.Limit {
		selected = selected[:f.Limit]
	}

	log := make([]LogEntry, 0, len(selected))
	for _, ex := range selected {
		log = append(log, LogEntry{Description: ex.Description, Duration: ex.Duration, Date: ex.Date})
	}
	return log
}
