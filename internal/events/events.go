// Package events defines the payloads published for registry and ledger changes.
package events

import "time"

// Event types, also used as the event_type Kafka header.
const (
	TypeUserRegistered = "user.registered"
	TypeExerciseLogged = "exercise.logged"
)

// Topics events are routed to.
const (
	TopicUserEvents     = "user_events"
	TopicExerciseEvents = "exercise_events"
)

// UserRegistered is emitted when a user is created.
type UserRegistered struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ExerciseLogged is emitted when an exercise is appended. Date is ISO YYYY-MM-DD.
type ExerciseLogged struct {
	ExerciseID  string    `json:"exercise_id"`
	UserID      string    `json:"user_id"`
	Description string    `json:"description"`
	DurationMin int       `json:"duration_min"`
	Date        string    `json:"date"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// TopicFor returns the topic an event type is published to, or "" when unknown.
func TopicFor(eventType string) string {
	switch eventType {
	case TypeUserRegistered:
		return TopicUserEvents
	case TypeExerciseLogged:
		return TopicExerciseEvents
	default:
		return ""
	}
}
