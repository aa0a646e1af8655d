// Package domain defines the business logic for the exercise tracker.
package domain

import (
	"context"
	"errors"
	"time"

	"example.com/exercisetracker/internal/observability"
)

// IDKind selects the identifier sequence an allocator draws from.
type IDKind string

const (
	KindUser     IDKind = "user"
	KindExercise IDKind = "exercise"
)

// IDAllocator issues identifiers that are unique per kind and never reused.
type IDAllocator interface {
	Next(kind IDKind) string
}

// UserRegistry captures user persistence.
type UserRegistry interface {
	// CreateUser stores a user. Registries that enforce unique usernames return ErrUsernameTaken.
	CreateUser(ctx context.Context, user User) error
	// GetUser returns nil without error when the user does not exist.
	GetUser(ctx context.Context, id string) (*User, error)
	// ListUsers returns users in insertion order.
	ListUsers(ctx context.Context) ([]User, error)
}

// ExerciseLedger captures exercise persistence.
type ExerciseLedger interface {
	// AppendExercise stores an exercise, returning ErrUserNotFound when its owner is missing.
	AppendExercise(ctx context.Context, exercise Exercise) error
	// ListExercisesByUser returns a user's exercises in insertion order.
	ListExercisesByUser(ctx context.Context, userID string) ([]Exercise, error)
}

// Store is a backend serving both the registry and the ledger.
type Store interface {
	UserRegistry
	ExerciseLedger
}

// Service orchestrates user registration, exercise logging and log queries.
type Service struct {
	users  UserRegistry
	ledger ExerciseLedger
	ids    IDAllocator
	now    func() time.Time
}

// Option configures optional Service behaviour.
type Option func(*Service)

// WithClock overrides the clock used to default missing exercise dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs a Service.
func NewService(store Store, ids IDAllocator, opts ...Option) *Service {
	s := &Service{users: store, ledger: store, ids: ids, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendExerciseInput carries the raw, untyped fields of an append request.
type AppendExerciseInput struct {
	UserID      string
	Description string
	Duration    string
	Date        string
}

// CreateUser validates and registers a new user.
func (s *Service) CreateUser(ctx context.Context, rawUsername string) (*User, error) {
	username, err := NormalizeUsername(rawUsername)
	if err != nil {
		return nil, err
	}

	user := User{ID: s.ids.Next(KindUser), Username: username}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, invalid(MsgUsernameExists)
		}
		return nil, wrapStorage("create user", err)
	}

	observability.RecordUserCreated()
	return &user, nil
}

// ListUsers returns every registered user in insertion order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, wrapStorage("list users", err)
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	if !storableText(id) {
		return nil, ErrUserNotFound
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, wrapStorage("get user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// AppendExercise resolves the owner, normalizes the input and records a new exercise.
func (s *Service) AppendExercise(ctx context.Context, input AppendExerciseInput) (*ExerciseEntry, error) {
	user, err := s.GetUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	description, err := NormalizeDescription(input.Description)
	if err != nil {
		return nil, err
	}
	duration, err := NormalizeDuration(input.Duration)
	if err != nil {
		return nil, err
	}
	date, err := NormalizeDate(input.Date, s.now())
	if err != nil {
		return nil, err
	}

	exercise := Exercise{
		ID:          s.ids.Next(KindExercise),
		UserID:      user.ID,
		Description: description,
		Duration:    duration,
		Date:        date,
	}
	if err := s.ledger.AppendExercise(ctx, exercise); err != nil {
		return nil, wrapStorage("append exercise", err)
	}

	observability.RecordExerciseLogged(duration)
	return &ExerciseEntry{Exercise: exercise, Username: user.Username}, nil
}

// QueryLog returns the user's exercises filtered by f, sorted by date and truncated to f.Limit.
func (s *Service) QueryLog(ctx context.Context, userID string, f LogFilter) (*UserLog, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	exercises, err := s.ledger.ListExercisesByUser(ctx, user.ID)
	if err != nil {
		return nil, wrapStorage("list exercises", err)
	}

	log := BuildLog(exercises, f)
	observability.RecordLogQuery(len(log))
	return &UserLog{User: *user, Count: len(log), Log: log}, nil
}
