// Package memory provides an ephemeral in-process backend for tests and single-instance runs.
package memory

import (
	"context"
	"sync"

	"example.com/exercisetracker/internal/domain"
)

var _ domain.Store = (*Store)(nil)

// Store keeps users and exercises in memory. Usernames are not required to be unique.
type Store struct {
	mu        sync.RWMutex
	users     []domain.User
	userIndex map[string]int
	exercises map[string][]domain.Exercise
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		userIndex: make(map[string]int),
		exercises: make(map[string][]domain.Exercise),
	}
}

// CreateUser implements domain.UserRegistry.
func (s *Store) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userIndex[user.ID] = len(s.users)
	s.users = append(s.users, user)
	return nil
}

// GetUser implements domain.UserRegistry.
func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.userIndex[id]
	if !ok {
		return nil, nil
	}
	user := s.users[idx]
	return &user, nil
}

// ListUsers implements domain.UserRegistry.
func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

// AppendExercise implements domain.ExerciseLedger. The owner check and the insert happen under
// one lock so an append never observes a partially registered user.
func (s *Store) AppendExercise(_ context.Context, exercise domain.Exercise) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.userIndex[exercise.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	s.exercises[exercise.UserID] = append(s.exercises[exercise.UserID], exercise)
	return nil
}

// ListExercisesByUser implements domain.ExerciseLedger.
func (s *Store) ListExercisesByUser(_ context.Context, userID string) ([]domain.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slice := s.exercises[userID]
	out := make([]domain.Exercise, len(slice))
	copy(out, slice)
	return out, nil
}
