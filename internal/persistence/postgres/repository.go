// Package postgres provides the durable backend for the user registry and exercise ledger.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/events"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	usernameConstraint    = "users_username_key"
)

var _ domain.Store = (*Repository)(nil)

// Repository persists users, exercises and their outbox events. Usernames are unique.
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: time.Now}
}

// CreateUser inserts the user and its user.registered event in one transaction.
func (r *Repository) CreateUser(ctx context.Context, user domain.User) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `INSERT INTO users (user_id, username) VALUES ($1, $2)`, user.ID, user.Username); err != nil {
		return translate(err)
	}

	if err = r.insertOutbox(ctx, tx, user.ID, events.TypeUserRegistered, user.ID, events.UserRegistered{
		UserID:     user.ID,
		Username:   user.Username,
		OccurredAt: r.now().UTC(),
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetUser retrieves a user by ID, returning nil when absent.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx, `SELECT user_id, username FROM users WHERE user_id = $1`, id).Scan(&user.ID, &user.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all users in insertion order.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, username FROM users ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Username); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// AppendExercise inserts the exercise and its exercise.logged event in one transaction.
// The foreign key on user_id guarantees no orphan is stored.
func (r *Repository) AppendExercise(ctx context.Context, exercise domain.Exercise) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const stmt = `INSERT INTO exercises (exercise_id, user_id, description, duration_min, performed_on)
        VALUES ($1,$2,$3,$4,$5)`

	if _, err = tx.Exec(ctx, stmt,
		exercise.ID,
		exercise.UserID,
		exercise.Description,
		exercise.Duration,
		exercise.Date,
	); err != nil {
		return translate(err)
	}

	if err = r.insertOutbox(ctx, tx, exercise.ID, events.TypeExerciseLogged, exercise.UserID, events.ExerciseLogged{
		ExerciseID:  exercise.ID,
		UserID:      exercise.UserID,
		Description: exercise.Description,
		DurationMin: exercise.Duration,
		Date:        domain.FormatDate(exercise.Date),
		OccurredAt:  r.now().UTC(),
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListExercisesByUser returns a user's exercises in insertion order.
func (r *Repository) ListExercisesByUser(ctx context.Context, userID string) ([]domain.Exercise, error) {
	const query = `SELECT exercise_id, user_id, description, duration_min, performed_on
        FROM exercises WHERE user_id = $1 ORDER BY seq`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := make([]domain.Exercise, 0)
	for rows.Next() {
		var ex domain.Exercise
		if err := rows.Scan(&ex.ID, &ex.UserID, &ex.Description, &ex.Duration, &ex.Date); err != nil {
			return nil, err
		}
		ex.Date = time.Date(ex.Date.Year(), ex.Date.Month(), ex.Date.Day(), 0, 0, 0, 0, time.UTC)
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, aggregateID, eventType, partitionKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	topic := events.TopicFor(eventType)
	if topic == "" {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6)`

	_, err = tx.Exec(ctx, stmt,
		aggregateID,
		eventType,
		topic,
		partitionKey,
		body,
		fmt.Sprintf("%s:%s", aggregateID, eventType),
	)
	return err
}

// translate maps constraint violations onto domain errors.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == usernameConstraint:
		return domain.ErrUsernameTaken
	case pgErr.Code == pgForeignKeyViolation:
		return domain.ErrUserNotFound
	default:
		return err
	}
}
