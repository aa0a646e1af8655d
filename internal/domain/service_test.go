package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/identity"
	"example.com/exercisetracker/internal/persistence/memory"
)

var fixedNow = time.Date(2024, time.February, 10, 8, 0, 0, 0, time.UTC)

func newService(store domain.Store) *domain.Service {
	return domain.NewService(store, identity.NewCounter(), domain.WithClock(func() time.Time { return fixedNow }))
}

func TestAliceScenario(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.NewStore())

	alice, err := svc.CreateUser(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "1", alice.ID)

	run, err := svc.AppendExercise(ctx, domain.AppendExerciseInput{UserID: alice.ID, Description: "run", Duration: "30", Date: "2024-01-05"})
	require.NoError(t, err)
	require.Equal(t, "alice", run.Username)
	require.Equal(t, "1", run.ID)

	_, err = svc.AppendExercise(ctx, domain.AppendExerciseInput{UserID: alice.ID, Description: "swim", Duration: "20", Date: "2024-01-01"})
	require.NoError(t, err)

	log, err := svc.QueryLog(ctx, alice.ID, domain.LogFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, log.Count)
	require.Equal(t, "swim", log.Log[0].Description)
	require.Equal(t, 20, log.Log[0].Duration)
	require.Equal(t, "2024-01-01", domain.FormatDate(log.Log[0].Date))
	require.Equal(t, "run", log.Log[1].Description)
	require.Equal(t, "2024-01-05", domain.FormatDate(log.Log[1].Date))

	log, err = svc.QueryLog(ctx, alice.ID, domain.ParseLogFilter("2024-01-03", "", ""))
	require.NoError(t, err)
	require.Equal(t, 1, log.Count)
	require.Equal(t, "run", log.Log[0].Description)
}

func TestAppendThenQueryRoundTripsNormalizedInput(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.NewStore())

	user, err := svc.CreateUser(ctx, " bob ")
	require.NoError(t, err)
	require.Equal(t, "bob", user.Username)

	entry, err := svc.AppendExercise(ctx, domain.AppendExerciseInput{UserID: user.ID, Description: "  yoga ", Duration: " 45"})
	require.NoError(t, err)
	require.Equal(t, "2024-02-10", domain.FormatDate(entry.Date))

	log, err := svc.QueryLog(ctx, user.ID, domain.LogFilter{})
	require.NoError(t, err)
	require.Equal(t, []domain.LogEntry{{Description: "yoga", Duration: 45, Date: entry.Date}}, log.Log)
}

func TestAppendValidationLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(store)

	user, err := svc.CreateUser(ctx, "alice")
	require.NoError(t, err)

	for _, input := range []domain.AppendExerciseInput{
		{UserID: user.ID, Description: "run", Duration: "abc"},
		{UserID: user.ID, Description: " ", Duration: "10"},
		{UserID: user.ID, Description: "run", Duration: "10", Date: "01/05/2024x"},
	} {
		_, err := svc.AppendExercise(ctx, input)
		require.True(t, domain.IsValidation(err), "input %+v: %v", input, err)
	}

	exercises, err := store.ListExercisesByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, exercises)
}

func TestUnknownUserIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.NewStore())

	_, err := svc.AppendExercise(ctx, domain.AppendExerciseInput{UserID: "42", Description: "run", Duration: "abc"})
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.QueryLog(ctx, "42", domain.LogFilter{})
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUnstorableUserIDIsNotFound(t *testing.T) {
	boom := errors.New("invalid byte sequence for encoding")
	svc := newService(&stubStore{getErr: boom})

	for _, id := range []string{"\xff\xfe", "1\x00"} {
		_, err := svc.GetUser(context.Background(), id)
		require.ErrorIs(t, err, domain.ErrUserNotFound)

		_, err = svc.QueryLog(context.Background(), id, domain.LogFilter{})
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	}
}

func TestCreateUserRequiresUsername(t *testing.T) {
	svc := newService(memory.NewStore())

	_, err := svc.CreateUser(context.Background(), "  ")
	require.EqualError(t, err, domain.MsgUsernameRequired)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Empty(t, users)
	require.NotNil(t, users)
}

func TestCreateUserMapsTakenUsernameToValidation(t *testing.T) {
	svc := newService(&stubStore{createErr: domain.ErrUsernameTaken})

	_, err := svc.CreateUser(context.Background(), "alice")
	require.True(t, domain.IsValidation(err))
	require.EqualError(t, err, domain.MsgUsernameExists)
}

func TestBackendFailuresBecomeStorageErrors(t *testing.T) {
	boom := errors.New("connection reset")
	svc := newService(&stubStore{createErr: boom, getErr: boom})

	_, err := svc.CreateUser(context.Background(), "alice")
	var storageErr *domain.StorageError
	require.ErrorAs(t, err, &storageErr)
	require.Equal(t, "create user", storageErr.Op)
	require.ErrorIs(t, err, boom)

	_, err = svc.QueryLog(context.Background(), "1", domain.LogFilter{})
	require.ErrorAs(t, err, &storageErr)
	require.Equal(t, "get user", storageErr.Op)
}

type stubStore struct {
	createErr error
	getErr    error
}

func (s *stubStore) CreateUser(context.Context, domain.User) error { return s.createErr }

func (s *stubStore) GetUser(context.Context, string) (*domain.User, error) { return nil, s.getErr }

func (s *stubStore) ListUsers(context.Context) ([]domain.User, error) { return nil, nil }

func (s *stubStore) AppendExercise(context.Context, domain.Exercise) error { return nil }

func (s *stubStore) ListExercisesByUser(context.Context, string) ([]domain.Exercise, error) {
	return nil, nil
}
