package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestProcessBatchPublishesGroupedByTopic(t *testing.T) {
	store := &stubStore{batch: []Message{
		{EventID: 1, AggregateID: "u1", EventType: "user.registered", Topic: "user_events", PartitionKey: "u1", Payload: []byte(`{"user_id":"u1"}`)},
		{EventID: 2, AggregateID: "e1", EventType: "exercise.logged", Topic: "exercise_events", PartitionKey: "u1", Payload: []byte(`{"exercise_id":"e1"}`)},
		{EventID: 3, AggregateID: "e2", EventType: "exercise.logged", Topic: "exercise_events", PartitionKey: "u1", Payload: []byte(`{"exercise_id":"e2"}`)},
	}}
	writer := &stubWriter{written: make(map[string][]kafka.Message)}
	d := NewDispatcher(store, writer, zaptest.NewLogger(t), time.Second, 10)

	users := deliveredCounter.WithLabelValues("user_events", "user.registered")
	exercises := deliveredCounter.WithLabelValues("exercise_events", "exercise.logged")
	beforeUsers, beforeExercises := testutil.ToFloat64(users), testutil.ToFloat64(exercises)
	require.NoError(t, d.processBatch(context.Background()))

	require.Len(t, writer.written["user_events"], 1)
	require.Len(t, writer.written["exercise_events"], 2)
	require.Equal(t, []string{"user_events", "exercise_events"}, writer.topics)

	record := writer.written["exercise_events"][1]
	require.Equal(t, "u1", string(record.Key))
	require.JSONEq(t, `{"exercise_id":"e2"}`, string(record.Value))
	require.Equal(t, "event_type", record.Headers[0].Key)
	require.Equal(t, "exercise.logged", string(record.Headers[0].Value))

	require.Equal(t, []int64{1, 2, 3}, store.published)
	require.Empty(t, store.released)
	require.Equal(t, beforeUsers+1, testutil.ToFloat64(users))
	require.Equal(t, beforeExercises+2, testutil.ToFloat64(exercises))
}

func TestProcessBatchReleasesOnDeliveryFailure(t *testing.T) {
	store := &stubStore{batch: []Message{
		{EventID: 7, EventType: "exercise.logged", Topic: "exercise_events", PartitionKey: "u1", Payload: []byte(`{}`)},
	}}
	writer := &stubWriter{err: errors.New("broker unavailable"), written: make(map[string][]kafka.Message)}
	d := NewDispatcher(store, writer, zaptest.NewLogger(t), time.Second, 10)

	failed := failedCounter.WithLabelValues("exercise_events", "exercise.logged")
	before := testutil.ToFloat64(failed)
	require.NoError(t, d.processBatch(context.Background()))

	require.Empty(t, store.published)
	require.Equal(t, []int64{7}, store.released)
	require.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestProcessBatchNoopWhenEmpty(t *testing.T) {
	store := &stubStore{}
	writer := &stubWriter{written: make(map[string][]kafka.Message)}
	d := NewDispatcher(store, writer, zaptest.NewLogger(t), time.Second, 10)

	require.NoError(t, d.processBatch(context.Background()))
	require.Empty(t, writer.topics)
	require.Nil(t, store.published)
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &stubStore{}
	d := NewDispatcher(store, &stubWriter{written: make(map[string][]kafka.Message)}, zaptest.NewLogger(t), 10*time.Millisecond, 10)

	go d.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

type stubStore struct {
	batch     []Message
	published []int64
	released  []int64
}

func (s *stubStore) Claim(context.Context, int) ([]Message, error) {
	batch := s.batch
	s.batch = nil
	return batch, nil
}

func (s *stubStore) MarkPublished(_ context.Context, ids []int64) error {
	s.published = append(s.published, ids...)
	return nil
}

func (s *stubStore) Release(_ context.Context, ids []int64) error {
	s.released = append(s.released, ids...)
	return nil
}

type stubWriter struct {
	err     error
	topics  []string
	written map[string][]kafka.Message
}

func (w *stubWriter) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.topics = append(w.topics, topic)
	w.written[topic] = append(w.written[topic], msgs...)
	return nil
}
