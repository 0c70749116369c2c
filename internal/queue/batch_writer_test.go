package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/bike-demand/internal/database"
	"github.com/smukkama/bike-demand/internal/protocol"
)

type chanSource struct {
	msgs      chan kafka.Message
	mu        sync.Mutex
	committed []kafka.Message
}

func newChanSource() *chanSource {
	return &chanSource{msgs: make(chan kafka.Message, 16)}
}

func (s *chanSource) Fetch(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-s.msgs:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (s *chanSource) Commit(ctx context.Context, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = append(s.committed, msgs...)
	return nil
}

func (s *chanSource) offsets() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.committed))
	for _, msg := range s.committed {
		out = append(out, msg.Offset)
	}
	return out
}

func (s *chanSource) commitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.committed)
}

type memStore struct {
	mu      sync.Mutex
	records []*database.PredictionRecord
	batches int
	err     error
	// failures rejects this many inserts before accepting
	failures int
}

func (s *memStore) InsertPredictions(ctx context.Context, records []*database.PredictionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.failures > 0 {
		s.failures--
		return errors.New("database unavailable")
	}
	s.records = append(s.records, records...)
	s.batches++
	return nil
}

func (s *memStore) stored() []*database.PredictionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*database.PredictionRecord, len(s.records))
	copy(out, s.records)
	return out
}

func eventMessage(t *testing.T, id string, offset int64) kafka.Message {
	t.Helper()
	value, err := protocol.EncodePredictionEvent(&protocol.PredictionEvent{
		ID:         id,
		ReceivedAt: time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
		Model:      "linear-v1",
		Request: protocol.PredictRequest{
			Year: 1, Month: "Jul", Weekday: "Mon", Temperature: 25.5, Humidity: 65,
			Windspeed: 12.5, Weather: "Clear", Season: "Summer", Workingday: 1,
		},
		Prediction: 612,
	})
	require.NoError(t, err)
	return kafka.Message{Key: []byte("Jul"), Value: value, Offset: offset}
}

func TestBatchWriter_FlushesFullBatch(t *testing.T) {
	source := newChanSource()
	store := &memStore{}
	bw := NewBatchWriter(source, store, 2, time.Hour)
	require.NoError(t, bw.Start(context.Background()))
	defer bw.Stop()

	source.msgs <- eventMessage(t, "a", 1)
	source.msgs <- eventMessage(t, "b", 2)

	require.Eventually(t, func() bool { return source.commitCount() == 2 }, time.Second, 5*time.Millisecond)

	records := store.stored()
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "Jul", records[0].Month)
	assert.Equal(t, 612, records[0].Prediction)
	assert.Equal(t, uint64(2), bw.Stats().Archived)
}

func TestBatchWriter_FlushesOnInterval(t *testing.T) {
	source := newChanSource()
	store := &memStore{}
	bw := NewBatchWriter(source, store, 100, 10*time.Millisecond)
	require.NoError(t, bw.Start(context.Background()))
	defer bw.Stop()

	source.msgs <- eventMessage(t, "a", 1)

	require.Eventually(t, func() bool { return len(store.stored()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestBatchWriter_StopFlushesPending(t *testing.T) {
	source := newChanSource()
	store := &memStore{}
	bw := NewBatchWriter(source, store, 100, time.Hour)
	require.NoError(t, bw.Start(context.Background()))

	source.msgs <- eventMessage(t, "a", 1)
	require.Eventually(t, func() bool { return len(source.msgs) == 0 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	bw.Stop()

	assert.Len(t, store.stored(), 1)
	assert.Equal(t, 1, source.commitCount())
}

func TestBatchWriter_SkipsUndecodable(t *testing.T) {
	source := newChanSource()
	store := &memStore{}
	bw := NewBatchWriter(source, store, 2, time.Hour)
	require.NoError(t, bw.Start(context.Background()))
	defer bw.Stop()

	source.msgs <- kafka.Message{Value: []byte("not json"), Offset: 1}
	source.msgs <- eventMessage(t, "b", 2)

	require.Eventually(t, func() bool { return source.commitCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Len(t, store.stored(), 1)
	assert.Equal(t, uint64(1), bw.Stats().Skipped)
}

func TestBatchWriter_StoreFailureDoesNotCommit(t *testing.T) {
	source := newChanSource()
	store := &memStore{err: errors.New("database down")}
	bw := NewBatchWriter(source, store, 1, time.Hour)
	bw.retryDelay = 5 * time.Millisecond
	require.NoError(t, bw.Start(context.Background()))

	source.msgs <- eventMessage(t, "a", 1)

	require.Eventually(t, func() bool { return bw.Stats().Failed >= 2 }, time.Second, 5*time.Millisecond)
	bw.Stop()
	assert.Zero(t, source.commitCount())
	assert.Zero(t, bw.Stats().Archived)
}

func TestBatchWriter_RetriesFailedBatchBeforeCommittingLater(t *testing.T) {
	source := newChanSource()
	store := &memStore{failures: 1}
	bw := NewBatchWriter(source, store, 1, time.Hour)
	bw.retryDelay = 5 * time.Millisecond
	require.NoError(t, bw.Start(context.Background()))
	defer bw.Stop()

	source.msgs <- eventMessage(t, "a", 1)
	source.msgs <- eventMessage(t, "b", 2)

	require.Eventually(t, func() bool { return source.commitCount() == 2 }, time.Second, 5*time.Millisecond)

	records := store.stored()
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, []int64{1, 2}, source.offsets())

	stats := bw.Stats()
	assert.Equal(t, uint64(2), stats.Archived)
	assert.Equal(t, uint64(1), stats.Failed)
}
