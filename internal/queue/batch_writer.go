package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/smukkama/bike-demand/internal/database"
	"github.com/smukkama/bike-demand/internal/protocol"
)

const (
	// fetchRetryDelay paces the fetch loop while the broker is unreachable
	fetchRetryDelay = time.Second
	// storeRetryDelay paces insert retries of a batch the database rejected
	storeRetryDelay = 2 * time.Second
)

// MessageSource is the consuming side of a topic
type MessageSource interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msgs ...kafka.Message) error
}

// PredictionStore persists archived predictions
type PredictionStore interface {
	InsertPredictions(ctx context.Context, records []*database.PredictionRecord) error
}

// BatchStats counts archiver progress
type BatchStats struct {
	Archived uint64
	Skipped  uint64
	Failed   uint64
}

// BatchWriter consumes prediction events from Kafka and batch-writes them to the database.
// Offsets are committed only once the batch is stored. A batch the database
// rejects is retried until it is stored or the writer stops; no further
// messages are taken meanwhile.
type BatchWriter struct {
	source        MessageSource
	store         PredictionStore
	batchSize     int
	flushInterval time.Duration
	retryDelay    time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup

	archived atomic.Uint64
	skipped  atomic.Uint64
	failed   atomic.Uint64
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(source MessageSource, store PredictionStore, batchSize int, flushInterval time.Duration) *BatchWriter {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &BatchWriter{
		source:        source,
		store:         store,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		retryDelay:    storeRetryDelay,
		stopCh:        make(chan struct{}),
	}
}

// Start begins consuming and writing to database
func (bw *BatchWriter) Start(ctx context.Context) error {
	fetchCtx, cancel := context.WithCancel(ctx)
	msgCh := make(chan kafka.Message, bw.batchSize)

	bw.wg.Add(2)
	go bw.fetch(fetchCtx, msgCh)
	go bw.run(ctx, cancel, msgCh)
	return nil
}

// Stop flushes the pending batch and stops the batch writer
func (bw *BatchWriter) Stop() {
	close(bw.stopCh)
	bw.wg.Wait()
}

// Stats returns a snapshot of the archiver counters
func (bw *BatchWriter) Stats() BatchStats {
	return BatchStats{
		Archived: bw.archived.Load(),
		Skipped:  bw.skipped.Load(),
		Failed:   bw.failed.Load(),
	}
}

func (bw *BatchWriter) fetch(ctx context.Context, msgCh chan<- kafka.Message) {
	defer bw.wg.Done()

	for {
		msg, err := bw.source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Warnln("consumer error")
			select {
			case <-time.After(fetchRetryDelay):
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case msgCh <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (bw *BatchWriter) run(ctx context.Context, stopFetch context.CancelFunc, msgCh <-chan kafka.Message) {
	defer bw.wg.Done()

	var batch []kafka.Message
	ticker := time.NewTicker(bw.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-bw.stopCh:
			stopFetch()
			// Drain what was already fetched, then flush before stopping
		drain:
			for {
				select {
				case msg := <-msgCh:
					batch = append(batch, msg)
				default:
					break drain
				}
			}
			bw.flush(context.WithoutCancel(ctx), batch)
			return

		case <-ctx.Done():
			stopFetch()
			return

		case <-ticker.C:
			if len(batch) > 0 {
				logrus.WithField("messages", len(batch)).Debugln("flush interval reached")
				bw.flush(ctx, batch)
				batch = nil
			}

		case msg := <-msgCh:
			batch = append(batch, msg)
			if len(batch) >= bw.batchSize {
				logrus.WithField("messages", len(batch)).Debugln("batch full")
				bw.flush(ctx, batch)
				batch = nil
			}
		}
	}
}

func (bw *BatchWriter) flush(ctx context.Context, batch []kafka.Message) {
	if len(batch) == 0 {
		return
	}

	records := make([]*database.PredictionRecord, 0, len(batch))
	for _, msg := range batch {
		event, err := protocol.DecodePredictionEvent(msg.Value)
		if err != nil {
			// Undecodable events are skipped and committed with the batch.
			logrus.WithError(err).
				WithField("partition", msg.Partition).
				WithField("offset", msg.Offset).
				Warnln("skipping undecodable prediction event")
			bw.skipped.Add(1)
			continue
		}
		records = append(records, toRecord(event))
	}

	if !bw.insert(ctx, records) {
		// Left uncommitted, so the group redelivers it.
		return
	}
	bw.archived.Add(uint64(len(records)))

	if err := bw.source.Commit(ctx, batch...); err != nil {
		logrus.WithError(err).Errorln("failed to commit offsets")
		return
	}

	logrus.WithField("archived", len(records)).Infoln("flushed prediction batch")
}

// insert stores records, retrying until it succeeds or the writer stops
func (bw *BatchWriter) insert(ctx context.Context, records []*database.PredictionRecord) bool {
	for {
		err := bw.store.InsertPredictions(ctx, records)
		if err == nil {
			return true
		}
		logrus.WithError(err).
			WithField("records", len(records)).
			Errorln("failed to archive prediction batch")
		bw.failed.Add(uint64(len(records)))

		select {
		case <-time.After(bw.retryDelay):
		case <-bw.stopCh:
			return false
		case <-ctx.Done():
			return false
		}
	}
}

func toRecord(event *protocol.PredictionEvent) *database.PredictionRecord {
	req := event.Request
	return &database.PredictionRecord{
		ID:          event.ID,
		ReceivedAt:  event.ReceivedAt,
		ModelName:   event.Model,
		Year:        req.Year,
		Month:       req.Month,
		Weekday:     req.Weekday,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		Windspeed:   req.Windspeed,
		Weather:     req.Weather,
		Season:      req.Season,
		Holiday:     req.Holiday,
		Workingday:  req.Workingday,
		Prediction:  event.Prediction,
		Cached:      event.Cached,
	}
}
