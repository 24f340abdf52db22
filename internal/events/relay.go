package events

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

// Publisher delivers outbox records to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, record Record) error
}

// LogPublisher writes each record to the log. It is the default sink until a
// broker is configured.
type LogPublisher struct {
	Log *zap.Logger
}

func (p LogPublisher) Publish(_ context.Context, record Record) error {
	log := p.Log
	if log == nil {
		log = zap.L()
	}
	log.Info("payment event",
		zap.String("event_type", record.EventType),
		zap.String("order_id", record.OrderID),
		zap.String("event_id", record.ID.String()),
	)
	return nil
}

// Relay drains unpublished outbox rows on a fixed interval.
type Relay struct {
	outbox    *Outbox
	publisher Publisher
	log       *zap.Logger
	interval  time.Duration
	batchSize int

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewRelay(outbox *Outbox, publisher Publisher, log *zap.Logger, interval time.Duration, batchSize int) *Relay {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		log:       log,
		interval:  interval,
		batchSize: batchSize,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the relay loop in the background.
func (r *Relay) Start() {
	go r.loop()
}

// Stop halts the loop and waits for the in-flight batch.
func (r *Relay) Stop(ctx context.Context) error {
	r.once.Do(func() { close(r.stop) })
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Relay) loop() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if _, err := r.RunOnce(context.Background()); err != nil {
				r.log.Warn("outbox relay batch failed", zap.Error(err))
			}
		}
	}
}

// RunOnce publishes one batch and returns how many rows were delivered.
// A publish failure stops the batch so ordering per order is preserved.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	records, err := r.outbox.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	published := make([]snowflake.ID, 0, len(records))
	var publishErr error
	for _, record := range records {
		if publishErr = r.publisher.Publish(ctx, record); publishErr != nil {
			break
		}
		published = append(published, record.ID)
	}
	if err := r.outbox.MarkPublished(ctx, published); err != nil {
		return 0, err
	}
	return len(published), publishErr
}
