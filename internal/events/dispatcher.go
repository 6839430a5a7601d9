package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/barterhub/timebank/pkg/repository"
)

// BackoffDuration returns exponential backoff duration for attempt n
func BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	// simple exponential: base 2^attempt seconds, capped
	d := time.Duration(1<<uint(attempt)) * time.Second
	max := 5 * time.Minute
	if d > max {
		return max
	}
	return d
}

// Dispatcher persists emitted events to the outbox and drains them to a Sink
// with a small worker pool. Events survive restarts; a delivery failure is
// retried with backoff until max attempts, then dead-lettered.
type Dispatcher struct {
	repo         repository.OutboxRepo
	sink         Sink
	logger       *slog.Logger
	workerCount  int
	pollInterval time.Duration
	stop         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewDispatcher(repo repository.OutboxRepo, sink Sink, logger *slog.Logger, workerCount int, pollInterval time.Duration) *Dispatcher {
	if workerCount <= 0 {
		workerCount = 2
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = NewLogSink(logger)
	}
	return &Dispatcher{
		repo:         repo,
		sink:         sink,
		logger:       logger,
		workerCount:  workerCount,
		pollInterval: pollInterval,
		stop:         make(chan struct{}),
	}
}

// Emit assigns an event id and timestamp when missing and persists the event.
// Errors are logged, not returned: the domain transition already committed.
func (d *Dispatcher) Emit(ctx context.Context, e Event) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.At == 0 {
		e.At = time.Now().UTC().UnixMilli()
	}
	b, err := json.Marshal(e)
	if err != nil {
		d.logger.Error("marshal event", "type", e.Type, "err", err)
		return
	}
	if err := d.repo.EnqueueEvent(ctx, e.ID, string(e.Type), b); err != nil {
		d.logger.Error("enqueue event", "type", e.Type, "id", e.ID, "err", err)
	}
}

// Start launches the worker goroutines
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop signals workers to stop and waits for them
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.stop:
			d.logger.Info("dispatcher worker stopping", "id", id)
			return
		case <-ctx.Done():
			d.logger.Info("context canceled, dispatcher worker exiting", "id", id)
			return
		default:
			row, err := d.repo.FetchNextEvent(ctx)
			if err != nil {
				d.logger.Error("fetch event", "err", err)
				d.sleep(time.Second)
				continue
			}
			if row == nil {
				// outbox drained
				d.sleep(d.pollInterval)
				continue
			}
			d.deliver(ctx, row)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, row *repository.OutboxEvent) {
	var e Event
	if err := json.Unmarshal(row.Payload, &e); err != nil {
		row.Status = "failed"
		row.LastError = "bad payload: " + err.Error()
		if mvErr := d.repo.MoveEventToDeadLetter(ctx, row); mvErr != nil {
			d.logger.Error("move to dead letter", "err", mvErr)
		}
		return
	}

	err := d.sink.Deliver(ctx, e)
	if err == nil {
		row.Status = "done"
		if upErr := d.repo.UpdateEvent(ctx, row); upErr != nil {
			d.logger.Error("mark event done", "err", upErr)
		}
		return
	}

	row.Attempts++
	row.LastError = err.Error()
	if row.Attempts >= row.MaxAttempts {
		row.Status = "failed"
		if mvErr := d.repo.MoveEventToDeadLetter(ctx, row); mvErr != nil {
			d.logger.Error("move to dead letter", "err", mvErr)
		}
		return
	}

	next := time.Now().Add(BackoffDuration(row.Attempts)).UTC().UnixMilli()
	row.NextTryAt = &next
	row.Status = "retry"
	if upErr := d.repo.UpdateEvent(ctx, row); upErr != nil {
		d.logger.Error("update event for retry", "err", upErr)
	}
}

// sleep waits without blocking Stop.
func (d *Dispatcher) sleep(dur time.Duration) {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
	case <-d.stop:
	}
}

// LogSink writes events to the structured log. It is the default sink when
// no external collaborator is wired in.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(_ context.Context, e Event) error {
	s.logger.Info("event",
		slog.String("id", e.ID),
		slog.String("type", string(e.Type)),
		slog.String("trade_id", e.TradeID),
		slog.String("user_id", e.UserID),
	)
	return nil
}
