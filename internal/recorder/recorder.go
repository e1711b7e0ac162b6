package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/akrylov/wsproxy/internal/config"
)

// BatchSender is the slice of the pool the recorder needs. *pgxpool.Pool
// satisfies it.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Message kinds.
const (
	KindText   = "text"
	KindBinary = "binary"
)

// Message is a single transcript entry.
type Message struct {
	SessionID  uuid.UUID // Proxy id the message belongs to
	Direction  string    // DirectionInbound or DirectionOutbound
	Kind       string    // KindText or KindBinary
	Payload    []byte
	ReceivedAt time.Time // Local timestamp when the message was observed
}

// Metrics contains runtime counters.
type Metrics struct {
	Inserts int64
	Flushes int64
	Drops   int64
	Errors  int64
}

// messageRow is the database representation of a Message.
type messageRow struct {
	ID         uuid.UUID
	SessionID  string
	Direction  string
	Kind       string
	Payload    []byte
	ReceivedAt int64 // µs since epoch
}

// Recorder batches transcript messages and writes them to PostgreSQL.
type Recorder struct {
	cfg    config.RecorderConfig
	logger *slog.Logger

	input chan Message

	// Database
	db BatchSender

	// Batching
	batch       []messageRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics Metrics
}

// New creates a recorder writing to db.
func New(cfg config.RecorderConfig, db BatchSender, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		cfg:    cfg,
		logger: logger,
		db:     db,
		input:  make(chan Message, cfg.BufferSize),
		batch:  make([]messageRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming messages and writing to the database.
func (r *Recorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.flushTicker = time.NewTicker(r.cfg.FlushInterval)

	r.wg.Add(1)
	go r.consumeLoop()

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("recorder started",
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the recorder.
func (r *Recorder) Stop(ctx context.Context) error {
	r.logger.Info("stopping recorder")

	if r.cancel != nil {
		r.cancel()
	}

	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("recorder stopped")
	case <-ctx.Done():
		r.logger.Warn("recorder stop timed out")
	}

	// Final flush runs on the caller's context; r.ctx is canceled by now.
	r.flush(ctx)

	return nil
}

// Record accepts a message for the transcript. It never blocks; when the
// buffer is full the message is dropped with a warning.
func (r *Recorder) Record(msg Message) {
	select {
	case r.input <- msg:
	default:
		r.batchMu.Lock()
		r.metrics.Drops++
		r.batchMu.Unlock()
		r.logger.Warn("recorder buffer full, dropping message")
	}
}

// Stats returns current metrics.
func (r *Recorder) Stats() Metrics {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	return r.metrics
}

func (r *Recorder) consumeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case msg := <-r.input:
			r.handleMessage(msg)
		}
	}
}

// flushLoop periodically flushes the batch.
func (r *Recorder) flushLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.flushTicker.C:
			r.flush(r.ctx)
		}
	}
}

func (r *Recorder) handleMessage(msg Message) {
	row := r.transform(msg)

	r.batchMu.Lock()
	r.batch = append(r.batch, row)
	shouldFlush := len(r.batch) >= r.cfg.BatchSize
	r.batchMu.Unlock()

	if shouldFlush {
		r.flush(r.ctx)
	}
}

// transform converts a Message to a messageRow.
func (r *Recorder) transform(msg Message) messageRow {
	return messageRow{
		ID:         uuid.New(),
		SessionID:  msg.SessionID.String(),
		Direction:  msg.Direction,
		Kind:       msg.Kind,
		Payload:    msg.Payload,
		ReceivedAt: msg.ReceivedAt.UnixMicro(),
	}
}

// flush writes the current batch to the database.
func (r *Recorder) flush(ctx context.Context) {
	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := r.batch
	r.batch = make([]messageRow, 0, r.cfg.BatchSize)
	r.batchMu.Unlock()

	start := time.Now()

	if err := r.batchInsert(ctx, batch); err != nil {
		r.logger.Error("batch insert failed", "error", err, "count", len(batch))
		r.batchMu.Lock()
		r.metrics.Errors++
		r.batchMu.Unlock()
		return
	}

	r.batchMu.Lock()
	r.metrics.Inserts += int64(len(batch))
	r.metrics.Flushes++
	r.batchMu.Unlock()

	r.logger.Debug("flushed transcript",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch.
func (r *Recorder) batchInsert(ctx context.Context, rows []messageRow) error {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO ws_messages (id, session_id, direction, kind, payload, received_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING
		`, row.ID, row.SessionID, row.Direction, row.Kind, row.Payload, row.ReceivedAt)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}
