// Package worker implements the buffered worker pool that writes stats
// snapshots to ClickHouse, and the scheduler that keeps stored stats fresh.
// Enqueue never blocks a refresh: when the queue is full the snapshot is shed.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/osuchan/stats-api/internal/models"
)

// Prometheus metrics
var (
	snapshotsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osuchan_history_snapshots_enqueued_total",
		Help: "Total number of stats snapshots enqueued",
	})

	snapshotsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osuchan_history_snapshots_written_total",
		Help: "Total number of stats snapshots written to ClickHouse",
	})

	snapshotsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osuchan_history_snapshots_failed_total",
		Help: "Total number of stats snapshots that failed to write",
	})

	snapshotsLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osuchan_history_snapshots_load_shed_total",
		Help: "Total number of snapshots dropped because the queue was full",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "osuchan_history_queue_depth",
		Help: "Current depth of the history queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "osuchan_history_batch_insert_duration_seconds",
		Help:    "Duration of batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})
)

// Job is one queued snapshot.
type Job struct {
	Snapshot   models.StatsSnapshot
	EnqueuedAt time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Logger        *zap.Logger
}

// Pool batches snapshots into ClickHouse inserts.
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger

	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop drains the queue, flushes every worker's batch and waits for them.
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")

	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobQueue)
	}
	p.mu.Unlock()

	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.logger.Info("Worker pool stopped")
}

// Enqueue adds a snapshot to the queue. It returns false without blocking
// when the queue is full or the pool is stopped.
func (p *Pool) Enqueue(snapshot models.StatsSnapshot) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		snapshotsLoadShed.Inc()
		return false
	}

	select {
	case p.jobQueue <- Job{Snapshot: snapshot, EnqueuedAt: time.Now()}:
		snapshotsEnqueued.Inc()
		return true
	default:
		snapshotsLoadShed.Inc()
		p.logger.Warnw("History queue full, dropping snapshot", "user", snapshot.UserID, "gamemode", snapshot.Gamemode)
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker processes jobs from the queue in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.processBatch(batch); err != nil {
			p.logger.Errorw("Batch processing failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			snapshotsFailed.Add(float64(len(batch)))
		} else {
			p.logger.Debugw("Batch written", "worker", id, "batchSize", len(batch), "duration", time.Since(start))
			snapshotsWritten.Add(float64(len(batch)))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-p.ctx.Done():
			flush()
			return
		}
	}
}

// processBatch writes a batch with one ClickHouse insert tagged with a fresh batch id.
func (p *Pool) processBatch(batch []Job) error {
	if len(batch) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO osuchan.user_stats_history (
			user_id, gamemode, pp, rank, country_rank, accuracy, playcount, recorded_at, batch_id
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	batchID := uuid.New()
	appended := 0
	for _, job := range batch {
		s := job.Snapshot
		recordedAt := s.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = job.EnqueuedAt
		}

		err := chBatch.Append(
			s.UserID,
			uint8(s.Gamemode),
			s.PP,
			int32(s.Rank),
			int32(s.CountryRank),
			s.Accuracy,
			int32(s.Playcount),
			recordedAt,
			batchID,
		)
		if err != nil {
			p.logger.Warnw("Failed to append snapshot to batch", "error", err, "user", s.UserID)
			continue
		}
		appended++
	}
	if appended == 0 {
		_ = chBatch.Abort()
		return fmt.Errorf("no snapshots appended to batch %s", batchID)
	}

	if err := chBatch.Send(); err != nil {
		return fmt.Errorf("failed to send batch %s: %w", batchID, err)
	}
	return nil
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}
