package service

import (
	"context"
	"time"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
	"go.uber.org/zap"
)

const insightJobTimeout = 2 * time.Minute

// InsightJob asks for insight generation over one partner's time window.
type InsightJob struct {
	PartnerID string
	TimeRange model.TimeRange
}

// InsightWorker runs insight generation asynchronously. The triggering
// boundary submits a job and returns immediately; results become visible
// only through the repository query path.
type InsightWorker struct {
	logger   *zap.Logger
	reports  *ReportGenerator
	analyzer *InsightAnalyzer
	jobs     chan InsightJob
	stop     chan struct{}
	done     chan struct{}
}

// NewInsightWorker creates a worker with a bounded job queue.
func NewInsightWorker(logger *zap.Logger, reports *ReportGenerator, analyzer *InsightAnalyzer, queueSize int) *InsightWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &InsightWorker{
		logger:   logger,
		reports:  reports,
		analyzer: analyzer,
		jobs:     make(chan InsightJob, queueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins processing submitted jobs.
func (w *InsightWorker) Start() {
	go w.run()
}

// Stop shuts the worker down after the in-flight job, discarding queued
// jobs. Safe to call once.
func (w *InsightWorker) Stop() {
	close(w.stop)
	<-w.done
}

// Submit enqueues a generation job without blocking. When the queue is
// saturated it returns ErrQueueFull instead of waiting.
func (w *InsightWorker) Submit(job InsightJob) error {
	select {
	case w.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *InsightWorker) run() {
	defer close(w.done)
	for {
		select {
		case job := <-w.jobs:
			w.process(job)
		case <-w.stop:
			w.logger.Info("insight worker stopped")
			return
		}
	}
}

func (w *InsightWorker) process(job InsightJob) {
	ctx, cancel := context.WithTimeout(context.Background(), insightJobTimeout)
	defer cancel()

	report, err := w.reports.Generate(ctx, job.PartnerID, job.TimeRange)
	if err != nil {
		w.logger.Error("insight generation failed at report stage",
			zap.String("partner_id", job.PartnerID),
			zap.Error(err))
		return
	}

	insights, err := w.analyzer.Analyze(ctx, job.PartnerID, report)
	if err != nil {
		w.logger.Error("insight generation failed at analysis stage",
			zap.String("partner_id", job.PartnerID),
			zap.Int("stored_before_failure", len(insights)),
			zap.Error(err))
		return
	}

	w.logger.Debug("insight generation finished",
		zap.String("partner_id", job.PartnerID),
		zap.Int("insight_count", len(insights)))
}
