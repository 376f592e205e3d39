package workers

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

const insightQueueSize = 100

type InsightRefresher interface {
	RefreshInsight(ctx context.Context, userID string) error
}

type InsightJob struct {
	UserID string
}

// InsightWorker regenerates dashboard insights in the background after new
// activities are logged. A user is queued at most once at a time.
type InsightWorker struct {
	refresher InsightRefresher
	jobs      chan InsightJob
	logger    *logrus.Logger

	mu     sync.Mutex
	queued map[string]struct{}

	done chan struct{}
}

func NewInsightWorker(refresher InsightRefresher, logger *logrus.Logger) *InsightWorker {
	return &InsightWorker{
		refresher: refresher,
		jobs:      make(chan InsightJob, insightQueueSize),
		logger:    logger,
		queued:    make(map[string]struct{}),
		done:      make(chan struct{}),
	}
}

func (w *InsightWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)

		w.logger.Info("insight worker started")
		for {
			select {
			case job := <-w.jobs:
				w.release(job.UserID)
				w.processJob(ctx, job)
			case <-ctx.Done():
				w.logger.Info("insight worker shutting down")
				return
			}
		}
	}()
}

// Wait blocks until the worker loop has returned.
func (w *InsightWorker) Wait() {
	<-w.done
}

func (w *InsightWorker) Enqueue(userID string) {
	w.mu.Lock()
	if _, ok := w.queued[userID]; ok {
		w.mu.Unlock()
		return
	}
	w.queued[userID] = struct{}{}
	w.mu.Unlock()

	select {
	case w.jobs <- InsightJob{UserID: userID}:
	default:
		w.release(userID)
		w.logger.WithField("user_id", userID).Warn("insight worker queue full, dropping job")
	}
}

func (w *InsightWorker) release(userID string) {
	w.mu.Lock()
	delete(w.queued, userID)
	w.mu.Unlock()
}

func (w *InsightWorker) processJob(ctx context.Context, job InsightJob) {
	log := w.logger.WithField("user_id", job.UserID)

	if err := w.refresher.RefreshInsight(ctx, job.UserID); err != nil {
		log.WithError(err).Warn("insight refresh failed")
		return
	}
	log.Debug("insight refreshed")
}
