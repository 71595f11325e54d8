package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/scanvault/orchestrator/internal/models"
	"github.com/scanvault/orchestrator/internal/registry"
	"github.com/scanvault/orchestrator/pkg/logger"
)

// Scheduler drains scan batches under the configured concurrency ceiling.
// Admission is a weighted semaphore: a work item only starts once a slot is
// free, so active jobs never exceed the limit. A per-run seen set prevents
// duplicate dispatch across overlapping batches.
type Scheduler struct {
	limit          int
	sem            *semaphore.Weighted
	registry       *registry.Registry
	board          *Board
	dispatcher     *Dispatcher
	statusInterval time.Duration
	log            logger.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewScheduler(limit int, reg *registry.Registry, board *Board, dispatcher *Dispatcher, statusInterval time.Duration, log logger.Logger) *Scheduler {
	if limit < 1 {
		limit = 1
	}
	if statusInterval <= 0 {
		statusInterval = time.Second
	}
	return &Scheduler{
		limit:          limit,
		sem:            semaphore.NewWeighted(int64(limit)),
		registry:       reg,
		board:          board,
		dispatcher:     dispatcher,
		statusInterval: statusInterval,
		log:            log.Named("scheduler"),
	}
}

// Reset starts a new run: clears the seen set. Counters on the board are
// left alone; totals accumulate for the lifetime of the board.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.seen = make(map[string]struct{})
	s.mu.Unlock()
}

// Seen reports whether a document was already queued during this run.
func (s *Scheduler) Seen(documentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[documentID]
	return ok
}

// markSeen records a document for this run. Returns false if it was already
// marked.
func (s *Scheduler) markSeen(documentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[documentID]; ok {
		return false
	}
	s.seen[documentID] = struct{}{}
	return true
}

// Drain processes one batch to completion. It blocks until every item has
// reached a terminal outcome or the context is cancelled.
func (s *Scheduler) Drain(ctx context.Context, batch []models.WorkItem) {
	queue := make([]models.WorkItem, 0, len(batch))
	for _, item := range batch {
		if s.markSeen(item.DocumentID) {
			queue = append(queue, item)
		}
	}
	if len(queue) == 0 {
		return
	}

	s.board.AddToTotal(len(queue))
	s.refreshStatus()

	tickCtx, stopTicker := context.WithCancel(ctx)
	defer stopTicker()
	go s.statusLoop(tickCtx)

	var wg sync.WaitGroup
	for _, item := range queue {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			s.log.Warn("batch drain interrupted", logger.Error(err))
			break
		}

		kind := models.JobProcess
		if item.Repair {
			kind = models.JobRepair
		}
		handle, ok := s.registry.Begin(item.DocumentID, kind)
		if !ok {
			// Another job already owns this document.
			s.sem.Release(1)
			s.board.IncProcessed()
			continue
		}

		wg.Add(1)
		go func(item models.WorkItem, handle *registry.JobHandle) {
			defer wg.Done()
			defer s.sem.Release(1)
			defer handle.Release()

			s.runOne(ctx, item)
			s.board.IncProcessed()
			s.refreshStatus()
		}(item, handle)
	}
	wg.Wait()
	s.refreshStatus()
}

// runOne executes one work item and publishes its terminal update. Failures
// never propagate; they only mark the affected document.
func (s *Scheduler) runOne(ctx context.Context, item models.WorkItem) {
	var res streamResult
	if item.Repair {
		res = s.dispatcher.RepairDocument(ctx, item.DocumentID)
	} else {
		res = s.dispatcher.ProcessDocument(ctx, item.DocumentID)
	}

	if res.Err != nil {
		status := models.ProcessingFailed
		if item.Repair {
			status = models.ProcessingRepairFailed
		}
		s.board.Publish(ctx, item.DocumentID, models.ProcessingUpdate{
			Status:  string(status),
			Message: res.Message,
			Type:    models.UpdateError,
		})
		s.log.Warn("document processing failed",
			logger.String("documentId", item.DocumentID),
			logger.Bool("repair", item.Repair),
			logger.Error(res.Err),
		)
		return
	}

	s.board.Publish(ctx, item.DocumentID, models.ProcessingUpdate{
		Status:   string(res.Status),
		Message:  res.Message,
		Progress: 100,
		Type:     models.UpdateComplete,
	})
	s.log.Info("document processing complete",
		logger.String("documentId", item.DocumentID),
		logger.String("status", string(res.Status)),
		logger.Bool("analysisComplete", res.AnalysisComplete),
	)
}

func (s *Scheduler) refreshStatus() {
	processed, total := s.board.Counts()
	active := s.registry.ActiveCount()
	s.board.SetStatus(fmt.Sprintf("Processing documents: %d/%d complete, %d active", processed, total, active))
}

// statusLoop refreshes the status line on a fixed cadence while a batch is
// draining, so the active count stays current between terminal events.
func (s *Scheduler) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(s.statusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.refreshStatus()
		case <-ctx.Done():
			return
		}
	}
}
