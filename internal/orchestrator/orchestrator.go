// Package orchestrator drives scanned archival documents through the remote
// multi-stage pipeline: discover work, dispatch under a concurrency ceiling,
// follow progress streams, and repair documents stuck in inconsistent
// states. All shared state lives on this context object; there are no
// package-level caches.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/scanvault/orchestrator/internal/models"
	"github.com/scanvault/orchestrator/internal/pipeline"
	"github.com/scanvault/orchestrator/internal/registry"
	"github.com/scanvault/orchestrator/internal/repair"
	"github.com/scanvault/orchestrator/internal/scanner"
	"github.com/scanvault/orchestrator/pkg/config"
	"github.com/scanvault/orchestrator/pkg/logger"
	"github.com/scanvault/orchestrator/pkg/statuscache"
)

type Orchestrator struct {
	cfg       *config.Config
	registry  *registry.Registry
	board     *Board
	scheduler *Scheduler
	scanner   *scanner.Scanner
	repairer  *repair.Coordinator
	log       logger.Logger
}

// activityFilter adapts the registry and scheduler seen-set for the scanner.
type activityFilter struct {
	registry  *registry.Registry
	scheduler *Scheduler
}

func (f activityFilter) Active(documentID string) bool { return f.registry.Active(documentID) }
func (f activityFilter) Seen(documentID string) bool   { return f.scheduler.Seen(documentID) }

// New wires the orchestrator from its collaborators. The cache may be nil.
func New(cfg *config.Config, client *pipeline.Client, cache *statuscache.Cache, log logger.Logger) *Orchestrator {
	reg := registry.New()
	board := NewBoard(cache, log)

	api := LiveAPI{Client: client}
	dispatcher := NewDispatcher(api, board,
		cfg.Orchestrator.ExtendedEnabled,
		cfg.Orchestrator.StreamTimeout.Std(),
		log,
	)
	sched := NewScheduler(cfg.Orchestrator.ConcurrencyLimit, reg, board, dispatcher,
		cfg.Orchestrator.StatusInterval.Std(), log)

	scan := scanner.New(client, activityFilter{registry: reg, scheduler: sched}, scanner.Config{
		PageSize:        cfg.Orchestrator.PageSize,
		BatchCeiling:    cfg.Orchestrator.BatchCeiling,
		Backoff:         cfg.Orchestrator.DiscoveryBackoff.Std(),
		ExtendedEnabled: cfg.Orchestrator.ExtendedEnabled,
	}, log)

	repairer := repair.New(client, reg, board.Publish, repair.Config{
		Concurrency: cfg.Repair.Concurrency,
		Stagger:     cfg.Repair.Stagger.Std(),
	}, log)

	return &Orchestrator{
		cfg:       cfg,
		registry:  reg,
		board:     board,
		scheduler: sched,
		scanner:   scan,
		repairer:  repairer,
		log:       log.Named("orchestrator"),
	}
}

// Run executes the scan-and-process loop until one full discovery pass
// yields zero candidates. Per-document failures only mark the affected
// document; the loop keeps going.
func (o *Orchestrator) Run(ctx context.Context) error {
	runID := uuid.New().String()
	o.scheduler.Reset()
	o.board.SetStatus("Scanning for documents to process")
	o.log.Info("processing run started", logger.String("runId", runID))

	passes := 0
	for {
		if err := ctx.Err(); err != nil {
			o.board.SetStatus("Processing run cancelled")
			return err
		}

		batch := o.scanner.Scan(ctx)
		if len(batch) == 0 {
			break
		}
		passes++
		o.log.Info("draining batch",
			logger.String("runId", runID),
			logger.Int("pass", passes),
			logger.Int("candidates", len(batch)),
		)
		o.scheduler.Drain(ctx, batch)
	}

	processed, total := o.board.Counts()
	o.board.SetStatus(fmt.Sprintf("Processing run complete: %d/%d documents", processed, total))
	o.log.Info("processing run finished",
		logger.String("runId", runID),
		logger.Int("passes", passes),
		logger.Int("processed", processed),
	)
	return nil
}

// RunRepair executes one repair batch over the backend's broken-document
// list and reports its summary.
func (o *Orchestrator) RunRepair(ctx context.Context) (repair.Summary, error) {
	o.board.SetStatus("Repairing broken documents")
	summary, err := o.repairer.RepairAll(ctx)
	if err != nil {
		o.board.SetStatus(fmt.Sprintf("Repair run failed: %v", err))
		return summary, err
	}
	o.board.SetStatus(fmt.Sprintf("Repair run complete: %d repaired, %d failed",
		summary.Completed, summary.Failed))
	return summary, nil
}

// Snapshot exposes the observable surface: per-document updates, counters,
// and the status line.
func (o *Orchestrator) Snapshot() Snapshot {
	return o.board.Snapshot(o.registry.ActiveCount())
}

// DocumentUpdate returns the latest update for one document.
func (o *Orchestrator) DocumentUpdate(documentID string) (models.ProcessingUpdate, bool) {
	return o.board.Update(documentID)
}
