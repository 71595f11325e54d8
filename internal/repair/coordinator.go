// Package repair remediates documents the backend itself reports as broken.
// It is deliberately simpler than the main processing path: synchronous
// requests, no streaming, its own concurrency cap and stagger.
package repair

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/scanvault/orchestrator/internal/models"
	"github.com/scanvault/orchestrator/internal/pipeline"
	"github.com/scanvault/orchestrator/internal/registry"
	"github.com/scanvault/orchestrator/pkg/logger"
)

// API is the slice of the pipeline client the coordinator uses.
type API interface {
	FindBroken(ctx context.Context) ([]string, error)
	Repair(ctx context.Context, documentID string) (pipeline.DispatchResponse, error)
}

type Config struct {
	Concurrency int
	Stagger     time.Duration
}

// Summary is the outcome of one repair batch. ReloadNeeded tells the caller
// that at least one repair succeeded and global state should be refreshed;
// the coordinator never reloads state itself.
type Summary struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	Failed       int `json:"failed"`
	Skipped      int `json:"skipped"`
	ReloadNeeded bool
}

// Publisher receives per-document updates as repairs progress. The
// orchestrator wires the status board in here.
type Publisher func(ctx context.Context, documentID string, update models.ProcessingUpdate)

type Coordinator struct {
	api      API
	registry *registry.Registry
	publish  Publisher
	cfg      Config
	log      logger.Logger
}

func New(api API, reg *registry.Registry, publish Publisher, cfg Config, log logger.Logger) *Coordinator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 5
	}
	if cfg.Stagger <= 0 {
		cfg.Stagger = 2 * time.Second
	}
	if publish == nil {
		publish = func(context.Context, string, models.ProcessingUpdate) {}
	}
	return &Coordinator{
		api:      api,
		registry: reg,
		publish:  publish,
		cfg:      cfg,
		log:      log.Named("repair"),
	}
}

// FindBroken returns the backend's own list of known-broken document ids,
// independent of the scanner's heuristics.
func (c *Coordinator) FindBroken(ctx context.Context) ([]string, error) {
	return c.api.FindBroken(ctx)
}

// ErrAlreadyActive means a repair was skipped because the document already
// has an in-flight job.
var ErrAlreadyActive = errors.New("document already has an active job")

// RepairOne dispatches one repair request and waits for its synchronous
// outcome.
func (c *Coordinator) RepairOne(ctx context.Context, documentID string) error {
	handle, ok := c.registry.Begin(documentID, models.JobRepair)
	if !ok {
		c.log.Info("skipping repair, document already has an active job",
			logger.String("documentId", documentID),
		)
		return ErrAlreadyActive
	}
	defer handle.Release()

	c.publish(ctx, documentID, models.ProcessingUpdate{
		Status:  string(models.StatusProcessing),
		Message: "Repairing document",
		Type:    models.UpdateProcessing,
	})

	resp, err := c.api.Repair(ctx, documentID)
	if err != nil {
		c.publish(ctx, documentID, models.ProcessingUpdate{
			Status:  string(models.ProcessingRepairFailed),
			Message: err.Error(),
			Type:    models.UpdateError,
		})
		return err
	}

	status := models.StatusWaitingForAnalysis
	if resp.DBID != "" {
		status = models.StatusReady
	}
	c.publish(ctx, documentID, models.ProcessingUpdate{
		Status:   string(status),
		Message:  resp.Message,
		Progress: 100,
		Type:     models.UpdateComplete,
	})
	return nil
}

// RepairAll drains the broken-id list under the coordinator's own
// concurrency cap, staggering new dispatches so the backend is not hit with
// a burst. Individual failures are counted, never propagated.
func (c *Coordinator) RepairAll(ctx context.Context) (Summary, error) {
	ids, err := c.api.FindBroken(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Total: len(ids)}
	if len(ids) == 0 {
		return summary, nil
	}

	c.log.Info("starting repair batch",
		logger.Int("documents", len(ids)),
		logger.Int("concurrency", c.cfg.Concurrency),
		logger.Duration("stagger", c.cfg.Stagger),
	)

	limiter := rate.NewLimiter(rate.Every(c.cfg.Stagger), 1)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for _, id := range ids {
		// The stagger applies to dispatch starts, so wait before a slot is
		// taken, not inside the worker.
		if err := limiter.Wait(gctx); err != nil {
			break
		}
		id := id
		g.Go(func() error {
			err := c.RepairOne(gctx, id)
			mu.Lock()
			if errors.Is(err, ErrAlreadyActive) {
				summary.Skipped++
			} else if err != nil {
				summary.Failed++
				c.log.Warn("repair failed",
					logger.String("documentId", id),
					logger.Error(err),
				)
			} else {
				summary.Completed++
				summary.ReloadNeeded = true
			}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	c.log.Info("repair batch finished",
		logger.Int("completed", summary.Completed),
		logger.Int("failed", summary.Failed),
		logger.Int("skipped", summary.Skipped),
	)
	return summary, nil
}
