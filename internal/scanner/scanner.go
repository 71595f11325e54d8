// Package scanner walks the remote catalog page by page and builds batches
// of documents that still need pipeline work, including candidates for the
// repair path.
package scanner

import (
	"context"
	"strings"
	"time"

	"github.com/scanvault/orchestrator/internal/models"
	"github.com/scanvault/orchestrator/internal/pipeline"
	"github.com/scanvault/orchestrator/internal/stages"
	"github.com/scanvault/orchestrator/pkg/logger"
)

// Catalog is the slice of the pipeline client the scanner uses.
type Catalog interface {
	ListDocuments(ctx context.Context, page, pageSize int) (pipeline.CatalogPage, error)
	FetchStatus(ctx context.Context, documentID string) (models.StatusSnapshot, error)
	NeedsRepair(ctx context.Context, documentID string) (bool, error)
}

// ActivityFilter lets the scanner skip documents that already have an active
// job or were already queued during this run.
type ActivityFilter interface {
	Active(documentID string) bool
	Seen(documentID string) bool
}

// stuckMarkers are best-effort substrings that flag a document stuck in an
// inconsistent state. The status fields carry no guaranteed schema, so
// classification lives here and nowhere else.
var stuckMarkers = []string{"stuck", "repairFailed"}

type Config struct {
	PageSize        int
	BatchCeiling    int
	Backoff         time.Duration
	ExtendedEnabled bool
}

type Scanner struct {
	catalog Catalog
	filter  ActivityFilter
	cfg     Config
	log     logger.Logger
}

func New(catalog Catalog, filter ActivityFilter, cfg Config, log logger.Logger) *Scanner {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.BatchCeiling <= 0 {
		cfg.BatchCeiling = 500
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 2 * time.Second
	}
	return &Scanner{
		catalog: catalog,
		filter:  filter,
		cfg:     cfg,
		log:     log.Named("scanner"),
	}
}

// Scan runs one full discovery pass and returns the accumulated batch. A
// failed page fetch is logged and skipped after a short backoff; forward
// progress wins over completeness. An empty batch means the pass found
// nothing left to do.
func (s *Scanner) Scan(ctx context.Context) []models.WorkItem {
	var batch []models.WorkItem

	totalPages := 0
	failures := 0

	for page := 1; ; page++ {
		if totalPages > 0 && page > totalPages {
			break
		}
		if len(batch) >= s.cfg.BatchCeiling {
			break
		}
		if ctx.Err() != nil {
			break
		}

		listing, err := s.catalog.ListDocuments(ctx, page, s.cfg.PageSize)
		if err != nil {
			failures++
			s.log.Warn("catalog page fetch failed, skipping page",
				logger.Int("page", page),
				logger.Error(err),
			)
			// Without a page count three consecutive failures end the pass.
			if totalPages == 0 && failures >= 3 {
				break
			}
			if !sleepCtx(ctx, s.cfg.Backoff) {
				break
			}
			continue
		}
		failures = 0

		if listing.TotalPages > 0 {
			totalPages = listing.TotalPages
		}
		if len(listing.Documents) == 0 {
			break
		}

		for _, entry := range listing.Documents {
			if len(batch) >= s.cfg.BatchCeiling {
				break
			}
			if s.filter.Active(entry.ID) || s.filter.Seen(entry.ID) {
				continue
			}
			if item, ok := s.classify(ctx, entry); ok {
				batch = append(batch, item)
			}
		}
	}

	s.log.Info("discovery pass finished",
		logger.Int("candidates", len(batch)),
	)
	return batch
}

// classify decides whether a catalog entry needs work and which path it
// takes. Repair heuristics are confirmed against the backend before a
// document is accepted as a repair candidate.
func (s *Scanner) classify(ctx context.Context, entry pipeline.CatalogEntry) (models.WorkItem, bool) {
	if s.looksBroken(entry) {
		confirmed, err := s.catalog.NeedsRepair(ctx, entry.ID)
		if err != nil {
			s.log.Warn("needs-repair probe failed",
				logger.String("documentId", entry.ID),
				logger.Error(err),
			)
			return models.WorkItem{}, false
		}
		if confirmed {
			return models.WorkItem{DocumentID: entry.ID, Repair: true}, true
		}
		return models.WorkItem{}, false
	}

	snap, err := s.catalog.FetchStatus(ctx, entry.ID)
	if err != nil {
		s.log.Warn("status fetch failed during discovery",
			logger.String("documentId", entry.ID),
			logger.Error(err),
		)
		return models.WorkItem{}, false
	}
	if len(stages.Resolve(snap, s.cfg.ExtendedEnabled)) == 0 {
		return models.WorkItem{}, false
	}
	return models.WorkItem{DocumentID: entry.ID}, true
}

// looksBroken applies the inconsistent-state heuristics: a document claiming
// to be ready with no rasterized pages, or status text carrying a known
// stuck-state marker.
func (s *Scanner) looksBroken(entry pipeline.CatalogEntry) bool {
	if entry.Status == string(models.StatusReady) && entry.PageCount == 0 {
		return true
	}
	for _, marker := range stuckMarkers {
		if containsFold(entry.Status, marker) || containsFold(entry.ProcessingStatus, marker) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sleepCtx waits for d unless the context ends first. Returns false when
// cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
