package orchestrator

import (
	"context"
	"sync"

	"github.com/scanvault/orchestrator/internal/models"
	"github.com/scanvault/orchestrator/pkg/logger"
	"github.com/scanvault/orchestrator/pkg/statuscache"
)

// Board is the observable surface of a processing run: the per-document
// update map, aggregate counters, and a human-readable status line. It is the
// only thing the presentation layer reads.
type Board struct {
	mu        sync.RWMutex
	updates   map[string]models.ProcessingUpdate
	processed int
	total     int
	statusMsg string

	cache *statuscache.Cache
	log   logger.Logger
}

// Snapshot is a point-in-time copy of the board for API consumers.
type Snapshot struct {
	Updates   map[string]models.ProcessingUpdate `json:"updates"`
	Processed int                                `json:"processed"`
	Total     int                                `json:"total"`
	Active    int                                `json:"active"`
	Status    string                             `json:"status"`
}

func NewBoard(cache *statuscache.Cache, log logger.Logger) *Board {
	return &Board{
		updates: make(map[string]models.ProcessingUpdate),
		cache:   cache,
		log:     log.Named("board"),
	}
}

// Publish records the latest update for a document and mirrors it to the
// status cache when one is configured. Cache failures are logged, not fatal.
func (b *Board) Publish(ctx context.Context, documentID string, update models.ProcessingUpdate) {
	b.mu.Lock()
	b.updates[documentID] = update
	b.mu.Unlock()

	if err := b.cache.SaveUpdate(ctx, documentID, update); err != nil {
		b.log.Warn("failed to cache processing update",
			logger.String("documentId", documentID),
			logger.Error(err),
		)
	}
}

// AddToTotal grows the run's total work counter. The total accumulates
// across batches and never decreases.
func (b *Board) AddToTotal(n int) {
	b.mu.Lock()
	b.total += n
	b.mu.Unlock()
}

// IncProcessed bumps the processed counter by one.
func (b *Board) IncProcessed() {
	b.mu.Lock()
	b.processed++
	b.mu.Unlock()
}

// SetStatus replaces the human-readable status line.
func (b *Board) SetStatus(msg string) {
	b.mu.Lock()
	b.statusMsg = msg
	b.mu.Unlock()
}

// Counts returns the processed and total counters.
func (b *Board) Counts() (processed, total int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.processed, b.total
}

// Update returns the latest published update for a document.
func (b *Board) Update(documentID string) (models.ProcessingUpdate, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	u, ok := b.updates[documentID]
	return u, ok
}

// Snapshot copies the board state. The active count is supplied by the
// caller since the registry owns it.
func (b *Board) Snapshot(active int) Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	updates := make(map[string]models.ProcessingUpdate, len(b.updates))
	for id, u := range b.updates {
		updates[id] = u
	}
	return Snapshot{
		Updates:   updates,
		Processed: b.processed,
		Total:     b.total,
		Active:    active,
		Status:    b.statusMsg,
	}
}
