// Package registry is the single source of truth for which documents have an
// in-flight pipeline job. Every dispatch path must register here before doing
// any work, so no two jobs ever target the same document concurrently.
package registry

import (
	"sync"
	"time"

	"github.com/scanvault/orchestrator/internal/models"
)

// JobHandle describes one in-flight attempt to drive a document through its
// missing stages. At most one non-terminal handle exists per document id.
type JobHandle struct {
	DocumentID string
	Kind       models.JobKind
	StartedAt  time.Time

	released sync.Once
	registry *Registry
}

// Release removes the handle from the registry. Safe to call more than once;
// only the first call has any effect.
func (h *JobHandle) Release() {
	h.released.Do(func() {
		h.registry.remove(h.DocumentID, h)
	})
}

// Registry is the shared map from document id to its active job.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*JobHandle
}

func New() *Registry {
	return &Registry{jobs: make(map[string]*JobHandle)}
}

// Begin atomically checks for an existing active job and registers a new one.
// Returns (nil, false) if the document already has an active job.
func (r *Registry) Begin(documentID string, kind models.JobKind) (*JobHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, active := r.jobs[documentID]; active {
		return nil, false
	}

	h := &JobHandle{
		DocumentID: documentID,
		Kind:       kind,
		StartedAt:  time.Now(),
		registry:   r,
	}
	r.jobs[documentID] = h
	return h, true
}

// Active reports whether the document currently has a registered job.
func (r *Registry) Active(documentID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[documentID]
	return ok
}

// ActiveCount returns the number of registered, non-terminal jobs.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// ActiveIDs returns the ids of all documents with a registered job.
func (r *Registry) ActiveIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) remove(documentID string, h *JobHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.jobs[documentID] == h {
		delete(r.jobs, documentID)
	}
}
