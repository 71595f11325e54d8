package handlers

import (
	"github.com/scanvault/orchestrator/internal/orchestrator"
	"github.com/scanvault/orchestrator/pkg/logger"
)

type Handlers struct {
	Processing *ProcessingHandler
}

func NewHandlers(orch *orchestrator.Orchestrator, logger logger.Logger) *Handlers {
	return &Handlers{
		Processing: NewProcessingHandler(orch, logger),
	}
}
