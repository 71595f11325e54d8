package handlers

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/scanvault/orchestrator/internal/orchestrator"
	"github.com/scanvault/orchestrator/pkg/logger"
)

// ProcessingHandler exposes the orchestrator's observable surface and the
// run/repair triggers. Runs execute in the background; the trigger endpoints
// reply immediately.
type ProcessingHandler struct {
	orch    *orchestrator.Orchestrator
	logger  logger.Logger
	running atomic.Bool
}

// ErrorResponse is the error reply body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewProcessingHandler(orch *orchestrator.Orchestrator, logger logger.Logger) *ProcessingHandler {
	return &ProcessingHandler{
		orch:   orch,
		logger: logger,
	}
}

// GetStatus returns the full board snapshot.
func (h *ProcessingHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.Snapshot())
}

// GetDocumentStatus returns the latest update for one document.
func (h *ProcessingHandler) GetDocumentStatus(c *gin.Context) {
	documentID := c.Param("documentId")
	if documentID == "" {
		h.handleError(c, http.StatusBadRequest, "Document ID is required", nil)
		return
	}

	update, ok := h.orch.DocumentUpdate(documentID)
	if !ok {
		h.handleError(c, http.StatusNotFound, "No processing record for document", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"documentId": documentID,
		"status":     update.Status,
		"message":    update.Message,
		"progress":   update.Progress,
		"type":       update.Type,
	})
}

// StartRun triggers a scan-and-process run in the background.
func (h *ProcessingHandler) StartRun(c *gin.Context) {
	if !h.running.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{"message": "A processing run is already active"})
		return
	}

	go func() {
		defer h.running.Store(false)
		if err := h.orch.Run(context.Background()); err != nil {
			h.logger.Error("processing run failed", logger.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "Processing run started"})
}

// StartRepair triggers a repair batch in the background.
func (h *ProcessingHandler) StartRepair(c *gin.Context) {
	go func() {
		summary, err := h.orch.RunRepair(context.Background())
		if err != nil {
			h.logger.Error("repair run failed", logger.Error(err))
			return
		}
		h.logger.Info("repair run finished",
			logger.Int("completed", summary.Completed),
			logger.Int("failed", summary.Failed),
		)
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "Repair run started"})
}

// handleError logs and writes a uniform error reply.
func (h *ProcessingHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	c.JSON(status, response)
}
