package orchestrator

import (
	"context"
	"time"

	"github.com/scanvault/orchestrator/internal/models"
	"github.com/scanvault/orchestrator/internal/pipeline"
	"github.com/scanvault/orchestrator/internal/stages"
	"github.com/scanvault/orchestrator/pkg/logger"
)

// PipelineAPI is the slice of the remote pipeline client the dispatcher
// needs. pipeline.Client satisfies it through a thin adapter; tests use
// fakes.
type PipelineAPI interface {
	FetchStatus(ctx context.Context, documentID string) (models.StatusSnapshot, error)
	Dispatch(ctx context.Context, req pipeline.DispatchRequest) (pipeline.DispatchResponse, error)
	Subscribe(ctx context.Context, documentID string) (EventSource, error)
	Repair(ctx context.Context, documentID string) (pipeline.DispatchResponse, error)
}

// LiveAPI adapts *pipeline.Client to PipelineAPI. The only mismatch is
// Subscribe's concrete return type.
type LiveAPI struct {
	*pipeline.Client
}

func (a LiveAPI) Subscribe(ctx context.Context, documentID string) (EventSource, error) {
	return a.Client.Subscribe(ctx, documentID)
}

// Dispatcher drives one document through its missing stages: resolve, start,
// then either accept the synchronous terminal reply or follow the progress
// stream to its single terminal outcome.
type Dispatcher struct {
	api             PipelineAPI
	board           *Board
	extendedEnabled bool
	streamTimeout   time.Duration
	log             logger.Logger
}

func NewDispatcher(api PipelineAPI, board *Board, extendedEnabled bool, streamTimeout time.Duration, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		api:             api,
		board:           board,
		extendedEnabled: extendedEnabled,
		streamTimeout:   streamTimeout,
		log:             log.Named("dispatcher"),
	}
}

// ProcessDocument runs the normal processing path for one document and
// returns its terminal outcome. Failures are terminal for this document
// only and are never retried automatically.
func (d *Dispatcher) ProcessDocument(ctx context.Context, documentID string) streamResult {
	d.board.Publish(ctx, documentID, models.ProcessingUpdate{
		Status:  string(models.StatusProcessing),
		Message: "Resolving missing stages",
		Type:    models.UpdateProcessing,
	})

	snap, err := d.api.FetchStatus(ctx, documentID)
	if err != nil {
		return streamResult{
			Status:  models.StatusError,
			Message: "Failed to fetch document status",
			Err:     &pipeline.DispatchError{DocumentID: documentID, Err: err},
		}
	}

	missing := stages.Resolve(snap, d.extendedEnabled)
	if len(missing) == 0 {
		// Already satisfied: success without dispatching.
		return completedResult(snap.DBID, "All stages already complete", false)
	}

	resp, err := d.api.Dispatch(ctx, pipeline.DispatchRequest{
		DocumentID: documentID,
		Steps:      models.StageNames(missing),
	})
	if err != nil {
		return streamResult{
			Status:  models.StatusError,
			Message: "Pipeline start request rejected",
			Err:     err,
		}
	}

	if resp.Terminal() {
		return completedResult(resp.DBID, resp.Message, resp.AnalysisComplete)
	}

	source, err := d.api.Subscribe(ctx, documentID)
	if err != nil {
		return streamResult{
			Status:  models.StatusError,
			Message: "Failed to open progress stream",
			Err:     &pipeline.StreamError{DocumentID: documentID, Err: err},
		}
	}

	stream := &progressStream{
		documentID: documentID,
		source:     source,
		timeout:    d.streamTimeout,
		onProgress: func(update models.ProcessingUpdate) {
			d.board.Publish(ctx, documentID, update)
		},
		log: d.log,
	}
	return stream.run(ctx)
}

// RepairDocument runs the repair path: one synchronous request with a forced
// data update, no streaming.
func (d *Dispatcher) RepairDocument(ctx context.Context, documentID string) streamResult {
	d.board.Publish(ctx, documentID, models.ProcessingUpdate{
		Status:  string(models.StatusProcessing),
		Message: "Repairing document",
		Type:    models.UpdateProcessing,
	})

	resp, err := d.api.Repair(ctx, documentID)
	if err != nil {
		return streamResult{
			Status:  models.StatusError,
			Message: "Repair request failed",
			Err:     err,
		}
	}
	return completedResult(resp.DBID, resp.Message, resp.AnalysisComplete)
}

// completedResult maps a successful terminal reply onto a document status:
// a persisted record id means ready, otherwise analysis is still pending.
func completedResult(dbID, message string, analysisComplete bool) streamResult {
	if dbID != "" {
		return streamResult{
			Status:           models.StatusReady,
			DBID:             dbID,
			AnalysisComplete: true,
			Message:          message,
		}
	}
	return streamResult{
		Status:           models.StatusWaitingForAnalysis,
		AnalysisComplete: analysisComplete,
		Message:          message,
	}
}
