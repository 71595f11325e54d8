package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/scanvault/orchestrator/internal/models"
	"github.com/scanvault/orchestrator/internal/pipeline"
	"github.com/scanvault/orchestrator/pkg/logger"
)

// EventSource is an open progress stream. pipeline.Subscription satisfies
// it; tests substitute channel-backed fakes.
type EventSource interface {
	Events() <-chan pipeline.Event
	Close()
}

// streamResult is the single terminal outcome of one streaming job.
type streamResult struct {
	Status           models.DocumentStatus
	DBID             string
	AnalysisComplete bool
	Message          string
	Err              error
}

// progressStream consumes one document's push events until a terminal event,
// a stream failure, or the absolute deadline. The deadline is a wall-clock
// bound from job start; ping events prove liveness but never extend it.
type progressStream struct {
	documentID string
	source     EventSource
	timeout    time.Duration
	onProgress func(update models.ProcessingUpdate)
	log        logger.Logger
}

// run blocks until the job resolves. The event source is closed exactly once
// on every exit path.
func (s *progressStream) run(ctx context.Context) streamResult {
	defer s.source.Close()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-s.source.Events():
			if !ok {
				return streamResult{
					Status:  models.StatusError,
					Message: "progress stream closed before a terminal event",
					Err:     &pipeline.StreamError{DocumentID: s.documentID, Err: fmt.Errorf("stream closed early")},
				}
			}

			switch ev.Type {
			case pipeline.EventPing:
				// Liveness only. The deadline stays absolute.
				continue

			case pipeline.EventProcessing:
				s.onProgress(models.ProcessingUpdate{
					Status:   ev.Payload.Status,
					Message:  ev.Payload.Message,
					Progress: ev.Payload.Progress,
					Type:     models.UpdateProcessing,
				})

			case pipeline.EventComplete:
				if ev.Payload.DBID != "" {
					return streamResult{
						Status:           models.StatusReady,
						DBID:             ev.Payload.DBID,
						AnalysisComplete: true,
						Message:          ev.Payload.Message,
					}
				}
				return streamResult{
					Status:  models.StatusWaitingForAnalysis,
					Message: ev.Payload.Message,
				}

			case pipeline.EventError:
				msg := ev.Payload.Message
				if msg == "" {
					msg = "pipeline reported an error"
				}
				return streamResult{
					Status:  models.StatusError,
					Message: msg,
					Err:     &pipeline.StreamError{DocumentID: s.documentID, Err: fmt.Errorf("%s", msg)},
				}

			default:
				s.log.Debug("ignoring unknown stream event",
					logger.String("documentId", s.documentID),
					logger.String("event", string(ev.Type)),
				)
			}

		case <-timer.C:
			return streamResult{
				Status:  models.StatusError,
				Message: fmt.Sprintf("processing timed out after %s with no terminal event", s.timeout),
				Err:     &pipeline.TimeoutError{DocumentID: s.documentID, After: s.timeout},
			}

		case <-ctx.Done():
			return streamResult{
				Status:  models.StatusError,
				Message: "processing cancelled",
				Err:     &pipeline.StreamError{DocumentID: s.documentID, Err: ctx.Err()},
			}
		}
	}
}
