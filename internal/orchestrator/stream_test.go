package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanvault/orchestrator/internal/models"
	"github.com/scanvault/orchestrator/internal/pipeline"
	"github.com/scanvault/orchestrator/pkg/logger"
)

type fakeSource struct {
	ch     chan pipeline.Event
	closes atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan pipeline.Event, 16)}
}

func (f *fakeSource) Events() <-chan pipeline.Event { return f.ch }
func (f *fakeSource) Close()                        { f.closes.Add(1) }

func newTestStream(src EventSource, timeout time.Duration, onProgress func(models.ProcessingUpdate)) *progressStream {
	if onProgress == nil {
		onProgress = func(models.ProcessingUpdate) {}
	}
	return &progressStream{
		documentID: "doc-1",
		source:     src,
		timeout:    timeout,
		onProgress: onProgress,
		log:        logger.NewTestLogger(),
	}
}

func TestStream_CompleteWithPersistedID(t *testing.T) {
	src := newFakeSource()
	src.ch <- pipeline.Event{Type: pipeline.EventComplete, Payload: pipeline.EventPayload{
		DBID:    "db-1",
		Message: "done",
	}}

	res := newTestStream(src, time.Second, nil).run(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, models.StatusReady, res.Status)
	assert.Equal(t, "db-1", res.DBID)
	assert.True(t, res.AnalysisComplete)
	assert.Equal(t, int32(1), src.closes.Load())
}

func TestStream_CompleteWithoutPersistedID(t *testing.T) {
	src := newFakeSource()
	src.ch <- pipeline.Event{Type: pipeline.EventComplete}

	res := newTestStream(src, time.Second, nil).run(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, models.StatusWaitingForAnalysis, res.Status)
	assert.False(t, res.AnalysisComplete)
}

func TestStream_ProcessingEventsPublished(t *testing.T) {
	src := newFakeSource()
	src.ch <- pipeline.Event{Type: pipeline.EventProcessing, Payload: pipeline.EventPayload{
		Status: "processing", Message: "rasterizing", Progress: 30,
	}}
	src.ch <- pipeline.Event{Type: pipeline.EventProcessing, Payload: pipeline.EventPayload{
		Status: "processing", Message: "analyzing", Progress: 70,
	}}
	src.ch <- pipeline.Event{Type: pipeline.EventComplete, Payload: pipeline.EventPayload{DBID: "db-1"}}

	var mu sync.Mutex
	var updates []models.ProcessingUpdate
	res := newTestStream(src, time.Second, func(u models.ProcessingUpdate) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	}).run(context.Background())

	require.NoError(t, res.Err)
	require.Len(t, updates, 2)
	assert.Equal(t, "rasterizing", updates[0].Message)
	assert.Equal(t, float64(70), updates[1].Progress)
	assert.Equal(t, models.UpdateProcessing, updates[1].Type)
}

func TestStream_ErrorEvent(t *testing.T) {
	src := newFakeSource()
	src.ch <- pipeline.Event{Type: pipeline.EventError, Payload: pipeline.EventPayload{
		Message: "analysis crashed",
	}}

	res := newTestStream(src, time.Second, nil).run(context.Background())

	require.Error(t, res.Err)
	var streamErr *pipeline.StreamError
	require.True(t, errors.As(res.Err, &streamErr))
	assert.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, "analysis crashed", res.Message)
	assert.Equal(t, int32(1), src.closes.Load())
}

func TestStream_ClosedBeforeTerminalEvent(t *testing.T) {
	src := newFakeSource()
	close(src.ch)

	res := newTestStream(src, time.Second, nil).run(context.Background())

	require.Error(t, res.Err)
	var streamErr *pipeline.StreamError
	assert.True(t, errors.As(res.Err, &streamErr))
}

func TestStream_TimeoutNotExtendedByPings(t *testing.T) {
	src := newFakeSource()
	done := make(chan struct{})
	defer close(done)

	// Keepalives every 20ms prove liveness but must not move the deadline.
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case src.ch <- pipeline.Event{Type: pipeline.EventPing}:
				default:
				}
			case <-done:
				return
			}
		}
	}()

	start := time.Now()
	res := newTestStream(src, 100*time.Millisecond, nil).run(context.Background())
	elapsed := time.Since(start)

	require.Error(t, res.Err)
	var timeoutErr *pipeline.TimeoutError
	require.True(t, errors.As(res.Err, &timeoutErr))
	assert.Equal(t, models.StatusError, res.Status)
	assert.Contains(t, res.Message, "timed out")
	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, int32(1), src.closes.Load())
}

func TestStream_ContextCancelled(t *testing.T) {
	src := newFakeSource()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestStream(src, time.Second, nil).run(ctx)

	require.Error(t, res.Err)
	assert.Equal(t, int32(1), src.closes.Load())
}
