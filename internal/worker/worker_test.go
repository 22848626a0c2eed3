package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/syncer"
	"catalogsync/internal/worker/processors"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu       sync.Mutex
	triggers []string
	err      error
}

func (r *fakeRunner) Run(_ context.Context, trigger string) (*syncer.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, trigger)
	if r.err != nil {
		return nil, r.err
	}
	return &syncer.Report{RunID: "run"}, nil
}

func (r *fakeRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.triggers)
}

type fakeReader struct {
	messages chan kafka.Message
	closed   bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.messages:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func newTestWorker(runner processors.SyncRunner) (*Worker, *fakeReader) {
	reader := &fakeReader{messages: make(chan kafka.Message, 8)}
	return &Worker{
		logger:    logger.Nop(),
		reader:    reader,
		processor: processors.NewEventProcessor(runner, logger.Nop()),
		backoff:   time.Millisecond,
	}, reader
}

func TestHandleRunsCycle(t *testing.T) {
	runner := &fakeRunner{}
	w, _ := newTestWorker(runner)

	err := w.handle(context.Background(), kafka.Message{Value: []byte(`{"type":"sync.requested","requested_by":"ops"}`)})
	require.NoError(t, err)
	assert.Equal(t, []string{models.TriggerKafka}, runner.triggers)
}

func TestHandleIgnoresOtherEvents(t *testing.T) {
	runner := &fakeRunner{}
	w, _ := newTestWorker(runner)

	require.NoError(t, w.handle(context.Background(), kafka.Message{Value: []byte(`{"type":"catalog.synced"}`)}))
	assert.Zero(t, runner.count())
}

func TestHandleInvalidPayload(t *testing.T) {
	w, _ := newTestWorker(&fakeRunner{})
	assert.Error(t, w.handle(context.Background(), kafka.Message{Value: []byte(`not json`)}))
}

func TestHandleSkipsBusyCycle(t *testing.T) {
	w, _ := newTestWorker(&fakeRunner{err: syncer.ErrSyncInProgress})
	assert.NoError(t, w.handle(context.Background(), kafka.Message{Value: []byte(`{}`)}))
}

func TestHandlePropagatesCycleFailure(t *testing.T) {
	boom := errors.New("boom")
	w, _ := newTestWorker(&fakeRunner{err: boom})
	assert.ErrorIs(t, w.handle(context.Background(), kafka.Message{Value: []byte(`{}`)}), boom)
}

func TestStartConsumesUntilCancelled(t *testing.T) {
	runner := &fakeRunner{}
	w, reader := newTestWorker(runner)
	reader.messages <- kafka.Message{Value: []byte(`{"type":"sync.requested"}`)}
	reader.messages <- kafka.Message{Value: []byte(`garbage`)}
	reader.messages <- kafka.Message{Value: []byte(`{"type":"sync.requested"}`)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runner.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	w.Stop()
	assert.True(t, reader.closed)
}
