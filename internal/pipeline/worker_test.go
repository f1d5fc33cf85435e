package pipeline

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/signalhouse/triage/internal/analysis"
)

type failingQueue struct {
	calls atomic.Int32
}

func (q *failingQueue) Enqueue(context.Context, analysis.Message) error { return nil }

func (q *failingQueue) Dequeue(context.Context) (analysis.Message, error) {
	q.calls.Add(1)
	return analysis.Message{}, errors.New("connection refused")
}

func TestWorkerBacksOffOnDequeueFailure(t *testing.T) {
	e := newEnv(t, &stubLLM{response: bugReportResponse}, http.DefaultClient)
	q := &failingQueue{}
	w := NewWorker(q, e.service, 1, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
	assert.LessOrEqual(t, int(q.calls.Load()), 3, "persistent dequeue errors must not hot-loop")
}
