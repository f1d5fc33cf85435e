package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/signalhouse/triage/pkg/logging"
)

// Worker drains the ingest queue and runs each message through the pipeline.
type Worker struct {
	queue   Queue
	service *Service
	count   int
	logger  *logging.Logger
}

// NewWorker creates a worker pool over the queue.
func NewWorker(queue Queue, service *Service, count int, logger *logging.Logger) *Worker {
	if queue == nil {
		panic("pipeline: queue required")
	}
	if service == nil {
		panic("pipeline: service required")
	}
	if count <= 0 {
		count = 1
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{queue: queue, service: service, count: count, logger: logger}
}

// Run blocks until ctx is canceled, processing messages on count goroutines.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("pipeline workers starting", "count", w.count)

	var wg sync.WaitGroup
	for i := 0; i < w.count; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()
	w.logger.Info("pipeline workers stopped")
}

func (w *Worker) loop(ctx context.Context, id int) {
	backoff := time.Second
	for {
		msg, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			w.logger.Error("dequeue failed", "worker", id, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		w.service.Process(ctx, msg)
	}
}
