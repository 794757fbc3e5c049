package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wyniki/pkg/logger"
)

// Job is one unit of work; Index is its position in the submission order
type Job[T any] struct {
	Index int
	Input T
}

// Result represents the outcome of a job
type Result[T, R any] struct {
	Job      Job[T]
	Value    R
	Err      error
	Duration time.Duration
}

// Handler processes one job input
type Handler[T, R any] func(ctx context.Context, input T) (R, error)

// WorkerPool runs a handler over submitted jobs with a fixed number of workers
type WorkerPool[T, R any] struct {
	numWorkers  int
	jobQueue    chan Job[T]
	resultQueue chan Result[T, R]
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	handler     Handler[T, R]
	logger      logger.Logger
}

// NewWorkerPool creates a pool bound to ctx; cancelling ctx stops the workers
func NewWorkerPool[T, R any](ctx context.Context, numWorkers int, handler Handler[T, R], log logger.Logger) *WorkerPool[T, R] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool[T, R]{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job[T], numWorkers*2),
		resultQueue: make(chan Result[T, R], numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		handler:     handler,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool[T, R]) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop waits for queued jobs to finish, then closes Results. Submit must not
// be called afterwards.
func (wp *WorkerPool[T, R]) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool[T, R]) Submit(job Job[T]) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the channel results are delivered on
func (wp *WorkerPool[T, R]) Results() <-chan Result[T, R] {
	return wp.resultQueue
}

// GetQueueSize returns the current number of jobs in the queue
func (wp *WorkerPool[T, R]) GetQueueSize() int {
	return len(wp.jobQueue)
}

// GetActiveWorkers returns the number of workers
func (wp *WorkerPool[T, R]) GetActiveWorkers() int {
	return wp.numWorkers
}

func (wp *WorkerPool[T, R]) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("Worker stopping - context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		result := wp.process(job)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool[T, R]) process(job Job[T]) (result Result[T, R]) {
	start := time.Now()
	result.Job = job

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("job %d panicked: %v", job.Index, r)
		}
		result.Duration = time.Since(start)
	}()

	result.Value, result.Err = wp.handler(wp.ctx, job.Input)
	return result
}

// Map runs handler over inputs and returns one result per input, in input
// order. Inputs left unprocessed because ctx ended carry ctx's error.
func Map[T, R any](ctx context.Context, numWorkers int, inputs []T, handler Handler[T, R], log logger.Logger) []Result[T, R] {
	results := make([]Result[T, R], len(inputs))
	done := make([]bool, len(inputs))
	if len(inputs) == 0 {
		return results
	}

	wp := NewWorkerPool(ctx, numWorkers, handler, log)
	wp.Start()

	go func() {
		defer wp.Stop()
		for i, input := range inputs {
			if err := wp.Submit(Job[T]{Index: i, Input: input}); err != nil {
				return
			}
		}
	}()

	for r := range wp.Results() {
		results[r.Job.Index] = r
		done[r.Job.Index] = true
	}

	for i := range results {
		if !done[i] {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = Result[T, R]{Job: Job[T]{Index: i, Input: inputs[i]}, Err: err}
		}
	}
	return results
}
