package concurrent

import (
	"context"
	"sync"
)

type JobFunc[T any, G any] func(job T) G

// WorkerPool fans jobs out over a fixed number of workers. The websocket
// hub uses it to bound event-broadcast concurrency so one slow client
// cannot starve the accept loop.
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan T
	results    chan G
	wg         sync.WaitGroup
}

func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan T, jobQueueSize),
		results:    make(chan G, jobQueueSize),
	}
}

func (wp *WorkerPool[any, G]) worker(ctx context.Context, jobFunc JobFunc[any, G]) {
	defer wp.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			res := jobFunc(job)
			select {
			case wp.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (wp *WorkerPool[any, G]) Start(ctx context.Context, jobFunc JobFunc[any, G]) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, jobFunc)
	}
}

func (wp *WorkerPool[any, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

// TryAddJob enqueues without blocking; a full queue drops the job and
// returns false.
func (wp *WorkerPool[any, G]) TryAddJob(job any) bool {
	select {
	case wp.jobQueue <- job:
		return true
	default:
		return false
	}
}

func (wp *WorkerPool[any, G]) AddJob(job any) {
	wp.jobQueue <- job
}

func (wp *WorkerPool[any, G]) CollectResults() chan G {
	return wp.results
}

func (wp *WorkerPool[any, G]) Close() {
	close(wp.jobQueue)
}
