package concurrent

import (
	"errors"
	"sync"
	"time"
)

var ErrScheduleTimeout = errors.New("cannot schedule task, every worker stayed busy")

type JobFunc[T any, G any] func(job T) G

// WorkerPool fans a batch of jobs over numWorkers goroutines. Queue every job
// with AddJob, Close the queue, Start the workers, Wait, then drain
// CollectResults. The same pool can instead run long lived via Spawn plus
// Schedule for callers that dispatch tasks one at a time.
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan T
	results    chan G
	wg         sync.WaitGroup

	sem  chan struct{}
	work chan func()
}

func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan T, jobQueueSize),
		results:    make(chan G, jobQueueSize),
	}
}

func (wp *WorkerPool[T, G]) worker(id int, jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		res := jobFunc(job)
		wp.results <- res
	}
}

func (wp *WorkerPool[T, G]) Start(jobFunc JobFunc[T, G]) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i, jobFunc)
	}
}

func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) AddJob(job T) {
	wp.jobQueue <- job
}

func (wp *WorkerPool[T, G]) CollectResults() chan G {
	return wp.results
}

func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

// Spawn switches the pool into task mode and starts n resident workers.
// numWorkers stays the hard cap, extra workers come and go with demand.
func (wp *WorkerPool[T, G]) Spawn(n int) {
	wp.sem = make(chan struct{}, wp.numWorkers)
	wp.work = make(chan func(), cap(wp.jobQueue))
	if n > wp.numWorkers {
		n = wp.numWorkers
	}
	for i := 0; i < n; i++ {
		wp.sem <- struct{}{}
		go wp.taskWorker(nil)
	}
}

// Schedule blocks until a worker takes the task.
func (wp *WorkerPool[T, G]) Schedule(task func()) {
	wp.schedule(task, nil)
}

// ScheduleTimeout returns ErrScheduleTimeout when no worker frees up within
// the timeout, callers shed load instead of queueing unboundedly.
func (wp *WorkerPool[T, G]) ScheduleTimeout(timeout time.Duration, task func()) error {
	return wp.schedule(task, time.After(timeout))
}

func (wp *WorkerPool[T, G]) schedule(task func(), deadline <-chan time.Time) error {
	select {
	case <-deadline:
		return ErrScheduleTimeout
	case wp.work <- task:
		return nil
	case wp.sem <- struct{}{}:
		go wp.taskWorker(task)
		return nil
	}
}

func (wp *WorkerPool[T, G]) taskWorker(task func()) {
	defer func() { <-wp.sem }()
	if task != nil {
		task()
	}
	for t := range wp.work {
		t()
	}
}
