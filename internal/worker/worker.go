package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/jobModel"
	"github.com/akolanti/pharmadoc/internal/job"
	"github.com/akolanti/pharmadoc/internal/metrics"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

// DocumentIngester runs one ingestion job and returns its final state.
type DocumentIngester interface {
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
}

// Pool is an elastic worker pool. It starts with MinWorkers, grows by one per
// dispatcher signal up to MaxWorkers and shrinks back when workers stay idle.
type Pool struct {
	jobService *job.Service
	ingester   DocumentIngester

	MinWorkers  int64
	MaxWorkers  int64
	IdleTimeout time.Duration
	JobTimeout  time.Duration

	stop         chan bool
	stopOnce     sync.Once
	waitGroup    sync.WaitGroup
	workerCount  int64
	dispatchDone chan struct{}
	logger       *logger_i.Logger
}

func NewPool(jobService *job.Service, ingester DocumentIngester) *Pool {
	return &Pool{
		jobService:   jobService,
		ingester:     ingester,
		MinWorkers:   config.MinWorkerCount,
		MaxWorkers:   config.MaxWorkerCount,
		IdleTimeout:  config.IdleWorkerTimeout,
		JobTimeout:   config.IngestJobTimeout,
		stop:         make(chan bool),
		dispatchDone: make(chan struct{}),
		logger:       logger_i.NewLogger("WorkerPool"),
	}
}

func (p *Pool) Start() {
	p.logger.Info("Initializing worker pool")
	for i := int64(0); i < max(p.MinWorkers, 1); i++ {
		p.createWorker()
	}
	go p.dispatcher()
}

// Stop asks every worker to finish its current job and waits for them.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.dispatchDone
	p.waitGroup.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *Pool) WorkerCount() int64 {
	return atomic.LoadInt64(&p.workerCount)
}

func (p *Pool) dispatcher() {
	defer close(p.dispatchDone)
	p.logger.Info("Dispatcher started")
	for {
		select {
		case <-p.jobService.DispatcherChannel:
			if p.WorkerCount() < p.MaxWorkers {
				p.logger.Info("Creating new worker", "workerCount", p.WorkerCount())
				p.createWorker()
			}
		case <-p.stop:
			return
		}
	}
}

func (p *Pool) createWorker() {
	p.waitGroup.Add(1)
	atomic.AddInt64(&p.workerCount, 1)
	metrics.IncrementActiveWorkerCount()
	go p.worker()
}

func (p *Pool) worker() {
	idle := time.NewTimer(p.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case currentJob := <-p.jobService.JobChannel:
			metrics.DecrementJobsInQueue()
			p.executeJob(currentJob)
			idle.Reset(p.IdleTimeout)

		case <-p.stop:
			atomic.AddInt64(&p.workerCount, -1)
			p.removeWorker("Stop worker signal received")
			return

		case <-idle.C:
			if p.tryRetire() {
				p.removeWorker("Idle worker timeout")
				return
			}
			idle.Reset(p.IdleTimeout)
		}
	}
}

// tryRetire never takes the pool below MinWorkers.
func (p *Pool) tryRetire() bool {
	for {
		current := atomic.LoadInt64(&p.workerCount)
		if current <= max(p.MinWorkers, 1) {
			return false
		}
		if atomic.CompareAndSwapInt64(&p.workerCount, current, current-1) {
			return true
		}
	}
}

// removeWorker expects workerCount to be decremented already.
func (p *Pool) removeWorker(reason string) {
	metrics.DecrementActiveWorkerCount()
	p.logger.Info("Removed worker", "reason", reason, "workerCount", p.WorkerCount())
	p.waitGroup.Done()
}
