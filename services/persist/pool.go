package persist

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/kat-co/vala"

	"github.com/grecko-app/grecko/core"
	"github.com/grecko-app/grecko/core/session"
	"github.com/grecko-app/grecko/services/metrics"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrQueueFull = errors.New("persistence queue full")
	ErrStopped   = errors.New("persistence pool stopped")
)

type job struct {
	key string
	op  string
	fn  func(ctx context.Context) error
}

// Pool runs persistence jobs in the background on a fixed set of workers.
// Jobs are routed by key, so jobs sharing a key run one at a time in submission order.
type Pool struct {
	queues  []chan job
	timeout time.Duration
	logger  core.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

var _ session.Dispatcher = (*Pool)(nil)

func NewPool(conf core.PersistConfig, logger core.Logger, m *metrics.Metrics) *Pool {
	vala.BeginValidation().Validate(
		vala.GreaterThan(conf.Workers, 0, "conf.Workers"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(m, "metrics"),
	).CheckAndPanic()

	queueSize := conf.QueueSize / conf.Workers
	if queueSize < 1 {
		queueSize = 1
	}
	queues := make([]chan job, conf.Workers)
	for i := range queues {
		queues[i] = make(chan job, queueSize)
	}
	return &Pool{
		queues:  queues,
		timeout: conf.JobTimeout,
		logger:  logger,
		metrics: m,
	}
}

// Start launches the workers. Cancelling ctx makes them quit without draining their queues;
// use Stop for a graceful shutdown.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info(fmt.Sprintf("persistence pool: starting %d workers", len(p.queues)))
	for i, q := range p.queues {
		p.wg.Add(1)
		go p.worker(ctx, i, q)
	}
}

// Stop refuses new jobs and waits for the queued ones to run.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("persistence pool: stopped")
}

// Dispatch queues fn without blocking. It fails with ErrQueueFull when the key's worker is
// backed up and with ErrStopped once the pool is stopped; fn is then never run.
func (p *Pool) Dispatch(key, op string, fn func(ctx context.Context) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}

	select {
	case p.queues[p.route(key)] <- job{key: key, op: op, fn: fn}:
		return nil
	default:
		p.metrics.ObservePersistJob(op, metrics.OutcomeDropped, 0)
		p.logger.Warn("persistence pool: queue full, job dropped", map[string]interface{}{"op": op}, core.Person{ID: key})
		return ErrQueueFull
	}
}

func (p *Pool) route(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(p.queues)))
}

func (p *Pool) worker(ctx context.Context, id int, queue <-chan job) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug(fmt.Sprintf("persistence pool: worker %d stopping: %v", id, ctx.Err()))
			return
		case j, ok := <-queue:
			if !ok {
				return
			}
			p.run(ctx, j)
		}
	}
}

func (p *Pool) run(ctx context.Context, j job) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := nowFunc()
	outcome := metrics.OutcomeOK
	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.OutcomeFailed
			p.logger.Error(fmt.Sprintf("persistence pool: %s panicked: %v", j.op, r), core.Person{ID: j.key})
		}
		p.metrics.ObservePersistJob(j.op, outcome, nowFunc().Sub(start))
	}()

	if err := j.fn(ctx); err != nil {
		outcome = metrics.OutcomeFailed
	}
}
