package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"telegram-ecommerce-bot/internal/infra/metrics"
)

// ErrPoolStopped is returned by Submit after Stop.
var ErrPoolStopped = errors.New("worker pool stopped")

type Task func(ctx context.Context) error

// KeyedPool runs tasks on a fixed set of lanes. Tasks submitted with the same
// key always land on the same lane, so they run one at a time and in
// submission order. Different keys spread over lanes and run in parallel.
type KeyedPool struct {
	wg    sync.WaitGroup
	lanes []chan Task
	quit  chan struct{}
	once  sync.Once
	log   *zerolog.Logger
}

func NewKeyedPool(workers, queueSize int, logger *zerolog.Logger) *KeyedPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	lanes := make([]chan Task, workers)
	for i := range lanes {
		lanes[i] = make(chan Task, queueSize)
	}
	return &KeyedPool{lanes: lanes, quit: make(chan struct{}), log: logger}
}

func (p *KeyedPool) Start(ctx context.Context) {
	for i := range p.lanes {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

func (p *KeyedPool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	lane := p.lanes[id]
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case task := <-lane:
			metrics.SetLaneQueueDepth(label, len(lane))
			p.exec(ctx, id, task)
		}
	}
}

func (p *KeyedPool) exec(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("lane", id).Str("panic", fmt.Sprint(r)).Msg("worker task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Warn().Err(err).Int("lane", id).Msg("worker task error")
	}
}

// Stop signals every lane to exit and waits for in-flight tasks. Tasks still
// queued are dropped.
func (p *KeyedPool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit enqueues task on the lane owned by key, blocking while that lane is
// full until ctx is done.
func (p *KeyedPool) Submit(ctx context.Context, key int64, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	idx := p.laneFor(key)
	lane := p.lanes[idx]
	select {
	case <-p.quit:
		return ErrPoolStopped
	default:
	}
	select {
	case lane <- task:
		metrics.SetLaneQueueDepth(strconv.Itoa(idx), len(lane))
		return nil
	case <-p.quit:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *KeyedPool) laneFor(key int64) int {
	u := uint64(key)
	return int(u % uint64(len(p.lanes)))
}
