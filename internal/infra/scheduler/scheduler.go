package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Job is one periodic unit of work. It returns how many items it touched.
type Job interface {
	Run(ctx context.Context) (int, error)
}

// JobFunc adapts a plain function to Job.
type JobFunc func(ctx context.Context) (int, error)

func (f JobFunc) Run(ctx context.Context) (int, error) { return f(ctx) }

// Scheduler periodically runs a Job.
type Scheduler struct {
	name     string
	interval time.Duration
	job      Job
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler runs job every interval. If interval <= 0 it defaults to 1 minute.
func NewScheduler(name string, interval time.Duration, job Job, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "scheduler").Str("job", name).Logger()
	return &Scheduler{
		name:     name,
		interval: interval,
		job:      job,
		log:      &l,
		done:     make(chan struct{}),
	}
}

// Start begins the loop in a background goroutine; calling it twice has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	s.ctx, s.cancel = context.WithCancel(parentCtx)
	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()
	n, err := s.job.Run(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("job failed")
		return
	}
	if n > 0 {
		s.log.Info().Int("count", n).Msg("job done")
	}
}

// Stop cancels the loop and waits for it to finish. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
	s.log.Info().Msg("scheduler stopped")
}
