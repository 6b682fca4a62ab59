package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PeriodicTrigger submits a job of one type every interval
type PeriodicTrigger struct {
	jobType   JobType
	interval  time.Duration
	scheduler *Scheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewPeriodicTrigger creates a trigger. interval must be positive.
func NewPeriodicTrigger(jobType JobType, interval time.Duration, scheduler *Scheduler, logger *zap.Logger) *PeriodicTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodicTrigger{
		jobType:   jobType,
		interval:  interval,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the trigger loop
func (p *PeriodicTrigger) Start(ctx context.Context) error {
	if p.interval <= 0 {
		return errors.New("periodic trigger interval must be positive")
	}

	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = true
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.runLoop(ctx)

	p.logger.Info("Periodic trigger started",
		zap.String("job_type", string(p.jobType)),
		zap.Duration("interval", p.interval),
	)
	return nil
}

// Stop stops the trigger loop
func (p *PeriodicTrigger) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerNow submits a job immediately, outside the regular cadence
func (p *PeriodicTrigger) TriggerNow() (*Job, error) {
	return p.scheduler.Schedule(p.jobType)
}

func (p *PeriodicTrigger) runLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.TriggerNow(); err != nil {
				p.logger.Warn("Failed to submit periodic job",
					zap.String("job_type", string(p.jobType)),
					zap.Error(err),
				)
			}
		}
	}
}
