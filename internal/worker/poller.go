package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prxgr4mmer/price-delta-service/internal/ports"
)

// Poller runs tracker cycles at a fixed interval.
// Cycles never overlap: a tick that fires while a cycle is running is dropped.
type Poller struct {
	service  ports.PollerService
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	cycles atomic.Int64
	failed atomic.Int64
}

// NewPoller creates a new price poller
func NewPoller(service ports.PollerService, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		service:  service,
		interval: interval,
		logger:   logger.With("component", "poller"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs a first cycle immediately, then one per interval until ctx is
// cancelled or Stop is called. It blocks.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		close(doneCh)
	}()

	p.logger.Info("starting poller", "interval", p.interval.String())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller context cancelled")
			return ctx.Err()

		case <-stopCh:
			p.logger.Info("poller stopped")
			return nil

		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	p.cycles.Add(1)

	// errors never stop the loop; the next tick retries
	if err := p.service.PollPrices(ctx); err != nil {
		p.failed.Add(1)
		p.logger.Error("poll failed", "error", err)
	}
}

// Stop gracefully stops the poller, waiting for the running cycle to finish
func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	p.logger.Info("stopping poller")
	close(stopCh)

	select {
	case <-doneCh:
		return nil
	case <-time.After(10 * time.Second):
		return context.DeadlineExceeded
	}
}

// IsRunning returns whether the poller is currently running
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Cycles returns the number of cycles started and how many of them failed
func (p *Poller) Cycles() (total, failed int64) {
	return p.cycles.Load(), p.failed.Load()
}
