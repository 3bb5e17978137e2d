package client

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Poller periodically refreshes an engine from its store. Polling is the
// only reconciliation channel: every tick replaces the engine's local
// copy with the server's view.
type Poller struct {
	engine   *Engine
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller for the given engine
func NewPoller(engine *Engine, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		engine:   engine,
		interval: interval,
		logger:   logger,
	}
}

// Start begins polling. An immediate refresh runs first so callers see
// data without waiting a full interval. Calling Start on a running
// poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx, p.done)
}

// Stop cancels polling and waits for the loop to exit. A fetch already
// in flight is abandoned; its result is never applied after Stop
// returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

// refresh runs one fetch-and-apply cycle. A canceled fetch is discarded
// silently; any other failure is logged and the previous local copy
// stays in place until the next tick.
func (p *Poller) refresh(ctx context.Context) {
	if err := p.engine.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("archive poll failed", "error", err)
	}
}
