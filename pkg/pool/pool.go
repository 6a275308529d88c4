// Package pool implements the Instance Pool: a fixed-capacity allocator
// that bounds the number of concurrently live Wasm instances so that
// instantiation is a predictable, steady-state-bounded operation rather
// than an unbounded allocation on every request.
package pool

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fluorfn/runtime/pkg/function"
)

// Slot is an acquired pool ticket. It carries no payload of its own; the
// caller instantiates its own Wasm component against a fresh capability
// context and calls Release when done, success or failure.
type Slot struct {
	acquiredAt time.Time
}

// Pool is the process-global Instance Pool. Acquire either returns a Slot
// immediately or fails fast with a ResourceExhausted error; it never
// blocks waiting for capacity, matching the design's "retriable 5xx-class
// error, never a crash" contract.
type Pool struct {
	cfg    *Config
	sem    chan struct{}
	logger *zap.Logger
}

// New constructs a Pool from cfg, applying defaults to any zero fields.
func New(cfg *Config, logger *zap.Logger) *Pool {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.ApplyDefaults()
	return &Pool{
		cfg:    cfg,
		sem:    make(chan struct{}, cfg.TotalComponentInstances),
		logger: logger,
	}
}

// Acquire reserves one instance slot for functionName, or fails with
// ResourceExhausted if the pool is saturated.
func (p *Pool) Acquire(ctx context.Context, functionName string) (*Slot, error) {
	select {
	case p.sem <- struct{}{}:
		return &Slot{acquiredAt: time.Now()}, nil
	default:
		return nil, function.ResourceExhausted("pool.Acquire",
			fmt.Sprintf("instance pool saturated (capacity %d) for function %q", p.cfg.TotalComponentInstances, functionName))
	}
}

// Release returns slot's ticket to the pool. It is safe to call with a nil
// slot (a no-op), which lets callers defer Release unconditionally even on
// an Acquire failure path.
func (p *Pool) Release(slot *Slot) {
	if slot == nil {
		return
	}
	select {
	case <-p.sem:
	default:
		if p.logger != nil {
			p.logger.Warn("pool.Release called with no outstanding permit")
		}
	}
}

// InUse reports the number of currently reserved slots.
func (p *Pool) InUse() int {
	return len(p.sem)
}

// Capacity reports the pool's total slot count.
func (p *Pool) Capacity() int {
	return cap(p.sem)
}

// Config returns the pool's effective configuration.
func (p *Pool) Config() *Config {
	return p.cfg
}
