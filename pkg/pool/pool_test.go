package pool

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/fluorfn/runtime/pkg/function"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	p := New(&Config{TotalComponentInstances: 1}, zap.NewNop())
	slot, err := p.Acquire(context.Background(), "echo")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if p.InUse() != 1 {
		t.Fatalf("InUse() = %d, want 1", p.InUse())
	}
	p.Release(slot)
	if p.InUse() != 0 {
		t.Fatalf("InUse() after release = %d, want 0", p.InUse())
	}
}

func TestAcquireFailsWhenSaturated(t *testing.T) {
	p := New(&Config{TotalComponentInstances: 1}, zap.NewNop())
	slot, err := p.Acquire(context.Background(), "echo")
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	_, err = p.Acquire(context.Background(), "echo")
	if err == nil {
		t.Fatalf("expected second Acquire to fail when saturated")
	}
	if !function.IsResourceExhausted(err) {
		t.Fatalf("expected ResourceExhausted, got %v", err)
	}

	p.Release(slot)
	if _, err := p.Acquire(context.Background(), "echo"); err != nil {
		t.Fatalf("expected Acquire to succeed after release, got %v", err)
	}
}

func TestAcquireReleaseUnderConcurrency(t *testing.T) {
	p := New(&Config{TotalComponentInstances: 8}, zap.NewNop())
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				slot, err := p.Acquire(context.Background(), "echo")
				if err != nil {
					continue
				}
				p.Release(slot)
				return
			}
		}()
	}
	wg.Wait()
	if p.InUse() != 0 {
		t.Fatalf("InUse() after drain = %d, want 0", p.InUse())
	}
}
