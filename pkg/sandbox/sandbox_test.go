package sandbox

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/fluorfn/runtime/pkg/componentcache"
	"github.com/fluorfn/runtime/pkg/function"
	"github.com/fluorfn/runtime/pkg/pool"
)

func TestInvokeSurfacesResourceExhausted(t *testing.T) {
	p := pool.New(&pool.Config{TotalComponentInstances: 1}, zap.NewNop())
	slot, err := p.Acquire(context.Background(), "echo")
	if err != nil {
		t.Fatal(err)
	}
	defer p.Release(slot)

	h := New(p, zap.NewNop())
	_, err = h.Invoke(context.Background(), "echo", &componentcache.Entry{FunctionName: "echo"}, "hi")
	if err == nil {
		t.Fatalf("expected error when pool is saturated")
	}
	if !function.IsResourceExhausted(err) {
		t.Fatalf("expected ResourceExhausted, got %v", err)
	}
}

func TestBoundTruncatesToLimit(t *testing.T) {
	data := make([]byte, 10000)
	for i := range data {
		data[i] = 'x'
	}
	got := bound(data, maxCaptureBytes)
	if len(got) != maxCaptureBytes {
		t.Fatalf("len(bound(...)) = %d, want %d", len(got), maxCaptureBytes)
	}
}

func TestBoundPassesThroughShortInput(t *testing.T) {
	data := []byte("short")
	got := bound(data, maxCaptureBytes)
	if string(got) != "short" {
		t.Fatalf("bound modified short input: %q", got)
	}
}
