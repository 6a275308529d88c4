package pipeline

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/fluorfn/runtime/pkg/componentcache"
	"github.com/fluorfn/runtime/pkg/function"
	"github.com/fluorfn/runtime/pkg/pool"
	"github.com/fluorfn/runtime/pkg/routing"
	"github.com/fluorfn/runtime/pkg/sandbox"
	"github.com/fluorfn/runtime/pkg/telemetry"
)

func newTestPipeline(t *testing.T) (*Pipeline, *routing.Table, *componentcache.Cache) {
	t.Helper()
	logger := zap.NewNop()
	routes := routing.New(logger)
	cache := componentcache.New(logger)
	p := pool.New(&pool.Config{TotalComponentInstances: 4}, logger)
	sbox := sandbox.New(p, logger)

	metrics, err := telemetry.New(noop.NewMeterProvider().Meter("test"), tracenoop.NewTracerProvider().Tracer("test"))
	if err != nil {
		t.Fatalf("telemetry.New: %v", err)
	}

	pipe := New(routes, cache, sbox, metrics, logger)
	return pipe, routes, cache
}

func TestInvokeUnknownRouteIsNotFound(t *testing.T) {
	pipe, _, _ := newTestPipeline(t)
	_, err := pipe.Invoke(context.Background(), "GET", "/none", "")
	if err == nil {
		t.Fatalf("expected NotFound for unknown route")
	}
	if !function.IsNotFound(err) {
		t.Fatalf("expected NotFound kind, got %v", err)
	}
}

func TestInvokeMissingCacheHandleIsInternal(t *testing.T) {
	pipe, routes, _ := newTestPipeline(t)

	funcs := function.NewMemoryFunctionRepository()
	triggers := function.NewMemoryTriggerRepository()
	ctx := context.Background()
	_ = funcs.Save(ctx, &function.Function{Name: "echo", Path: "/tmp/echo.wasm"})
	_ = triggers.Save(ctx, &function.Trigger{Name: "echo-trigger", Method: function.NormalizeMethod("POST"), Path: "/e", FunctionName: "echo"})
	if err := routes.Rebuild(ctx, triggers, funcs); err != nil {
		t.Fatal(err)
	}

	// Route resolves to "echo" but nothing has been loaded into the cache.
	_, err := pipe.Invoke(ctx, "POST", "/e", "hello")
	if err == nil {
		t.Fatalf("expected Internal error for detached runtime")
	}
	if !function.IsInternal(err) {
		t.Fatalf("expected Internal kind, got %v", err)
	}
}

func TestWarmupInvokeWithoutCacheEntryIsInternal(t *testing.T) {
	pipe, _, _ := newTestPipeline(t)
	err := pipe.WarmupInvoke(context.Background(), "missing")
	if !function.IsInternal(err) {
		t.Fatalf("expected Internal kind, got %v", err)
	}
}
