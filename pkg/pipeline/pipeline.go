// Package pipeline implements the Invocation Pipeline: the hot path from
// an HTTP method+path+body triple to a response body, coupling the Route
// Table, Component Cache, and Sandbox Host with telemetry.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fluorfn/runtime/pkg/componentcache"
	"github.com/fluorfn/runtime/pkg/function"
	"github.com/fluorfn/runtime/pkg/routing"
	"github.com/fluorfn/runtime/pkg/sandbox"
	"github.com/fluorfn/runtime/pkg/telemetry"
)

// InvocationRecord is a supplemental, optional record of one completed
// invocation. The core's own observability contract is the telemetry
// surface (counter/histogram/span/log); this is an additional hook for a
// host application that wants to persist invocations, modeled on the
// teacher's invocation logger collaborator.
type InvocationRecord struct {
	FunctionName string
	Status       string
	DurationMS   float64
	Error        string
}

// InvocationLogger is an optional Pipeline collaborator. A nil
// InvocationLogger simply disables invocation persistence; the core never
// depends on a concrete store.
type InvocationLogger interface {
	LogInvocation(ctx context.Context, rec InvocationRecord) error
}

// Pipeline is the Invocation Pipeline.
type Pipeline struct {
	routes  *routing.Table
	cache   *componentcache.Cache
	sandbox *sandbox.Host
	metrics *telemetry.Metrics
	logger  *zap.Logger

	invocationLogger InvocationLogger
}

// New wires together the Route Table, Component Cache, Sandbox Host, and
// telemetry surface into one Pipeline.
func New(routes *routing.Table, cache *componentcache.Cache, sbox *sandbox.Host, metrics *telemetry.Metrics, logger *zap.Logger) *Pipeline {
	return &Pipeline{routes: routes, cache: cache, sandbox: sbox, metrics: metrics, logger: logger}
}

// SetInvocationLogger wires the optional invocation-persistence
// collaborator. Pass nil to disable it (the default).
func (p *Pipeline) SetInvocationLogger(l InvocationLogger) {
	p.invocationLogger = l
}

// Invoke runs the end-to-end hot path: Routing -> Resolving -> Executing
// -> Reporting -> Done.
func (p *Pipeline) Invoke(ctx context.Context, method, path, body string) (string, error) {
	key := function.NewRouteKey(method, path)

	ctx, span := p.metrics.StartSpan(ctx, "function.invoke")
	defer span.End()

	entry, ok := p.routes.Lookup(key)
	if !ok {
		err := function.NotFound("pipeline.Invoke", fmt.Sprintf("no route for %s %s", key.Method.String(), key.Path))
		span.SetAttributes(attribute.String("function.status", "error"))
		return "", err
	}
	span.SetAttributes(attribute.String("function_name", entry.FunctionName))

	cacheEntry, ok := p.cache.Get(entry.FunctionName)
	if !ok {
		err := function.Internal("pipeline.Invoke", "runtime detached")
		span.SetAttributes(attribute.String("function.status", "error"))
		p.logger.Error("cache handle missing for routed function",
			zap.String("function_name", entry.FunctionName))
		return "", err
	}

	start := time.Now()
	output, callErr := p.sandbox.Invoke(ctx, entry.FunctionName, cacheEntry, body)
	elapsed := time.Since(start)

	status := "ok"
	if callErr != nil {
		status = "error"
	}
	p.metrics.RecordInvocation(ctx, entry.FunctionName, status, elapsed)
	span.SetAttributes(attribute.String("function.status", status))

	p.logInvocationAsync(entry.FunctionName, status, elapsed, callErr)

	if callErr != nil {
		p.logger.Error("invocation failed",
			zap.String("function_name", entry.FunctionName), zap.Error(callErr))
		return "", callErr
	}
	return output, nil
}

// WarmupInvoke performs the fire-and-forget post-load invocation with an
// empty JSON payload. It is wired into the Component Cache as its
// WarmupFunc; failures are the caller's to log and ignore.
func (p *Pipeline) WarmupInvoke(ctx context.Context, functionName string) error {
	cacheEntry, ok := p.cache.Get(functionName)
	if !ok {
		return function.Internal("pipeline.WarmupInvoke", "cache entry missing immediately after load")
	}
	_, err := p.sandbox.Invoke(ctx, functionName, cacheEntry, "{}")
	return err
}

func (p *Pipeline) logInvocationAsync(functionName, status string, elapsed time.Duration, callErr error) {
	if p.invocationLogger == nil {
		return
	}
	errMsg := ""
	if callErr != nil {
		errMsg = callErr.Error()
	}
	rec := InvocationRecord{
		FunctionName: functionName,
		Status:       status,
		DurationMS:   float64(elapsed.Microseconds()) / 1000.0,
		Error:        errMsg,
	}
	go func() {
		lctx := context.Background()
		if err := p.invocationLogger.LogInvocation(lctx, rec); err != nil && p.logger != nil {
			p.logger.Warn("invocation log persistence failed", zap.Error(err))
		}
	}()
}
