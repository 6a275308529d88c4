// Package routing implements the Route Table: a concurrent mapping from
// (method, path) to a function handle, rebuilt atomically from the
// metadata store.
package routing

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fluorfn/runtime/pkg/function"
)

// Entry is what a route key resolves to: a reference to a function by
// name. The Invocation Pipeline re-resolves the function name against the
// Component Cache on every lookup, rather than caching a cache handle here,
// so that a Cache eviction/reload is observed without a Route Table rebuild.
type Entry struct {
	FunctionName string
}

// Table is the process-global Route Table. Rebuild installs a brand new
// snapshot atomically; Lookup always observes either the pre-rebuild or the
// post-rebuild snapshot, never a mix.
type Table struct {
	snapshot atomic.Pointer[map[function.RouteKey]Entry]
	logger   *zap.Logger
}

// New returns an empty Table. Every route key misses until the first
// Rebuild.
func New(logger *zap.Logger) *Table {
	t := &Table{logger: logger}
	empty := make(map[function.RouteKey]Entry)
	t.snapshot.Store(&empty)
	return t
}

// Lookup resolves a route key against the current snapshot. It never
// blocks and never suspends.
func (t *Table) Lookup(key function.RouteKey) (Entry, bool) {
	m := t.snapshot.Load()
	e, ok := (*m)[key]
	return e, ok
}

// Len reports the number of routes in the current snapshot.
func (t *Table) Len() int {
	m := t.snapshot.Load()
	return len(*m)
}

// Rebuild enumerates all triggers from triggerRepo, resolves each against
// functionRepo, and installs a fresh snapshot in one atomic swap. Triggers
// referencing a missing function are logged and skipped, never kept. Later
// entries for the same route key (in triggerRepo enumeration order)
// overwrite earlier ones.
func (t *Table) Rebuild(ctx context.Context, triggerRepo function.TriggerRepository, functionRepo function.FunctionRepository) error {
	triggers, err := triggerRepo.FindAll(ctx)
	if err != nil {
		return function.Wrap(function.KindInternal, "routing.Rebuild", "enumerate triggers", err)
	}

	next := make(map[function.RouteKey]Entry, len(triggers))
	for _, trig := range triggers {
		fn, err := functionRepo.FindByName(ctx, trig.FunctionName)
		if err != nil {
			if function.IsNotFound(err) {
				if t.logger != nil {
					t.logger.Warn("trigger references missing function, skipping",
						zap.String("trigger", trig.Name),
						zap.String("function_name", trig.FunctionName))
				}
				continue
			}
			return function.Wrap(function.KindInternal, "routing.Rebuild", "resolve trigger function", err)
		}

		key := function.RouteKey{Method: trig.Method, Path: trig.Path}
		next[key] = Entry{FunctionName: fn.Name}
	}

	t.snapshot.Store(&next)
	return nil
}
