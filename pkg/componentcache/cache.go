// Package componentcache implements the Component Cache: validated raw
// Wasm component bytes keyed by function name, with wait-free
// point lookups on the hot path and whole-entry atomic replace on writes.
package componentcache

import (
	"context"
	"os"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	wasmruntime "github.com/wippyai/wasm-runtime/runtime"
	"github.com/wippyai/wasm-runtime/wasi/preview2"

	"github.com/fluorfn/runtime/pkg/function"
)

// handleExport is the name of the required component export per the
// fluor:fun/function world.
const handleExport = "handle"

// Entry is a Component Cache entry: the validated raw component bytes for
// one function, ready for the Sandbox Host to instantiate. Entries are
// immutable after insertion; a reload installs a brand new Entry rather
// than mutating this one, so an in-flight invocation that already holds a
// *Entry keeps it valid for the duration of its call even if the cache
// moves on.
type Entry struct {
	FunctionName string
	Bytes        []byte
	ValidatedAt  time.Time
}

// WarmupFunc invokes a just-loaded function once with an empty payload to
// prime pool slots and JIT caches. Failures are logged by the caller and
// never fail the Load that triggered them.
type WarmupFunc func(ctx context.Context, functionName string) error

// Cache is the process-global Component Cache.
type Cache struct {
	entries *xsync.MapOf[string, *Entry]
	logger  *zap.Logger
	warmup  WarmupFunc
}

// New constructs an empty Cache.
func New(logger *zap.Logger) *Cache {
	return &Cache{
		entries: xsync.NewMapOf[string, *Entry](),
		logger:  logger,
	}
}

// SetWarmupFunc wires the post-load warmup invocation. It must be called
// before the first Load if warmup is desired; it is set after construction
// because the warmup path (Pipeline.WarmupInvoke) itself depends on this
// Cache, so the two are wired together once both exist.
func (c *Cache) SetWarmupFunc(fn WarmupFunc) {
	c.warmup = fn
}

// Load reads the component binary at path, validates it is a component
// exporting handle, and installs it under name. A failed Load leaves any
// previous entry for name untouched.
func (c *Cache) Load(ctx context.Context, name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return function.Wrap(function.KindInternal, "componentcache.Load", "read wasm binary at "+path, err)
	}

	if err := validateComponent(ctx, data); err != nil {
		return function.Wrap(function.KindBadBinary, "componentcache.Load", "compile/link component "+name, err)
	}

	entry := &Entry{FunctionName: name, Bytes: data, ValidatedAt: time.Now()}
	c.entries.Store(name, entry)

	if c.warmup != nil {
		go func() {
			wctx := context.Background()
			if err := c.warmup(wctx, name); err != nil && c.logger != nil {
				c.logger.Warn("warmup invocation failed",
					zap.String("function_name", name), zap.Error(err))
			}
		}()
	}

	return nil
}

// Get returns the current entry for name, or false if nothing is loaded.
func (c *Cache) Get(name string) (*Entry, bool) {
	return c.entries.Load(name)
}

// Evict removes the entry for name. In-flight invocations that already
// hold the *Entry continue to completion against it; only new lookups stop
// seeing it.
func (c *Cache) Evict(name string) {
	c.entries.Delete(name)
}

// Len reports the number of loaded entries.
func (c *Cache) Len() int {
	return c.entries.Size()
}

// validateComponent performs a throwaway compile+link to confirm data is a
// valid Wasm component exporting handle, then discards the runtime. The
// Sandbox Host re-derives a fresh runtime per invocation so that its WASI
// capability context (stdout/stderr, resource table) is never shared
// across concurrent calls; this validation pass exists purely to reject
// bad binaries at load time rather than at first invocation.
func validateComponent(ctx context.Context, data []byte) error {
	rt, err := wasmruntime.New(ctx)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	if err := rt.RegisterWASI(preview2.New()); err != nil {
		return err
	}

	mod, err := rt.LoadComponent(ctx, data)
	if err != nil {
		return err
	}
	if err := mod.Compile(ctx); err != nil {
		return err
	}

	for _, ex := range mod.Exports() {
		if ex.Name == handleExport {
			return nil
		}
	}
	return errMissingHandleExport
}

type cacheError string

func (e cacheError) Error() string { return string(e) }

const errMissingHandleExport = cacheError("component does not export handle: func(string) -> string")
