// Package sandbox implements the Sandbox Host: for each invocation it
// builds a fresh, isolated capability context, drives the component's
// handle export, and drains its captured stdout/stderr.
package sandbox

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	wasmruntime "github.com/wippyai/wasm-runtime/runtime"
	"github.com/wippyai/wasm-runtime/wasi/preview2"

	"github.com/fluorfn/runtime/pkg/componentcache"
	"github.com/fluorfn/runtime/pkg/function"
	"github.com/fluorfn/runtime/pkg/pool"
)

// maxCaptureBytes bounds how much of stdout/stderr is retained for the log
// record, per invocation.
const maxCaptureBytes = 4096

// Host is the Sandbox Host. It pairs the Instance Pool (which bounds
// concurrency) with the actual per-invocation instantiation.
type Host struct {
	pool   *pool.Pool
	logger *zap.Logger
}

// New constructs a Host backed by p.
func New(p *pool.Pool, logger *zap.Logger) *Host {
	return &Host{pool: p, logger: logger}
}

// Invoke runs entry's handle(input) -> string export under a fresh,
// isolated capability context: a stdout pipe, a stderr pipe, and an empty
// resource table (no preopened filesystem, no sockets, no environment). It
// returns Execution on trap/host error, Internal if handle's result is not
// a string, and ResourceExhausted if the pool is saturated. The pool slot
// and every runtime resource are released on every exit path.
func (h *Host) Invoke(ctx context.Context, functionName string, entry *componentcache.Entry, input string) (string, error) {
	slot, err := h.pool.Acquire(ctx, functionName)
	if err != nil {
		return "", err
	}
	defer h.pool.Release(slot)

	rt, err := wasmruntime.New(ctx)
	if err != nil {
		return "", function.Wrap(function.KindInternal, "sandbox.Invoke", "create runtime", err)
	}
	defer rt.Close(ctx)

	wasi := preview2.New()
	if err := rt.RegisterWASI(wasi); err != nil {
		return "", function.Wrap(function.KindInternal, "sandbox.Invoke", "register WASI capability context", err)
	}

	mod, err := rt.LoadComponent(ctx, entry.Bytes)
	if err != nil {
		return "", function.Execution("sandbox.Invoke", "load pre-validated component", err)
	}
	if err := mod.Compile(ctx); err != nil {
		return "", function.Execution("sandbox.Invoke", "compile component", err)
	}

	inst, err := mod.Instantiate(ctx)
	if err != nil {
		h.drainCaptures(functionName, wasi)
		return "", function.Execution("sandbox.Invoke", "instantiate component", err)
	}
	defer inst.Close(ctx)

	result, callErr := inst.Call(ctx, "handle", input)

	h.drainCaptures(functionName, wasi)

	if callErr != nil {
		return "", function.Execution("sandbox.Invoke", "handle() call failed", callErr)
	}

	out, ok := result.(string)
	if !ok {
		return "", function.Internal("sandbox.Invoke", fmt.Sprintf("handle() returned %T, want string", result))
	}
	return out, nil
}

// drainCaptures emits the bounded stdout/stderr capture as a single log
// record each, at INFO and ERROR severity respectively, tagged with
// functionName. It is called unconditionally before the call's outcome is
// known, so output reaches the logs even on a trap.
func (h *Host) drainCaptures(functionName string, wasi *preview2.WASI) {
	if h.logger == nil {
		return
	}
	if out := bound(wasi.Stdout(), maxCaptureBytes); len(out) > 0 {
		h.logger.Info("function stdout", zap.String("function_name", functionName), zap.ByteString("stdout", out))
	}
	if errOut := bound(wasi.Stderr(), maxCaptureBytes); len(errOut) > 0 {
		h.logger.Error("function stderr", zap.String("function_name", functionName), zap.ByteString("stderr", errOut))
	}
}

// bound truncates b to at most n bytes. The adopted WASI host implementation
// buffers stdout/stderr without an internal cap; this is where the design's
// 4 KiB bound is enforced before the content ever reaches a log sink.
func bound(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
