package routing

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/fluorfn/runtime/pkg/function"
)

func TestLookupMissOnEmptyTable(t *testing.T) {
	tbl := New(zap.NewNop())
	_, ok := tbl.Lookup(function.NewRouteKey("GET", "/healthz"))
	if ok {
		t.Fatalf("expected miss on empty table")
	}
}

func TestRebuildSkipsStaleTrigger(t *testing.T) {
	ctx := context.Background()
	funcs := function.NewMemoryFunctionRepository()
	triggers := function.NewMemoryTriggerRepository()

	if err := triggers.Save(ctx, &function.Trigger{
		Name: "ghost-trigger", Method: function.NormalizeMethod("GET"),
		Path: "/ghost", FunctionName: "ghost",
	}); err != nil {
		t.Fatal(err)
	}

	tbl := New(zap.NewNop())
	if err := tbl.Rebuild(ctx, triggers, funcs); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if _, ok := tbl.Lookup(function.NewRouteKey("GET", "/ghost")); ok {
		t.Fatalf("expected stale trigger to be skipped")
	}
}

func TestRebuildInstallsRoutableEntries(t *testing.T) {
	ctx := context.Background()
	funcs := function.NewMemoryFunctionRepository()
	triggers := function.NewMemoryTriggerRepository()

	if err := funcs.Save(ctx, &function.Function{Name: "healthz", Path: "/tmp/healthz.wasm"}); err != nil {
		t.Fatal(err)
	}
	if err := triggers.Save(ctx, &function.Trigger{
		Name: "healthz-trigger", Method: function.NormalizeMethod("GET"),
		Path: "/healthz", FunctionName: "healthz",
	}); err != nil {
		t.Fatal(err)
	}

	tbl := New(zap.NewNop())
	if err := tbl.Rebuild(ctx, triggers, funcs); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	entry, ok := tbl.Lookup(function.NewRouteKey("GET", "/healthz"))
	if !ok {
		t.Fatalf("expected route to resolve")
	}
	if entry.FunctionName != "healthz" {
		t.Fatalf("got function name %q, want healthz", entry.FunctionName)
	}
}

func TestRebuildIdempotence(t *testing.T) {
	ctx := context.Background()
	funcs := function.NewMemoryFunctionRepository()
	triggers := function.NewMemoryTriggerRepository()
	_ = funcs.Save(ctx, &function.Function{Name: "echo", Path: "/tmp/echo.wasm"})
	_ = triggers.Save(ctx, &function.Trigger{Name: "echo-trigger", Method: function.NormalizeMethod("POST"), Path: "/e", FunctionName: "echo"})

	tbl := New(zap.NewNop())
	if err := tbl.Rebuild(ctx, triggers, funcs); err != nil {
		t.Fatal(err)
	}
	first, _ := tbl.Lookup(function.NewRouteKey("POST", "/e"))

	if err := tbl.Rebuild(ctx, triggers, funcs); err != nil {
		t.Fatal(err)
	}
	second, _ := tbl.Lookup(function.NewRouteKey("POST", "/e"))

	if first != second {
		t.Fatalf("expected idempotent rebuild to produce an equal entry")
	}
}

func TestLookupDuringConcurrentRebuild(t *testing.T) {
	ctx := context.Background()
	funcs := function.NewMemoryFunctionRepository()
	triggers := function.NewMemoryTriggerRepository()
	_ = funcs.Save(ctx, &function.Function{Name: "echo", Path: "/tmp/echo.wasm"})
	_ = triggers.Save(ctx, &function.Trigger{Name: "echo-trigger", Method: function.NormalizeMethod("POST"), Path: "/e", FunctionName: "echo"})

	tbl := New(zap.NewNop())
	if err := tbl.Rebuild(ctx, triggers, funcs); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tbl.Lookup(function.NewRouteKey("POST", "/e"))
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = tbl.Rebuild(ctx, triggers, funcs)
	}()
	wg.Wait()
}
