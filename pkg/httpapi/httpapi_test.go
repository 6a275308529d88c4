package httpapi

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/fluorfn/runtime/pkg/componentcache"
	"github.com/fluorfn/runtime/pkg/function"
	"github.com/fluorfn/runtime/pkg/pipeline"
	"github.com/fluorfn/runtime/pkg/pool"
	"github.com/fluorfn/runtime/pkg/routing"
	"github.com/fluorfn/runtime/pkg/sandbox"
	"github.com/fluorfn/runtime/pkg/telemetry"
)

// memBinaryStore is a trivial in-memory BinaryStore double; admin tests
// never need a real filesystem.
type memBinaryStore struct {
	blobs map[string][]byte
}

func newMemBinaryStore() *memBinaryStore {
	return &memBinaryStore{blobs: make(map[string][]byte)}
}

func (m *memBinaryStore) Put(name string, src io.Reader) (string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	m.blobs[name] = data
	return "mem://" + name, nil
}

func (m *memBinaryStore) Remove(name string) error {
	delete(m.blobs, name)
	return nil
}

func newTestServer(t *testing.T) (*Server, function.FunctionRepository, function.TriggerRepository) {
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
	pipe := pipeline.New(routes, cache, sbox, metrics, logger)

	funcRepo := function.NewMemoryFunctionRepository()
	trigRepo := function.NewMemoryTriggerRepository()
	binaries := newMemBinaryStore()

	srv := New(pipe, logger, WithAdmin(AdminDeps{
		Functions:  funcRepo,
		Triggers:   trigRepo,
		Binaries:   binaries,
		Cache:      cache,
		RouteTable: routes,
	}))
	return srv, funcRepo, trigRepo
}

func TestInvokeUnknownRouteIs404(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/function/e", strings.NewReader("hello"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAdminCreateFunctionThenDeleteTrigger404s(t *testing.T) {
	srv, funcRepo, _ := newTestServer(t)

	createFn := httptest.NewRequest(http.MethodPost, "/admin/functions?name=echo&language=go", bytes.NewReader([]byte("not-a-real-wasm-binary")))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, createFn)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating function, got %d: %s", rec.Code, rec.Body.String())
	}

	if _, err := funcRepo.FindByName(createFn.Context(), "echo"); err != nil {
		t.Fatalf("expected function persisted: %v", err)
	}

	createTrig := httptest.NewRequest(http.MethodPost, "/admin/triggers",
		strings.NewReader(`{"name":"echo-trigger","method":"POST","path":"/e","function_name":"echo"}`))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, createTrig)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating trigger, got %d: %s", rec.Code, rec.Body.String())
	}

	// The route now resolves, but the binary never loaded into the cache
	// (it isn't a valid component), so invoking it surfaces an error
	// rather than a 404 — the important thing is it is no longer NotFound.
	invoke := httptest.NewRequest(http.MethodPost, "/function/e", strings.NewReader("hello"))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, invoke)
	if rec.Code == http.StatusNotFound {
		t.Fatalf("expected route to resolve after trigger creation, got 404")
	}

	deleteTrig := httptest.NewRequest(http.MethodDelete, "/admin/triggers/echo-trigger", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, deleteTrig)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 deleting trigger, got %d", rec.Code)
	}

	reinvoke := httptest.NewRequest(http.MethodPost, "/function/e", strings.NewReader("hello"))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, reinvoke)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after trigger deletion, got %d", rec.Code)
	}
}

func TestAdminCreateFunctionRequiresName(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/functions", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
