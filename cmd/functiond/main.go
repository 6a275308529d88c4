// Command functiond is the function-hosting daemon: it loads deployed
// function descriptors and their triggers, builds the Route Table and
// Component Cache, and serves invocations over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/fluorfn/runtime/pkg/componentcache"
	"github.com/fluorfn/runtime/pkg/function"
	"github.com/fluorfn/runtime/pkg/httpapi"
	"github.com/fluorfn/runtime/pkg/logging"
	"github.com/fluorfn/runtime/pkg/pipeline"
	"github.com/fluorfn/runtime/pkg/pool"
	"github.com/fluorfn/runtime/pkg/routing"
	"github.com/fluorfn/runtime/pkg/sandbox"
	"github.com/fluorfn/runtime/pkg/sqlitestore"
	"github.com/fluorfn/runtime/pkg/storage"
	"github.com/fluorfn/runtime/pkg/telemetry"
)

// healthzFunctionName and healthzPath are the always-present liveness
// function/trigger pair: the runtime must not fail to start if they are
// missing, but should seed them on a fresh deployment store.
const (
	healthzFunctionName = "healthz"
	healthzTriggerName  = "healthz-get"
	healthzPath         = "/healthz"

	shutdownGrace = 10 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional, env vars and defaults apply otherwise)")
	useMemory := flag.Bool("memory", false, "use in-memory function/trigger repositories instead of sqlite")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "functiond: load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.EnableLogColors)
	if err != nil {
		fmt.Fprintf(os.Stderr, "functiond: init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger, *useMemory); err != nil {
		logger.ComponentError(logging.ComponentGeneral, "fatal startup error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *Config, logger *logging.ColoredLogger, useMemory bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if errs := cfg.Pool.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid pool config: %v", errs)
	}

	funcRepo, trigRepo, closeRepo, err := buildRepositories(cfg, useMemory)
	if err != nil {
		return fmt.Errorf("build repositories: %w", err)
	}
	defer closeRepo()

	store, err := storage.New(cfg.WasmStoragePath)
	if err != nil {
		return fmt.Errorf("init wasm storage: %w", err)
	}

	instancePool := pool.New(&cfg.Pool, logger.Logger)
	cache := componentcache.New(logger.Logger)
	sboxHost := sandbox.New(instancePool, logger.Logger)
	routeTable := routing.New(logger.Logger)

	meter := noop.NewMeterProvider().Meter("functiond")
	tracer := tracenoop.NewTracerProvider().Tracer("functiond")
	metrics, err := telemetry.New(meter, tracer)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	pipe := pipeline.New(routeTable, cache, sboxHost, metrics, logger.Logger)
	cache.SetWarmupFunc(pipe.WarmupInvoke)

	if err := ensureHealthz(ctx, funcRepo, trigRepo, store, logger); err != nil {
		logger.ComponentWarn(logging.ComponentGeneral, "failed to seed healthz function/trigger", zap.Error(err))
	}

	if err := bootstrap(ctx, funcRepo, cache, routeTable, trigRepo, logger); err != nil {
		return fmt.Errorf("bootstrap routes and cache: %w", err)
	}

	server := httpapi.New(pipe, logger.Logger, httpapi.WithAdmin(httpapi.AdminDeps{
		Functions:  funcRepo,
		Triggers:   trigRepo,
		Binaries:   store,
		Cache:      cache,
		RouteTable: routeTable,
	}))
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: server}

	serveErr := make(chan error, 1)
	go func() {
		logger.ComponentInfo(logging.ComponentHTTP, "listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		logger.ComponentInfo(logging.ComponentGeneral, "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-serveErr:
		return err
	}
}

// buildRepositories constructs the function/trigger repositories and a
// closer for whichever backing store was chosen.
func buildRepositories(cfg *Config, useMemory bool) (function.FunctionRepository, function.TriggerRepository, func(), error) {
	if useMemory {
		return function.NewMemoryFunctionRepository(), function.NewMemoryTriggerRepository(), func() {}, nil
	}

	st, err := sqlitestore.Open(cfg.SQLiteDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	return st.Functions(), st.Triggers(), func() { st.Close() }, nil
}

// ensureHealthz seeds the always-present healthz function and trigger if
// absent. It never fails startup: a deployment store that already manages
// healthz out of band, or that cannot be written to, simply keeps going
// without one.
func ensureHealthz(ctx context.Context, funcRepo function.FunctionRepository, trigRepo function.TriggerRepository, store *storage.Store, logger *logging.ColoredLogger) error {
	if _, err := funcRepo.FindByName(ctx, healthzFunctionName); err == nil {
		return nil
	} else if !function.IsNotFound(err) {
		return err
	}

	if !store.Exists(healthzFunctionName) {
		logger.ComponentWarn(logging.ComponentGeneral, "no healthz binary on disk, skipping seed",
			zap.String("function_name", healthzFunctionName))
		return nil
	}

	fn := &function.Function{
		Name:     healthzFunctionName,
		Language: function.LanguageGo,
		Path:     store.Path(healthzFunctionName),
		ReadOnly: true,
	}
	if err := funcRepo.Save(ctx, fn); err != nil && !function.IsAlreadyExists(err) {
		return err
	}

	trig := &function.Trigger{
		Name:         healthzTriggerName,
		Method:       function.NormalizeMethod(http.MethodGet),
		Path:         healthzPath,
		FunctionName: healthzFunctionName,
		ReadOnly:     true,
	}
	if err := trigRepo.Save(ctx, trig); err != nil && !function.IsAlreadyExists(err) {
		return err
	}
	return nil
}

// bootstrap performs the startup pass: load every deployed function's
// compiled bytes into the Component Cache, then rebuild the Route Table
// against it. Route resolution never blocks on cache population, but
// starting with an empty cache would make every route's first hit fail.
func bootstrap(ctx context.Context, funcRepo function.FunctionRepository, cache *componentcache.Cache, routeTable *routing.Table, trigRepo function.TriggerRepository, logger *logging.ColoredLogger) error {
	fns, err := funcRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("enumerate functions: %w", err)
	}

	for _, fn := range fns {
		if err := cache.Load(ctx, fn.Name, fn.Path); err != nil {
			logger.ComponentWarn(logging.ComponentCache, "failed to load function at startup",
				zap.String("function_name", fn.Name), zap.Error(err))
			continue
		}
	}

	if err := routeTable.Rebuild(ctx, trigRepo, funcRepo); err != nil {
		return fmt.Errorf("rebuild route table: %w", err)
	}
	logger.ComponentInfo(logging.ComponentRouting, "route table built", zap.Int("routes", routeTable.Len()))
	return nil
}
