package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vmwasm/vmwasm/internal/arena"
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/codemap"
	"github.com/vmwasm/vmwasm/internal/executor"
	"github.com/vmwasm/vmwasm/internal/instantiate"
	"github.com/vmwasm/vmwasm/internal/wasmops"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
	"github.com/vmwasm/vmwasm/wasmlog"
)

// Engine owns the state shared by every Store it creates: its own
// function-type registry and code map, one pair per Engine (spec.md §5 "A
// CodeMap... is shared read-only across every Store an engine creates").
// A *Config configures every Store/Executor the Engine subsequently
// creates; mutating it after the fact has no effect on Stores already
// created.
type Engine struct {
	cfg   *Config
	types *wasmstore.TypeRegistry
	code  *codemap.CodeMap
}

// NewEngine creates an Engine from cfg. A nil cfg uses NewConfig()'s
// defaults.
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Engine{
		cfg:   cfg,
		types: wasmstore.NewTypeRegistry(),
		code:  codemap.New(),
	}
}

// CompiledModule is a decoded module ready to instantiate. Compilation of
// its individual function bodies is lazy (internal/codemap.AllocateLazy):
// CompileModule itself only rejects a nil module and emits a diagnostic; it
// never lowers a single function body through the translator.
type CompiledModule struct {
	mod *wasmops.Module
}

// CompileModule wraps a decoded Module for later instantiation, logging a
// compile-time diagnostic (never anything from the hot execution path).
func (e *Engine) CompileModule(mod *wasmops.Module) (*CompiledModule, error) {
	if mod == nil {
		return nil, fmt.Errorf("engine: nil module")
	}
	e.cfg.logger.Info("module compiled",
		zap.Int("types", len(mod.Types)),
		zap.Int("funcs", len(mod.Funcs)),
		zap.Int("imports", len(mod.Imports)),
		zap.Bool("has_start", mod.HasStart),
	)
	return &CompiledModule{mod: mod}, nil
}

// NewStore creates a Store bound to this Engine's shared TypeRegistry,
// per spec.md §5.
func (e *Engine) NewStore() *wasmstore.Store {
	return wasmstore.New(e.types)
}

// Instantiate instantiates compiled into store, resolving its imports
// through imports (which may be instantiate.ImportProvider(nil)-shaped via
// instantiate.NoImports, see instantiate package, for import-free
// modules), wiring every locally-defined entity into store's arenas, and
// running the module's start function (if any) via a freshly created
// Executor, per spec.md §6 "Exposed to the embedder".
func (e *Engine) Instantiate(ctx context.Context, store *wasmstore.Store, compiled *CompiledModule, imports instantiate.ImportProvider) (*Instance, error) {
	store.FuelEnabled = e.cfg.fuelEnabled

	ex := executor.New(store, e.code, e.cfg.initialStackCells, e.cfg.maxStackCells, e.cfg.callCeiling, e.cfg.fuelCosts, e.cfg.bulkFuelMode)

	handle, err := instantiate.Instantiate(ctx, store, e.code, compiled.mod, imports, instantiate.Options{
		FuelCosts:   e.cfg.fuelCosts,
		FuelEnabled: e.cfg.fuelEnabled,
		Exec:        ex,
	})
	if err != nil {
		e.cfg.logger.Warn("instantiation failed", zap.Error(err))
		return nil, err
	}
	e.cfg.logger.Info("module instantiated")

	return &Instance{store: store, handle: handle, exec: ex, logger: e.cfg.logger}, nil
}

// Instance is a live, instantiated module: the embedder surface named in
// spec.md §6 for calling and resuming exported functions.
type Instance struct {
	store  *wasmstore.Store
	handle arena.Handle
	exec   *executor.Executor
	logger wasmlog.Logger
}

// ExecuteFunc calls the exported function named name with params
// (spec.md §6 "execute_func"), returning either its results or a
// Resumable describing why execution paused.
func (i *Instance) ExecuteFunc(ctx context.Context, name string, params []cell.Cell) ([]cell.Cell, *Resumable, error) {
	inst := i.store.Instances.Resolve(i.handle)
	export, ok := inst.Exports[name]
	if !ok {
		return nil, nil, fmt.Errorf("engine: no such export %q", name)
	}
	if export.Kind != wasmstore.ExportKindFunc {
		return nil, nil, fmt.Errorf("engine: export %q is not a function", name)
	}
	fn := i.store.Functions.Resolve(inst.Funcs[export.Index])

	results, susp, err := i.exec.Execute(ctx, i.handle, fn.Body, params)
	return i.finish(results, susp, err)
}

func (i *Instance) finish(results []cell.Cell, susp *executor.Suspension, err error) ([]cell.Cell, *Resumable, error) {
	if err != nil {
		i.logger.Warn("call trapped", zap.Error(err))
		return nil, nil, err
	}
	if susp != nil {
		return nil, &Resumable{inst: i, susp: susp}, nil
	}
	return results, nil, nil
}
