// Package instantiate turns a decoded wasmops.Module into a live
// wasmstore.Instance: it resolves imports by module/name, allocates every
// locally-defined table/memory/global/function into the target store,
// lowers each local function body through the translator (lazily, via
// internal/codemap), runs element/data segment initializers under bounds
// checks, and finally invokes the module's start function if it declares
// one (spec.md §4.5).
package instantiate

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmwasm/vmwasm/internal/arena"
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/codemap"
	"github.com/vmwasm/vmwasm/internal/executor"
	"github.com/vmwasm/vmwasm/internal/ir"
	"github.com/vmwasm/vmwasm/internal/translator"
	"github.com/vmwasm/vmwasm/internal/wasmops"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

var (
	// ErrImportNotFound is returned when an ImportProvider cannot resolve
	// a declared (module, name) import.
	ErrImportNotFound = errors.New("instantiate: import not found")
	// ErrImportTypeMismatch is returned when a resolved import's actual
	// type is incompatible with the module's declared import type.
	ErrImportTypeMismatch = errors.New("instantiate: import type mismatch")
	// ErrSegmentOutOfBounds is returned when an element or data segment
	// (or the constant expression that computes its offset) does not fit
	// the table or memory it targets.
	ErrSegmentOutOfBounds = errors.New("instantiate: segment does not fit")
)

// ImportProvider resolves one (module, name) import against entities
// already allocated in the target store (spec.md §4.5 "import wiring by
// module/name"). A typical provider is an engine-level registry of
// previously instantiated modules' exports plus any host modules
// registered under a name.
type ImportProvider interface {
	ResolveFunc(module, name string) (arena.Handle, bool)
	ResolveTable(module, name string) (arena.Handle, bool)
	ResolveMemory(module, name string) (arena.Handle, bool)
	ResolveGlobal(module, name string) (arena.Handle, bool)
}

// NoImports is an ImportProvider for modules declaring no imports; every
// resolution fails, which is correct since Instantiate never consults it
// unless mod.Imports is non-empty.
type NoImports struct{}

func (NoImports) ResolveFunc(string, string) (arena.Handle, bool)   { return arena.Handle{}, false }
func (NoImports) ResolveTable(string, string) (arena.Handle, bool)  { return arena.Handle{}, false }
func (NoImports) ResolveMemory(string, string) (arena.Handle, bool) { return arena.Handle{}, false }
func (NoImports) ResolveGlobal(string, string) (arena.Handle, bool) { return arena.Handle{}, false }

// Options configures one Instantiate call.
type Options struct {
	// FuelCosts and FuelEnabled are baked into every locally-defined
	// function's CostVector by the translator.
	FuelCosts   executor.FuelCosts
	FuelEnabled bool

	// Exec runs the module's start function, if it has one. Required
	// (non-nil) only when mod.HasStart.
	Exec *executor.Executor
}

// Instantiate allocates a new Instance in store for mod and returns its
// handle.
func Instantiate(ctx context.Context, store *wasmstore.Store, code *codemap.CodeMap, mod *wasmops.Module, imports ImportProvider, opts Options) (arena.Handle, error) {
	typeIDs := make([]wasmstore.TypeID, len(mod.Types))
	for i, t := range mod.Types {
		typeIDs[i] = store.Types.Intern(t)
	}

	instHandle := store.Instances.Allocate(wasmstore.Instance{Exports: map[string]wasmstore.Export{}})
	inst := store.Instances.Resolve(instHandle)
	inst.Types = typeIDs

	// modCtx only reflects mod's static declarations, never the store's
	// allocated entities, so it can be built before anything is resolved
	// or allocated.
	modCtx := buildModuleContext(mod, typeIDs)

	if err := resolveImports(store, mod, imports, inst, typeIDs); err != nil {
		return arena.Handle{}, err
	}

	for _, f := range mod.Funcs {
		sig := mod.Types[f.TypeIndex]
		body := f.Body
		ef := code.AllocateLazy(func() (*ir.CompiledFunction, error) {
			// A fresh Translator per lazy compile: Translator.Compile
			// mutates shared per-instance state, so sharing one across
			// functions whose first Resolve calls race would corrupt it
			// (internal/translator's New doc: "reused... each Compile
			// call resets its per-function state", which assumes
			// sequential reuse by a single caller, not concurrent use).
			return translator.New(modCtx, opts.FuelCosts, opts.FuelEnabled).Compile(sig, body)
		})
		fh := store.Functions.Allocate(wasmstore.FunctionInstance{
			TypeID:   typeIDs[f.TypeIndex],
			Instance: instHandle,
			Body:     ef,
		})
		inst.Funcs = append(inst.Funcs, fh)
	}

	for _, g := range mod.Globals {
		val, err := evalConstExpr(store, inst, g.Init)
		if err != nil {
			return arena.Handle{}, err
		}
		h := store.Globals.Allocate(wasmstore.Global{Type: g.Type, Mutable: g.Mutable, Value: val})
		inst.Globals = append(inst.Globals, h)
	}

	for _, t := range mod.Tables {
		h := store.Tables.Allocate(wasmstore.Table{
			ElemType:  t.ElemType,
			IndexType: t.IndexType,
			Min:       t.Limits.Min,
			Max:       t.Limits.Max,
			HasMax:    t.Limits.HasMax,
			Elements:  make([]cell.Cell, t.Limits.Min),
		})
		inst.Tables = append(inst.Tables, h)
	}

	for _, m := range mod.Memories {
		h := store.Memories.Allocate(wasmstore.Memory{
			IndexType: m.IndexType,
			MinPages:  m.Limits.Min,
			MaxPages:  m.Limits.Max,
			HasMax:    m.Limits.HasMax,
			Data:      make([]byte, m.Limits.Min*wasmstore.PageSize),
		})
		inst.Memories = append(inst.Memories, h)
	}

	if err := initElements(store, inst, mod); err != nil {
		return arena.Handle{}, err
	}
	if err := initData(store, inst, mod); err != nil {
		return arena.Handle{}, err
	}

	for _, exp := range mod.Exports {
		inst.Exports[exp.Name] = wasmstore.Export{Kind: exp.Kind, Index: exp.Index}
	}

	if mod.HasStart {
		if err := runStart(ctx, store, inst, instHandle, mod.StartFunc, opts.Exec); err != nil {
			return arena.Handle{}, err
		}
	}

	return instHandle, nil
}

func runStart(ctx context.Context, store *wasmstore.Store, inst *wasmstore.Instance, instHandle arena.Handle, idx uint32, exec *executor.Executor) error {
	if exec == nil {
		return fmt.Errorf("instantiate: module declares a start function but no Executor was configured")
	}
	if int(idx) >= len(inst.Funcs) {
		return fmt.Errorf("%w: start function index %d", ErrSegmentOutOfBounds, idx)
	}
	start := store.Functions.Resolve(inst.Funcs[idx])
	_, susp, err := exec.Execute(ctx, instHandle, start.Body, nil)
	if err != nil {
		return fmt.Errorf("instantiate: start function trapped: %w", err)
	}
	if susp != nil {
		return errors.New("instantiate: start function suspended (host calls and fuel exhaustion are not supported in a start function)")
	}
	return nil
}

func resolveImports(store *wasmstore.Store, mod *wasmops.Module, imports ImportProvider, inst *wasmstore.Instance, typeIDs []wasmstore.TypeID) error {
	for _, imp := range mod.Imports {
		switch imp.Kind {
		case wasmops.ImportFunc:
			h, ok := imports.ResolveFunc(imp.Module, imp.Name)
			if !ok {
				return fmt.Errorf("%w: func %s.%s", ErrImportNotFound, imp.Module, imp.Name)
			}
			fi := store.Functions.Resolve(h)
			if fi.TypeID != typeIDs[imp.TypeIndex] {
				return fmt.Errorf("%w: func %s.%s", ErrImportTypeMismatch, imp.Module, imp.Name)
			}
			inst.Funcs = append(inst.Funcs, h)
			inst.ImportedFuncCount++

		case wasmops.ImportTable:
			h, ok := imports.ResolveTable(imp.Module, imp.Name)
			if !ok {
				return fmt.Errorf("%w: table %s.%s", ErrImportNotFound, imp.Module, imp.Name)
			}
			t := store.Tables.Resolve(h)
			if t.ElemType != imp.Table.ElemType || !limitsCompatible(t.Min, t.Max, t.HasMax, imp.Table.Limits) {
				return fmt.Errorf("%w: table %s.%s", ErrImportTypeMismatch, imp.Module, imp.Name)
			}
			inst.Tables = append(inst.Tables, h)

		case wasmops.ImportMemory:
			h, ok := imports.ResolveMemory(imp.Module, imp.Name)
			if !ok {
				return fmt.Errorf("%w: memory %s.%s", ErrImportNotFound, imp.Module, imp.Name)
			}
			m := store.Memories.Resolve(h)
			if !limitsCompatible(m.MinPages, m.MaxPages, m.HasMax, imp.Memory.Limits) {
				return fmt.Errorf("%w: memory %s.%s", ErrImportTypeMismatch, imp.Module, imp.Name)
			}
			inst.Memories = append(inst.Memories, h)

		case wasmops.ImportGlobal:
			h, ok := imports.ResolveGlobal(imp.Module, imp.Name)
			if !ok {
				return fmt.Errorf("%w: global %s.%s", ErrImportNotFound, imp.Module, imp.Name)
			}
			g := store.Globals.Resolve(h)
			if g.Type != imp.Global.Type || g.Mutable != imp.Global.Mutable {
				return fmt.Errorf("%w: global %s.%s", ErrImportTypeMismatch, imp.Module, imp.Name)
			}
			inst.Globals = append(inst.Globals, h)
		}
	}
	return nil
}

// limitsCompatible reports whether a resolved entity sized (min, max,
// hasMax) satisfies an import's declared limits, per Wasm's import
// subtyping rule: the resolved minimum must be at least as large as
// declared, and its maximum (if any) must be no looser than declared's.
func limitsCompatible(min, max uint64, hasMax bool, want wasmstore.Limits) bool {
	if min < want.Min {
		return false
	}
	if !want.HasMax {
		return true
	}
	return hasMax && max <= want.Max
}

func evalConstExpr(store *wasmstore.Store, inst *wasmstore.Instance, e wasmops.ConstExpr) (cell.Cell, error) {
	switch e.Kind {
	case wasmops.ConstExprImmI32:
		return cell.FromI32(e.ImmI32), nil
	case wasmops.ConstExprImmI64:
		return cell.FromI64(e.ImmI64), nil
	case wasmops.ConstExprImmF32:
		return cell.FromF32(e.ImmF32), nil
	case wasmops.ConstExprImmF64:
		return cell.FromF64(e.ImmF64), nil
	case wasmops.ConstExprGlobalGet:
		if int(e.GlobalIndex) >= len(inst.Globals) {
			return cell.Zero, fmt.Errorf("%w: global.get index %d", ErrSegmentOutOfBounds, e.GlobalIndex)
		}
		g := store.Globals.Resolve(inst.Globals[e.GlobalIndex])
		return g.Value, nil
	case wasmops.ConstExprRefFunc:
		if int(e.FuncIndex) >= len(inst.Funcs) {
			return cell.Zero, fmt.Errorf("%w: ref.func index %d", ErrSegmentOutOfBounds, e.FuncIndex)
		}
		return cell.FromU64(inst.Funcs[e.FuncIndex].Pack()), nil
	case wasmops.ConstExprRefNull:
		return cell.RefNull, nil
	default:
		return cell.Zero, fmt.Errorf("instantiate: unknown const expr kind %d", e.Kind)
	}
}

func initElements(store *wasmstore.Store, inst *wasmstore.Instance, mod *wasmops.Module) error {
	for _, el := range mod.Elements {
		values := make([]cell.Cell, len(el.FuncIndices))
		for i, fi := range el.FuncIndices {
			if int(fi) >= len(inst.Funcs) {
				return fmt.Errorf("%w: element func index %d", ErrSegmentOutOfBounds, fi)
			}
			values[i] = cell.FromU64(inst.Funcs[fi].Pack())
		}

		switch el.Mode {
		case wasmops.ElementActive:
			if int(el.TableIndex) >= len(inst.Tables) {
				return fmt.Errorf("%w: element table index %d", ErrSegmentOutOfBounds, el.TableIndex)
			}
			tbl := store.Tables.Resolve(inst.Tables[el.TableIndex])
			offset, err := evalConstExpr(store, inst, el.Offset)
			if err != nil {
				return err
			}
			base := offset.U64()
			if base+uint64(len(values)) > tbl.Len() {
				return fmt.Errorf("%w: element segment does not fit table %d", ErrSegmentOutOfBounds, el.TableIndex)
			}
			copy(tbl.Elements[base:], values)
			// Active segments behave as if dropped immediately after
			// instantiation (the bulk-memory proposal's semantics): they
			// still occupy an Elems slot (table.init/elem.drop index into
			// it), but carry no payload.
			inst.Elems = append(inst.Elems, store.Elems.Allocate(wasmstore.ElementSegment{Dropped: true}))

		case wasmops.ElementDeclarative:
			inst.Elems = append(inst.Elems, store.Elems.Allocate(wasmstore.ElementSegment{Dropped: true}))

		default: // ElementPassive
			inst.Elems = append(inst.Elems, store.Elems.Allocate(wasmstore.ElementSegment{Values: values}))
		}
	}
	return nil
}

func initData(store *wasmstore.Store, inst *wasmstore.Instance, mod *wasmops.Module) error {
	for _, d := range mod.Datas {
		switch d.Mode {
		case wasmops.DataActive:
			if int(d.MemIndex) >= len(inst.Memories) {
				return fmt.Errorf("%w: data memory index %d", ErrSegmentOutOfBounds, d.MemIndex)
			}
			mem := store.Memories.Resolve(inst.Memories[d.MemIndex])
			offset, err := evalConstExpr(store, inst, d.Offset)
			if err != nil {
				return err
			}
			base := offset.U64()
			if base+uint64(len(d.Bytes)) > uint64(len(mem.Data)) {
				return fmt.Errorf("%w: data segment does not fit memory %d", ErrSegmentOutOfBounds, d.MemIndex)
			}
			copy(mem.Data[base:], d.Bytes)
			inst.Datas = append(inst.Datas, store.Datas.Allocate(wasmstore.DataSegment{Dropped: true}))

		default: // DataPassive
			inst.Datas = append(inst.Datas, store.Datas.Allocate(wasmstore.DataSegment{Bytes: d.Bytes}))
		}
	}
	return nil
}

// buildModuleContext projects a Module's static declarations (import and
// local alike, concatenated in index-space order) into the narrower view
// internal/translator needs while compiling function bodies.
func buildModuleContext(mod *wasmops.Module, typeIDs []wasmstore.TypeID) *translator.ModuleContext {
	funcTypes := make([]*wasmstore.FunctionType, 0, len(mod.Imports)+len(mod.Funcs))
	globals := make([]translator.GlobalType, 0, len(mod.Imports)+len(mod.Globals))
	tables := make([]translator.TableType, 0, len(mod.Imports)+len(mod.Tables))
	memories := make([]translator.MemoryType, 0, len(mod.Imports)+len(mod.Memories))

	for _, imp := range mod.Imports {
		switch imp.Kind {
		case wasmops.ImportFunc:
			funcTypes = append(funcTypes, mod.Types[imp.TypeIndex])
		case wasmops.ImportGlobal:
			globals = append(globals, translator.GlobalType{ValType: imp.Global.Type, Mutable: imp.Global.Mutable})
		case wasmops.ImportTable:
			tables = append(tables, translator.TableType{ElemType: imp.Table.ElemType, IndexType: imp.Table.IndexType})
		case wasmops.ImportMemory:
			memories = append(memories, translator.MemoryType{IndexType: imp.Memory.IndexType})
		}
	}
	for _, f := range mod.Funcs {
		funcTypes = append(funcTypes, mod.Types[f.TypeIndex])
	}
	for _, g := range mod.Globals {
		globals = append(globals, translator.GlobalType{ValType: g.Type, Mutable: g.Mutable})
	}
	for _, t := range mod.Tables {
		tables = append(tables, translator.TableType{ElemType: t.ElemType, IndexType: t.IndexType})
	}
	for _, m := range mod.Memories {
		memories = append(memories, translator.MemoryType{IndexType: m.IndexType})
	}

	return &translator.ModuleContext{
		Types:     mod.Types,
		TypeIDs:   typeIDs,
		FuncTypes: funcTypes,
		Globals:   globals,
		Tables:    tables,
		Memories:  memories,
	}
}
