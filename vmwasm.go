// Package vmwasm is the module's root-level public-facing package (the
// teacher's own root `package wazero` plays the same role over its
// internal/wasm engines). It re-exports engine/ under the project's own
// name so an embedder imports one package rather than reaching into
// engine/ and wasmlog/ directly; it adds no behavior of its own.
//
// Per spec.md's Non-goals, there is no public linker or typed host-
// function wrapper here (the teacher's HostFunctionBuilder/ModuleBuilder
// equivalents): an embedder's calling contract is engine.Instance's
// ExecuteFunc/Resumable.Resume pair, operating on the untyped
// internal/cell.Cell the whole engine is built around.
package vmwasm

import (
	"github.com/vmwasm/vmwasm/engine"
	"github.com/vmwasm/vmwasm/internal/instantiate"
	"github.com/vmwasm/vmwasm/internal/wasmops"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

// Config controls engine-wide behavior. See engine.Config for the
// available With* options.
type Config = engine.Config

// NewConfig returns a Config with conservative defaults: fuel metering
// disabled, a no-op logger.
func NewConfig() *Config { return engine.NewConfig() }

// Engine owns a shared type registry and code map across every Store it
// creates (spec.md §5).
type Engine = engine.Engine

// NewEngine creates an Engine from cfg. A nil cfg uses NewConfig()'s
// defaults.
func NewEngine(cfg *Config) *Engine { return engine.NewEngine(cfg) }

// Store holds a module instantiation's live entities: functions, tables,
// memories, globals, and element/data segments.
type Store = wasmstore.Store

// Module is a decoded module, pre-parsed from whatever operator stream
// produced it (spec.md Non-goal: no binary parser lives in this module).
type Module = wasmops.Module

// CompiledModule is a Module accepted by Engine.CompileModule and ready to
// instantiate.
type CompiledModule = engine.CompiledModule

// Instance is a live, instantiated module.
type Instance = engine.Instance

// Resumable names one suspended call awaiting a host-trap fixup or a
// fuel refill (spec.md §7).
type Resumable = engine.Resumable

// ImportProvider resolves a module instantiation's imports by module and
// field name.
type ImportProvider = instantiate.ImportProvider

// NoImports is the ImportProvider for modules that declare no imports.
type NoImports = instantiate.NoImports
