// Package engine ties internal/translator, internal/executor, and
// internal/wasmstore together into the embedder-facing surface named in
// spec.md §6: Config, CompileModule, Instantiate, and the execute_func/
// resume pair an embedder drives a module through.
package engine

import (
	"github.com/vmwasm/vmwasm/internal/executor"
	"github.com/vmwasm/vmwasm/wasmlog"
)

// Config controls engine-wide behavior, with NewConfig as the default
// implementation. Every With* method clones rather than mutates, matching
// the teacher's RuntimeConfig/clone() pattern so a Config value can be
// shared as a starting point for several derived configurations without
// aliasing surprises.
type Config struct {
	fuelEnabled  bool
	fuelCosts    executor.FuelCosts
	bulkFuelMode executor.FuelMode

	initialStackCells int
	maxStackCells     int
	callCeiling       int

	// logger receives compile/instantiate/trap diagnostics only - never
	// anything from the executor's per-instruction loop (spec.md's core
	// engine packages never log on the hot path either; see DESIGN.md).
	logger wasmlog.Logger
}

// defaultConfig holds every default so NewConfig and clone never disagree
// on an unset field's zero value.
var defaultConfig = &Config{
	fuelCosts:         executor.DefaultFuelCosts(),
	bulkFuelMode:      executor.FuelLazy,
	initialStackCells: 1 << 12,
	maxStackCells:     1 << 20,
	callCeiling:       1 << 14,
	logger:            wasmlog.NewNop(),
}

// NewConfig returns a Config with conservative stack limits, fuel metering
// disabled, and a no-op logger.
func NewConfig() *Config { return defaultConfig.clone() }

func (c *Config) clone() *Config {
	cp := *c
	return &cp
}

// WithFuelMetering enables fuel-based resumable execution (spec.md §4.3,
// §7) and installs the per-category cost table to charge.
func (c *Config) WithFuelMetering(enabled bool, costs executor.FuelCosts) *Config {
	ret := c.clone()
	ret.fuelEnabled = enabled
	ret.fuelCosts = costs
	return ret
}

// WithBulkOpFuelMode selects eager or lazy fuel charging for bulk memory/
// table operators (spec.md §9 Open Question).
func (c *Config) WithBulkOpFuelMode(mode executor.FuelMode) *Config {
	ret := c.clone()
	ret.bulkFuelMode = mode
	return ret
}

// WithStackLimits sets the value stack's preallocation and hard ceiling
// (in cells) and the call stack's recursion depth ceiling (spec.md §6
// Config.stack_limits).
func (c *Config) WithStackLimits(initialCells, maxCells, callCeiling int) *Config {
	ret := c.clone()
	ret.initialStackCells = initialCells
	ret.maxStackCells = maxCells
	ret.callCeiling = callCeiling
	return ret
}

// WithLogger installs a wasmlog.Logger for compile/instantiate/trap
// diagnostics. Passing nil reverts to a no-op logger.
func (c *Config) WithLogger(logger wasmlog.Logger) *Config {
	ret := c.clone()
	if logger == nil {
		logger = wasmlog.NewNop()
	}
	ret.logger = logger
	return ret
}
