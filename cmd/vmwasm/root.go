package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vmwasm/vmwasm/wasmlog"
)

// vmwasmVersion is the CLI's own version; it has nothing to do with the
// WebAssembly spec versions the engine implements.
const vmwasmVersion = "0.1.0"

// globalFlags holds flags shared by every subcommand, mirroring the
// pack's grafana-k6 cmd.globalFlags.
type globalFlags struct {
	logLevel string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{logLevel: "warn"}

	root := &cobra.Command{
		Use:           "vmwasm",
		Short:         "vmwasm runs and inspects WebAssembly modules against the register-based executor",
		Version:       vmwasmVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", g.logLevel,
		"diagnostic log level: debug, info, warn, or error")
	normalizeFlags(root.PersistentFlags())

	root.AddCommand(newRunCmd(g, stdout))
	root.AddCommand(newCompileCmd(g, stdout))
	root.AddCommand(newDisasmCmd(g, stdout))
	root.AddCommand(newBenchCmd(g, stdout))
	return root
}

// normalizeFlags installs a name normalizer on fs that strips leading
// dashes from flag names. It is applied to the root's persistent flag set
// only, so subcommand flags keep pflag's default handling, and pflag still
// parses a single-dash argument such as "-fixture" as shorthand flags.
func normalizeFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.TrimLeft(name, "-"))
	})
}

// newLogger builds a wasmlog.Logger honoring g.logLevel, used by every
// subcommand that drives an engine.Engine.
func newLogger(g *globalFlags) (wasmlog.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("vmwasm: invalid --log-level %q: %w", g.logLevel, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("vmwasm: building logger: %w", err)
	}
	return wasmlog.Wrap(z), nil
}
