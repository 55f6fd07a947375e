// Package wasmlog is the ambient structured-logging facade engine/ and
// cmd/vmwasm build diagnostics through, wrapping go.uber.org/zap exactly
// as the wippyai-wasm-runtime pack repo's engine/logger.go does: a single
// *zap.Logger wrapped behind a narrow interface so call sites never import
// zap directly, and a no-op default so an embedder that never calls
// WithLogger pays nothing (spec.md's core engine packages never log on the
// hot path; see engine.Config.WithLogger and DESIGN.md).
package wasmlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the narrow logging surface engine/ and cmd/vmwasm depend on.
type Logger interface {
	Debug(msg string, fields ...zapcore.Field)
	Info(msg string, fields ...zapcore.Field)
	Warn(msg string, fields ...zapcore.Field)
	Error(msg string, fields ...zapcore.Field)
	// With returns a Logger that always includes the given fields,
	// mirroring zap.Logger.With for per-module/per-instance context.
	With(fields ...zapcore.Field) Logger
}

// zapLogger adapts a *zap.Logger to Logger.
type zapLogger struct{ z *zap.Logger }

// Wrap adapts an existing *zap.Logger. Passing nil is equivalent to
// NewNop.
func Wrap(z *zap.Logger) Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return zapLogger{z: z}
}

// NewNop returns a Logger that discards everything, the default an
// embedder gets without configuring one.
func NewNop() Logger { return zapLogger{z: zap.NewNop()} }

// NewProduction returns a Logger using zap's default JSON production
// encoder, for embedders (notably cmd/vmwasm) that want diagnostics on
// stderr without hand-rolling an encoder config.
func NewProduction() (Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return zapLogger{z: z}, nil
}

func (l zapLogger) Debug(msg string, fields ...zapcore.Field) { l.z.Debug(msg, fields...) }
func (l zapLogger) Info(msg string, fields ...zapcore.Field)  { l.z.Info(msg, fields...) }
func (l zapLogger) Warn(msg string, fields ...zapcore.Field)  { l.z.Warn(msg, fields...) }
func (l zapLogger) Error(msg string, fields ...zapcore.Field) { l.z.Error(msg, fields...) }
func (l zapLogger) With(fields ...zapcore.Field) Logger       { return zapLogger{z: l.z.With(fields...)} }

// Unwrap returns the underlying *zap.Logger, for callers that need zap
// itself rather than this package's Logger interface (engine.Config takes
// a Logger).
func (l zapLogger) Unwrap() *zap.Logger { return l.z }
