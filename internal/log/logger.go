// Package log builds the zap loggers shared by the generator CLI and the
// interception runtime.
package log

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Name is attached to every logger built here.
const Name = "hooktrace"

// Options controls how a logger is built.
type Options struct {
	// Debug lowers the level to Debug and adds the caller to each entry.
	Debug bool
	// Color enables ANSI level colors. Keep it off for anything injected into
	// a foreign process.
	Color bool
	// OutputPaths defaults to stderr.
	OutputPaths []string
}

func encoderConfig(opts Options) zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = timeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if opts.Color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncodeCaller = nil
	if opts.Debug {
		cfg.EncodeCaller = zapcore.ShortCallerEncoder
	}
	return cfg
}

func level(opts Options) zap.AtomicLevel {
	if opts.Debug {
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zap.NewAtomicLevelAt(zap.InfoLevel)
}

// New builds a console logger writing to opts.OutputPaths.
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = encoderConfig(opts)
	cfg.Level = level(opts)
	cfg.DisableStacktrace = !opts.Debug
	cfg.OutputPaths = opts.OutputPaths
	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = []string{"stderr"}
	}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build config for logger: %w", err)
	}
	return logger.Named(Name), nil
}

// NewWriter builds a console logger writing to w. OutputPaths is ignored.
func NewWriter(w io.Writer, opts Options) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig(opts)),
		zapcore.AddSync(w),
		level(opts),
	)
	zapOpts := []zap.Option{}
	if opts.Debug {
		zapOpts = append(zapOpts, zap.AddCaller())
	}
	return zap.New(core, zapOpts...).Named(Name)
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05.000"))
}
