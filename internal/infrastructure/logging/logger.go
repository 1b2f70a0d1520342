package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger so components can share one sink and add their own name.
type Logger struct {
	*zap.Logger
}

// Options selects the level, the encoding and where entries go.
type Options struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool   // console encoding with colors and stack traces
	Outputs     []string
}

// New builds a logger. An empty level means info; no outputs means stdout.
func New(opts Options) (*Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig = jsonEncoder()
	if opts.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.Sampling = nil
	if len(opts.Outputs) > 0 {
		zapCfg.OutputPaths = opts.Outputs
	} else {
		zapCfg.OutputPaths = []string{"stdout"}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: logger}, nil
}

// FromLevel builds a stdout logger, falling back to info level JSON when the
// level does not parse.
func FromLevel(level string, development bool) *Logger {
	logger, err := New(Options{Level: level, Development: development})
	if err == nil {
		return logger
	}
	logger, err = New(Options{})
	if err != nil {
		return Nop()
	}
	logger.Warn("falling back to info level", zap.String("requested", level))
	return logger
}

// Nop returns a logger that discards everything. Tests use it.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Named returns a child logger scoped to a component.
func (l *Logger) Named(component string) *Logger {
	return &Logger{Logger: l.Logger.Named(component)}
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

func jsonEncoder() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "message"
	enc.NameKey = "component"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	return enc
}
