// Package logging builds the application's zap logger.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger at the given level ("debug", "info", ...).  An
// unknown level falls back to info.  Outside production the stacktrace of
// error-level entries is kept to make local debugging easier.
func New(env, level string) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		lvl.SetLevel(zapcore.InfoLevel)
	}

	enc := zapcore.EncoderConfig{
		MessageKey:    "message",
		TimeKey:       "timestamp",
		LevelKey:      "level",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		EncodeTime:    zapcore.RFC3339TimeEncoder,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}

	cfg := zap.Config{
		Level:             lvl,
		Encoding:          "json",
		EncoderConfig:     enc,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: strings.EqualFold(env, "production"),
		InitialFields:     map[string]any{"service": "admin-api"},
	}
	return cfg.Build()
}

// Printf adapts a zap logger to printf-style callers such as the migrate
// library's Logger interface.
type Printf struct {
	L *zap.SugaredLogger
	V bool
}

func (p Printf) Printf(format string, v ...any) {
	p.L.Infof(strings.TrimRight(format, "\n"), v...)
}

func (p Printf) Verbose() bool { return p.V }
