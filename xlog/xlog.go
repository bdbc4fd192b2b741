package xlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	ZapLogger = zap.NewNop()
	Logger    = ZapLogger.Sugar()

	initialized bool
)

// InitLog replaces the default no-op logger. It may only be called once.
func InitLog(outputPath []string, level zapcore.Level) {
	if initialized {
		panic("InitLog called somewhere")
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = outputPath
	cfg.Level.SetLevel(level)

	l, err := cfg.Build()
	if err != nil {
		panic(err.Error())
	}
	ZapLogger = l
	Logger = l.Sugar()
	initialized = true
}

// Sync flushes buffered log entries.
func Sync() {
	ZapLogger.Sync()
}
