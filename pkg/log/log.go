package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the app wide logger. cmd swaps the level via SetDebug.
var Logger *zap.SugaredLogger

var level zap.AtomicLevel

func init() {
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	Logger = l.Sugar()
}

func SetDebug(on bool) {
	if on {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}

func Infof(s string, args ...any) {
	Logger.Infow(s, args...)
}

func Errorf(s string, args ...any) {
	Logger.Errorw(s, args...)
}

func Debugf(s string, args ...any) {
	Logger.Debugw(s, args...)
}

func Warnf(s string, args ...any) {
	Logger.Warnw(s, args...)
}

func Fatalf(s string, args ...any) {
	Logger.Fatalw(s, args...)
}
