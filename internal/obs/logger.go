// Package obs holds diagnostic logging, kept deliberately separate from
// the human-facing results output in internal/results: this is for
// "what did the engine do internally" (config resolution, hashing,
// git subprocess calls), never the check pass/fail output itself. Debug
// lines appear only under -v/--verbose; info, warn, and error lines are
// always written to stderr.
package obs

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field aliases the zap constructors callers use to build structured log lines.
type Field = zap.Field

var (
	String   = zap.String
	Int      = zap.Int
	Duration = zap.Duration
	Err      = zap.Error
)

// Logger wraps a zap.Logger writing to stderr so it never interleaves
// with check output on stdout.
type Logger struct {
	zap *zap.Logger
}

// New builds a Logger at debugLevel when verbose is true, info otherwise.
func New(verbose bool) *Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderCfg.TimeKey = ""

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		level,
	)
	return &Logger{zap: zap.New(core)}
}

// Nop returns a Logger that discards everything, used by tests and by
// code paths that never received a configured Logger.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.zap.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.zap.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.zap.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.zap.Error(msg, fields...) }

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}
