package config

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel mirrors the teacher's five-level scheme, mapped onto zap's core
// levels (zap has no distinct trace level, so TraceLevel maps to zap's
// DebugLevel and is gated separately in LogGroup).
type LogLevel int

const (
	ErrLevel LogLevel = iota + 1
	WarnLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case ErrLevel:
		return zapcore.ErrorLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case InfoLevel:
		return zapcore.InfoLevel
	default: // DebugLevel, TraceLevel
		return zapcore.DebugLevel
	}
}

func parseLogLevel(s string) LogLevel {
	switch s {
	case "error":
		return ErrLevel
	case "warn":
		return WarnLevel
	case "debug":
		return DebugLevel
	case "trace":
		return TraceLevel
	default:
		return InfoLevel
	}
}

// LogGroup wraps a zap.SugaredLogger with the level-named methods the rest
// of this module calls, so every package logs through one shared entry
// point instead of reaching for zap directly.
type LogGroup struct {
	level  LogLevel
	base   *zap.Logger
	atom   zap.AtomicLevel
	logger *zap.SugaredLogger
}

// NewLogGroup builds a LogGroup at c.LogLevel that encodes structured JSON
// lines and discards them until SetAllOutput points it at a writer.
func NewLogGroup(c *AnalysisConfig) *LogGroup {
	level := parseLogLevel(c.LogLevel)
	atom := zap.NewAtomicLevelAt(level.zapLevel())
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(zapcore.AddSync(io.Discard)), atom)
	base := zap.New(core)
	l := &LogGroup{level: level, base: base, atom: atom}
	l.logger = base.Sugar()
	return l
}

// SetAllOutput redirects every level's output to w.
func (l *LogGroup) SetAllOutput(w io.Writer) {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(w), l.atom)
	l.base = zap.New(core)
	l.logger = l.base.Sugar()
}

// Tracef logs at trace level (gated in addition to zap's own level check,
// since zap has no native trace level).
func (l *LogGroup) Tracef(format string, v ...any) {
	if l.level >= TraceLevel {
		l.logger.Debugf(format, v...)
	}
}

// Debugf logs at debug level.
func (l *LogGroup) Debugf(format string, v ...any) { l.logger.Debugf(format, v...) }

// Infof logs at info level.
func (l *LogGroup) Infof(format string, v ...any) { l.logger.Infof(format, v...) }

// Warnf logs at warn level.
func (l *LogGroup) Warnf(format string, v ...any) { l.logger.Warnf(format, v...) }

// Errorf logs at error level.
func (l *LogGroup) Errorf(format string, v ...any) { l.logger.Errorf(format, v...) }

// Sugar exposes the underlying *zap.SugaredLogger for callers (e.g. worker
// pools) that want structured fields rather than a Printf-style call.
func (l *LogGroup) Sugar() *zap.SugaredLogger { return l.logger }

// Sync flushes any buffered log entries; call before process exit.
func (l *LogGroup) Sync() error { return l.base.Sync() }
