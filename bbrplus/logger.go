package bbrplus

import "go.uber.org/zap"

// Logger receives one structured event per mode transition, LT latch, and
// PROBE_RTT cycle. The model itself performs no I/O; a Logger is purely an
// optional diagnostic tap a Controller is handed at construction time.
type Logger interface {
	Event(name string, fields ...Field)
}

// Field is a key/value pair attached to a Logger event. It is a thin
// value type so callers outside this package never need to import zap
// directly to use a Controller.
type Field struct {
	Key   string
	Value any
}

func F(key string, value any) Field { return Field{Key: key, Value: value} }

// noopLogger is used when a Controller is constructed without a Logger.
type noopLogger struct{}

func (noopLogger) Event(string, ...Field) {}

// ZapLogger adapts a *zap.Logger to the Logger interface, logging every
// model event at Info level under a fixed "bbrplus" logger name.
type ZapLogger struct {
	log *zap.Logger
}

func NewZapLogger(log *zap.Logger) *ZapLogger {
	return &ZapLogger{log: log.Named("bbrplus")}
}

func (z *ZapLogger) Event(name string, fields ...Field) {
	zf := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		zf = append(zf, zap.Any(f.Key, f.Value))
	}
	z.log.Info(name, zf...)
}
