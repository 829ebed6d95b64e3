package roleguard

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/roleguard/roleguard/core"
)

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core for consistent logging across the stack.
// Arguments after the message are alternating keys and values.
type Logger = core.Logger

// NewDefaultLogger returns a Logger writing through the standard logrus logger.
func NewDefaultLogger() Logger {
	return NewLogrusLogger(logrus.StandardLogger())
}

// NewLogrusLogger returns a Logger adapter for logrus.FieldLogger.
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	return &logrusLoggerAdapter{l}
}

type logrusLoggerAdapter struct{ l logrus.FieldLogger }

func (a *logrusLoggerAdapter) Debug(msg string, args ...any) { a.l.WithFields(fields(args)).Debug(msg) }
func (a *logrusLoggerAdapter) Info(msg string, args ...any)  { a.l.WithFields(fields(args)).Info(msg) }
func (a *logrusLoggerAdapter) Warn(msg string, args ...any)  { a.l.WithFields(fields(args)).Warn(msg) }
func (a *logrusLoggerAdapter) Error(msg string, args ...any) { a.l.WithFields(fields(args)).Error(msg) }

// NewZapLogger returns a Logger adapter for zap.Logger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLoggerAdapter{l.Sugar()}
}

type zapLoggerAdapter struct{ l *zap.SugaredLogger }

func (z *zapLoggerAdapter) Debug(msg string, args ...any) { z.l.Debugw(msg, args...) }
func (z *zapLoggerAdapter) Info(msg string, args ...any)  { z.l.Infow(msg, args...) }
func (z *zapLoggerAdapter) Warn(msg string, args ...any)  { z.l.Warnw(msg, args...) }
func (z *zapLoggerAdapter) Error(msg string, args ...any) { z.l.Errorw(msg, args...) }

// NewZerologLogger returns a Logger adapter for zerolog.Logger.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLoggerAdapter{l}
}

type zerologLoggerAdapter struct{ l zerolog.Logger }

func (z *zerologLoggerAdapter) Debug(msg string, args ...any) {
	z.l.Debug().Fields(fields(args)).Msg(msg)
}
func (z *zerologLoggerAdapter) Info(msg string, args ...any) {
	z.l.Info().Fields(fields(args)).Msg(msg)
}
func (z *zerologLoggerAdapter) Warn(msg string, args ...any) {
	z.l.Warn().Fields(fields(args)).Msg(msg)
}
func (z *zerologLoggerAdapter) Error(msg string, args ...any) {
	z.l.Error().Fields(fields(args)).Msg(msg)
}

// fields turns alternating key/value arguments into a field map. A trailing
// key without a value is recorded under "!BADKEY", as log/slog does.
func fields(args []any) map[string]any {
	out := make(map[string]any, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		value := args[i+1]
		if err, isErr := value.(error); isErr {
			value = err.Error()
		}
		out[key] = value
	}
	return out
}
