package telemetry

import (
	"fmt"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/log"
)

// TemporalLogger adapts a zerolog.Logger to the Temporal SDK logger, so the
// client, the worker and workflow.GetLogger all write through zerolog.
type TemporalLogger struct {
	logger zerolog.Logger
}

var (
	_ log.Logger     = (*TemporalLogger)(nil)
	_ log.WithLogger = (*TemporalLogger)(nil)
)

// NewTemporalLogger wraps logger.
func NewTemporalLogger(logger zerolog.Logger) *TemporalLogger {
	return &TemporalLogger{logger: logger}
}

func (l *TemporalLogger) Debug(msg string, keyvals ...interface{}) {
	l.logger.Debug().Fields(keyvalsToFields(keyvals)).Msg(msg)
}

func (l *TemporalLogger) Info(msg string, keyvals ...interface{}) {
	l.logger.Info().Fields(keyvalsToFields(keyvals)).Msg(msg)
}

func (l *TemporalLogger) Warn(msg string, keyvals ...interface{}) {
	l.logger.Warn().Fields(keyvalsToFields(keyvals)).Msg(msg)
}

func (l *TemporalLogger) Error(msg string, keyvals ...interface{}) {
	l.logger.Error().Fields(keyvalsToFields(keyvals)).Msg(msg)
}

// With returns a logger carrying keyvals on every entry.
func (l *TemporalLogger) With(keyvals ...interface{}) log.Logger {
	return &TemporalLogger{logger: l.logger.With().Fields(keyvalsToFields(keyvals)).Logger()}
}

// keyvalsToFields turns alternating key/value pairs into a field map.
// A dangling key is kept with a nil value.
func keyvalsToFields(keyvals []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, (len(keyvals)+1)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		if i+1 < len(keyvals) {
			value := keyvals[i+1]
			if err, isErr := value.(error); isErr {
				value = err.Error()
			}
			fields[key] = value
		} else {
			fields[key] = nil
		}
	}
	return fields
}
