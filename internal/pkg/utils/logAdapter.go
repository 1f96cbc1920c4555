package utils

import (
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/rs/zerolog"
	"github.com/vgarvardt/gue/v5/adapter"
)

// GueLogAdapter writes gue logs to the app zerolog logger
type GueLogAdapter struct {
	log zerolog.Logger
}

// NewGueLoggerAdapter creates adapter, gue debug messages are logged on trace level
func NewGueLoggerAdapter() *GueLogAdapter {
	return &GueLogAdapter{log: goapp.Log.With().Str("component", "gue").Logger()}
}

// Debug implements adapter.Logger
func (l *GueLogAdapter) Debug(msg string, fields ...adapter.Field) {
	withFields(l.log.Trace(), fields).Msg(msg)
}

// Info implements adapter.Logger
func (l *GueLogAdapter) Info(msg string, fields ...adapter.Field) {
	withFields(l.log.Debug(), fields).Msg(msg)
}

// Error implements adapter.Logger
func (l *GueLogAdapter) Error(msg string, fields ...adapter.Field) {
	withFields(l.log.Error(), fields).Msg(msg)
}

// With implements adapter.Logger
func (l *GueLogAdapter) With(fields ...adapter.Field) adapter.Logger {
	c := l.log.With()
	for _, f := range fields {
		c = c.Interface(f.Key, f.Value)
	}
	return &GueLogAdapter{log: c.Logger()}
}

func withFields(le *zerolog.Event, fields []adapter.Field) *zerolog.Event {
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			le = le.AnErr(f.Key, err)
			continue
		}
		le = le.Interface(f.Key, f.Value)
	}
	return le
}
