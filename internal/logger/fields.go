package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldProvider   = "ai_provider"
	FieldModel      = "ai_model"
	FieldCapability = "ai_capability"
)

// Call identifies one generative capability call in log entries.
type Call struct {
	Provider   string
	Model      string
	Capability string
}

// Fields returns the call's fields, trimmed. Empty values are left out to keep entries compact.
func (c Call) Fields() []zap.Field {
	pairs := [...][2]string{
		{FieldProvider, c.Provider},
		{FieldModel, c.Model},
		{FieldCapability, c.Capability},
	}

	fields := make([]zap.Field, 0, len(pairs))
	for _, p := range pairs {
		if v := strings.TrimSpace(p[1]); v != "" {
			fields = append(fields, zap.String(p[0], v))
		}
	}
	return fields
}

// With attaches the call's fields to logger.
func (c Call) With(logger *zap.Logger) *zap.Logger {
	return WithFields(logger, c.Fields()...)
}

// WithFields attaches fields to logger, falling back to a no-op logger when it is nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
