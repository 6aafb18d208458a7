package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldSchoolID is the structured log field key for a school identifier.
	FieldSchoolID = "school_id"
	// FieldSchoolName is the structured log field key for a school display name.
	FieldSchoolName = "school_name"
	// FieldSchoolState is the structured log field key for the school state.
	FieldSchoolState = "school_state"
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// SchoolFields describes a school in log entries. Empty values are skipped.
func SchoolFields(id, name, state string) []zap.Field {
	return StringFields(
		StringField{Key: FieldSchoolID, Value: id},
		StringField{Key: FieldSchoolName, Value: name},
		StringField{Key: FieldSchoolState, Value: state},
	)
}

// ProviderFields describes the AI provider and model.
func ProviderFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
