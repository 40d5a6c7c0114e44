package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ReleaseMode selects the JSON production encoder.
const ReleaseMode = "release"

// NewLogger builds a structured logger. Release mode emits JSON with a
// "timestamp" key; any other mode uses the colored development console encoder.
func NewLogger(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	if mode == ReleaseMode {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg.Build()
}

// WithOperation enriches the logger with operation and request identifiers.
func WithOperation(logger *zap.Logger, operation, requestID string) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	return logger.With(fields...)
}

// WithSubmission adds the submitter and the claimed bin to an operation logger.
func WithSubmission(logger *zap.Logger, userID, binID string) *zap.Logger {
	return logger.With(zap.String("user_id", userID), zap.String("bin_id", binID))
}
