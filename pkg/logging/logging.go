package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the JSON production logger every service uses, tagged with the
// service name.
func New(service, level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", service)), nil
}

// Fields are the correlation keys shared by storefront log lines. Empty
// values are dropped.
type Fields struct {
	SessionID  string
	OrderID    string
	EventID    string
	Step       string
	Status     string
	DurationMS int64
}

func (f Fields) Zap() []zap.Field {
	var out []zap.Field
	add := func(key, v string) {
		if v != "" {
			out = append(out, zap.String(key, v))
		}
	}
	add("session_id", f.SessionID)
	add("order_id", f.OrderID)
	add("event_id", f.EventID)
	add("step", f.Step)
	add("status", f.Status)
	if f.DurationMS > 0 {
		out = append(out, zap.Int64("duration_ms", f.DurationMS))
	}
	return out
}

func Log(logger *zap.Logger, msg string, f Fields) {
	logger.Info(msg, f.Zap()...)
}
