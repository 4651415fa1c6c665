package telemetry

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	otellog "go.opentelemetry.io/otel/log"
)

// OtelHook forwards logrus entries to an otel logger.
type OtelHook struct {
	logger otellog.Logger
	levels []log.Level
}

func NewOtelHook(logger otellog.Logger) *OtelHook {
	return &OtelHook{
		logger: logger,
		levels: []log.Level{
			log.PanicLevel, log.FatalLevel, log.ErrorLevel, log.WarnLevel, log.InfoLevel,
		},
	}
}

func (h *OtelHook) Levels() []log.Level {
	return h.levels
}

func (h *OtelHook) Fire(entry *log.Entry) error {
	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var record otellog.Record
	record.SetTimestamp(entry.Time)
	record.SetBody(otellog.StringValue(entry.Message))
	record.SetSeverity(severity(entry.Level))
	record.SetSeverityText(entry.Level.String())
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			record.AddAttributes(otellog.String(k, err.Error()))
			continue
		}
		record.AddAttributes(otellog.String(k, fmt.Sprintf("%v", v)))
	}

	h.logger.Emit(ctx, record)
	return nil
}

func severity(level log.Level) otellog.Severity {
	switch level {
	case log.PanicLevel, log.FatalLevel:
		return otellog.SeverityFatal
	case log.ErrorLevel:
		return otellog.SeverityError
	case log.WarnLevel:
		return otellog.SeverityWarn
	case log.InfoLevel:
		return otellog.SeverityInfo
	case log.DebugLevel:
		return otellog.SeverityDebug
	default:
		return otellog.SeverityTrace
	}
}
