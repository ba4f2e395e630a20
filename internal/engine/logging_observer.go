package engine

import (
	"log/slog"

	"github.com/leengari/atomdb/internal/domain/errors"
)

// LoggingObserver is a simple observer that logs all events using structured logging
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a new logging observer. A nil logger uses slog.Default.
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnEvent implements the Observer interface
// It logs each event with structured fields for easy filtering and analysis
func (lo *LoggingObserver) OnEvent(event Event) {
	attrs := []any{
		"event", event.Type,
		"tx_id", event.TxID,
		"command", event.Command,
	}
	if event.Duration > 0 {
		attrs = append(attrs, "duration", event.Duration)
	}
	if event.Data != nil {
		attrs = append(attrs, "data", event.Data)
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err, "code", errors.Code(event.Err))
	}
	lo.logger.Debug("query_lifecycle", attrs...)
}
