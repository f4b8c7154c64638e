// Package monitoring - capture_logger.go logs capture lifecycle events.
//
// DESIGN: Structured logging for capture tracing at DEBUG level:
//   - LogCaptured:     Record appended to history
//   - LogParseFailure: Payload could not be parsed (capture degraded)
//   - LogCleared:      History cleared by the caller
package monitoring

// CaptureLogger logs capture lifecycle events.
type CaptureLogger struct {
	logger *Logger
}

// NewCaptureLogger creates a new capture logger.
func NewCaptureLogger(logger *Logger) *CaptureLogger {
	if logger == nil {
		logger = Nop()
	}
	return &CaptureLogger{logger: logger}
}

// CapturedInfo contains information about a captured request.
type CapturedInfo struct {
	RecordID string
	Method   string
	Endpoint string
	Model    string
	BodySize int
}

// LogCaptured logs a captured request.
func (cl *CaptureLogger) LogCaptured(info *CapturedInfo) {
	event := cl.logger.Debug().
		Str("record_id", info.RecordID).
		Str("method", info.Method).
		Str("endpoint", info.Endpoint).
		Int("body_size", info.BodySize)
	if info.Model != "" {
		event = event.Str("model", info.Model)
	}
	event.Msg("captured")
}

// LogParseFailure logs a payload that could not be parsed. The record is
// still appended with an empty body.
func (cl *CaptureLogger) LogParseFailure(recordID, endpoint string, bodySize int) {
	cl.logger.Debug().
		Str("record_id", recordID).
		Str("endpoint", endpoint).
		Int("body_size", bodySize).
		Msg("body_parse_failed")
}

// LogCleared logs a history clear.
func (cl *CaptureLogger) LogCleared(dropped int) {
	cl.logger.Debug().
		Int("dropped", dropped).
		Msg("history_cleared")
}
