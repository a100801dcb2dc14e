package publishers

import "github.com/arcadia-forum/arcadia-client/internal/logger"

// Logger is the structured logging surface publishers report through.
type Logger = logger.Logger

type noopLogger = logger.NopLogger

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
