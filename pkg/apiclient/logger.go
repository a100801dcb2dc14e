package apiclient

import "github.com/arcadia-forum/arcadia-client/internal/logger"

// Logger receives request failures and token lookup warnings.
type Logger = logger.Logger

type noopLogger = logger.NopLogger

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
