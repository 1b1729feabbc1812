package app

import "log/slog"

// ResolveLogger guarantees a non-nil logger for engine and service code paths.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
