package observability

import "log/slog"

// DiscardLogger returns a logger that drops every record. Intended for tests.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
