package logging

import (
	"log/slog"
)

// NewNopLogger returns a logger that drops every record.
// GetLogger hands it out until Configure has set an output.
func NewNopLogger() Logger {
	return slog.New(slog.DiscardHandler)
}
