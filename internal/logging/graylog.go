package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogWriter connects a UDP GELF writer to address (host:port).
func NewGraylogWriter(address string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to graylog at %s: %w", address, err)
	}
	w.Facility = ServiceName
	return w, nil
}

// NewGraylogHandler writes one JSON record per message to w. The GELF
// writer turns each write into a message whose short text is the record.
func NewGraylogHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}
