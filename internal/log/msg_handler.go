// Package log provides a slog handler for plain progress output.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// MsgHandler just prints the values and looks like fmt.Println.
// Records of other levels than the configured one are dropped.
type MsgHandler struct {
	mu     *sync.Mutex
	writer io.Writer
	level  slog.Level
	attrs  []slog.Attr
}

func NewMsgHandler(writer io.Writer, level slog.Level) *MsgHandler {
	return &MsgHandler{mu: &sync.Mutex{}, writer: writer, level: level}
}

func (h *MsgHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level == h.level
}

// Handle writes a whole line at once because tones are encoded concurrently.
func (h *MsgHandler) Handle(_ context.Context, record slog.Record) error {
	line := []byte(record.Message)
	for _, a := range h.attrs {
		line = fmt.Appendf(line, " %v", a.Value)
	}
	record.Attrs(func(a slog.Attr) bool {
		line = fmt.Appendf(line, " %v", a.Value)
		return true
	})
	line = append(line, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(line)
	return err
}

func (h *MsgHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = append(h2.attrs[:len(h2.attrs):len(h2.attrs)], attrs...)
	return &h2
}

func (h *MsgHandler) WithGroup(_ string) slog.Handler {
	return h
}
