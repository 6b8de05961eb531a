package notify

import (
	"log/slog"

	"github.com/roach88/cliptrack/internal/timeline"
)

// LogHandler writes log notifications to a slog.Logger at start and end.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler. A nil logger means slog.Default().
func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

func (h *LogHandler) Kind() string { return timeline.KindLog }

func (h *LogHandler) log() *slog.Logger {
	if h.logger == nil {
		return slog.Default()
	}
	return h.logger
}

func (h *LogHandler) OnStart(owner any, n timeline.Notification) {
	if l, ok := n.(*timeline.LogNotify); ok {
		h.log().Info("clip start", "owner", OwnerName(owner), "message", l.Message)
	}
}

func (h *LogHandler) OnUpdate(owner any, n timeline.Notification, progress float64) {}

func (h *LogHandler) OnEnd(owner any, n timeline.Notification) {
	if l, ok := n.(*timeline.LogNotify); ok {
		h.log().Info("clip end", "owner", OwnerName(owner), "message", l.Message)
	}
}
