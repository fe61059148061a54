package engine

import (
	"context"
	"io"
	"log/slog"
)

type logTransitionObserver struct {
	logger *slog.Logger
}

// NewLogTransitionObserver writes phase transitions to the provided writer
// as structured log lines. Returns a no-op observer for a nil writer.
func NewLogTransitionObserver(w io.Writer) TransitionObserver {
	if w == nil {
		return ObserverFunc(func(context.Context, Transition) {})
	}
	return &logTransitionObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *logTransitionObserver) ObserveTransition(ctx context.Context, tr Transition) {
	o.logger.InfoContext(ctx, "phase_transition",
		"project_id", tr.ProjectID,
		"from", string(tr.From),
		"to", string(tr.To),
		"progress", tr.Progress,
	)
}
