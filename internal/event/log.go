package event

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// LogPublisher writes completions to a logger. Misses are logged as warnings.
type LogPublisher struct {
	logger *zap.Logger
}

var _ Publisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	fields := []zap.Field{
		zap.String("runID", e.RunID.String()),
		zap.Int("task", e.TaskID),
		zap.Int("job", e.JobID),
		zap.Int("completedAt", e.CompletedAt),
		zap.Int("deadline", e.Deadline),
	}

	if e.Missed {
		p.logger.Warn("job missed deadline", fields...)
	} else {
		p.logger.Info("job met deadline", fields...)
	}

	return nil
}

type fanout []Publisher

// Fanout publishes every event to all publishers, collecting their errors.
func Fanout(publishers ...Publisher) Publisher {
	return fanout(publishers)
}

func (f fanout) Publish(ctx context.Context, e Event) error {
	var err error
	for _, p := range f {
		err = multierr.Append(err, p.Publish(ctx, e))
	}
	return err
}
