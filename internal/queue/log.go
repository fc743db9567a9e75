package queue

import (
	"context"

	"go.uber.org/zap"
)

// Log writes messages to the logger instead of a broker. Used for local runs.
type Log struct {
	logger *zap.Logger
	queue  string
}

func NewLog(logger *zap.Logger, queue string) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger.With(zap.String("component", "queue")), queue: queue}
}

func (l *Log) Send(_ context.Context, message string) error {
	l.logger.Info("notification", zap.String("queue", l.queue), zap.String("message", message))
	return nil
}
