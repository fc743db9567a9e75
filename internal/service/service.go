// Package service runs the analysis pipeline against the configured storage and
// notification backends.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/csvsentry/internal/analysis"
	"github.com/KaramelBytes/csvsentry/internal/metrics"
	"github.com/KaramelBytes/csvsentry/internal/parser"
	"github.com/KaramelBytes/csvsentry/internal/queue"
	"github.com/KaramelBytes/csvsentry/internal/storage"
	"github.com/KaramelBytes/csvsentry/internal/utils"
)

// ResultPrefix is prepended to a file name to form the name of its stored result.
const ResultPrefix = "analysis-result-"

// RetryPolicy bounds retries of storage and queue calls.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetry matches the configuration defaults.
var DefaultRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 4 * time.Second}

// Service wires the analysis core to its collaborators.
type Service struct {
	store   storage.Store
	sender  queue.Sender
	logger  *zap.Logger
	metrics *metrics.Recorder
	opt     analysis.Options
	decode  parser.Options
	retry   RetryPolicy
	now     func() time.Time
	newID   func() string
}

// Option customizes a Service.
type Option func(*Service)

func WithMetrics(m *metrics.Recorder) Option { return func(s *Service) { s.metrics = m } }

func WithAnalysisOptions(o analysis.Options) Option { return func(s *Service) { s.opt = o } }

func WithParserOptions(o parser.Options) Option { return func(s *Service) { s.decode = o } }

func WithRetry(p RetryPolicy) Option { return func(s *Service) { s.retry = p } }

// WithClock overrides time.Now, used for upload names and summary timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New returns a Service. A nil logger discards logs.
func New(store storage.Store, sender queue.Sender, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:  store,
		sender: sender,
		logger: logger.With(zap.String("component", "service")),
		opt:    analysis.DefaultOptions(),
		retry:  DefaultRetry,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// permanent reports errors that retrying cannot fix.
func permanent(err error) bool {
	return errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, utils.ErrInvalidName) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// withRetry runs op with exponential backoff until it succeeds, fails permanently,
// exhausts the attempt budget or ctx ends.
func (s *Service) withRetry(ctx context.Context, what string, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.retry.BaseDelay
	eb.MaxInterval = s.retry.MaxDelay
	eb.MaxElapsedTime = 0
	attempts := s.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)

	notify := func(err error, wait time.Duration) {
		s.logger.Warn("retrying", zap.String("op", what), zap.Error(err), zap.Duration("wait", wait))
	}
	return backoff.RetryNotify(func() error {
		err := op()
		if err != nil && permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, notify)
}
