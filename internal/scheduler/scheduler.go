// Package scheduler runs the reading pipeline once or on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/chrisdamba/cotraffic/internal/logging"
	"github.com/chrisdamba/cotraffic/internal/reading"
	"github.com/schollz/progressbar/v3"
)

type Runner interface {
	Run(ctx context.Context) (*reading.Reading, error)
}

type Scheduler struct {
	runner   Runner
	store    io.Closer
	logger   *slog.Logger
	progress io.Writer
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithProgress draws a countdown to the next reading on w.
func WithProgress(w io.Writer) Option {
	return func(s *Scheduler) { s.progress = w }
}

// New returns a scheduler for runner. store is closed when the scheduler is
// done with it.
func New(runner Runner, store io.Closer, opts ...Option) *Scheduler {
	s := &Scheduler{runner: runner, store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	return s
}

// RunOnce takes a single reading and releases the store whatever the outcome.
func (s *Scheduler) RunOnce(ctx context.Context) (err error) {
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = s.runner.Run(ctx)
	return err
}

// RunEvery takes a reading, waits interval and repeats until ctx is done.
// Failed readings are logged and the next one is still scheduled; the wait
// only starts once the previous reading has finished.
func (s *Scheduler) RunEvery(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("interval must be positive")
	}
	defer func() {
		if err := s.close(); err != nil {
			s.logger.Error("failed to close store", "error", err)
		}
	}()

	s.logger.Info("scheduling readings", "interval", interval)
	for runs := 1; ; runs++ {
		if r, err := s.runner.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("scheduled reading failed", "run", runs, "error", err)
		} else {
			s.logger.Debug("scheduled reading done", "run", runs, "reading", r.ID)
		}

		if !s.wait(ctx, interval) {
			s.logger.Info("stopping scheduled readings", "runs", runs)
			return nil
		}
	}
}

// wait blocks for d and reports false if ctx ended first.
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	var tick <-chan time.Time
	var bar *progressbar.ProgressBar
	if s.progress != nil && d >= time.Second {
		bar = progressbar.NewOptions64(int64(d/time.Second),
			progressbar.OptionSetWriter(s.progress),
			progressbar.OptionSetDescription("next reading"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			if bar != nil {
				_ = bar.Finish()
			}
			return true
		case <-tick:
			_ = bar.Add(1)
		}
	}
}

func (s *Scheduler) close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
