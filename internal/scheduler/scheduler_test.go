package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chrisdamba/cotraffic/internal/models"
	"github.com/chrisdamba/cotraffic/internal/reading"
)

type scriptedRunner struct {
	mu      sync.Mutex
	results []error
	calls   int
	running bool
	overlap bool
	onRun   func(call int)
}

func (r *scriptedRunner) Run(ctx context.Context) (*reading.Reading, error) {
	r.mu.Lock()
	if r.running {
		r.overlap = true
	}
	r.running = true
	r.calls++
	call := r.calls
	var err error
	if call <= len(r.results) {
		err = r.results[call-1]
	}
	r.mu.Unlock()

	if r.onRun != nil {
		r.onRun(call)
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	if err != nil {
		return &reading.Reading{State: reading.Failed}, err
	}
	return &reading.Reading{ID: fmt.Sprintf("r%d", call), State: reading.Done}, nil
}

type countingCloser struct {
	closes int
	err    error
}

func (c *countingCloser) Close() error {
	c.closes++
	return c.err
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name     string
		runErr   error
		closeErr error
		wantErr  error
	}{
		{name: "success", wantErr: nil},
		{name: "failed reading still closes store", runErr: models.ErrTransport, wantErr: models.ErrTransport},
		{name: "close error is reported", closeErr: models.ErrStore, wantErr: models.ErrStore},
		{name: "reading error wins over close error", runErr: models.ErrParse, closeErr: models.ErrStore, wantErr: models.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &scriptedRunner{results: []error{tt.runErr}}
			store := &countingCloser{err: tt.closeErr}

			err := New(runner, store).RunOnce(context.Background())
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if runner.calls != 1 {
				t.Errorf("expected one run, got %d", runner.calls)
			}
			if store.closes != 1 {
				t.Errorf("expected store to be closed once, got %d", store.closes)
			}
		})
	}
}

func TestRunEveryKeepsGoingAfterFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &scriptedRunner{
		results: []error{models.ErrTransport, models.ErrStore, nil, models.ErrParse},
		onRun: func(call int) {
			if call == 5 {
				cancel()
			}
		},
	}
	store := &countingCloser{}

	if err := New(runner, store).RunEvery(ctx, 5*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.calls != 5 {
		t.Errorf("expected 5 runs, got %d", runner.calls)
	}
	if runner.overlap {
		t.Error("runs overlapped")
	}
	if store.closes != 1 {
		t.Errorf("expected store to be closed once, got %d", store.closes)
	}
}

func TestRunEveryWaitsBetweenRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var starts []time.Time
	runner := &scriptedRunner{
		onRun: func(call int) {
			starts = append(starts, time.Now())
			if call == 3 {
				cancel()
			}
		},
	}

	interval := 20 * time.Millisecond
	if err := New(runner, nil).RunEvery(ctx, interval); err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < interval {
			t.Errorf("run %d started %v after the previous one, want at least %v", i+1, gap, interval)
		}
	}
}

func TestRunEveryStopsDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &scriptedRunner{onRun: func(int) { cancel() }}
	store := &countingCloser{}

	done := make(chan error, 1)
	go func() { done <- New(runner, store).RunEvery(ctx, time.Hour) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	if runner.calls != 1 || store.closes != 1 {
		t.Errorf("expected one run and one close, got %d runs and %d closes", runner.calls, store.closes)
	}
}

func TestRunEveryRejectsNonPositiveInterval(t *testing.T) {
	if err := New(&scriptedRunner{}, nil).RunEvery(context.Background(), 0); err == nil {
		t.Error("expected error for zero interval")
	}
}
